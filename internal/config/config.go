package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	Port         string
	LogLevel     string
	Debug        bool
	AllowedHosts []string
	MediaRoot    string
	DatabaseURL  string
	TokenTTL     time.Duration
}

// Load loads configuration from environment variables. Database settings
// follow the deployment manifest: either a full DATABASE_URL or the
// POSTGRES_USER / POSTGRES_PASSWORD / POSTGRES_DB / DB_HOST / DB_PORT
// variable set.
func Load() (*Config, error) {
	cfg := &Config{
		Port:      getEnvOrDefault("PORT", "8000"),
		LogLevel:  getEnvOrDefault("LOG_LEVEL", "info"),
		MediaRoot: getEnvOrDefault("MEDIA_ROOT", "media"),
	}

	cfg.Debug, _ = strconv.ParseBool(getEnvOrDefault("DEBUG", "false"))

	for _, host := range strings.Split(getEnvOrDefault("ALLOWED_HOSTS", "*"), ",") {
		if host = strings.TrimSpace(host); host != "" {
			cfg.AllowedHosts = append(cfg.AllowedHosts, host)
		}
	}

	ttl, err := time.ParseDuration(getEnvOrDefault("AUTH_TOKEN_TTL", "720h"))
	if err != nil {
		return nil, fmt.Errorf("invalid AUTH_TOKEN_TTL: %w", err)
	}
	cfg.TokenTTL = ttl

	if cfg.DatabaseURL = os.Getenv("DATABASE_URL"); cfg.DatabaseURL == "" {
		url, err := databaseURLFromParts()
		if err != nil {
			return nil, err
		}
		cfg.DatabaseURL = url
	}

	return cfg, nil
}

func databaseURLFromParts() (string, error) {
	user := os.Getenv("POSTGRES_USER")
	if user == "" {
		return "", fmt.Errorf("POSTGRES_USER environment variable is required")
	}
	password := os.Getenv("POSTGRES_PASSWORD")
	if password == "" {
		return "", fmt.Errorf("POSTGRES_PASSWORD environment variable is required")
	}
	name := os.Getenv("POSTGRES_DB")
	if name == "" {
		return "", fmt.Errorf("POSTGRES_DB environment variable is required")
	}

	host := getEnvOrDefault("DB_HOST", "db")
	port := getEnvOrDefault("DB_PORT", "5432")

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		user, password, host, port, name), nil
}

// getEnvOrDefault returns environment variable value or default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
