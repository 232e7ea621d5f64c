package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"foodgram/internal/config"
	"foodgram/internal/models"
	"foodgram/internal/repository"
	"foodgram/internal/repository/postgres"
	"foodgram/pkg/logger"
)

// loadfixtures seeds the ingredient dictionary and tag list from JSON
// files. Records that already exist are skipped, so the command is safe
// to run repeatedly.

type ingredientFixture struct {
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

type tagFixture struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func main() {
	ingredientsPath := flag.String("ingredients", "", "path to ingredients JSON file")
	tagsPath := flag.String("tags", "", "path to tags JSON file")
	flag.Parse()

	if *ingredientsPath == "" && *tagsPath == "" {
		log.Fatal("Nothing to do: pass -ingredients and/or -tags")
	}

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	l := logger.New(cfg.LogLevel, cfg.Debug)

	db, err := config.NewDatabase(cfg.DatabaseURL, l)
	if err != nil {
		l.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Migrate("migrations"); err != nil {
		l.Fatalf("Failed to run migrations: %v", err)
	}

	ctx := context.Background()
	var result *multierror.Error

	if *ingredientsPath != "" {
		if err := loadIngredients(ctx, l, postgres.NewIngredientRepository(db.DB), *ingredientsPath); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if *tagsPath != "" {
		if err := loadTags(ctx, l, postgres.NewTagRepository(db.DB), *tagsPath); err != nil {
			result = multierror.Append(result, err)
		}
	}

	if err := result.ErrorOrNil(); err != nil {
		l.Fatalf("Fixture loading finished with errors: %v", err)
	}
	l.Info("Fixtures loaded")
}

func loadIngredients(ctx context.Context, l *logrus.Logger, repo repository.IngredientRepository, path string) error {
	var fixtures []ingredientFixture
	if err := readFixtures(path, &fixtures); err != nil {
		return err
	}

	var result *multierror.Error
	created, skipped := 0, 0
	for _, f := range fixtures {
		_, err := repo.Create(ctx, &models.Ingredient{Name: f.Name, MeasurementUnit: f.MeasurementUnit})
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			skipped++
		case err != nil:
			result = multierror.Append(result, fmt.Errorf("ingredient %q: %w", f.Name, err))
		default:
			created++
		}
	}

	l.WithFields(logrus.Fields{"created": created, "skipped": skipped}).Info("Ingredients loaded")
	return result.ErrorOrNil()
}

func loadTags(ctx context.Context, l *logrus.Logger, repo repository.TagRepository, path string) error {
	var fixtures []tagFixture
	if err := readFixtures(path, &fixtures); err != nil {
		return err
	}

	var result *multierror.Error
	created, skipped := 0, 0
	for _, f := range fixtures {
		_, err := repo.Create(ctx, &models.Tag{Name: f.Name, Slug: f.Slug})
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			skipped++
		case err != nil:
			result = multierror.Append(result, fmt.Errorf("tag %q: %w", f.Slug, err))
		default:
			created++
		}
	}

	l.WithFields(logrus.Fields{"created": created, "skipped": skipped}).Info("Tags loaded")
	return result.ErrorOrNil()
}

func readFixtures(path string, dst any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read fixture file: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}
