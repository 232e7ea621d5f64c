package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"foodgram/internal/models"
	"foodgram/internal/repository"
	"foodgram/internal/storage"
)

// Sentinel errors the HTTP layer maps onto response statuses.
var (
	ErrNotFound           = errors.New("not found")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrValidation         = errors.New("validation failed")
	ErrSelfFollow         = errors.New("cannot subscribe to yourself")
	ErrEmptySelection     = errors.New("shopping cart is empty")
)

const minPasswordLength = 8

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

// Usernames that would shadow API routes.
var prohibitedUsernames = map[string]bool{"me": true}

// Service is the central business logic layer that holds all repositories
// and provides high-level methods for the application.
type Service struct {
	logger   *logrus.Logger
	media    *storage.MediaStore
	tokenTTL time.Duration

	Users       repository.UserRepository
	Tokens      repository.TokenRepository
	Tags        repository.TagRepository
	Ingredients repository.IngredientRepository
	Recipes     repository.RecipeRepository
	Follows     repository.FollowRepository
}

// New creates a new Service with all required dependencies.
func New(logger *logrus.Logger, media *storage.MediaStore, tokenTTL time.Duration,
	users repository.UserRepository,
	tokens repository.TokenRepository,
	tags repository.TagRepository,
	ingredients repository.IngredientRepository,
	recipes repository.RecipeRepository,
	follows repository.FollowRepository,
) *Service {
	return &Service{
		logger: logger, media: media, tokenTTL: tokenTTL,
		Users: users, Tokens: tokens, Tags: tags,
		Ingredients: ingredients, Recipes: recipes, Follows: follows,
	}
}

func validationErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// RegisterInput carries the fields of a registration request.
type RegisterInput struct {
	Email     string
	Username  string
	FirstName string
	LastName  string
	Password  string
}

// Register creates a new user account with a bcrypt password hash.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	input.Email = strings.TrimSpace(input.Email)
	input.Username = strings.TrimSpace(input.Username)
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)

	switch {
	case input.Email == "" || !strings.Contains(input.Email, "@"):
		return nil, validationErr("a valid email is required")
	case input.Username == "":
		return nil, validationErr("username is required")
	case prohibitedUsernames[strings.ToLower(input.Username)]:
		return nil, validationErr("%q is not an allowed username", input.Username)
	case !usernamePattern.MatchString(input.Username):
		return nil, validationErr("username may contain only letters, digits and @/./+/-/_")
	case input.FirstName == "":
		return nil, validationErr("first_name is required")
	case input.LastName == "":
		return nil, validationErr("last_name is required")
	case len(input.Password) < minPasswordLength:
		return nil, validationErr("password must be at least %d characters", minPasswordLength)
	}

	if existing, err := s.Users.GetByEmail(ctx, input.Email); err != nil {
		return nil, fmt.Errorf("failed to lookup user by email: %w", err)
	} else if existing != nil {
		return nil, validationErr("a user with this email already exists")
	}
	if existing, err := s.Users.GetByUsername(ctx, input.Username); err != nil {
		return nil, fmt.Errorf("failed to lookup user by username: %w", err)
	} else if existing != nil {
		return nil, validationErr("a user with this username already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        input.Email,
		Username:     input.Username,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		PasswordHash: string(hash),
	}

	user, err = s.Users.Create(ctx, user)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, validationErr("a user with this email or username already exists")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Infof("Registered new user %q (id=%d)", user.Username, user.ID)
	return user, nil
}

// Login verifies the credentials and issues a fresh auth token.
func (s *Service) Login(ctx context.Context, email, password string) (*models.AuthToken, error) {
	user, err := s.Users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, fmt.Errorf("failed to lookup user: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := time.Now()
	token := &models.AuthToken{
		Key:       newTokenKey(),
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.tokenTTL),
	}

	if err := s.Tokens.Create(ctx, token); err != nil {
		return nil, fmt.Errorf("failed to store auth token: %w", err)
	}

	s.logger.Infof("User %q logged in", user.Username)
	return token, nil
}

// Logout revokes the given token. Unknown tokens count as invalid
// credentials, not server faults.
func (s *Service) Logout(ctx context.Context, key string) error {
	if err := s.Tokens.Delete(ctx, key); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidCredentials
		}
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// UserByToken resolves a token key to its owner. Expired or unknown
// tokens yield ErrInvalidCredentials.
func (s *Service) UserByToken(ctx context.Context, key string) (*models.User, error) {
	token, err := s.Tokens.GetByKey(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to lookup token: %w", err)
	}
	if token == nil || token.Expired(time.Now()) {
		return nil, ErrInvalidCredentials
	}

	user, err := s.Users.GetByID(ctx, token.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to lookup token owner: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// SetPassword changes the user's password after verifying the current one.
func (s *Service) SetPassword(ctx context.Context, user *models.User, current, next string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
		return validationErr("current password is incorrect")
	}
	if len(next) < minPasswordLength {
		return validationErr("password must be at least %d characters", minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user.PasswordHash = string(hash)
	if _, err := s.Users.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return nil
}

// SetAvatar stores a base64 image payload as the user's avatar, replacing
// any previous one.
func (s *Service) SetAvatar(ctx context.Context, user *models.User, payload string) error {
	if payload == "" {
		return validationErr("avatar payload is required")
	}

	path, err := s.media.SaveBase64("users", payload)
	if err != nil {
		return validationErr("%v", err)
	}

	old := user.Avatar
	user.Avatar = path
	if _, err := s.Users.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to update avatar: %w", err)
	}

	if old != "" {
		if err := s.media.Remove(old); err != nil {
			s.logger.WithError(err).Warn("failed to remove previous avatar")
		}
	}

	return nil
}

// DeleteAvatar removes the user's avatar. A user without one gets
// ErrNotFound.
func (s *Service) DeleteAvatar(ctx context.Context, user *models.User) error {
	if user.Avatar == "" {
		return ErrNotFound
	}

	old := user.Avatar
	user.Avatar = ""
	if _, err := s.Users.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to clear avatar: %w", err)
	}

	if err := s.media.Remove(old); err != nil {
		s.logger.WithError(err).Warn("failed to remove avatar file")
	}

	return nil
}

// GetUser returns the user with subscription state relative to the viewer.
func (s *Service) GetUser(ctx context.Context, id, viewerID int64) (*models.User, error) {
	user, err := s.Users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrNotFound
	}

	if viewerID != 0 && viewerID != user.ID {
		subscribed, err := s.Follows.Exists(ctx, viewerID, user.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check subscription: %w", err)
		}
		user.IsSubscribed = subscribed
	}

	return user, nil
}

// ListUsers returns a page of users with subscription flags for the viewer.
func (s *Service) ListUsers(ctx context.Context, limit, offset int, viewerID int64) ([]*models.User, int, error) {
	users, total, err := s.Users.List(ctx, repository.UserFilters{Limit: limit, Offset: offset})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}

	if viewerID != 0 {
		for _, user := range users {
			if user.ID == viewerID {
				continue
			}
			subscribed, err := s.Follows.Exists(ctx, viewerID, user.ID)
			if err != nil {
				return nil, 0, fmt.Errorf("failed to check subscription: %w", err)
			}
			user.IsSubscribed = subscribed
		}
	}

	return users, total, nil
}

// newTokenKey returns a 40-character random hex token key.
func newTokenKey() string {
	buf := make([]byte, 20)
	rand.Read(buf)
	return hex.EncodeToString(buf)
}
