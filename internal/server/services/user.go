// Package services contains server-side business logic: account lifecycle,
// token issuing and avatar storage.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"profilekeeper/internal/common"
	"profilekeeper/internal/server/auth"
	"profilekeeper/internal/server/config"
	"profilekeeper/internal/server/models"
	"profilekeeper/internal/server/repositories/users"
)

// UserService handles registration, login and profile reads. Tokens are
// HS256 JWTs carrying the account id.
type UserService struct {
	users         users.Repository
	jwtSecret     []byte
	tokenValidity time.Duration

	now func() time.Time
}

func NewUserService(repo users.Repository, cfg *config.Config) *UserService {
	return &UserService{
		users:         repo,
		jwtSecret:     []byte(cfg.Auth.Secret),
		tokenValidity: cfg.Auth.TokenValidity,
		now:           time.Now,
	}
}

// Register creates an account and returns it with a fresh access token.
// A taken email yields common.ErrEmailTaken.
func (s *UserService) Register(ctx context.Context, name, email, password string) (*models.User, string, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))

	if name == "" || email == "" {
		return nil, "", fmt.Errorf("%w: name and email are required", common.ErrInvalidArgument)
	}
	if len(password) < 8 {
		return nil, "", fmt.Errorf("%w: password must be at least 8 characters", common.ErrInvalidArgument)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, &models.User{Name: name, Email: email, PasswordHash: hash})
	if err != nil {
		if errors.Is(err, common.ErrEmailTaken) {
			return nil, "", common.ErrEmailTaken
		}
		return nil, "", common.ErrInternal
	}

	token, err := s.issueToken(ctx, user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Login verifies the credentials and returns the account with a fresh access
// token. Unknown emails and wrong passwords are indistinguishable to the
// caller.
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, "", common.ErrUnauthorized
		}
		return nil, "", common.ErrInternal
	}

	if bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)) != nil {
		return nil, "", common.ErrUnauthorized
	}

	token, err := s.issueToken(ctx, user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// GetProfile returns the account by id.
func (s *UserService) GetProfile(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, common.ErrInternal
	}
	return user, nil
}

// SetAvatar records the storage key of the user's avatar object.
func (s *UserService) SetAvatar(ctx context.Context, id, key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("%w: key is required", common.ErrInvalidArgument)
	}
	if err := s.users.SetAvatarKey(ctx, id, key); err != nil {
		return common.ErrInternal
	}
	return nil
}

// issueToken mints an access token and records the login time. The login
// timestamp is advisory; a failure to record it does not fail the login.
func (s *UserService) issueToken(ctx context.Context, user *models.User) (string, error) {
	token, err := auth.GenerateToken(user.ID, s.jwtSecret, s.tokenValidity)
	if err != nil {
		return "", common.ErrInternal
	}

	now := s.now().UTC()
	_ = s.users.TouchLastLogin(ctx, user.ID, now)
	user.LastLoginAt.Time, user.LastLoginAt.Valid = now, true

	return token, nil
}
