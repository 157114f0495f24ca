package users

import (
	"context"
	"time"

	"profilekeeper/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
	SetAvatarKey(ctx context.Context, id, key string) error
}
