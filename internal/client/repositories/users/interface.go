// Package users implements the durable local store of cached user profile
// rows, keyed by the server-assigned user id.
package users

import (
	"context"
	"time"

	"profilekeeper/internal/client/models"
)

type Repository interface {
	// Upsert inserts a row or replaces an existing one by ID. The stored
	// created_at is never overwritten by an upsert.
	Upsert(ctx context.Context, record *models.UserRecord) error

	// GetByID returns the row for id, or common.ErrNotFound.
	GetByID(ctx context.Context, id string) (*models.UserRecord, error)

	// GetByEmail returns the row for email, or common.ErrNotFound.
	GetByEmail(ctx context.Context, email string) (*models.UserRecord, error)

	// TouchLastLogin updates only last_login_at for id. Unknown ids are a no-op.
	TouchLastLogin(ctx context.Context, id string, at time.Time) error

	// GetAll returns every row ordered by created_at descending.
	GetAll(ctx context.Context) ([]models.UserRecord, error)

	// DeleteAll removes every row. Destructive and irreversible.
	DeleteAll(ctx context.Context) error
}
