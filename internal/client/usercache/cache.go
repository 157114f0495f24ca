// Package usercache wraps the local user repository with a reactive view:
// every mutation re-emits the full row set (newest first) to subscribers.
package usercache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"profilekeeper/internal/client/models"
	"profilekeeper/internal/client/repositories/users"
	"profilekeeper/internal/common"
	"profilekeeper/internal/watch"
)

// Cache is the durable local store of UserRecord rows. Rows survive logout
// on purpose; only DeleteAll removes them.
type Cache struct {
	repo users.Repository
	rows *watch.Value[[]models.UserRecord]
}

// New builds a Cache over repo and seeds the observable row set.
func New(ctx context.Context, repo users.Repository) (*Cache, error) {
	c := &Cache{repo: repo, rows: watch.NewValue[[]models.UserRecord]()}
	if err := c.refresh(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// NewSQLite is a convenience constructor over a sqlite handle.
func NewSQLite(ctx context.Context, db *sql.DB) (*Cache, error) {
	return New(ctx, users.NewSQLiteRepository(db))
}

// Upsert inserts or replaces a row by its id and notifies observers.
func (c *Cache) Upsert(ctx context.Context, rec *models.UserRecord) error {
	if err := c.repo.Upsert(ctx, rec); err != nil {
		return fmt.Errorf("%w: %s", common.ErrStorage, err)
	}
	return c.refresh(ctx)
}

// FindByID returns the cached row for id, or nil when there is none.
func (c *Cache) FindByID(ctx context.Context, id string) (*models.UserRecord, error) {
	rec, err := c.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %s", common.ErrStorage, err)
	}
	return rec, nil
}

// FindByEmail returns the cached row for email, or nil when there is none.
func (c *Cache) FindByEmail(ctx context.Context, email string) (*models.UserRecord, error) {
	rec, err := c.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %s", common.ErrStorage, err)
	}
	return rec, nil
}

// TouchLastLogin moves last_login_at forward for id; unknown ids are a no-op.
func (c *Cache) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	if err := c.repo.TouchLastLogin(ctx, id, at); err != nil {
		return fmt.Errorf("%w: %s", common.ErrStorage, err)
	}
	return c.refresh(ctx)
}

// ObserveAll emits the full row set ordered by creation time descending,
// starting with the current one and again after every mutation.
func (c *Cache) ObserveAll(ctx context.Context) <-chan []models.UserRecord {
	return c.rows.Subscribe(ctx)
}

// All returns the current row set without subscribing.
func (c *Cache) All() []models.UserRecord {
	rows, _ := c.rows.Get()
	return rows
}

// DeleteAll removes every cached row. Destructive and irreversible.
func (c *Cache) DeleteAll(ctx context.Context) error {
	if err := c.repo.DeleteAll(ctx); err != nil {
		return fmt.Errorf("%w: %s", common.ErrStorage, err)
	}
	return c.refresh(ctx)
}

func (c *Cache) refresh(ctx context.Context) error {
	rows, err := c.repo.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("%w: %s", common.ErrStorage, err)
	}
	c.rows.Set(rows)
	return nil
}
