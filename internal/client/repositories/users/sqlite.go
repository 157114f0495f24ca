package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"profilekeeper/internal/client/models"
	"profilekeeper/internal/common"
	"profilekeeper/internal/dbx"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const selectColumns = `id, name, email, credential_hash, created_at, last_login_at, avatar_ref`

// Upsert inserts or replaces a row by id. On conflict every column except
// created_at is updated, which keeps the creation timestamp immutable.
// last_login_at only ever moves forward, same rule as TouchLastLogin.
func (r *SQLiteRepository) Upsert(ctx context.Context, rec *models.UserRecord) error {
	query := `INSERT INTO users (id, name, email, credential_hash, created_at, last_login_at, avatar_ref)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET name = excluded.name,
				email = excluded.email,
				credential_hash = excluded.credential_hash,
				last_login_at = CASE
					WHEN users.last_login_at IS NULL OR users.last_login_at <= excluded.last_login_at
						THEN excluded.last_login_at
					ELSE users.last_login_at
				END,
				avatar_ref = excluded.avatar_ref
	`
	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.Name, rec.Email, rec.CredentialHash,
		rec.CreatedAt.UTC(), nullableTime(rec.LastLoginAt), rec.AvatarRef)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.UserRecord, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (r *SQLiteRepository) GetByEmail(ctx context.Context, email string) (*models.UserRecord, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM users WHERE email = ?`, email)
	return scanUser(row)
}

// TouchLastLogin only ever moves last_login_at forward; an unknown id
// affects no rows and is not an error.
func (r *SQLiteRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE users SET last_login_at = ?
			WHERE id = ? AND (last_login_at IS NULL OR last_login_at <= ?)`
	if _, err := r.db.ExecContext(ctx, query, at.UTC(), id, at.UTC()); err != nil {
		return fmt.Errorf("failed to touch last login: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.UserRecord, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+selectColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to select users: %w", err)
	}
	defer rows.Close()

	var result []models.UserRecord
	for rows.Next() {
		rec, err := scanUserRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM users`); err != nil {
		return fmt.Errorf("failed to delete users: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row *sql.Row) (*models.UserRecord, error) {
	rec, err := scanUserRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

func scanUserRow(s scanner) (*models.UserRecord, error) {
	rec := &models.UserRecord{}
	var lastLogin sql.NullTime
	if err := s.Scan(&rec.ID, &rec.Name, &rec.Email, &rec.CredentialHash,
		&rec.CreatedAt, &lastLogin, &rec.AvatarRef); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan user row: %w", err)
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		rec.LastLoginAt = &t
	}
	return rec, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
