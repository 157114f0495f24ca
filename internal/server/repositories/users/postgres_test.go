package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"profilekeeper/internal/common"
	"profilekeeper/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

const selectCols = `id,\s*name,\s*email,\s*password_hash,\s*avatar_key,\s*created_at,\s*last_login_at`

func userRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "email", "password_hash", "avatar_key", "created_at", "last_login_at"})
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^INSERT\s+INTO\s+users\s*\(name,\s*email,\s*password_hash\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3\)\s*RETURNING\s+id,\s*created_at\s*$`

	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "created_at"}).AddRow("u-42", created)
	mock.ExpectQuery(q).
		WithArgs("Ana", "ana@example.com", []byte("hash")).
		WillReturnRows(rows)

	u := &models.User{Name: "Ana", Email: "ana@example.com", PasswordHash: []byte("hash")}
	got, err := repo.Create(context.Background(), u)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID != "u-42" || !got.CreatedAt.Equal(created) {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestCreate_EmailTaken(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT\s+INTO\s+users`).
		WithArgs("Ana", "ana@example.com", []byte("hash")).
		WillReturnError(&pgconn.PgError{Code: uniqueViolation})

	_, err := repo.Create(context.Background(), &models.User{Name: "Ana", Email: "ana@example.com", PasswordHash: []byte("hash")})
	if !errors.Is(err, common.ErrEmailTaken) {
		t.Fatalf("expected common.ErrEmailTaken, got %v", err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT\s+INTO\s+users`).
		WithArgs("Ana", "ana@example.com", []byte("hash")).
		WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.User{Name: "Ana", Email: "ana@example.com", PasswordHash: []byte("hash")})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestGetByEmail_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+` + selectCols + `\s+FROM\s+users\s+WHERE\s+email\s*=\s*\$1\s*$`

	rows := userRows().AddRow("u-1", "Ana", "ana@example.com", []byte("hash"), "", time.Now(), nil)
	mock.ExpectQuery(q).WithArgs("ana@example.com").WillReturnRows(rows)

	got, err := repo.GetByEmail(context.Background(), "ana@example.com")
	if err != nil {
		t.Fatalf("GetByEmail error: %v", err)
	}
	if got.ID != "u-1" || got.Email != "ana@example.com" {
		t.Fatalf("unexpected user: %+v", got)
	}
	if got.LastLoginAt.Valid {
		t.Fatalf("expected null last_login_at, got %+v", got.LastLoginAt)
	}
}

func TestGetByEmail_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT\s+` + selectCols).
		WithArgs("ghost@example.com").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByEmail(context.Background(), "ghost@example.com")
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected common.ErrNotFound, got %v", err)
	}
}

func TestGetByID_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+` + selectCols + `\s+FROM\s+users\s+WHERE\s+id\s*=\s*\$1\s*$`

	last := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rows := userRows().AddRow("u-1", "Ana", "ana@example.com", []byte("hash"), "avatars/u-1.png", time.Now(), last)
	mock.ExpectQuery(q).WithArgs("u-1").WillReturnRows(rows)

	got, err := repo.GetByID(context.Background(), "u-1")
	if err != nil {
		t.Fatalf("GetByID error: %v", err)
	}
	if got.AvatarKey != "avatars/u-1.png" || !got.LastLoginAt.Valid {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestTouchLastLogin(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectExec(`UPDATE\s+users\s+SET\s+last_login_at`).
		WithArgs("u-1", at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.TouchLastLogin(context.Background(), "u-1", at); err != nil {
		t.Fatalf("TouchLastLogin error: %v", err)
	}
}

func TestSetAvatarKey(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE\s+users\s+SET\s+avatar_key`).
		WithArgs("u-1", "avatars/u-1.png").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.SetAvatarKey(context.Background(), "u-1", "avatars/u-1.png"); err != nil {
		t.Fatalf("SetAvatarKey error: %v", err)
	}
}
