package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"profilekeeper/internal/common"
	"profilekeeper/internal/server/auth"
	"profilekeeper/internal/server/config"
	"profilekeeper/internal/server/models"
)

// --- helpers ---

type fakeUsersRepo struct {
	createOut *models.User
	createErr error

	byEmailOut *models.User
	byEmailErr error

	byIDOut *models.User
	byIDErr error

	touchedID string
	touchedAt time.Time

	avatarID  string
	avatarKey string
	avatarErr error
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.createOut != nil {
		return f.createOut, nil
	}
	u.ID = "u-1"
	u.CreatedAt = time.Now()
	return u, nil
}

func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if f.byEmailErr != nil {
		return nil, f.byEmailErr
	}
	return f.byEmailOut, nil
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	if f.byIDErr != nil {
		return nil, f.byIDErr
	}
	return f.byIDOut, nil
}

func (f *fakeUsersRepo) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	f.touchedID, f.touchedAt = id, at
	return nil
}

func (f *fakeUsersRepo) SetAvatarKey(ctx context.Context, id, key string) error {
	if f.avatarErr != nil {
		return f.avatarErr
	}
	f.avatarID, f.avatarKey = id, key
	return nil
}

func newUserService(repo *fakeUsersRepo) *UserService {
	cfg := &config.Config{}
	cfg.Auth.Secret = "k"
	cfg.Auth.TokenValidity = time.Hour
	return NewUserService(repo, cfg)
}

func mustHash(t *testing.T, password string) []byte {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	return h
}

// --- tests ---

func TestRegister_Success(t *testing.T) {
	repo := &fakeUsersRepo{}
	svc := newUserService(repo)

	user, token, err := svc.Register(context.Background(), "Ana", "Ana@Example.com", "longenough")
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if user.Email != "ana@example.com" {
		t.Fatalf("email not normalized: %q", user.Email)
	}
	if bcrypt.CompareHashAndPassword(user.PasswordHash, []byte("longenough")) != nil {
		t.Fatal("stored hash does not verify")
	}

	gotID, err := auth.GetUserIDFromToken(token, []byte("k"))
	if err != nil || gotID != "u-1" {
		t.Fatalf("token does not resolve to the account: id=%q err=%v", gotID, err)
	}
	if repo.touchedID != "u-1" {
		t.Fatal("last login not recorded")
	}
}

func TestRegister_ShortPassword(t *testing.T) {
	svc := newUserService(&fakeUsersRepo{})

	_, _, err := svc.Register(context.Background(), "Ana", "ana@example.com", "short")
	if !errors.Is(err, common.ErrInvalidArgument) {
		t.Fatalf("expected common.ErrInvalidArgument, got %v", err)
	}
}

func TestRegister_EmailTaken(t *testing.T) {
	svc := newUserService(&fakeUsersRepo{createErr: common.ErrEmailTaken})

	_, _, err := svc.Register(context.Background(), "Ana", "ana@example.com", "longenough")
	if !errors.Is(err, common.ErrEmailTaken) {
		t.Fatalf("expected common.ErrEmailTaken, got %v", err)
	}
}

func TestLogin_Success(t *testing.T) {
	repo := &fakeUsersRepo{
		byEmailOut: &models.User{ID: "u-1", Name: "Ana", Email: "ana@example.com", PasswordHash: mustHash(t, "pw")},
	}
	svc := newUserService(repo)

	t0 := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return t0 }

	user, token, err := svc.Login(context.Background(), "ana@example.com", "pw")
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if token == "" {
		t.Fatal("expected a token")
	}
	if !user.LastLoginAt.Valid || !user.LastLoginAt.Time.Equal(t0) {
		t.Fatalf("last login not set: %+v", user.LastLoginAt)
	}
	if !repo.touchedAt.Equal(t0) {
		t.Fatalf("repo touch time mismatch: %v", repo.touchedAt)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	svc := newUserService(&fakeUsersRepo{
		byEmailOut: &models.User{ID: "u-1", PasswordHash: mustHash(t, "right")},
	})

	_, _, err := svc.Login(context.Background(), "ana@example.com", "wrong")
	if !errors.Is(err, common.ErrUnauthorized) {
		t.Fatalf("expected common.ErrUnauthorized, got %v", err)
	}
}

func TestLogin_UnknownEmail(t *testing.T) {
	svc := newUserService(&fakeUsersRepo{byEmailErr: common.ErrNotFound})

	_, _, err := svc.Login(context.Background(), "ghost@example.com", "pw")
	if !errors.Is(err, common.ErrUnauthorized) {
		t.Fatalf("expected common.ErrUnauthorized, got %v", err)
	}
}

func TestGetProfile(t *testing.T) {
	svc := newUserService(&fakeUsersRepo{
		byIDOut: &models.User{ID: "u-1", Name: "Ana"},
	})

	user, err := svc.GetProfile(context.Background(), "u-1")
	if err != nil || user.Name != "Ana" {
		t.Fatalf("unexpected result: %+v err=%v", user, err)
	}
}

func TestGetProfile_NotFound(t *testing.T) {
	svc := newUserService(&fakeUsersRepo{byIDErr: common.ErrNotFound})

	_, err := svc.GetProfile(context.Background(), "ghost")
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected common.ErrNotFound, got %v", err)
	}
}

func TestSetAvatar(t *testing.T) {
	repo := &fakeUsersRepo{}
	svc := newUserService(repo)

	if err := svc.SetAvatar(context.Background(), "u-1", "avatars/u-1/x"); err != nil {
		t.Fatalf("SetAvatar error: %v", err)
	}
	if repo.avatarID != "u-1" || repo.avatarKey != "avatars/u-1/x" {
		t.Fatalf("avatar not recorded: %+v", repo)
	}

	if err := svc.SetAvatar(context.Background(), "u-1", "  "); !errors.Is(err, common.ErrInvalidArgument) {
		t.Fatalf("expected common.ErrInvalidArgument, got %v", err)
	}
}
