// Package services contains the client application services. This file
// defines the session coordinator: the only component that drives a
// register/login transaction end to end across the remote API, the
// credential store and the local user cache.
package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"profilekeeper/internal/client/api"
	"profilekeeper/internal/client/models"
	"profilekeeper/internal/client/session"
	"profilekeeper/internal/client/usercache"
	"profilekeeper/internal/cryptox"
	"profilekeeper/internal/logging"
)

// ErrBusy is returned when a register or login is already in flight on this
// coordinator. Overlapping attempts are rejected rather than queued.
var ErrBusy = errors.New("authentication already in progress")

// SessionService orchestrates register/login/logout. Within one transaction
// the steps are strictly sequential: remote call, token save, authoritative
// profile fetch, session save, cache upsert. Later steps depend on side
// effects of earlier ones; in particular the token must be persisted before
// the profile fetch, because that fetch is itself an authenticated call.
type SessionService struct {
	client api.Client
	store  *session.Store
	cache  *usercache.Cache
	log    logging.Logger

	mu sync.Mutex // guards the register/login critical section

	// seams for tests
	now   func() time.Time
	newID func() string
}

func NewSessionService(client api.Client, store *session.Store, cache *usercache.Cache, log logging.Logger) *SessionService {
	return &SessionService{
		client: client,
		store:  store,
		cache:  cache,
		log:    log.With("module", "session_service"),
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Register creates an account remotely and commits the resulting session
// locally. The returned record reflects the authoritative identity from the
// server, not the caller-supplied fields.
func (s *SessionService) Register(ctx context.Context, name, email, password string, rememberMe bool) (*models.UserRecord, error) {
	return s.run(ctx, password, rememberMe, func(ctx context.Context) (*api.AuthResult, error) {
		return s.client.Register(ctx, name, email, password)
	})
}

// Login authenticates an existing account and commits the resulting session
// locally.
func (s *SessionService) Login(ctx context.Context, email, password string, rememberMe bool) (*models.UserRecord, error) {
	return s.run(ctx, password, rememberMe, func(ctx context.Context) (*api.AuthResult, error) {
		return s.client.Authenticate(ctx, email, password)
	})
}

// run is the shared register/login transaction. On any failure before the
// session save, the credential store and user cache are left untouched
// (except for the already persisted token, which the next success or logout
// overwrites).
func (s *SessionService) run(ctx context.Context, password string, rememberMe bool, remote func(context.Context) (*api.AuthResult, error)) (*models.UserRecord, error) {
	if !s.mu.TryLock() {
		return nil, ErrBusy
	}
	defer s.mu.Unlock()

	res, err := remote(ctx)
	if err != nil {
		s.log.Warn(ctx, "remote auth failed", "err", err)
		return nil, err
	}

	// The token must be visible to the request injector before the
	// authoritative profile fetch below, or that fetch goes out
	// unauthenticated and fails.
	if err := s.store.SaveToken(ctx, res.Token); err != nil {
		return nil, err
	}

	profile, err := s.client.FetchCurrentUser(ctx)
	if err != nil {
		s.log.Warn(ctx, "authoritative profile fetch failed", "err", err)
		return nil, err
	}

	id := profile.ID
	if id == "" {
		// The server answered without an id. Mint a local one so the
		// transaction can still commit; the identity may diverge from the
		// server's until the next successful login.
		id = s.newID()
		s.log.Warn(ctx, "profile missing id, generated locally", "id", id)
	}

	if err := s.store.SaveSession(ctx, id, profile.Email, profile.Name, res.Token, rememberMe); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	created := profile.CreatedAt
	if created.IsZero() {
		created = now
	}

	rec := &models.UserRecord{
		ID:             id,
		Name:           profile.Name,
		Email:          profile.Email,
		CredentialHash: cryptox.HashPassword([]byte(password)),
		CreatedAt:      created,
		LastLoginAt:    &now,
		AvatarRef:      profile.AvatarRef,
	}
	if err := s.cache.Upsert(ctx, rec); err != nil {
		// Session is committed but the cache row is not; GetCurrentUser will
		// report no user until the next successful login repairs it.
		return nil, err
	}

	s.log.Info(ctx, "session committed", "user_id", id)
	return rec, nil
}

// Logout clears the persisted session. Cached user rows survive on purpose;
// only the credential store is touched. Always succeeds on an already
// logged-out store.
func (s *SessionService) Logout(ctx context.Context) error {
	return s.store.ClearSession(ctx)
}

// GetCurrentUser joins the session state with the user cache. It returns nil
// when there is no session or no matching cache row; callers must treat nil
// as "not authenticated" even if the raw session state disagrees (the two
// stores can diverge if the cache was cleared independently).
func (s *SessionService) GetCurrentUser(ctx context.Context) (*models.UserRecord, error) {
	st := s.store.Current()
	if !st.Authenticated || st.UserID == "" {
		return nil, nil
	}
	return s.cache.FindByID(ctx, st.UserID)
}

// ObserveAllUsers streams the cached user rows, newest first, re-emitted on
// every mutation.
func (s *SessionService) ObserveAllUsers(ctx context.Context) <-chan []models.UserRecord {
	return s.cache.ObserveAll(ctx)
}

// AllUsers returns the current cached rows without subscribing.
func (s *SessionService) AllUsers() []models.UserRecord {
	return s.cache.All()
}

// IsAuthenticated streams the session's authenticated flag, deduplicated.
func (s *SessionService) IsAuthenticated(ctx context.Context) <-chan bool {
	return s.store.ObserveAuthenticated(ctx)
}
