// Package session implements the credential store: durable, reactive
// persistence of the authenticated session plus unrelated user preferences.
//
// The durable layer is the prefs key-value table; on top of it the store
// keeps an in-memory replay-latest cell so reads used on hot paths (the
// request token injector in particular) never touch disk.
package session

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"profilekeeper/internal/client/models"
	"profilekeeper/internal/client/repositories/prefs"
	"profilekeeper/internal/common"
	"profilekeeper/internal/dbx"
	"profilekeeper/internal/logging"
	"profilekeeper/internal/watch"
)

// Persisted key names. Session fields share the prefs table with unrelated
// preferences so a full wipe is one statement.
const (
	keyUserID        = "session.user_id"
	keyEmail         = "session.email"
	keyName          = "session.name"
	keyToken         = "session.token"
	keyRememberMe    = "session.remember_me"
	keyAuthenticated = "session.authenticated"

	prefKeyPrefix = "pref."
)

var sessionKeys = []string{keyUserID, keyEmail, keyName, keyToken, keyRememberMe, keyAuthenticated}

// Store owns the persisted SessionState. The session coordinator is the only
// writer; everything else (UI, token injector) reads.
type Store struct {
	db    *sql.DB
	log   logging.Logger
	mu    sync.Mutex // serializes writers; the cell handles readers
	state *watch.Value[models.SessionState]
}

// NewStore builds a Store over db and seeds the in-memory cell from the
// durable layer, so observers and the token injector see the persisted
// session immediately after process start.
func NewStore(ctx context.Context, db *sql.DB, log logging.Logger) (*Store, error) {
	s := &Store{
		db:    db,
		log:   log.With("module", "session_store"),
		state: watch.NewValue[models.SessionState](),
	}

	st, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	s.state.Set(st)
	return s, nil
}

func (s *Store) repo(db dbx.DBTX) prefs.Repository {
	return prefs.NewSQLiteRepository(db)
}

func (s *Store) load(ctx context.Context) (models.SessionState, error) {
	all, err := s.repo(s.db).List(ctx)
	if err != nil {
		return models.SessionState{}, fmt.Errorf("%w: %s", common.ErrStorage, err)
	}
	return models.SessionState{
		Authenticated: string(all[keyAuthenticated]) == "1",
		UserID:        string(all[keyUserID]),
		Email:         string(all[keyEmail]),
		DisplayName:   string(all[keyName]),
		Token:         string(all[keyToken]),
		RememberMe:    string(all[keyRememberMe]) == "1",
	}, nil
}

// SaveToken persists only the token field. It exists so the token can be made
// visible to the request injector before the rest of the session is known:
// the authoritative profile fetch that follows login/register is itself an
// authenticated call.
func (s *Store) SaveToken(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo(s.db).Set(ctx, keyToken, []byte(token)); err != nil {
		return fmt.Errorf("%w: %s", common.ErrStorage, err)
	}

	st, _ := s.state.Get()
	st.Token = token
	s.state.Set(st)
	return nil
}

// SaveSession atomically replaces every session field and marks the session
// authenticated. Observers see either the prior state or the new one, never
// a mix: the durable write is one transaction and the cell is published once.
func (s *Store) SaveSession(ctx context.Context, userID, email, name, token string, rememberMe bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repo(tx)
		for key, value := range map[string]string{
			keyUserID:        userID,
			keyEmail:         email,
			keyName:          name,
			keyToken:         token,
			keyRememberMe:    boolString(rememberMe),
			keyAuthenticated: "1",
		} {
			if err := repo.Set(ctx, key, []byte(value)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %s", common.ErrStorage, err)
	}

	s.state.Set(models.SessionState{
		Authenticated: true,
		UserID:        userID,
		Email:         email,
		DisplayName:   name,
		Token:         token,
		RememberMe:    rememberMe,
	})
	s.log.Debug(ctx, "session saved", "user_id", userID)
	return nil
}

// ClearSession ends the session. With rememberMe=false every persisted key is
// erased, unrelated preferences included; with rememberMe=true only the
// identity and token fields go, preferences survive. Idempotent.
func (s *Store) ClearSession(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, _ := s.state.Get()

	// The full wipe only fires while an unremembered session is actually
	// active. Once the session is gone a repeat call must not escalate to
	// destroying preferences an earlier partial wipe preserved.
	fullWipe := cur.Authenticated && !cur.RememberMe

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repo(tx)
		if fullWipe {
			return repo.Clear(ctx)
		}
		for _, key := range sessionKeys {
			if err := repo.Delete(ctx, key); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %s", common.ErrStorage, err)
	}

	s.state.Set(models.SessionState{})
	s.log.Debug(ctx, "session cleared", "full_wipe", fullWipe)
	return nil
}

// Observe emits a snapshot on every session change, starting with the
// current one. The channel closes when ctx is done.
func (s *Store) Observe(ctx context.Context) <-chan models.SessionState {
	return s.state.Subscribe(ctx)
}

// ObserveAuthenticated derives a deduplicated boolean stream from Observe.
func (s *Store) ObserveAuthenticated(ctx context.Context) <-chan bool {
	out := make(chan bool, 1)
	in := s.state.Subscribe(ctx)

	go func() {
		defer close(out)
		var last *bool
		for st := range in {
			v := st.Authenticated
			if last != nil && *last == v {
				continue
			}
			last = &v

			// same drop-stale policy as the cell itself; this goroutine is
			// the only sender, so draining then sending cannot block
			select {
			case out <- v:
			default:
				select {
				case <-out:
				default:
				}
				out <- v
			}
		}
	}()
	return out
}

// Current returns the in-memory snapshot.
func (s *Store) Current() models.SessionState {
	st, _ := s.state.Get()
	return st
}

// Token implements api.TokenSource from the in-memory cell; it never blocks
// on storage.
func (s *Store) Token() string {
	st, _ := s.state.Get()
	return st.Token
}

// GetToken reads the token from the durable layer. Slower than Token; meant
// for callers that need read-your-writes confirmation.
func (s *Store) GetToken(ctx context.Context) (string, error) {
	v, err := s.repo(s.db).Get(ctx, keyToken)
	if err != nil {
		return "", fmt.Errorf("%w: %s", common.ErrStorage, err)
	}
	return string(v), nil
}

// SetPreference stores an unrelated user preference (e.g. theme). It shares
// the session's durable table and is wiped by a full ClearSession.
func (s *Store) SetPreference(ctx context.Context, key, value string) error {
	if err := s.repo(s.db).Set(ctx, prefKeyPrefix+key, []byte(value)); err != nil {
		return fmt.Errorf("%w: %s", common.ErrStorage, err)
	}
	return nil
}

// GetPreference returns the stored preference value, or "" when unset.
func (s *Store) GetPreference(ctx context.Context, key string) (string, error) {
	v, err := s.repo(s.db).Get(ctx, prefKeyPrefix+key)
	if err != nil {
		return "", fmt.Errorf("%w: %s", common.ErrStorage, err)
	}
	return string(v), nil
}

func boolString(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
