package cli

import (
	"bufio"
	"context"
	"database/sql"
	"log"
	"os"
	"time"

	"profilekeeper/internal/client/api"
	"profilekeeper/internal/client/config"
	"profilekeeper/internal/client/services"
	"profilekeeper/internal/client/session"
	"profilekeeper/internal/client/storage"
	"profilekeeper/internal/client/usercache"
	"profilekeeper/internal/logging"

	_ "modernc.org/sqlite"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type App struct {
	config  *config.Config
	session *services.SessionService
	store   *session.Store
	client  api.Client
	db      *sql.DB
	Mode    Mode
	reader  *bufio.Reader
}

func NewApp(c *config.Config) (*App, error) {

	ctx := context.Background()
	logger := logging.NewJSON()

	db, err := storage.Open(ctx, c.DatabasePath)
	if err != nil {
		log.Printf("error initializing database: %s", err.Error())
		return nil, err
	}

	store, err := session.NewStore(ctx, db, logger)
	if err != nil {
		return nil, err
	}

	cache, err := usercache.NewSQLite(ctx, db)
	if err != nil {
		return nil, err
	}

	apiClient := api.NewHTTPClient(c.ServerBaseURL, store)
	apiClient.SetTimeout(c.RequestTimeout)

	svc := services.NewSessionService(apiClient, store, cache, logger)

	return &App{
		config:  c,
		session: svc,
		store:   store,
		client:  apiClient,
		db:      db,
		reader:  bufio.NewReader(os.Stdin),
	}, nil
}

func (a *App) setMode(mode Mode) {
	if a.Mode != mode {
		a.Mode = mode
		log.Printf("Switched to %s mode\n", mode)
	}
}

func (a *App) Run(ctx context.Context) {
	defer a.client.Close()
	defer a.db.Close()
	a.Root(ctx)
}

func (a *App) isLoggedIn() bool {
	return a.store.Current().Authenticated
}

// StartOnlineStatusWatcher probes the server on a fixed interval and flips
// the connectivity mode accordingly. It returns when ctx is canceled.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			pctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			err := a.client.Ping(pctx)
			cancel()

			if err != nil {
				if a.Mode == ModeOnline {
					a.setMode(ModeOffline)
				}
			} else {
				if a.Mode != ModeOnline {
					a.setMode(ModeOnline)
				}
			}

		case <-ctx.Done():
			return
		}
	}
}
