// Package server initializes and runs the ProfileKeeper API server. It opens
// the database, runs migrations, wires services and handles graceful
// shutdown on SIGINT/SIGTERM.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"profilekeeper/internal/logging"
	"profilekeeper/internal/server/config"
	serverhttp "profilekeeper/internal/server/http"
	"profilekeeper/internal/server/repositories/users"
	"profilekeeper/internal/server/services"
	"profilekeeper/internal/server/storage"
)

type App struct {
	config config.Config
	logger logging.Logger
	db     *sql.DB
	router *gin.Engine
}

func NewApp(ctx context.Context, cfg config.Config) (*App, error) {

	logger := logging.NewJSON()

	db, err := storage.Open(ctx, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	userService := services.NewUserService(users.NewPostgresRepository(db), &cfg)
	avatarService := services.NewAvatarService(&cfg)

	router := gin.New()
	router.Use(gin.Recovery())
	serverhttp.NewHandler(userService, avatarService, []byte(cfg.Auth.Secret), logger).RegisterRoutes(router)

	return &App{config: cfg, logger: logger, db: db, router: router}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting server", "addr", app.config.Server.Addr)

	app.initSignalHandler(cancelFunc)

	srv := &http.Server{
		Addr:    app.config.Server.Addr,
		Handler: app.router,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			app.logger.Error(ctx, "server failed", "err", err)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(ctx, "shutdown error", "err", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "err", err)
	}

	app.logger.Info(ctx, "server stopped")
}
