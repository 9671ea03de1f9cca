// Package app initializes and runs the dashboard service.
// It configures logging, opens the database connection, sets up the
// session store and routing, and handles graceful shutdown.
package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/multierr"

	"github.com/patric-chuzhbe/shareride/internal/config"
	"github.com/patric-chuzhbe/shareride/internal/database"
	"github.com/patric-chuzhbe/shareride/internal/ipchecker"
	"github.com/patric-chuzhbe/shareride/internal/logger"
	"github.com/patric-chuzhbe/shareride/internal/metrics"
	"github.com/patric-chuzhbe/shareride/internal/router"
	"github.com/patric-chuzhbe/shareride/internal/session"
)

// App owns the long-lived resources of the service.
type App struct {
	cfg         *config.Config
	db          *database.DB
	redis       *redis.Client
	httpHandler http.Handler
}

// InitOption tunes New.
type InitOption func(*initOptions)

type initOptions struct {
	databaseOptions []database.InitOption
}

// WithDatabaseOptions forwards options to database.Open.
func WithDatabaseOptions(options ...database.InitOption) InitOption {
	return func(initOpts *initOptions) {
		initOpts.databaseOptions = append(initOpts.databaseOptions, options...)
	}
}

// New builds the App. The database connection is opened exactly once here;
// if it fails, New returns the error and nothing is served.
func New(ctx context.Context, cfg *config.Config, optionsProto ...InitOption) (*App, error) {
	options := &initOptions{}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	if err := logger.Init(cfg.LogLevel, cfg.LogFile); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	app := &App{cfg: cfg}

	var err error
	app.db, err = database.Open(
		ctx,
		cfg.DBDriver,
		cfg.DBSettings(),
		cfg.DBConnectionTimeout,
		options.databaseOptions...,
	)
	if err != nil {
		return nil, err
	}
	logger.Log.Infoln("database ready", "driver", cfg.DBDriver, "host", cfg.DBHost, "name", cfg.DBName)

	store, err := app.sessionStore(ctx)
	if err != nil {
		return nil, multierr.Append(err, app.db.Close())
	}

	signingKey, err := cfg.SigningKey()
	if err != nil {
		return nil, multierr.Append(fmt.Errorf("decode session signing key: %w", err), app.closeStores())
	}

	gate, err := ipchecker.New(cfg.TrustedSubnet)
	if err != nil {
		return nil, multierr.Append(err, app.closeStores())
	}

	app.httpHandler = router.New(
		app.db,
		session.NewManager(store, cfg.SessionCookieName, signingKey, cfg.SessionTTL),
		cfg.LoginPath,
		metrics.NewManager("shareride", "http", metrics.NewRegistry()),
		gate,
	)

	return app, nil
}

func (a *App) sessionStore(ctx context.Context) (session.Store, error) {
	if a.cfg.SessionStore != "redis" {
		return session.NewMemoryStore(), nil
	}

	client, err := session.NewRedisClient(ctx, a.cfg.RedisAddr, a.cfg.RedisPassword, a.cfg.RedisDB)
	if err != nil {
		return nil, err
	}
	a.redis = client
	logger.Log.Infoln("redis session store ready", "addr", a.cfg.RedisAddr)

	return session.NewRedisStore(client), nil
}

// Handler returns the HTTP handler of the service.
func (a *App) Handler() http.Handler {
	return a.httpHandler
}

// Run starts the HTTP server with graceful shutdown support.
// It listens for system signals and cleans up resources upon termination.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Log.Infoln("server running", "RunAddr", a.cfg.RunAddr)

	server := &http.Server{
		Addr:              a.cfg.RunAddr,
		Handler:           a.httpHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Log.Infoln("Received shutdown signal. Closing connections and exiting...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}

		return nil

	case err := <-serverErrCh:
		return fmt.Errorf("server error: %w", err)
	}
}

func (a *App) closeStores() error {
	var err error
	if a.redis != nil {
		err = multierr.Append(err, a.redis.Close())
	}
	if a.db != nil {
		err = multierr.Append(err, a.db.Close())
	}
	return err
}

// Close releases the database and Redis connections and flushes the logger.
func (a *App) Close() error {
	return multierr.Combine(a.closeStores(), logger.Sync())
}
