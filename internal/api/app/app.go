package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/seldemircin/minimal-api/internal/api/http"
	"github.com/seldemircin/minimal-api/internal/api/service"
	"github.com/seldemircin/minimal-api/internal/api/store"
	"github.com/seldemircin/minimal-api/internal/api/store/drivers/sqlite"
	"github.com/seldemircin/minimal-api/pkg/clock"
	"github.com/seldemircin/minimal-api/pkg/jwtx"
	"github.com/seldemircin/minimal-api/pkg/slogx"
	"github.com/seldemircin/minimal-api/pkg/validatorx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application encapsulates the API with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db       store.Store
	signer   *jwtx.Signer
	verifier *jwtx.Verifier

	authService         *service.AuthService
	bookService         *service.BookService
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New creates an Application with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "minimal-api",
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}).With("version", BuildVersion, "env", cfg.Env),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}
	if err := app.initTokens(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("api starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down api...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("api stopped")
	return nil
}

func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

func (app *Application) initTokens() error {
	secret := []byte(app.cfg.JWT.SecretKey)

	signer, err := jwtx.NewSigner(secret)
	if err != nil {
		return fmt.Errorf("failed to initialize token signer: %w", err)
	}
	verifier, err := jwtx.NewVerifier(secret, app.cfg.JWT.ValidIssuer, app.cfg.JWT.ValidAudience, 30*time.Second)
	if err != nil {
		return fmt.Errorf("failed to initialize token verifier: %w", err)
	}

	app.signer = signer
	app.verifier = verifier
	return nil
}

func (app *Application) initServices() {
	validate := validatorx.New()
	clk := clock.System{}

	app.authService = service.NewAuthService(
		app.db,
		app.signer,
		app.verifier,
		validate,
		clk,
		service.AuthConfig{
			AccessTokenTTL: app.cfg.AccessTokenTTL(),
			Issuer:         app.cfg.JWT.ValidIssuer,
			Audience:       app.cfg.JWT.ValidAudience,
		},
		app.logger,
	)

	app.bookService = service.NewBookService(app.db, validate, app.logger)

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		clk,
		app.cfg.HousekeepingInterval,
	)
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.verifier,
		BuildVersion,
		app.db,
		app.logger,
	)

	router.AuthService = app.authService
	router.BookService = app.bookService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
