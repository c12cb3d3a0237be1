package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/aussiebroadwan/hotellisting/internal/auth/http"
	"github.com/aussiebroadwan/hotellisting/internal/auth/service"
	"github.com/aussiebroadwan/hotellisting/internal/auth/store"
	"github.com/aussiebroadwan/hotellisting/internal/auth/store/drivers/redis"
	"github.com/aussiebroadwan/hotellisting/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/hotellisting/pkg/cryptox"
	"github.com/aussiebroadwan/hotellisting/pkg/httpx"
	"github.com/aussiebroadwan/hotellisting/pkg/jwtx"
	"github.com/aussiebroadwan/hotellisting/pkg/slogx"
	"golang.org/x/sync/errgroup"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the auth service application with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db       store.Store
	slots    store.TokenSlots
	limits   httpx.RateLimiter
	closers  []io.Closer // closed after db, in order
	issuer   *jwtx.Issuer
	verifier *jwtx.Verifier

	// Services
	authService         *service.AuthService
	principalService    *service.PrincipalService
	bootstrapService    *service.BootstrapService
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	app := &Application{
		cfg:    cfg,
		limits: httpx.RateLimiter{TrustProxyHeaders: cfg.TrustProxyHeaders},
		logger: slogx.New(slogx.Config{
			Service: "hotellisting-auth",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	// Set pepper path for password hashing
	cryptox.SetPepperPath(app.cfg.PepperFile)

	if err := app.initTokens(); err != nil {
		return nil, err
	}
	if err := app.initDatabase(); err != nil {
		return nil, err
	}
	if err := app.initTokenSlots(context.Background()); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Handler returns the fully wired HTTP handler.
func (app *Application) Handler() http.Handler {
	return app.router
}

// Run serves until SIGINT or SIGTERM, then shuts down gracefully.
func (app *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return app.Serve(ctx)
}

// Serve runs the HTTP server and the housekeeping loop until ctx is done or
// the server fails, then drains requests and releases the stores.
func (app *Application) Serve(ctx context.Context) error {
	app.logger.Info("auth service starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"token_store", app.cfg.TokenStore,
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := app.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return app.housekeepingService.Run(ctx)
	})

	g.Go(func() error {
		<-ctx.Done()
		app.logger.Info("shutting down auth service")
		return app.shutdownServer()
	})

	err := g.Wait()
	if cerr := app.close(); err == nil {
		err = cerr
	}
	return err
}

// shutdownServer gives in-flight requests ShutdownGracePeriod to finish.
func (app *Application) shutdownServer() error {
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		_ = app.server.Close()
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

func (app *Application) close() error {
	var firstErr error
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		firstErr = err
	}
	for _, c := range app.closers {
		if err := c.Close(); err != nil {
			app.logger.Error("error closing token store", "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	if firstErr == nil {
		app.logger.Info("auth service stopped")
	}
	return firstErr
}

// initTokens builds the access token issuer and the matching verifier.
func (app *Application) initTokens() error {
	key := []byte(app.cfg.JWTKey)

	issuer, err := jwtx.NewIssuer(jwtx.IssuerOptions{
		Issuer:   app.cfg.JWTIssuer,
		Audience: app.cfg.JWTAudience,
		Key:      key,
		TTL:      app.cfg.JWTDuration(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize token issuer: %w", err)
	}

	verifier, err := jwtx.NewVerifier(jwtx.VerifierOptions{
		Issuer:   app.cfg.JWTIssuer,
		Audience: app.cfg.JWTAudience,
		Key:      key,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize token verifier: %w", err)
	}

	app.issuer = issuer
	app.verifier = verifier
	return nil
}

// initDatabase initializes the database and applies migrations
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

	version, dirty, err := db.SchemaVersion()
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	app.logger.Info("database migrations applied", "schema_version", version, "dirty", dirty)
	return nil
}

// initTokenSlots picks where refresh token slots and rate limit windows
// live. With redis both are shared between instances.
func (app *Application) initTokenSlots(ctx context.Context) error {
	if app.cfg.TokenStore != TokenStoreRedis {
		app.slots = app.db.TokenSlots()
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	client, err := redis.Open(ctx, app.cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to connect to token store: %w", err)
	}
	app.slots = redis.NewTokenSlots(client, "")
	app.limits.Backend = redis.NewRateLimitBackend(client, "")
	app.closers = append(app.closers, client)

	app.logger.Info("refresh token slots and rate limits stored in redis")
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	app.authService = &service.AuthService{
		Store:  app.db,
		Claims: &service.ClaimsAssembler{Store: app.db},
		Issuer: app.issuer,
		Refresh: &service.RefreshTokenManager{
			Slots:    app.slots,
			Lifespan: app.cfg.RefreshTokenLifespan,
		},
		Policy: app.cfg.PasswordPolicy,
	}

	app.principalService = &service.PrincipalService{Store: app.db}
	app.bootstrapService = &service.BootstrapService{
		Store: app.db,
		Auth:  app.authService,
		Token: app.cfg.BootstrapToken,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.slots,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.verifier,
		BuildVersion,
		app.db,
		app.slots,
		app.logger,
	)

	// Wire services to router
	router.AuthService = app.authService
	router.PrincipalService = app.principalService
	router.BootstrapService = app.bootstrapService
	router.RateLimiter = app.limits
	router.ApplyRoutes()

	app.router = router

	// Initialize HTTP server
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
