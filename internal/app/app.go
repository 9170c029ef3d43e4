package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fitsync/internal/config"
	"fitsync/internal/database"
	"fitsync/internal/event"
	"fitsync/internal/googlefit"
	"fitsync/internal/handler"
	"fitsync/internal/metrics"
	"fitsync/internal/oauthstate"
	"fitsync/internal/repository"
	"fitsync/internal/router"
	"fitsync/internal/service"
	"fitsync/internal/verifier"
)

type App struct {
	server       *http.Server
	db           *database.DB
	cleanupFuncs []func()
}

func New(cfg *config.Config) (*App, error) {
	slog.Info("connecting to PostgreSQL")
	db, err := database.New(context.Background(), database.Options{
		URL:      cfg.DatabaseURL,
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.EnsureSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure database schema: %w", err)
	}

	pool := db.Pool
	userRepo := repository.NewUserRepository(pool)
	tokenRepo := repository.NewTokenRepository(pool)
	stepRepo := repository.NewStepRepository(pool)
	slog.Info("database ready")

	backgroundCtx, backgroundCancel := context.WithCancel(context.Background())
	cleanupFuncs := []func(){backgroundCancel}

	verifiers, closeVerifiers, err := newVerifierStore(backgroundCtx, cfg, db)
	if err != nil {
		backgroundCancel()
		db.Close()
		return nil, err
	}
	if closeVerifiers != nil {
		cleanupFuncs = append(cleanupFuncs, closeVerifiers)
	}

	bus := event.NewBus()
	go event.LogSubscriber(backgroundCtx, bus)

	appMetrics := metrics.New()
	go appMetrics.CountEvents(backgroundCtx, bus)

	providerClient := &http.Client{Timeout: cfg.ProviderTimeout}

	oauthService := service.NewOAuthService(service.OAuthConfig{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURI:  cfg.RedirectURI,
		AuthURL:      cfg.GoogleAuthURL,
		TokenURL:     cfg.GoogleTokenURL,
		Scopes:       cfg.GoogleScopes,
		AttemptTTL:   cfg.VerifierTTL,
		HTTPClient:   providerClient,
	}, verifiers, tokenRepo, oauthstate.NewSigner(cfg.StateSecret), bus)

	fitClient := googlefit.NewClient(cfg.GoogleFitBaseURL, providerClient)
	fitService := service.NewFitService(fitClient, tokenRepo, oauthService)
	authService := service.NewAuthService(userRepo, bus)
	stepService := service.NewStepService(stepRepo, bus)

	appRouter := router.New(cfg, router.Handlers{
		OAuth: handler.NewOAuthHandler(oauthService, tokenRepo, cfg.AppRedirectURI),
		Fit:   handler.NewFitHandler(fitService),
		User:  handler.NewUserHandler(authService),
		Step:  handler.NewStepHandler(stepService),
		Docs:  handler.NewDocsHandler(),
	}, db.Health, appMetrics)

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           appRouter,
		ReadHeaderTimeout: cfg.ServerReadHeaderTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	cleanupFuncs = append(cleanupFuncs, db.Close)

	return &App{
		server:       server,
		db:           db,
		cleanupFuncs: cleanupFuncs,
	}, nil
}

// newVerifierStore picks the code verifier backend. The returned func, when
// non-nil, releases the backend's resources.
func newVerifierStore(ctx context.Context, cfg *config.Config, db *database.DB) (verifier.Store, func(), error) {
	switch cfg.VerifierStore {
	case config.VerifierStoreRedis:
		store, err := verifier.NewRedis(cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to configure redis verifier store: %w", err)
		}

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := store.Ping(pingCtx); err != nil {
			_ = store.Close()
			return nil, nil, fmt.Errorf("failed to reach redis: %w", err)
		}

		slog.Info("verifier store ready", "backend", "redis")
		return store, func() { _ = store.Close() }, nil
	case config.VerifierStoreMemory:
		slog.Warn("verifier store is in-process; callbacks must reach the same instance that started the login")
		return verifier.NewMemory(), nil, nil
	default:
		store := verifier.NewPostgres(db.Pool)
		go store.StartCleanupTicker(ctx, cfg.VerifierCleanupEvery)

		slog.Info("verifier store ready", "backend", "postgres")
		return store, nil, nil
	}
}

func (a *App) Run() error {
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if serveErr := a.server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			slog.Error("server failed", "error", serveErr)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	shutdownErr := a.server.Shutdown(ctx)

	// Background workers and pools go after in-flight requests have drained.
	for _, cleanup := range a.cleanupFuncs {
		cleanup()
	}

	if shutdownErr != nil {
		return fmt.Errorf("graceful shutdown failed: %w", shutdownErr)
	}

	slog.Info("server stopped")
	return nil
}
