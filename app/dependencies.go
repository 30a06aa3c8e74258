package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/upb/user-api/config"
	"github.com/upb/user-api/jwks"
	"github.com/upb/user-api/middleware"
	"github.com/upb/user-api/repositories"
	"github.com/upb/user-api/repositories/postgres"
	"github.com/upb/user-api/services/users"
	"github.com/upb/user-api/verifier"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB
	Logger *zap.Logger

	// Repositories
	Users repositories.UserRepository

	// Services
	UserService *users.UserService

	// Auth
	Keys           *jwks.Provider
	Verifier       *verifier.Verifier
	AuthMiddleware *middleware.AuthMiddleware
}

// NewDependencies creates and wires up all application dependencies.
// The database must answer a ping and the key set must be fetched once,
// otherwise an error is returned and nothing is left open.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initDatabase(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	deps.initRepositories()
	deps.initServices()

	if err := deps.initAuth(ctx, cfg.Auth); err != nil {
		_ = deps.DB.Close()
		return nil, fmt.Errorf("failed to initialize auth: %w", err)
	}

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initDatabase opens the PostgreSQL pool
func (d *Dependencies) initDatabase(ctx context.Context, cfg *config.Config) error {
	db, err := postgres.NewDB(ctx, cfg.Database, d.Logger)
	if err != nil {
		return err
	}

	d.DB = db
	return nil
}

// initRepositories initializes all repository instances
func (d *Dependencies) initRepositories() {
	d.Users = postgres.NewUserRepository(d.DB, d.Logger)
	d.Logger.Info("repositories initialized")
}

func (d *Dependencies) initServices() {
	d.UserService = users.NewUserService(d.Users, d.Logger)
}

// initAuth fetches the key set once and builds the verifier and gate
func (d *Dependencies) initAuth(ctx context.Context, cfg config.AuthConfig) error {
	provider, err := jwks.NewProvider(ctx, jwks.Config{
		Authority:       cfg.Authority,
		HTTPTimeout:     cfg.FetchTimeout,
		RefreshInterval: cfg.RefreshInterval,
	}, d.Logger)
	if err != nil {
		return err
	}

	d.Keys = provider
	d.Verifier = verifier.New(provider, verifier.Options{
		Issuer:   cfg.Issuer,
		Audience: cfg.Audience,
	})
	d.AuthMiddleware = middleware.NewAuthMiddleware(d.Verifier, d.Logger)

	d.Logger.Info("auth initialized",
		zap.String("authority", cfg.Authority),
		zap.Int("keys", provider.KeyCount()),
		zap.Bool("refresh", provider.RefreshEnabled()),
		zap.Duration("refresh_interval", cfg.RefreshInterval))

	return nil
}

// StartBackground launches the key refresher when enabled. It stops when
// ctx is cancelled.
func (d *Dependencies) StartBackground(ctx context.Context) {
	if d.Keys == nil || !d.Keys.RefreshEnabled() {
		return
	}
	go d.Keys.Run(ctx)
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
		d.DB = nil
	}

	_ = d.Logger.Sync()

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %w", errors.Join(errs...))
	}

	return nil
}
