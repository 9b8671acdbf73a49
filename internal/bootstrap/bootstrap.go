package bootstrap

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/go-portalgate/portalgate/internal/auth"
	"github.com/go-portalgate/portalgate/internal/config"
	"github.com/go-portalgate/portalgate/internal/guard"
	"github.com/go-portalgate/portalgate/internal/handlers"
	"github.com/go-portalgate/portalgate/internal/metrics"
	"github.com/go-portalgate/portalgate/internal/resolver"
	"github.com/go-portalgate/portalgate/internal/services"
	"github.com/go-portalgate/portalgate/internal/token"
)

// Application holds all initialized components
type Application struct {
	Config *config.Config

	// Core infrastructure
	Authority            *token.Authority
	Resolvers            *resolver.Client
	MetricsRecorder      metrics.Recorder
	RateLimitRedisClient *redis.Client

	// Services
	SignInService *services.SignInService
	MintService   *services.MintService

	// Guards
	DashboardGuard *guard.Guard
	AdminGuard     *guard.Guard

	// HTTP
	HandlerSet handlerSet
	Router     *gin.Engine
	Server     *http.Server
}

type handlerSet struct {
	token    *handlers.TokenHandler
	backdoor *handlers.BackdoorHandler
	oauth    *handlers.OAuthHandler
	pages    *handlers.PageHandler
	provider *auth.MicrosoftProvider
}

// Run initializes and starts the application
func Run(cfg *config.Config) error {
	app := &Application{Config: cfg}

	// Phase 1: Validate configuration
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Phase 2: Initialize infrastructure
	if err := app.initializeInfrastructure(); err != nil {
		return err
	}

	// Phase 3: Initialize business layer
	app.initializeBusinessLayer()

	// Phase 4: Initialize HTTP layer
	app.initializeHTTPLayer()

	// Phase 5: Start server with graceful shutdown
	app.startWithGracefulShutdown()

	return nil
}

// initializeInfrastructure sets up the token authority, metrics,
// resolver clients and the optional Redis client
func (app *Application) initializeInfrastructure() error {
	var err error

	app.Authority, err = token.NewAuthority(
		app.Config.JWTSecret,
		app.Config.BaseURL,
		app.Config.RefreshTokenExpiration,
		app.Config.AccessTokenExpiration,
	)
	if err != nil {
		return err
	}

	app.MetricsRecorder = metrics.Init(app.Config.MetricsEnabled)

	app.Resolvers, err = resolver.New(app.Config, app.MetricsRecorder)
	if err != nil {
		return err
	}

	app.RateLimitRedisClient, err = initializeRateLimitRedisClient(app.Config)
	if err != nil {
		return err
	}

	return nil
}

// initializeBusinessLayer sets up services and guards
func (app *Application) initializeBusinessLayer() {
	app.SignInService = services.NewSignInService(
		app.Authority,
		app.Resolvers,
		app.MetricsRecorder,
	)
	app.MintService = services.NewMintService(
		app.Authority,
		app.Resolvers,
		app.MetricsRecorder,
	)

	// Standard guard: roles by email, degrade on resolver failure.
	app.DashboardGuard = guard.New(
		app.Authority,
		guard.EntitlementSourceFunc(func(
			ctx context.Context,
			claims *token.SessionClaims,
		) ([]resolver.Application, error) {
			return app.Resolvers.RolesByEmail(ctx, claims.Email)
		}),
		false,
		app.MetricsRecorder,
	)

	// Privileged guard: entitlement mapping by partner, deny on empty.
	cfg := app.Config
	app.AdminGuard = guard.New(
		app.Authority,
		guard.EntitlementSourceFunc(func(
			ctx context.Context,
			claims *token.SessionClaims,
		) ([]resolver.Application, error) {
			return app.Resolvers.EntitlementsByPartner(
				ctx,
				claims.Partner,
				cfg.EntitlementRole,
				cfg.EntitlementStatus,
				cfg.EntitlementPageSize,
			)
		}),
		true,
		app.MetricsRecorder,
	)
}

// initializeHTTPLayer sets up handlers, router, and server
func (app *Application) initializeHTTPLayer() {
	provider := auth.NewMicrosoftProvider(app.Config)

	app.HandlerSet = handlerSet{
		token:    handlers.NewTokenHandler(app.MintService, app.Config),
		backdoor: handlers.NewBackdoorHandler(app.SignInService, app.Config),
		oauth:    handlers.NewOAuthHandler(provider, app.SignInService, app.Config),
		pages:    handlers.NewPageHandler(app.Config),
		provider: provider,
	}

	app.Router = setupRouter(app)
	app.Server = createHTTPServer(app.Config, app.Router)
}
