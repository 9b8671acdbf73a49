package bootstrap

import (
	"log"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/go-portalgate/portalgate/internal/config"
	"github.com/go-portalgate/portalgate/internal/metrics"
	"github.com/go-portalgate/portalgate/internal/middleware"
)

// setupRouter configures the Gin router with all routes and middleware
func setupRouter(app *Application) *gin.Engine {
	cfg := app.Config
	setupGinMode(cfg)
	r := gin.New()

	// Setup middleware
	r.Use(metrics.HTTPMetricsMiddleware(app.MetricsRecorder))
	r.Use(gin.Logger(), gin.Recovery())

	// OAuth state session (cookie-backed, Lax like the token cookies)
	setupSessionMiddleware(r, cfg)

	// Edge gate runs before any page route
	r.Use(middleware.EdgeGate(app.Authority, app.MetricsRecorder))

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	// Setup metrics endpoint
	setupMetricsEndpoint(r, cfg)

	// Setup rate limiting
	rateLimiters := setupRateLimiting(cfg, app.RateLimitRedisClient)

	// Setup all routes
	setupAllRoutes(r, cfg, app, rateLimiters)

	logServerStartup(cfg)

	return r
}

// setupSessionMiddleware configures session handling for OAuth state
func setupSessionMiddleware(r *gin.Engine, cfg *config.Config) {
	sessionStore := cookie.NewStore([]byte(cfg.SessionSecret))
	sessionStore.Options(sessions.Options{
		Path:     "/",
		MaxAge:   600, // state only lives across one provider round trip
		HttpOnly: true,
		Secure:   cfg.IsProduction,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions("portal_session", sessionStore))
}

// setupMetricsEndpoint configures the Prometheus metrics endpoint
func setupMetricsEndpoint(r *gin.Engine, cfg *config.Config) {
	switch {
	case !cfg.MetricsEnabled:
		log.Printf("Prometheus metrics disabled")
	case cfg.MetricsToken != "":
		log.Printf("Prometheus metrics enabled at /metrics with Bearer token authentication")
		r.GET(
			"/metrics",
			metricsAuthMiddleware(cfg.MetricsToken),
			gin.WrapH(promhttp.Handler()),
		)
	default:
		log.Printf("Prometheus metrics enabled at /metrics (no authentication)")
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
}

// metricsAuthMiddleware requires a static bearer token on /metrics
func metricsAuthMiddleware(expected string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") != "Bearer "+expected {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Next()
	}
}

// setupAllRoutes configures all application routes
func setupAllRoutes(
	r *gin.Engine,
	cfg *config.Config,
	app *Application,
	rateLimiters rateLimitMiddlewares,
) {
	h := app.HandlerSet

	// Canonical landing page for authenticated users
	r.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, middleware.PathDashboard)
	})

	// Page routes (the edge gate has already classified these)
	r.GET(middleware.PathLogin, h.pages.Login)
	r.GET("/logout", h.pages.Logout)
	r.GET(middleware.PathDashboard, app.DashboardGuard.Middleware(), h.pages.Dashboard)
	r.GET(middleware.PathAdmin, app.AdminGuard.Middleware(), h.pages.Admin)
	r.GET(middleware.PathAccessDenied, h.pages.AccessDenied)

	// Token mint endpoint, called by the client refresh protocol
	api := r.Group("/api")
	{
		api.POST("/token", rateLimiters.token, h.token.Mint)

		if cfg.BackdoorEnabled {
			api.POST("/backdoor/login", rateLimiters.login, h.backdoor.Login)
			log.Printf("Backdoor lane enabled at /api/backdoor/login")
		}
	}

	// Identity provider lane
	if h.provider.Enabled() {
		authGroup := r.Group("/auth")
		authGroup.GET("/login/microsoft", rateLimiters.login, h.oauth.Login)
		authGroup.GET("/callback/microsoft", h.oauth.Callback)
	} else {
		log.Printf("Microsoft sign-in disabled: no client credentials configured")
	}
}

// setupGinMode sets Gin mode based on environment configuration
func setupGinMode(cfg *config.Config) {
	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
}

// logServerStartup logs server startup information
func logServerStartup(cfg *config.Config) {
	log.Printf("Portal auth server starting on %s", cfg.ServerAddr)
	log.Printf("Login page: %s%s", cfg.BaseURL, middleware.PathLogin)
	log.Printf("Refresh token TTL: %s, access token TTL: %s",
		cfg.RefreshTokenExpiration, cfg.AccessTokenExpiration)
}
