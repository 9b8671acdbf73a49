package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Rate limit store constants
const (
	RateLimitStoreMemory = "memory"
	RateLimitStoreRedis  = "redis"
)

var (
	// ErrMissingSecret indicates the JWT signing secret is not configured.
	// The secret has no default: starting without one is a configuration
	// error, never a runtime fallback.
	ErrMissingSecret = errors.New("JWT_SECRET is not configured")

	// ErrMissingBPMSURL indicates the BPMS backend base URL is not configured
	ErrMissingBPMSURL = errors.New("BPMS_BASE_URL is not configured")

	// ErrBackdoorUnprotected indicates the backdoor lane is enabled in
	// production without a password hash to verify credentials against
	ErrBackdoorUnprotected = errors.New(
		"backdoor lane requires BACKDOOR_PASSWORD_HASH in production",
	)
)

type Config struct {
	// Server settings
	ServerAddr   string
	BaseURL      string
	IsProduction bool

	// JWT settings
	JWTSecret              string
	AccessTokenExpiration  time.Duration // short-lived, minted on demand
	RefreshTokenExpiration time.Duration // long-lived, issued once per sign-in

	// Session settings (OAuth state cookie for the identity-provider lane)
	SessionSecret string

	// Backend base URLs
	BPMSBaseURL     string // employee mapping, roles, login registration, images
	DOTSBaseURL     string // privileged entitlement mapping
	EmployeeBaseURL string // session-bearing endpoint used by the mint flow

	// Outbound resolver client settings
	ResolverTimeout    time.Duration
	ResolverMaxRetries int // single retry by default; resolvers degrade, not block
	ResolverRetryDelay time.Duration
	ResolverAuthMode   string // "none", "simple", or "hmac"
	ResolverAuthSecret string
	ResolverAuthHeader string

	// Privileged entitlement query shape
	EntitlementRole     string
	EntitlementStatus   string
	EntitlementPageSize int

	// Microsoft identity provider (primary sign-in lane)
	AzureClientID     string
	AzureClientSecret string
	AzureTenantID     string
	AzureRedirectURL  string
	OAuthTimeout      time.Duration

	// Backdoor lane
	BackdoorEnabled      bool
	BackdoorPasswordHash string // bcrypt hash; required in production

	// Rate limiting
	EnableRateLimit          bool
	RateLimitStore           string // "memory" or "redis"
	TokenRateLimit           int    // requests per minute on /api/token
	LoginRateLimit           int    // requests per minute on the login lanes
	RateLimitCleanupInterval time.Duration
	RedisAddr                string
	RedisPassword            string
	RedisDB                  int

	// Metrics
	MetricsEnabled bool
	MetricsToken   string
}

func Load() *Config {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	return &Config{
		ServerAddr:   getEnv("SERVER_ADDR", ":8080"),
		BaseURL:      getEnv("BASE_URL", "http://localhost:8080"),
		IsProduction: getEnv("ENVIRONMENT", "development") == "production",

		JWTSecret:              getEnv("JWT_SECRET", ""),
		AccessTokenExpiration:  getEnvDuration("ACCESS_TOKEN_EXPIRATION", 15*time.Minute),
		RefreshTokenExpiration: getEnvDuration("REFRESH_TOKEN_EXPIRATION", 168*time.Hour),

		SessionSecret: getEnv("SESSION_SECRET", "session-secret-change-in-production"),

		BPMSBaseURL:     getEnv("BPMS_BASE_URL", ""),
		DOTSBaseURL:     getEnv("DOTS_BASE_URL", ""),
		EmployeeBaseURL: getEnv("EMPLOYEE_BASE_URL", ""),

		ResolverTimeout:    getEnvDuration("RESOLVER_TIMEOUT", 10*time.Second),
		ResolverMaxRetries: getEnvInt("RESOLVER_MAX_RETRIES", 1),
		ResolverRetryDelay: getEnvDuration("RESOLVER_RETRY_DELAY", 500*time.Millisecond),
		ResolverAuthMode:   getEnv("RESOLVER_AUTH_MODE", "none"),
		ResolverAuthSecret: getEnv("RESOLVER_AUTH_SECRET", ""),
		ResolverAuthHeader: getEnv("RESOLVER_AUTH_HEADER", "X-API-Secret"),

		EntitlementRole:     getEnv("ENTITLEMENT_ROLE", "A0001"),
		EntitlementStatus:   getEnv("ENTITLEMENT_STATUS", "All"),
		EntitlementPageSize: getEnvInt("ENTITLEMENT_PAGE_SIZE", 10),

		AzureClientID:     getEnv("AZURE_AD_CLIENT_ID", ""),
		AzureClientSecret: getEnv("AZURE_AD_CLIENT_SECRET", ""),
		AzureTenantID:     getEnv("AZURE_AD_TENANT_ID", "common"),
		AzureRedirectURL:  getEnv("AZURE_AD_REDIRECT_URL", ""),
		OAuthTimeout:      getEnvDuration("OAUTH_TIMEOUT", 15*time.Second),

		BackdoorEnabled:      getEnvBool("BACKDOOR_ENABLED", false),
		BackdoorPasswordHash: getEnv("BACKDOOR_PASSWORD_HASH", ""),

		EnableRateLimit:          getEnvBool("ENABLE_RATE_LIMIT", true),
		RateLimitStore:           getEnv("RATE_LIMIT_STORE", RateLimitStoreMemory),
		TokenRateLimit:           getEnvInt("TOKEN_RATE_LIMIT", 60),
		LoginRateLimit:           getEnvInt("LOGIN_RATE_LIMIT", 10),
		RateLimitCleanupInterval: getEnvDuration("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute),
		RedisAddr:                getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:            getEnv("REDIS_PASSWORD", ""),
		RedisDB:                  getEnvInt("REDIS_DB", 0),

		MetricsEnabled: getEnvBool("METRICS_ENABLED", true),
		MetricsToken:   getEnv("METRICS_TOKEN", ""),
	}
}

// Validate checks that required settings are present. It is called once
// at startup; any error here is fatal.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return ErrMissingSecret
	}
	if c.BPMSBaseURL == "" {
		return ErrMissingBPMSURL
	}
	if c.BackdoorEnabled && c.IsProduction && c.BackdoorPasswordHash == "" {
		return ErrBackdoorUnprotected
	}
	if c.RateLimitStore != RateLimitStoreMemory && c.RateLimitStore != RateLimitStoreRedis {
		return fmt.Errorf("unsupported rate limit store: %s", c.RateLimitStore)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var i int
		if _, err := fmt.Sscanf(value, "%d", &i); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		// The employee backend hands TTLs around as bare seconds.
		if !strings.ContainsAny(value, "nsmhud") {
			var secs int64
			if _, err := fmt.Sscanf(value, "%d", &secs); err == nil {
				return time.Duration(secs) * time.Second
			}
		}
	}
	return defaultValue
}
