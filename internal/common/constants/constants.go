package constants

import "time"

const (
	PasswordMinLength  = 8
	PasswordMaxLength  = 128
	EmailMaxLength     = 254
	NameMaxLength      = 128
	ImageURLMaxLength  = 2048
	PreferencesMaxSize = 16 * 1024
	JWTSecretMinLength = 32

	RefreshTokenSize      = 64
	PasswordSaltSize      = 16
	ScryptN               = 16384
	ScryptR               = 8
	ScryptP               = 1
	ScryptKeyLength       = 64
	OAuthStateSize        = 32
	OAuthCookieMaxAge     = 10 * time.Minute
	OAuthUserInfoTimeout  = 10 * time.Second
	OAuthUserInfoMaxBytes = 1 << 20

	RefreshTokenCookieName = "refresh-token"
	OAuthStateCookieName   = "oauth-state"
	OAuthVerifierCookie    = "oauth-verifier"

	DefaultMaxRequestSize = 1 << 20

	DBPoolMaxOpenConns    = 50
	DBPoolMinOpenConns    = 10
	DBPoolConnMaxLifetime = 5 * time.Minute
	DBPoolConnMaxIdleTime = 10 * time.Minute
	DBPoolHealthCheck     = 1 * time.Minute
	DBPoolConnectTimeout  = 15 * time.Second
	DBPoolMaxAttempts     = 10
	DBPoolRetryDelay      = 1 * time.Second
	DBPoolMetricsInterval = 30 * time.Second
	DBMigrationTimeout    = 2 * time.Minute

	RedisDialTimeout  = 5 * time.Second
	RedisReadTimeout  = 3 * time.Second
	RedisWriteTimeout = 3 * time.Second
	RedisKeyPrefix    = "auth"

	ServerReadHeaderTimeout = 10 * time.Second
	ServerReadTimeout       = 30 * time.Second
	ServerWriteTimeout      = 30 * time.Second
	ServerIdleTimeout       = 120 * time.Second

	ShutdownTimeout = 30 * time.Second
	DrainTimeout    = 10 * time.Second

	DefaultAuthHTTPPort = "8081"

	DefaultCircuitBreakerThreshold = 500
	DefaultCircuitBreakerTimeout   = 15 * time.Second
	DefaultCircuitBreakerReset     = 10 * time.Second

	DefaultAuthRequestTimeout    = 5 * time.Second
	DefaultAccessTokenTTL        = 900 * time.Second
	DefaultRefreshTokenTTL       = 2592000 * time.Second
	DefaultSessionTTL            = 2592000 * time.Second
	DefaultRedisTokenRetention   = 90 * 24 * time.Hour
	DefaultAuthRateLimitPerMin   = 20
	DefaultTokenRateLimitPerMin  = 60
	DefaultOAuthRateLimitPerMin  = 30
	DefaultRateLimiterCleanupAge = 10 * time.Minute

	LoggerMaxSize    = 100
	LoggerMaxBackups = 3
	LoggerMaxAge     = 28
)

type TraceIDKeyType string

const TraceIDKey TraceIDKeyType = "trace_id"
