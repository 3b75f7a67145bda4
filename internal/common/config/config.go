package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/AlibekovAA/session-auth/internal/common/constants"
	commonerrors "github.com/AlibekovAA/session-auth/internal/common/errors"
)

const (
	EnvProduction = "production"

	TokenStorePostgres = "postgres"
	TokenStoreRedis    = "redis"
)

type AuthConfig struct {
	HTTPPort       string
	DatabaseURL    string
	JWTSecret      string
	RequestTimeout time.Duration
	Environment    string

	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	SessionTTL      time.Duration

	AllowedEmailDomains []string
	RevokeFamilyOnReuse bool

	TokenStore          string
	RedisURL            string
	RedisTokenRetention time.Duration

	CircuitBreakerThreshold int
	CircuitBreakerTimeout   time.Duration
	CircuitBreakerReset     time.Duration

	LogDir   string
	LogLevel string

	OAuthProviders []OAuthProviderConfig
}

func (c AuthConfig) SecureCookies() bool {
	return c.Environment == EnvProduction
}

type OAuthProviderConfig struct {
	ID                string   `yaml:"id"`
	ClientID          string   `yaml:"client_id"`
	ClientSecret      string   `yaml:"client_secret"`
	AuthURL           string   `yaml:"auth_url"`
	TokenURL          string   `yaml:"token_url"`
	UserInfoURL       string   `yaml:"userinfo_url"`
	RedirectURL       string   `yaml:"redirect_url"`
	Scopes            []string `yaml:"scopes"`
	AllowEmailLinking bool     `yaml:"allow_email_linking"`
}

// fileConfig mirrors the YAML layout. Environment variables take precedence
// over every value read from the file.
type fileConfig struct {
	HTTPPort            string   `yaml:"http_port"`
	DatabaseURL         string   `yaml:"database_url"`
	JWTSecret           string   `yaml:"jwt_secret"`
	Environment         string   `yaml:"environment"`
	RequestTimeout      string   `yaml:"request_timeout"`
	AccessTokenTTL      string   `yaml:"access_token_ttl"`
	RefreshTokenTTL     string   `yaml:"refresh_token_ttl"`
	SessionTTL          string   `yaml:"session_ttl"`
	AllowedEmailDomains []string `yaml:"allowed_email_domains"`
	RevokeFamilyOnReuse bool     `yaml:"revoke_family_on_reuse"`

	TokenStore struct {
		Driver         string `yaml:"driver"`
		RedisURL       string `yaml:"redis_url"`
		RedisRetention string `yaml:"redis_retention"`
	} `yaml:"token_store"`

	Log struct {
		Dir   string `yaml:"dir"`
		Level string `yaml:"level"`
	} `yaml:"log"`

	OAuth struct {
		Providers []OAuthProviderConfig `yaml:"providers"`
	} `yaml:"oauth"`
}

func LoadAuthConfig() (AuthConfig, error) {
	return LoadAuthConfigFile(os.Getenv("AUTH_CONFIG_FILE"))
}

// LoadAuthConfigFile reads the optional YAML file at path and overlays the
// environment on top of it. A missing file is not an error.
func LoadAuthConfigFile(path string) (AuthConfig, error) {
	file, err := loadFile(path)
	if err != nil {
		return AuthConfig{}, err
	}

	jwtSecret := firstNonEmpty(os.Getenv("JWT_SECRET"), os.Getenv("NEXTAUTH_SECRET"), file.JWTSecret)
	if jwtSecret == "" {
		return AuthConfig{}, commonerrors.ErrMissingRequiredEnv.WithCause(errors.New("JWT_SECRET"))
	}
	if err := validateJWTSecret(jwtSecret); err != nil {
		return AuthConfig{}, err
	}

	databaseURL := getEnv("DATABASE_URL", file.DatabaseURL)
	if databaseURL == "" {
		return AuthConfig{}, commonerrors.ErrMissingRequiredEnv.WithCause(errors.New("DATABASE_URL"))
	}

	cfg := AuthConfig{
		HTTPPort:       getEnv("AUTH_HTTP_PORT", firstNonEmpty(file.HTTPPort, constants.DefaultAuthHTTPPort)),
		DatabaseURL:    databaseURL,
		JWTSecret:      jwtSecret,
		RequestTimeout: getDurationEnv("AUTH_REQUEST_TIMEOUT", fileDuration(file.RequestTimeout, constants.DefaultAuthRequestTimeout)),
		Environment:    strings.ToLower(getEnv("APP_ENV", firstNonEmpty(file.Environment, "development"))),

		AccessTokenTTL:  getSecondsEnv("ACCESS_TOKEN_TTL", fileDuration(file.AccessTokenTTL, constants.DefaultAccessTokenTTL)),
		RefreshTokenTTL: getSecondsEnv("REFRESH_TOKEN_TTL", fileDuration(file.RefreshTokenTTL, constants.DefaultRefreshTokenTTL)),
		SessionTTL:      getSecondsEnv("SESSION_TTL", fileDuration(file.SessionTTL, constants.DefaultSessionTTL)),

		AllowedEmailDomains: getListEnv("ALLOWED_EMAIL_DOMAINS", file.AllowedEmailDomains),
		RevokeFamilyOnReuse: getBoolEnv("REFRESH_REUSE_REVOKE_FAMILY", file.RevokeFamilyOnReuse),

		TokenStore:          strings.ToLower(getEnv("TOKEN_STORE", firstNonEmpty(file.TokenStore.Driver, TokenStorePostgres))),
		RedisURL:            getEnv("REDIS_URL", file.TokenStore.RedisURL),
		RedisTokenRetention: getDurationEnv("REDIS_TOKEN_RETENTION", fileDuration(file.TokenStore.RedisRetention, constants.DefaultRedisTokenRetention)),

		CircuitBreakerThreshold: getIntEnv("CIRCUIT_BREAKER_THRESHOLD", constants.DefaultCircuitBreakerThreshold),
		CircuitBreakerTimeout:   getDurationEnv("CIRCUIT_BREAKER_TIMEOUT", constants.DefaultCircuitBreakerTimeout),
		CircuitBreakerReset:     getDurationEnv("CIRCUIT_BREAKER_RESET", constants.DefaultCircuitBreakerReset),

		LogDir:   getEnv("LOG_DIR", file.Log.Dir),
		LogLevel: getEnv("LOG_LEVEL", firstNonEmpty(file.Log.Level, "INFO")),
	}

	providers, err := resolveProviders(file.OAuth.Providers)
	if err != nil {
		return AuthConfig{}, err
	}
	cfg.OAuthProviders = providers

	if err := cfg.validate(); err != nil {
		return AuthConfig{}, err
	}

	return cfg, nil
}

func (c AuthConfig) validate() error {
	switch c.TokenStore {
	case TokenStorePostgres:
	case TokenStoreRedis:
		if c.RedisURL == "" {
			return commonerrors.ErrMissingRequiredEnv.WithCause(errors.New("REDIS_URL"))
		}
	default:
		return commonerrors.ErrInvalidConfig.WithCause(fmt.Errorf("unknown TOKEN_STORE %q", c.TokenStore))
	}

	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 || c.SessionTTL <= 0 {
		return commonerrors.ErrInvalidConfig.WithCause(errors.New("token lifetimes must be positive"))
	}

	return nil
}

func loadFile(path string) (fileConfig, error) {
	var file fileConfig
	if path == "" {
		return file, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return file, nil
	}
	if err != nil {
		return file, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &file); err != nil {
		return file, commonerrors.ErrInvalidConfig.WithCause(fmt.Errorf("parse %s: %w", path, err))
	}

	return file, nil
}

func resolveProviders(in []OAuthProviderConfig) ([]OAuthProviderConfig, error) {
	seen := make(map[string]struct{}, len(in))
	out := make([]OAuthProviderConfig, 0, len(in))

	for _, p := range in {
		p.ID = strings.ToLower(strings.TrimSpace(p.ID))
		if p.ID == "" {
			return nil, commonerrors.ErrInvalidConfig.WithCause(errors.New("oauth provider without id"))
		}
		if _, dup := seen[p.ID]; dup {
			return nil, commonerrors.ErrInvalidConfig.WithCause(fmt.Errorf("duplicate oauth provider %q", p.ID))
		}
		seen[p.ID] = struct{}{}

		p.ClientSecret = getEnv("OAUTH_"+strings.ToUpper(p.ID)+"_CLIENT_SECRET", p.ClientSecret)

		if p.ClientID == "" || p.AuthURL == "" || p.TokenURL == "" || p.UserInfoURL == "" {
			return nil, commonerrors.ErrInvalidConfig.WithCause(fmt.Errorf("oauth provider %q is missing client_id or endpoints", p.ID))
		}
		out = append(out, p)
	}

	return out, nil
}

func validateJWTSecret(secret string) error {
	if len(secret) < constants.JWTSecretMinLength {
		return commonerrors.ErrInvalidJWTSecret.WithCause(fmt.Errorf("got %d bytes", len(secret)))
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

// getSecondsEnv accepts either a bare number of seconds or a Go duration.
func getSecondsEnv(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	return parseSeconds(v, fallback)
}

func fileDuration(v string, fallback time.Duration) time.Duration {
	if v == "" {
		return fallback
	}
	return parseSeconds(v, fallback)
}

func parseSeconds(v string, fallback time.Duration) time.Duration {
	if secs, err := strconv.ParseInt(v, 10, 64); err == nil {
		return time.Duration(secs) * time.Second
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func getIntEnv(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func getBoolEnv(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getListEnv(key string, fallback []string) []string {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return normalizeList(fallback)
	}
	return normalizeList(strings.Split(raw, ","))
}

func normalizeList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
