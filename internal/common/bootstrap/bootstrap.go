package bootstrap

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"

	authrepo "github.com/AlibekovAA/session-auth/internal/auth/repository"
	"github.com/AlibekovAA/session-auth/internal/common/config"
	"github.com/AlibekovAA/session-auth/internal/common/constants"
	"github.com/AlibekovAA/session-auth/internal/common/db"
	commonhttp "github.com/AlibekovAA/session-auth/internal/common/http"
	"github.com/AlibekovAA/session-auth/internal/common/logger"
	userrepo "github.com/AlibekovAA/session-auth/internal/user/repository"
)

// AuthApp holds the process-wide resources of the auth service: logger,
// configuration, the Postgres pool and the selected refresh token store.
type AuthApp struct {
	Log              *logger.Logger
	Config           config.AuthConfig
	Pool             *pgxpool.Pool
	Redis            *redis.Client
	UserRepo         userrepo.Repository
	RefreshTokenRepo authrepo.RefreshTokenRepository
}

func NewAuthApp(ctx context.Context) (*AuthApp, error) {
	cfg, err := config.LoadAuthConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.GetInstance()
	if err := log.Initialize(cfg.LogDir, "auth", cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	pool := db.NewPool(ctx, log, cfg.DatabaseURL)
	if pool == nil {
		return nil, fmt.Errorf("failed to initialize database pool")
	}

	if err := db.Migrate(ctx, log, pool); err != nil {
		pool.Close()
		return nil, err
	}

	app := &AuthApp{
		Log:      log,
		Config:   cfg,
		Pool:     pool,
		UserRepo: userrepo.NewPgRepository(pool),
	}

	if err := app.initTokenStore(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return app, nil
}

func (a *AuthApp) initTokenStore(ctx context.Context) error {
	switch a.Config.TokenStore {
	case config.TokenStoreRedis:
		opts, err := redis.ParseURL(a.Config.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to parse redis url: %w", err)
		}
		opts.DialTimeout = constants.RedisDialTimeout
		opts.ReadTimeout = constants.RedisReadTimeout
		opts.WriteTimeout = constants.RedisWriteTimeout

		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return fmt.Errorf("failed to connect to redis: %w", err)
		}

		a.Redis = client
		a.RefreshTokenRepo = authrepo.NewRedisRefreshTokenRepository(client, constants.RedisKeyPrefix, a.Config.RedisTokenRetention)
		a.Log.Infof("refresh token store: redis (retention=%v)", a.Config.RedisTokenRetention)
	default:
		a.RefreshTokenRepo = authrepo.NewPgRefreshTokenRepository(a.Pool, a.Log)
		a.Log.Infof("refresh token store: postgres")
	}
	return nil
}

// HealthChecks reports the reachability of every backing store.
func (a *AuthApp) HealthChecks() map[string]commonhttp.HealthChecker {
	checks := map[string]commonhttp.HealthChecker{
		"postgres": func(ctx context.Context) error {
			return a.Pool.Ping(ctx)
		},
	}
	if a.Redis != nil {
		checks["redis"] = func(ctx context.Context) error {
			return a.Redis.Ping(ctx).Err()
		}
	}
	return checks
}

func (a *AuthApp) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Log.Errorf("failed to close redis client: %v", err)
		}
	}
	a.Pool.Close()
	_ = a.Log.Close()
}
