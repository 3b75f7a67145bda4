package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	authhttp "github.com/AlibekovAA/session-auth/internal/auth/http"
	"github.com/AlibekovAA/session-auth/internal/auth/oauth"
	"github.com/AlibekovAA/session-auth/internal/auth/service"
	"github.com/AlibekovAA/session-auth/internal/common/bootstrap"
	"github.com/AlibekovAA/session-auth/internal/common/clock"
	"github.com/AlibekovAA/session-auth/internal/common/constants"
	commoncrypto "github.com/AlibekovAA/session-auth/internal/common/crypto"
	commonhttp "github.com/AlibekovAA/session-auth/internal/common/http"
	"github.com/AlibekovAA/session-auth/internal/common/jwtverify"
	"github.com/AlibekovAA/session-auth/internal/common/resilience"
	srv "github.com/AlibekovAA/session-auth/internal/common/server"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := bootstrap.NewAuthApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start auth service: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	cfg := app.Config
	log := app.Log
	clk := clock.NewRealClock()
	hasher := commoncrypto.NewScryptHasher()
	idGenerator := commoncrypto.NewUUIDGenerator()
	whitelist := service.NewDomainWhitelist(cfg.AllowedEmailDomains)

	storeBreaker := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Threshold:  int32(cfg.CircuitBreakerThreshold),
		Timeout:    cfg.CircuitBreakerTimeout,
		ResetAfter: cfg.CircuitBreakerReset,
		Name:       "auth_store",
		Logger:     log,
		IsExpected: service.IsExpectedStoreOutcome,
	})

	rotator := service.NewRefreshTokenRotator(
		app.RefreshTokenRepo,
		storeBreaker,
		idGenerator,
		service.RotatorConfig{
			RefreshTokenTTL:     cfg.RefreshTokenTTL,
			RevokeFamilyOnReuse: cfg.RevokeFamilyOnReuse,
		},
		clk,
		log,
	)

	authService := service.NewAuthService(
		app.UserRepo,
		service.NewCredentialVerifier(app.UserRepo, hasher, whitelist, storeBreaker, log),
		service.NewTokenIssuer(cfg.JWTSecret, idGenerator, cfg.AccessTokenTTL, clk),
		rotator,
		hasher,
		idGenerator,
		whitelist,
		storeBreaker,
		service.Config{SessionTTL: cfg.SessionTTL},
		clk,
		log,
	)

	providers := oauth.NewRegistry(cfg.OAuthProviders, &http.Client{Timeout: constants.OAuthUserInfoTimeout})
	if providers.Len() > 0 {
		log.Infof("oauth providers: %v", providers.IDs())
	}

	rateLimiter := commonhttp.NewStrictRateLimiter()
	rateLimiter.StartCleanup(ctx, constants.DefaultRateLimiterCleanupAge)

	handler := authhttp.NewHandler(
		authService,
		providers,
		jwtverify.NewVerifier(cfg.JWTSecret, clk),
		rateLimiter,
		app.HealthChecks(),
		authhttp.Config{
			RequestTimeout:  cfg.RequestTimeout,
			RefreshTokenTTL: cfg.RefreshTokenTTL,
			SecureCookies:   cfg.SecureCookies(),
		},
		log,
	)

	mux := http.NewServeMux()
	mux.Handle("/", handler)
	mux.Handle("/metrics", promhttp.Handler())

	server := srv.New(cfg.HTTPPort, commonhttp.BuildBaseHandler(log, mux, cfg.SecureCookies()))

	srv.Run(server, log, "auth", func(context.Context) error {
		log.Infof("auth service: stopping background workers")
		cancel()
		return nil
	})
}
