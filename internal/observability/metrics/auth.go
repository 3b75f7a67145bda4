package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AuthRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_requests_total",
			Help: "Total number of auth requests",
		},
		[]string{"method", "path"},
	)

	AuthRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "auth_requests_in_flight",
			Help: "Number of auth requests currently being processed",
		},
	)

	AuthRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "auth_request_duration_seconds",
			Help:    "Duration of auth requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	SignInAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_signin_attempts_total",
			Help: "Sign-in attempts by method and result",
		},
		[]string{"method", "result"},
	)

	UsersCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_users_created_total",
			Help: "Users created by origin",
		},
		[]string{"origin"},
	)

	RefreshTokensIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "refresh_tokens_issued_total",
			Help: "Total number of refresh tokens issued",
		},
	)

	RefreshTokensRotated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "refresh_tokens_rotated_total",
			Help: "Total number of successful refresh token rotations",
		},
	)

	RefreshRotationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "refresh_rotation_failures_total",
			Help: "Rejected refresh token rotations by reason",
		},
		[]string{"reason"},
	)

	RefreshTokenReuseDetected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "refresh_token_reuse_detected_total",
			Help: "Presentations of an already rotated refresh token",
		},
	)

	RefreshTokensRevoked = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "refresh_tokens_revoked_total",
			Help: "Total number of refresh tokens revoked",
		},
		[]string{"reason"},
	)

	AccessTokensIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "access_tokens_issued_total",
			Help: "Total number of access tokens issued",
		},
	)

	AccessTokenSigningFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "access_token_signing_failures_total",
			Help: "Total number of access tokens that could not be signed",
		},
	)

	JWTValidationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "jwt_validations_total",
			Help: "Total number of JWT validations",
		},
	)

	JWTValidationsFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "jwt_validations_failed_total",
			Help: "Total number of failed JWT validations",
		},
	)

	OAuthCallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oauth_callbacks_total",
			Help: "OAuth callbacks by provider and result",
		},
		[]string{"provider", "result"},
	)
)
