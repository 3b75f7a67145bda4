package service

import (
	"github.com/AlibekovAA/session-auth/internal/observability/metrics"
)

const (
	signInMethodCredentials = "credentials"
	signInMethodOAuth       = "oauth"

	signInResultSuccess      = "success"
	signInResultInvalid      = "invalid_credentials"
	signInResultDomainDenied = "domain_not_allowed"
	signInResultValidation   = "validation"
	signInResultError        = "error"

	rotationFailureUnknown = "unknown"
	rotationFailureExpired = "expired"
	rotationFailureRevoked = "revoked"
	rotationFailureReused  = "reused"

	userOriginCredentials = "credentials"
	userOriginOAuth       = "oauth"
)

func recordSignIn(method, result string) {
	metrics.SignInAttempts.WithLabelValues(method, result).Inc()
}

func incrementUsersCreated(origin string) {
	metrics.UsersCreated.WithLabelValues(origin).Inc()
}

func incrementRefreshTokensIssued() {
	metrics.RefreshTokensIssued.Inc()
}

func incrementRefreshTokensRotated() {
	metrics.RefreshTokensRotated.Inc()
}

func incrementRotationFailure(reason string) {
	metrics.RefreshRotationFailures.WithLabelValues(reason).Inc()
}

func incrementRefreshTokenReuse() {
	metrics.RefreshTokenReuseDetected.Inc()
}

func addRefreshTokensRevoked(reason string, n int64) {
	metrics.RefreshTokensRevoked.WithLabelValues(reason).Add(float64(n))
}

func incrementAccessTokensIssued() {
	metrics.AccessTokensIssued.Inc()
}

func incrementAccessTokenSigningFailures() {
	metrics.AccessTokenSigningFailures.Inc()
}
