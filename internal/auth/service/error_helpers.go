package service

import (
	"errors"

	authrepo "github.com/AlibekovAA/session-auth/internal/auth/repository"
	commonerrors "github.com/AlibekovAA/session-auth/internal/common/errors"
	userrepo "github.com/AlibekovAA/session-auth/internal/user/repository"
)

func handleCircuitBreakerError(err error) error {
	if errors.Is(err, commonerrors.ErrCircuitOpen) {
		return ErrServiceUnavailable.WithCause(err)
	}
	return err
}

// IsRotationFailure reports whether err means the presented refresh token
// cannot be used, as opposed to a fault in the store.
func IsRotationFailure(err error) bool {
	return errors.Is(err, ErrRefreshTokenUnknown) || errors.Is(err, ErrRefreshTokenInvalid)
}

// IsExpectedStoreOutcome marks repository results that are normal answers
// rather than store faults. The circuit breaker ignores them.
func IsExpectedStoreOutcome(err error) bool {
	return errors.Is(err, authrepo.ErrRefreshTokenNotFound) ||
		errors.Is(err, authrepo.ErrRefreshTokenNotActive) ||
		errors.Is(err, userrepo.ErrUserNotFound) ||
		errors.Is(err, userrepo.ErrEmailAlreadyExists) ||
		errors.Is(err, userrepo.ErrAccountAlreadyLinked)
}
