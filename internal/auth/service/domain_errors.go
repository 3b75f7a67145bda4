package service

import (
	commonerrors "github.com/AlibekovAA/session-auth/internal/common/errors"
)

var (
	ErrValidation = commonerrors.NewDomainError(
		"VALIDATION_FAILED",
		commonerrors.CategoryValidation,
		400,
		"validation failed",
	)

	ErrDomainNotAllowed = commonerrors.NewDomainError(
		"DOMAIN_NOT_ALLOWED",
		commonerrors.CategoryUnauthorized,
		401,
		"invalid credentials",
	)

	ErrInvalidCredentials = commonerrors.NewDomainError(
		"INVALID_CREDENTIALS",
		commonerrors.CategoryUnauthorized,
		401,
		"invalid credentials",
	)

	ErrEmailTaken = commonerrors.NewDomainError(
		"EMAIL_TAKEN",
		commonerrors.CategoryConflict,
		409,
		"email already registered",
	)

	ErrOAuthAccountNotLinked = commonerrors.NewDomainError(
		"OAUTH_ACCOUNT_NOT_LINKED",
		commonerrors.CategoryConflict,
		409,
		"email is already used by another sign-in method",
	)

	ErrRefreshTokenUnknown = commonerrors.NewDomainError(
		"REFRESH_TOKEN_UNKNOWN",
		commonerrors.CategoryUnauthorized,
		401,
		"invalid refresh token",
	)

	ErrRefreshTokenInvalid = commonerrors.NewDomainError(
		"REFRESH_TOKEN_INVALID",
		commonerrors.CategoryUnauthorized,
		401,
		"invalid refresh token",
	)

	ErrSessionUserNotFound = commonerrors.NewDomainError(
		"SESSION_USER_NOT_FOUND",
		commonerrors.CategoryUnauthorized,
		401,
		"session is no longer valid",
	)

	ErrSigningKeyMissing = commonerrors.NewDomainError(
		"SIGNING_KEY_MISSING",
		commonerrors.CategoryInternal,
		500,
		"access token signing key is not configured",
	)

	ErrServiceUnavailable = commonerrors.NewDomainError(
		"SERVICE_UNAVAILABLE",
		commonerrors.CategoryExternal,
		503,
		"service temporarily unavailable",
	)
)

// SigningErrorFlag is the session error value reported when the access token
// could not be signed but the refresh token was still rotated.
const SigningErrorFlag = "AccessTokenSigningError"
