package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	authdomain "github.com/AlibekovAA/session-auth/internal/auth/domain"
	authrepo "github.com/AlibekovAA/session-auth/internal/auth/repository"
	"github.com/AlibekovAA/session-auth/internal/common/clock"
	"github.com/AlibekovAA/session-auth/internal/common/constants"
	commoncrypto "github.com/AlibekovAA/session-auth/internal/common/crypto"
	commonerrors "github.com/AlibekovAA/session-auth/internal/common/errors"
	"github.com/AlibekovAA/session-auth/internal/common/logger"
	"github.com/AlibekovAA/session-auth/internal/common/resilience"
)

type RefreshTokenRotatorInterface interface {
	Issue(ctx context.Context, userID string) (authdomain.RefreshToken, error)
	Rotate(ctx context.Context, presented string) (authdomain.RefreshToken, error)
	RevokeOnLogout(ctx context.Context, presented string) error
}

type RotatorConfig struct {
	RefreshTokenTTL     time.Duration
	RevokeFamilyOnReuse bool
}

// RefreshTokenRotator drives the refresh token lifecycle:
// active -> consumed | expired | revoked. Only active tokens can be rotated
// and every other state is terminal.
type RefreshTokenRotator struct {
	refreshTokenRepo authrepo.RefreshTokenRepository
	dbCircuitBreaker resilience.CircuitBreakerInterface
	idGenerator      commoncrypto.IDGenerator
	clock            clock.Clock
	cfg              RotatorConfig
	log              *logger.Logger
}

func NewRefreshTokenRotator(
	refreshTokenRepo authrepo.RefreshTokenRepository,
	dbCircuitBreaker resilience.CircuitBreakerInterface,
	idGenerator commoncrypto.IDGenerator,
	cfg RotatorConfig,
	clock clock.Clock,
	log *logger.Logger,
) *RefreshTokenRotator {
	return &RefreshTokenRotator{
		refreshTokenRepo: refreshTokenRepo,
		dbCircuitBreaker: dbCircuitBreaker,
		idGenerator:      idGenerator,
		clock:            clock,
		cfg:              cfg,
		log:              log,
	}
}

// Issue starts a new token family for userID.
func (r *RefreshTokenRotator) Issue(ctx context.Context, userID string) (authdomain.RefreshToken, error) {
	familyID, err := r.idGenerator.NewID()
	if err != nil {
		return authdomain.RefreshToken{}, err
	}

	token, err := r.newToken(r.clock.Now())
	if err != nil {
		return authdomain.RefreshToken{}, err
	}
	token.UserID = userID
	token.FamilyID = familyID

	err = r.dbCircuitBreaker.Call(ctx, func(ctx context.Context) error {
		return r.refreshTokenRepo.Create(ctx, token)
	})
	if err != nil {
		if errors.Is(err, commonerrors.ErrCircuitOpen) {
			r.log.WithFields(ctx, logger.Fields{
				"user_id": userID,
				"action":  "create_refresh_token_db_circuit_open",
			}).Error("failed to create refresh token: database circuit breaker is open")
		} else {
			r.log.WithFields(ctx, logger.Fields{
				"user_id": userID,
				"action":  "create_refresh_token_failed",
			}).Errorf("failed to create refresh token: %v", err)
		}
		return authdomain.RefreshToken{}, handleCircuitBreakerError(err)
	}

	incrementRefreshTokensIssued()
	return token, nil
}

// Rotate consumes presented and returns its successor. Unknown values fail
// with ErrRefreshTokenUnknown and expired, revoked or already rotated ones
// with ErrRefreshTokenInvalid. Any other error is a store fault.
func (r *RefreshTokenRotator) Rotate(ctx context.Context, presented string) (authdomain.RefreshToken, error) {
	if presented == "" {
		incrementRotationFailure(rotationFailureUnknown)
		return authdomain.RefreshToken{}, ErrRefreshTokenUnknown
	}

	now := r.clock.Now()
	hash := commoncrypto.HashToken(presented)

	next, err := r.newToken(now)
	if err != nil {
		return authdomain.RefreshToken{}, err
	}

	var stored, created authdomain.RefreshToken
	err = r.dbCircuitBreaker.Call(ctx, func(ctx context.Context) error {
		var err error
		stored, created, err = r.refreshTokenRepo.Rotate(ctx, hash, next, now)
		return err
	})

	switch {
	case err == nil:
	case errors.Is(err, authrepo.ErrRefreshTokenNotFound):
		r.log.WithFields(ctx, logger.Fields{
			"action": "refresh_token_not_found",
		}).Warn("refresh token rotation failed: unknown token")
		incrementRotationFailure(rotationFailureUnknown)
		return authdomain.RefreshToken{}, ErrRefreshTokenUnknown
	case errors.Is(err, authrepo.ErrRefreshTokenNotActive):
		return authdomain.RefreshToken{}, r.rejectInactive(ctx, stored, now)
	default:
		r.log.WithFields(ctx, logger.Fields{
			"action": "refresh_token_rotate_failed",
		}).Errorf("refresh token rotation failed: %v", err)
		return authdomain.RefreshToken{}, handleCircuitBreakerError(err)
	}

	created.RawToken = next.RawToken

	r.log.WithFields(ctx, logger.Fields{
		"user_id":   created.UserID,
		"family_id": created.FamilyID,
		"action":    "refresh_token_rotated",
	}).Info("refresh token rotated")

	incrementRefreshTokensRotated()
	incrementRefreshTokensIssued()
	return created, nil
}

func (r *RefreshTokenRotator) rejectInactive(ctx context.Context, stored authdomain.RefreshToken, now time.Time) error {
	state := stored.State(now)
	fields := logger.Fields{
		"user_id":   stored.UserID,
		"family_id": stored.FamilyID,
		"state":     string(state),
	}

	switch state {
	case authdomain.TokenExpired:
		fields["action"] = "refresh_token_expired"
		r.log.WithFields(ctx, fields).Warn("refresh token rotation failed: token expired")
		incrementRotationFailure(rotationFailureExpired)
	case authdomain.TokenConsumed:
		fields["action"] = "refresh_token_reuse_detected"
		r.log.WithFields(ctx, fields).Warn("refresh token rotation failed: token already rotated")
		incrementRotationFailure(rotationFailureReused)
		incrementRefreshTokenReuse()
		if r.cfg.RevokeFamilyOnReuse {
			r.revokeFamily(ctx, stored, now)
		}
	default:
		fields["action"] = "refresh_token_revoked"
		r.log.WithFields(ctx, fields).Warn("refresh token rotation failed: token revoked")
		incrementRotationFailure(rotationFailureRevoked)
	}

	return ErrRefreshTokenInvalid.WithCause(fmt.Errorf("token is %s", state))
}

// revokeFamily is best effort: the presenting client is rejected either way.
func (r *RefreshTokenRotator) revokeFamily(ctx context.Context, stored authdomain.RefreshToken, now time.Time) {
	var revoked int64
	err := r.dbCircuitBreaker.Call(ctx, func(ctx context.Context) error {
		var err error
		revoked, err = r.refreshTokenRepo.RevokeFamily(ctx, stored.FamilyID, authdomain.RevokeReasonReuse, now)
		return err
	})
	if err != nil {
		r.log.WithFields(ctx, logger.Fields{
			"user_id":   stored.UserID,
			"family_id": stored.FamilyID,
			"action":    "refresh_token_family_revoke_failed",
		}).Errorf("failed to revoke refresh token family: %v", err)
		return
	}

	addRefreshTokensRevoked(authdomain.RevokeReasonReuse, revoked)
	r.log.WithFields(ctx, logger.Fields{
		"user_id":   stored.UserID,
		"family_id": stored.FamilyID,
		"revoked":   revoked,
		"action":    "refresh_token_family_revoked",
	}).Warn("refresh token family revoked after reuse")
}

// RevokeOnLogout revokes presented whatever its state. Empty and unknown
// values succeed silently, so only store faults are reported.
func (r *RefreshTokenRotator) RevokeOnLogout(ctx context.Context, presented string) error {
	if presented == "" {
		return nil
	}

	hash := commoncrypto.HashToken(presented)
	var revoked bool
	err := r.dbCircuitBreaker.Call(ctx, func(ctx context.Context) error {
		var err error
		revoked, err = r.refreshTokenRepo.Revoke(ctx, hash, authdomain.RevokeReasonLogout, r.clock.Now())
		return err
	})
	if err != nil {
		r.log.WithFields(ctx, logger.Fields{
			"action": "revoke_refresh_token_failed",
		}).Errorf("revoke refresh token failed: %v", err)
		return handleCircuitBreakerError(err)
	}

	if revoked {
		addRefreshTokensRevoked(authdomain.RevokeReasonLogout, 1)
		r.log.WithFields(ctx, logger.Fields{
			"action": "refresh_token_revoked",
		}).Info("refresh token revoked")
	}
	return nil
}

func (r *RefreshTokenRotator) newToken(now time.Time) (authdomain.RefreshToken, error) {
	raw, err := commoncrypto.RandomHex(constants.RefreshTokenSize)
	if err != nil {
		return authdomain.RefreshToken{}, err
	}

	id, err := r.idGenerator.NewID()
	if err != nil {
		return authdomain.RefreshToken{}, err
	}

	return authdomain.RefreshToken{
		ID:        id,
		TokenHash: commoncrypto.HashToken(raw),
		IssuedAt:  now,
		ExpiresAt: now.Add(r.cfg.RefreshTokenTTL),
		RawToken:  raw,
	}, nil
}
