package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgconn"
	pgx "github.com/jackc/pgx/v4"

	authdomain "github.com/AlibekovAA/session-auth/internal/auth/domain"
	"github.com/AlibekovAA/session-auth/internal/common/db"
	"github.com/AlibekovAA/session-auth/internal/common/logger"
)

var (
	ErrRefreshTokenNotFound  = errors.New("refresh token not found")
	ErrRefreshTokenNotActive = errors.New("refresh token is not active")
)

// RefreshTokenRepository is the durable store behind refresh token rotation.
// Tokens are addressed by the SHA-256 digest of their raw value and are never
// deleted: revocation only stamps revoked_at.
type RefreshTokenRepository interface {
	Create(ctx context.Context, token authdomain.RefreshToken) error
	FindByTokenHash(ctx context.Context, hash string) (authdomain.RefreshToken, error)
	// Rotate revokes the token identified by hash if it is still active at now
	// and stores next in the same family. Exactly one of any number of
	// concurrent calls for the same hash succeeds. When the token exists but
	// is no longer active the stored row is returned with ErrRefreshTokenNotActive.
	Rotate(ctx context.Context, hash string, next authdomain.RefreshToken, now time.Time) (consumed authdomain.RefreshToken, created authdomain.RefreshToken, err error)
	Revoke(ctx context.Context, hash, reason string, now time.Time) (bool, error)
	RevokeFamily(ctx context.Context, familyID, reason string, now time.Time) (int64, error)
}

const refreshTokenColumns = `id, token_hash, user_id, family_id, issued_at, expires_at, revoked_at, revoke_reason`

type PgRefreshTokenRepository struct {
	pool  db.Pool
	log   *logger.Logger
	retry db.RetryConfig
}

func NewPgRefreshTokenRepository(pool db.Pool, log *logger.Logger) *PgRefreshTokenRepository {
	return &PgRefreshTokenRepository{
		pool:  pool,
		log:   log,
		retry: db.DefaultRetryConfig,
	}
}

func (r *PgRefreshTokenRepository) Create(ctx context.Context, token authdomain.RefreshToken) error {
	return insertRefreshToken(ctx, r.pool, token, "create refresh token")
}

func (r *PgRefreshTokenRepository) FindByTokenHash(ctx context.Context, hash string) (authdomain.RefreshToken, error) {
	return findRefreshToken(ctx, r.pool, hash, "find refresh token")
}

func (r *PgRefreshTokenRepository) Rotate(ctx context.Context, hash string, next authdomain.RefreshToken, now time.Time) (authdomain.RefreshToken, authdomain.RefreshToken, error) {
	var consumed, created authdomain.RefreshToken

	err := db.RetryWithBackoff(ctx, r.log, r.retry, "rotate refresh token", func() error {
		return db.WithTx(ctx, r.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
			start := time.Now()
			row := tx.QueryRow(
				ctx,
				`UPDATE refresh_tokens
				 SET revoked_at = $2, revoke_reason = $3
				 WHERE token_hash = $1 AND revoked_at IS NULL AND expires_at > $2
				 RETURNING `+refreshTokenColumns,
				hash,
				now,
				authdomain.RevokeReasonRotated,
			)

			token, err := scanRefreshToken(row)
			if errors.Is(err, pgx.ErrNoRows) {
				db.MeasureQueryDuration("consume refresh token", start)
				stored, findErr := findRefreshToken(ctx, tx, hash, "find refresh token in tx")
				if findErr != nil {
					return findErr
				}
				consumed = stored
				return ErrRefreshTokenNotActive
			}
			if err := db.HandleQueryError(err, nil, "consume refresh token", start); err != nil {
				return err
			}

			next.UserID = token.UserID
			next.FamilyID = token.FamilyID
			if err := insertRefreshToken(ctx, tx, next, "create rotated refresh token"); err != nil {
				return err
			}

			consumed = token
			created = next
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, ErrRefreshTokenNotActive) {
			return consumed, authdomain.RefreshToken{}, err
		}
		return authdomain.RefreshToken{}, authdomain.RefreshToken{}, err
	}

	return consumed, created, nil
}

func (r *PgRefreshTokenRepository) Revoke(ctx context.Context, hash, reason string, now time.Time) (bool, error) {
	start := time.Now()
	tag, err := r.pool.Exec(
		ctx,
		`UPDATE refresh_tokens
		 SET revoked_at = $2, revoke_reason = $3
		 WHERE token_hash = $1 AND revoked_at IS NULL`,
		hash,
		now,
		reason,
	)
	if err := db.HandleExecError(err, "revoke refresh token", start); err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PgRefreshTokenRepository) RevokeFamily(ctx context.Context, familyID, reason string, now time.Time) (int64, error) {
	start := time.Now()
	tag, err := r.pool.Exec(
		ctx,
		`UPDATE refresh_tokens
		 SET revoked_at = $2, revoke_reason = $3
		 WHERE family_id = $1 AND revoked_at IS NULL`,
		familyID,
		now,
		reason,
	)
	if err := db.HandleExecError(err, "revoke refresh token family", start); err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func findRefreshToken(ctx context.Context, q rowQuerier, hash, operation string) (authdomain.RefreshToken, error) {
	start := time.Now()
	row := q.QueryRow(ctx, `SELECT `+refreshTokenColumns+` FROM refresh_tokens WHERE token_hash = $1`, hash)

	token, err := scanRefreshToken(row)
	if err := db.HandleQueryError(err, ErrRefreshTokenNotFound, operation, start); err != nil {
		return authdomain.RefreshToken{}, err
	}
	return token, nil
}

type execQuerier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

func insertRefreshToken(ctx context.Context, q execQuerier, token authdomain.RefreshToken, operation string) error {
	start := time.Now()
	_, err := q.Exec(
		ctx,
		`INSERT INTO refresh_tokens (id, token_hash, user_id, family_id, issued_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		token.ID,
		token.TokenHash,
		token.UserID,
		token.FamilyID,
		token.IssuedAt,
		token.ExpiresAt,
	)
	return db.HandleExecError(err, operation, start)
}

func scanRefreshToken(row pgx.Row) (authdomain.RefreshToken, error) {
	var (
		token  authdomain.RefreshToken
		reason *string
	)

	err := row.Scan(
		&token.ID,
		&token.TokenHash,
		&token.UserID,
		&token.FamilyID,
		&token.IssuedAt,
		&token.ExpiresAt,
		&token.RevokedAt,
		&reason,
	)
	if err != nil {
		return authdomain.RefreshToken{}, err
	}
	if reason != nil {
		token.RevokeReason = *reason
	}
	return token, nil
}
