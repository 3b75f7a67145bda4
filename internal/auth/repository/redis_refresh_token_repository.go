package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	authdomain "github.com/AlibekovAA/session-auth/internal/auth/domain"
	"github.com/AlibekovAA/session-auth/internal/observability/metrics"
)

const (
	rotateMissing  = 0
	rotateInactive = 1
	rotateDone     = 2
)

// KEYS[1] presented token, KEYS[2] successor token.
// ARGV: now_ms, reason, next_id, next_issued_ms, next_expires_ms,
// next_pexpireat_ms, family_key_prefix, next_hash.
const rotateScript = `
local key = KEYS[1]
local next_key = KEYS[2]
local now = tonumber(ARGV[1])

if redis.call("EXISTS", key) == 0 then
  return 0
end

local revoked = redis.call("HGET", key, "revoked_at")
local expires = tonumber(redis.call("HGET", key, "expires_at"))
if (revoked and revoked ~= "") or not expires or expires <= now then
  return 1
end

redis.call("HSET", key, "revoked_at", ARGV[1], "revoke_reason", ARGV[2])

local user_id = redis.call("HGET", key, "user_id")
local family_id = redis.call("HGET", key, "family_id")

redis.call("HSET", next_key,
  "id", ARGV[3],
  "user_id", user_id,
  "family_id", family_id,
  "issued_at", ARGV[4],
  "expires_at", ARGV[5],
  "revoked_at", "",
  "revoke_reason", "")
redis.call("PEXPIREAT", next_key, ARGV[6])

local family_key = ARGV[7] .. family_id
redis.call("SADD", family_key, ARGV[8])
redis.call("PEXPIREAT", family_key, ARGV[6])

return 2
`

// KEYS[1] token. ARGV: now_ms, reason.
const revokeScript = `
if redis.call("EXISTS", KEYS[1]) == 0 then
  return 0
end
local revoked = redis.call("HGET", KEYS[1], "revoked_at")
if revoked and revoked ~= "" then
  return 0
end
redis.call("HSET", KEYS[1], "revoked_at", ARGV[1], "revoke_reason", ARGV[2])
return 1
`

var (
	rotateLua = redis.NewScript(rotateScript)
	revokeLua = redis.NewScript(revokeScript)
)

// RedisRefreshTokenRepository keeps one hash per token and one set of token
// digests per family. Keys outlive token expiry by the retention window so
// that consumed tokens are still recognised as reuse.
//
// The rotate script derives the family key from the stored token, so it
// touches keys it does not declare. That needs a single node; cluster
// clients are not accepted.
type RedisRefreshTokenRepository struct {
	client    *redis.Client
	prefix    string
	retention time.Duration
}

func NewRedisRefreshTokenRepository(client *redis.Client, prefix string, retention time.Duration) *RedisRefreshTokenRepository {
	return &RedisRefreshTokenRepository{
		client:    client,
		prefix:    prefix,
		retention: retention,
	}
}

func (r *RedisRefreshTokenRepository) tokenKey(hash string) string {
	return r.prefix + ":rt:" + hash
}

func (r *RedisRefreshTokenRepository) familyPrefix() string {
	return r.prefix + ":rtf:"
}

func (r *RedisRefreshTokenRepository) familyKey(familyID string) string {
	return r.familyPrefix() + familyID
}

func (r *RedisRefreshTokenRepository) expireAt(token authdomain.RefreshToken) time.Time {
	return token.ExpiresAt.Add(r.retention)
}

func (r *RedisRefreshTokenRepository) Create(ctx context.Context, token authdomain.RefreshToken) error {
	start := time.Now()
	key := r.tokenKey(token.TokenHash)
	familyKey := r.familyKey(token.FamilyID)
	expireAt := r.expireAt(token)

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key,
			"id", token.ID,
			"user_id", token.UserID,
			"family_id", token.FamilyID,
			"issued_at", toMillis(token.IssuedAt),
			"expires_at", toMillis(token.ExpiresAt),
			"revoked_at", "",
			"revoke_reason", "",
		)
		pipe.PExpireAt(ctx, key, expireAt)
		pipe.SAdd(ctx, familyKey, token.TokenHash)
		pipe.PExpireAt(ctx, familyKey, expireAt)
		return nil
	})
	return observeRedis("create refresh token", start, err)
}

func (r *RedisRefreshTokenRepository) FindByTokenHash(ctx context.Context, hash string) (authdomain.RefreshToken, error) {
	start := time.Now()
	fields, err := r.client.HGetAll(ctx, r.tokenKey(hash)).Result()
	if err := observeRedis("find refresh token", start, err); err != nil {
		return authdomain.RefreshToken{}, err
	}
	if len(fields) == 0 {
		return authdomain.RefreshToken{}, ErrRefreshTokenNotFound
	}
	return decodeRefreshToken(hash, fields)
}

func (r *RedisRefreshTokenRepository) Rotate(ctx context.Context, hash string, next authdomain.RefreshToken, now time.Time) (authdomain.RefreshToken, authdomain.RefreshToken, error) {
	start := time.Now()
	result, err := rotateLua.Run(
		ctx,
		r.client,
		[]string{r.tokenKey(hash), r.tokenKey(next.TokenHash)},
		toMillis(now),
		authdomain.RevokeReasonRotated,
		next.ID,
		toMillis(next.IssuedAt),
		toMillis(next.ExpiresAt),
		toMillis(r.expireAt(next)),
		r.familyPrefix(),
		next.TokenHash,
	).Int()
	if err := observeRedis("rotate refresh token", start, err); err != nil {
		return authdomain.RefreshToken{}, authdomain.RefreshToken{}, err
	}

	switch result {
	case rotateMissing:
		return authdomain.RefreshToken{}, authdomain.RefreshToken{}, ErrRefreshTokenNotFound
	case rotateInactive:
		stored, err := r.FindByTokenHash(ctx, hash)
		if err != nil {
			return authdomain.RefreshToken{}, authdomain.RefreshToken{}, err
		}
		return stored, authdomain.RefreshToken{}, ErrRefreshTokenNotActive
	case rotateDone:
	default:
		return authdomain.RefreshToken{}, authdomain.RefreshToken{}, fmt.Errorf("failed to rotate refresh token: unexpected script result %d", result)
	}

	consumed, err := r.FindByTokenHash(ctx, hash)
	if err != nil {
		return authdomain.RefreshToken{}, authdomain.RefreshToken{}, err
	}

	next.UserID = consumed.UserID
	next.FamilyID = consumed.FamilyID
	return consumed, next, nil
}

func (r *RedisRefreshTokenRepository) Revoke(ctx context.Context, hash, reason string, now time.Time) (bool, error) {
	start := time.Now()
	n, err := revokeLua.Run(ctx, r.client, []string{r.tokenKey(hash)}, toMillis(now), reason).Int()
	if err := observeRedis("revoke refresh token", start, err); err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *RedisRefreshTokenRepository) RevokeFamily(ctx context.Context, familyID, reason string, now time.Time) (int64, error) {
	start := time.Now()
	hashes, err := r.client.SMembers(ctx, r.familyKey(familyID)).Result()
	if err := observeRedis("list refresh token family", start, err); err != nil {
		return 0, err
	}

	var revoked int64
	for _, hash := range hashes {
		ok, err := r.Revoke(ctx, hash, reason, now)
		if err != nil {
			return revoked, err
		}
		if ok {
			revoked++
		}
	}
	return revoked, nil
}

func decodeRefreshToken(hash string, fields map[string]string) (authdomain.RefreshToken, error) {
	issuedAt, err := fromMillis(fields["issued_at"])
	if err != nil {
		return authdomain.RefreshToken{}, fmt.Errorf("failed to decode refresh token issued_at: %w", err)
	}
	expiresAt, err := fromMillis(fields["expires_at"])
	if err != nil {
		return authdomain.RefreshToken{}, fmt.Errorf("failed to decode refresh token expires_at: %w", err)
	}

	token := authdomain.RefreshToken{
		ID:           fields["id"],
		TokenHash:    hash,
		UserID:       fields["user_id"],
		FamilyID:     fields["family_id"],
		IssuedAt:     issuedAt,
		ExpiresAt:    expiresAt,
		RevokeReason: fields["revoke_reason"],
	}

	if raw := fields["revoked_at"]; raw != "" {
		revokedAt, err := fromMillis(raw)
		if err != nil {
			return authdomain.RefreshToken{}, fmt.Errorf("failed to decode refresh token revoked_at: %w", err)
		}
		token.RevokedAt = &revokedAt
	}

	return token, nil
}

func observeRedis(operation string, start time.Time, err error) error {
	metrics.RedisCommandDurationSeconds.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err == nil || errors.Is(err, redis.Nil) {
		return nil
	}
	metrics.RedisCommandErrors.WithLabelValues(operation).Inc()
	return fmt.Errorf("failed to %s: %w", operation, err)
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(v string) (time.Time, error) {
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(ms).UTC(), nil
}
