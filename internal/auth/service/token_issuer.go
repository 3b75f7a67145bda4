package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/AlibekovAA/session-auth/internal/common/clock"
	commoncrypto "github.com/AlibekovAA/session-auth/internal/common/crypto"
	"github.com/AlibekovAA/session-auth/internal/common/jwtverify"
	userdomain "github.com/AlibekovAA/session-auth/internal/user/domain"
)

type AccessTokenSigner interface {
	IssueAccessToken(user userdomain.User) (string, time.Time, error)
}

// TokenIssuer signs HS256 access tokens. It holds no state besides the key.
type TokenIssuer struct {
	jwtSecret      []byte
	idGenerator    commoncrypto.IDGenerator
	clock          clock.Clock
	accessTokenTTL time.Duration
}

func NewTokenIssuer(
	jwtSecret string,
	idGenerator commoncrypto.IDGenerator,
	accessTokenTTL time.Duration,
	clock clock.Clock,
) *TokenIssuer {
	return &TokenIssuer{
		jwtSecret:      []byte(jwtSecret),
		idGenerator:    idGenerator,
		clock:          clock,
		accessTokenTTL: accessTokenTTL,
	}
}

// sign stamps iat, exp and the access type onto claims and signs them. A jti
// is generated when claims carry none.
func (ti *TokenIssuer) sign(claims jwtverify.AccessClaims, ttl time.Duration) (string, time.Time, error) {
	if len(ti.jwtSecret) == 0 {
		return "", time.Time{}, ErrSigningKeyMissing
	}

	if claims.ID == "" {
		jti, err := ti.idGenerator.NewID()
		if err != nil {
			return "", time.Time{}, err
		}
		claims.ID = jti
	}

	now := ti.clock.Now()
	expiresAt := jwt.NewNumericDate(now.Add(ttl))
	claims.Type = jwtverify.TokenTypeAccess
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = expiresAt
	if claims.Subject == "" {
		claims.Subject = claims.UserID
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ti.jwtSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt.Time, nil
}

func (ti *TokenIssuer) IssueAccessToken(user userdomain.User) (string, time.Time, error) {
	token, expiresAt, err := ti.sign(jwtverify.AccessClaims{
		UserID: string(user.ID),
		Email:  user.Email,
	}, ti.accessTokenTTL)
	if err != nil {
		incrementAccessTokenSigningFailures()
		return "", time.Time{}, err
	}

	incrementAccessTokensIssued()
	return token, expiresAt, nil
}
