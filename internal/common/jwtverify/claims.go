package jwtverify

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/AlibekovAA/session-auth/internal/common/clock"
	commonerrors "github.com/AlibekovAA/session-auth/internal/common/errors"
	"github.com/AlibekovAA/session-auth/internal/observability/metrics"
)

const TokenTypeAccess = "access"

// AccessClaims is the payload of an access token.
type AccessClaims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Type   string `json:"type"`
	jwt.RegisteredClaims
}

type Claims struct {
	UserID    string
	Email     string
	TokenID   string
	ExpiresAt time.Time
}

var ErrTokenExpired = commonerrors.NewDomainError(
	"TOKEN_EXPIRED",
	commonerrors.CategoryUnauthorized,
	401,
	"token expired",
)

type Verifier struct {
	secret []byte
	clock  clock.Clock
}

func NewVerifier(secret string, clk clock.Clock) *Verifier {
	return &Verifier{secret: []byte(secret), clock: clk}
}

func (v *Verifier) Verify(tokenString string) (Claims, error) {
	metrics.JWTValidationsTotal.Inc()

	claims, err := v.verify(tokenString)
	if err != nil {
		metrics.JWTValidationsFailed.Inc()
		return Claims{}, err
	}
	return claims, nil
}

func (v *Verifier) verify(tokenString string) (Claims, error) {
	if len(v.secret) == 0 {
		return Claims{}, commonerrors.ErrInvalidToken.WithCause(errors.New("verifier has no signing key"))
	}

	var access AccessClaims
	token, err := jwt.ParseWithClaims(
		tokenString,
		&access,
		func(*jwt.Token) (any, error) { return v.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(v.clock.Now),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return Claims{}, ErrTokenExpired.WithCause(err)
		case errors.Is(err, jwt.ErrTokenUnverifiable), wrongAlgorithm(token):
			return Claims{}, commonerrors.ErrInvalidTokenSigningMethod.WithCause(err)
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return Claims{}, commonerrors.ErrInvalidTokenSignature.WithCause(err)
		default:
			return Claims{}, commonerrors.ErrInvalidToken.WithCause(err)
		}
	}

	if access.Type != TokenTypeAccess {
		return Claims{}, commonerrors.ErrInvalidTokenClaims.WithCause(errors.New("token type is not access"))
	}
	if access.UserID == "" {
		return Claims{}, commonerrors.ErrMissingTokenClaims.WithCause(errors.New("userId is empty"))
	}

	claims := Claims{
		UserID:  access.UserID,
		Email:   access.Email,
		TokenID: access.ID,
	}
	if access.ExpiresAt != nil {
		claims.ExpiresAt = access.ExpiresAt.Time
	}
	return claims, nil
}

// wrongAlgorithm reports a parsed header naming anything but HS256. jwt
// reports that case as ErrTokenSignatureInvalid too.
func wrongAlgorithm(token *jwt.Token) bool {
	return token != nil && token.Method != nil && token.Method.Alg() != jwt.SigningMethodHS256.Alg()
}
