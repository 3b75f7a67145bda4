package service

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/AlibekovAA/session-auth/internal/common/clock"
	"github.com/AlibekovAA/session-auth/internal/common/jwtverify"
	userdomain "github.com/AlibekovAA/session-auth/internal/user/domain"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestTokenIssuer_ExpiryAndType(t *testing.T) {
	now := time.Date(2025, 2, 1, 9, 30, 0, 0, time.UTC)
	clk := clock.NewMockClock(now)
	issuer := NewTokenIssuer(testSecret, &seqIDGenerator{}, 900*time.Second, clk)

	token, expiresAt, err := issuer.IssueAccessToken(userdomain.User{ID: "u1", Email: "u1@example.com"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if !expiresAt.Equal(now.Add(900 * time.Second)) {
		t.Fatalf("unexpected expiry %v", expiresAt)
	}

	var claims jwtverify.AccessClaims
	_, err = jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return []byte(testSecret), nil
	}, jwt.WithTimeFunc(clk.Now))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if claims.UserID != "u1" || claims.Subject != "u1" {
		t.Fatalf("unexpected subject claims %+v", claims)
	}
	if claims.Type != jwtverify.TokenTypeAccess {
		t.Fatalf("expected type access, got %q", claims.Type)
	}
	if claims.ID == "" {
		t.Fatal("expected jti")
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt.Time); got != 900*time.Second {
		t.Fatalf("expected exp-iat = 900s, got %v", got)
	}
}

func TestTokenIssuer_RoundTripThroughVerifier(t *testing.T) {
	clk := clock.NewMockClock(time.Date(2025, 2, 1, 9, 30, 0, 0, time.UTC))
	issuer := NewTokenIssuer(testSecret, &seqIDGenerator{}, time.Minute, clk)
	verifier := jwtverify.NewVerifier(testSecret, clk)

	token, _, err := issuer.IssueAccessToken(userdomain.User{ID: "u1", Email: "u1@example.com"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := verifier.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != "u1" || claims.Email != "u1@example.com" {
		t.Fatalf("unexpected claims %+v", claims)
	}

	clk.Advance(2 * time.Minute)
	if _, err := verifier.Verify(token); !errors.Is(err, jwtverify.ErrTokenExpired) {
		t.Fatalf("expected expired token, got %v", err)
	}
}

func TestTokenIssuer_EmptySecret(t *testing.T) {
	issuer := NewTokenIssuer("", &seqIDGenerator{}, time.Minute, clock.NewRealClock())

	_, _, err := issuer.IssueAccessToken(userdomain.User{ID: "u1"})
	if !errors.Is(err, ErrSigningKeyMissing) {
		t.Fatalf("expected ErrSigningKeyMissing, got %v", err)
	}
}

func TestTokenIssuer_SignKeepsCallerJTI(t *testing.T) {
	clk := clock.NewMockClock(time.Date(2025, 2, 1, 9, 30, 0, 0, time.UTC))
	issuer := NewTokenIssuer(testSecret, &seqIDGenerator{}, time.Minute, clk)

	token, _, err := issuer.sign(jwtverify.AccessClaims{
		UserID:           "u1",
		RegisteredClaims: jwt.RegisteredClaims{ID: "fixed-jti"},
	}, time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	claims, err := jwtverify.NewVerifier(testSecret, clk).Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.TokenID != "fixed-jti" {
		t.Fatalf("expected fixed-jti, got %q", claims.TokenID)
	}
}
