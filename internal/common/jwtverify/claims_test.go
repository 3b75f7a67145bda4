package jwtverify

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/AlibekovAA/session-auth/internal/common/clock"
	commonerrors "github.com/AlibekovAA/session-auth/internal/common/errors"
	"github.com/AlibekovAA/session-auth/internal/common/logger"
)

const testSecret = "0123456789abcdef0123456789abcdef"

var baseTime = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func sign(t *testing.T, method jwt.SigningMethod, secret string, claims AccessClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func validClaims() AccessClaims {
	return AccessClaims{
		UserID: "user-1",
		Email:  "a@example.com",
		Type:   TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ID:        "jti-1",
			IssuedAt:  jwt.NewNumericDate(baseTime),
			ExpiresAt: jwt.NewNumericDate(baseTime.Add(15 * time.Minute)),
		},
	}
}

func TestVerifier_AcceptsValidToken(t *testing.T) {
	v := NewVerifier(testSecret, clock.NewMockClock(baseTime.Add(time.Minute)))

	claims, err := v.Verify(sign(t, jwt.SigningMethodHS256, testSecret, validClaims()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.UserID != "user-1" || claims.Email != "a@example.com" || claims.TokenID != "jti-1" {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if !claims.ExpiresAt.Equal(baseTime.Add(15 * time.Minute)) {
		t.Fatalf("unexpected expiry %v", claims.ExpiresAt)
	}
}

func TestVerifier_RejectsExpired(t *testing.T) {
	v := NewVerifier(testSecret, clock.NewMockClock(baseTime.Add(16*time.Minute)))

	_, err := v.Verify(sign(t, jwt.SigningMethodHS256, testSecret, validClaims()))
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestVerifier_RejectsBadSignature(t *testing.T) {
	v := NewVerifier(testSecret, clock.NewMockClock(baseTime))

	_, err := v.Verify(sign(t, jwt.SigningMethodHS256, "another-secret-another-secret-xx", validClaims()))
	if !errors.Is(err, commonerrors.ErrInvalidTokenSignature) {
		t.Fatalf("expected signature error, got %v", err)
	}
	if errors.Is(err, commonerrors.ErrInvalidTokenSigningMethod) {
		t.Fatalf("bad signature reported as wrong algorithm: %v", err)
	}
}

func TestVerifier_RejectsOtherAlgorithms(t *testing.T) {
	v := NewVerifier(testSecret, clock.NewMockClock(baseTime))

	_, err := v.Verify(sign(t, jwt.SigningMethodHS512, testSecret, validClaims()))
	if !errors.Is(err, commonerrors.ErrInvalidTokenSigningMethod) {
		t.Fatalf("expected signing method error, got %v", err)
	}
}

func TestVerifier_RejectsWrongType(t *testing.T) {
	v := NewVerifier(testSecret, clock.NewMockClock(baseTime))
	c := validClaims()
	c.Type = "refresh"

	_, err := v.Verify(sign(t, jwt.SigningMethodHS256, testSecret, c))
	if !errors.Is(err, commonerrors.ErrInvalidTokenClaims) {
		t.Fatalf("expected claims error, got %v", err)
	}
}

func TestVerifier_RequiresExpiry(t *testing.T) {
	v := NewVerifier(testSecret, clock.NewMockClock(baseTime))
	c := validClaims()
	c.ExpiresAt = nil

	if _, err := v.Verify(sign(t, jwt.SigningMethodHS256, testSecret, c)); err == nil {
		t.Fatal("expected token without exp to be rejected")
	}
}

func TestMiddleware(t *testing.T) {
	v := NewVerifier(testSecret, clock.NewMockClock(baseTime))
	log := logger.New(&strings.Builder{}, "test", "error")

	var got Claims
	h := Middleware(v, log)(func(w http.ResponseWriter, r *http.Request) {
		got, _ = FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/auth/session", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without header, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/auth/session", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec = httptest.NewRecorder()
	h(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for garbage token, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/auth/session", nil)
	req.Header.Set("Authorization", "Bearer "+sign(t, jwt.SigningMethodHS256, testSecret, validClaims()))
	rec = httptest.NewRecorder()
	h(rec, req)
	if rec.Code != http.StatusOK || got.UserID != "user-1" {
		t.Fatalf("expected pass-through with claims, got %d %+v", rec.Code, got)
	}
}
