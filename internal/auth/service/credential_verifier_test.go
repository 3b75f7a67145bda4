package service

import (
	"context"
	"errors"
	"testing"

	commoncrypto "github.com/AlibekovAA/session-auth/internal/common/crypto"
	commonerrors "github.com/AlibekovAA/session-auth/internal/common/errors"
	userdomain "github.com/AlibekovAA/session-auth/internal/user/domain"
	userrepo "github.com/AlibekovAA/session-auth/internal/user/repository"
)

func setupVerifier(t *testing.T, domains []string) (*CredentialVerifier, *mockUserRepo) {
	t.Helper()

	hasher := commoncrypto.NewScryptHasher()
	hash, err := hasher.Hash("pw")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	repo := &mockUserRepo{
		findByEmailFunc: func(_ context.Context, email string) (userdomain.User, error) {
			if email == "u@example.com" {
				return userdomain.User{ID: "u1", Email: email, PasswordHash: hash}, nil
			}
			if email == "oauth-only@example.com" {
				return userdomain.User{ID: "u2", Email: email}, nil
			}
			return userdomain.User{}, userrepo.ErrUserNotFound
		},
	}

	v := NewCredentialVerifier(
		repo,
		hasher,
		NewDomainWhitelist(domains),
		testBreaker(),
		testLogger(),
	)
	return v, repo
}

func TestAuthenticate_WhitelistedDomain(t *testing.T) {
	v, _ := setupVerifier(t, []string{"example.com"})

	user, err := v.Authenticate(context.Background(), "u@example.com", "pw")
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if user.ID != "u1" {
		t.Fatalf("expected user u1, got %s", user.ID)
	}
}

func TestAuthenticate_DomainNotAllowed(t *testing.T) {
	v, repo := setupVerifier(t, []string{"company.com"})
	repo.findByEmailFunc = func(context.Context, string) (userdomain.User, error) {
		t.Fatal("user store must not be consulted for a rejected domain")
		return userdomain.User{}, nil
	}

	_, err := v.Authenticate(context.Background(), "u@example.com", "pw")
	if !errors.Is(err, ErrDomainNotAllowed) {
		t.Fatalf("expected ErrDomainNotAllowed, got %v", err)
	}
}

func TestAuthenticate_FailureMatrix(t *testing.T) {
	v, _ := setupVerifier(t, nil)

	tests := []struct {
		name     string
		email    string
		password string
		want     error
	}{
		{"missing email", "", "pw", ErrValidation},
		{"blank email", "   ", "pw", ErrValidation},
		{"missing password", "u@example.com", "", ErrValidation},
		{"malformed email", "not-an-email", "pw", ErrValidation},
		{"wrong password", "u@example.com", "other", ErrInvalidCredentials},
		{"unknown email", "nobody@example.com", "pw", ErrInvalidCredentials},
		{"user without password", "oauth-only@example.com", "pw", ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Authenticate(context.Background(), tt.email, tt.password)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestAuthenticate_FailuresShareOneMessage(t *testing.T) {
	domainErr, _ := commonerrors.AsDomainError(ErrDomainNotAllowed)
	credErr, _ := commonerrors.AsDomainError(ErrInvalidCredentials)
	if domainErr.Message() != credErr.Message() || domainErr.HTTPStatus() != credErr.HTTPStatus() {
		t.Fatal("domain rejection must be indistinguishable from bad credentials")
	}
}

func TestAuthenticate_EmailIsCaseInsensitive(t *testing.T) {
	v, _ := setupVerifier(t, []string{"EXAMPLE.com"})

	user, err := v.Authenticate(context.Background(), "  U@Example.COM ", "pw")
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if user.ID != "u1" {
		t.Fatalf("expected user u1, got %s", user.ID)
	}
}

func TestAuthenticate_StoreFailureIsNotAuthFailure(t *testing.T) {
	v, repo := setupVerifier(t, nil)
	repo.findByEmailFunc = func(context.Context, string) (userdomain.User, error) {
		return userdomain.User{}, errors.New("connection refused")
	}

	_, err := v.Authenticate(context.Background(), "u@example.com", "pw")
	if err == nil || errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected store error, got %v", err)
	}
	if !errors.Is(err, commonerrors.ErrUserGetFailed) {
		t.Fatalf("expected ErrUserGetFailed, got %v", err)
	}
}

func TestDomainWhitelist(t *testing.T) {
	w := NewDomainWhitelist([]string{"example.com", " Corp.IO "})

	tests := []struct {
		email string
		want  bool
	}{
		{"a@example.com", true},
		{"a@corp.io", true},
		{"a@CORP.IO", true},
		{"a@sub.example.com", false},
		{"weird@name@example.com", true},
		{"a@example.com@evil.com", false},
		{"no-at-sign", false},
	}
	for _, tt := range tests {
		if got := w.Allows(tt.email); got != tt.want {
			t.Errorf("Allows(%q) = %v, want %v", tt.email, got, tt.want)
		}
	}

	if !NewDomainWhitelist(nil).Allows("anyone@anywhere.org") {
		t.Error("empty whitelist must allow every domain")
	}
}
