package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	authdomain "github.com/AlibekovAA/session-auth/internal/auth/domain"
	authrepo "github.com/AlibekovAA/session-auth/internal/auth/repository"
	"github.com/AlibekovAA/session-auth/internal/common/logger"
	"github.com/AlibekovAA/session-auth/internal/common/resilience"
	userdomain "github.com/AlibekovAA/session-auth/internal/user/domain"
	userrepo "github.com/AlibekovAA/session-auth/internal/user/repository"
)

func testLogger() *logger.Logger {
	return logger.New(&strings.Builder{}, "test", "error")
}

func testBreaker() *resilience.CircuitBreaker {
	return resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Threshold:  100,
		Timeout:    5 * time.Second,
		ResetAfter: time.Minute,
		IsExpected: IsExpectedStoreOutcome,
	})
}

type mockUserRepo struct {
	createFunc            func(ctx context.Context, user userdomain.User) error
	createWithAccountFunc func(ctx context.Context, user userdomain.User, account userdomain.Account) error
	findByEmailFunc       func(ctx context.Context, email string) (userdomain.User, error)
	findByIDFunc          func(ctx context.Context, id userdomain.ID) (userdomain.User, error)
	findByAccountFunc     func(ctx context.Context, provider, providerAccountID string) (userdomain.User, error)
	linkAccountFunc       func(ctx context.Context, account userdomain.Account) error
	updateProfileFunc     func(ctx context.Context, id userdomain.ID, update userdomain.ProfileUpdate, now time.Time) (userdomain.User, error)
}

func (m *mockUserRepo) Create(ctx context.Context, user userdomain.User) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, user)
	}
	return nil
}

func (m *mockUserRepo) CreateWithAccount(ctx context.Context, user userdomain.User, account userdomain.Account) error {
	if m.createWithAccountFunc != nil {
		return m.createWithAccountFunc(ctx, user, account)
	}
	return nil
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (userdomain.User, error) {
	if m.findByEmailFunc != nil {
		return m.findByEmailFunc(ctx, email)
	}
	return userdomain.User{}, userrepo.ErrUserNotFound
}

func (m *mockUserRepo) FindByID(ctx context.Context, id userdomain.ID) (userdomain.User, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return userdomain.User{}, userrepo.ErrUserNotFound
}

func (m *mockUserRepo) FindByAccount(ctx context.Context, provider, providerAccountID string) (userdomain.User, error) {
	if m.findByAccountFunc != nil {
		return m.findByAccountFunc(ctx, provider, providerAccountID)
	}
	return userdomain.User{}, userrepo.ErrUserNotFound
}

func (m *mockUserRepo) LinkAccount(ctx context.Context, account userdomain.Account) error {
	if m.linkAccountFunc != nil {
		return m.linkAccountFunc(ctx, account)
	}
	return nil
}

func (m *mockUserRepo) UpdateProfile(ctx context.Context, id userdomain.ID, update userdomain.ProfileUpdate, now time.Time) (userdomain.User, error) {
	if m.updateProfileFunc != nil {
		return m.updateProfileFunc(ctx, id, update, now)
	}
	return userdomain.User{}, userrepo.ErrUserNotFound
}

type mockHasher struct {
	hashFunc    func(password string) (string, error)
	compareFunc func(hash, password string) error
}

func (m *mockHasher) Hash(password string) (string, error) {
	if m.hashFunc != nil {
		return m.hashFunc(password)
	}
	return "hashed:" + password, nil
}

func (m *mockHasher) Compare(hash, password string) error {
	if m.compareFunc != nil {
		return m.compareFunc(hash, password)
	}
	return nil
}

// seqIDGenerator hands out id-1, id-2, ... and is safe for concurrent use.
type seqIDGenerator struct {
	n       atomic.Int64
	errFunc func() error
}

func (g *seqIDGenerator) NewID() (string, error) {
	if g.errFunc != nil {
		if err := g.errFunc(); err != nil {
			return "", err
		}
	}
	return fmt.Sprintf("id-%d", g.n.Add(1)), nil
}

// memRefreshTokenRepo keeps tokens in memory. Rotate is a compare-and-swap on
// revoked_at under one mutex, the same contract the real stores provide.
type memRefreshTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]authdomain.RefreshToken

	faultFunc func(op string) error
}

func newMemRefreshTokenRepo() *memRefreshTokenRepo {
	return &memRefreshTokenRepo{tokens: make(map[string]authdomain.RefreshToken)}
}

func (r *memRefreshTokenRepo) fault(op string) error {
	if r.faultFunc != nil {
		return r.faultFunc(op)
	}
	return nil
}

func (r *memRefreshTokenRepo) Create(_ context.Context, token authdomain.RefreshToken) error {
	if err := r.fault("create"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	token.RawToken = ""
	r.tokens[token.TokenHash] = token
	return nil
}

func (r *memRefreshTokenRepo) FindByTokenHash(_ context.Context, hash string) (authdomain.RefreshToken, error) {
	if err := r.fault("find"); err != nil {
		return authdomain.RefreshToken{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	token, ok := r.tokens[hash]
	if !ok {
		return authdomain.RefreshToken{}, authrepo.ErrRefreshTokenNotFound
	}
	return token, nil
}

func (r *memRefreshTokenRepo) Rotate(_ context.Context, hash string, next authdomain.RefreshToken, now time.Time) (authdomain.RefreshToken, authdomain.RefreshToken, error) {
	if err := r.fault("rotate"); err != nil {
		return authdomain.RefreshToken{}, authdomain.RefreshToken{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	token, ok := r.tokens[hash]
	if !ok {
		return authdomain.RefreshToken{}, authdomain.RefreshToken{}, authrepo.ErrRefreshTokenNotFound
	}
	if !token.IsActive(now) {
		return token, authdomain.RefreshToken{}, authrepo.ErrRefreshTokenNotActive
	}

	revokedAt := now
	token.RevokedAt = &revokedAt
	token.RevokeReason = authdomain.RevokeReasonRotated
	r.tokens[hash] = token

	next.UserID = token.UserID
	next.FamilyID = token.FamilyID
	stored := next
	stored.RawToken = ""
	r.tokens[next.TokenHash] = stored
	return token, next, nil
}

func (r *memRefreshTokenRepo) Revoke(_ context.Context, hash, reason string, now time.Time) (bool, error) {
	if err := r.fault("revoke"); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	token, ok := r.tokens[hash]
	if !ok || token.RevokedAt != nil {
		return false, nil
	}
	revokedAt := now
	token.RevokedAt = &revokedAt
	token.RevokeReason = reason
	r.tokens[hash] = token
	return true, nil
}

func (r *memRefreshTokenRepo) RevokeFamily(_ context.Context, familyID, reason string, now time.Time) (int64, error) {
	if err := r.fault("revoke_family"); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for hash, token := range r.tokens {
		if token.FamilyID != familyID || token.RevokedAt != nil {
			continue
		}
		revokedAt := now
		token.RevokedAt = &revokedAt
		token.RevokeReason = reason
		r.tokens[hash] = token
		n++
	}
	return n, nil
}

type mockSigner struct {
	issueFunc func(user userdomain.User) (string, time.Time, error)
}

func (m *mockSigner) IssueAccessToken(user userdomain.User) (string, time.Time, error) {
	if m.issueFunc != nil {
		return m.issueFunc(user)
	}
	return "access-" + string(user.ID), time.Time{}, nil
}
