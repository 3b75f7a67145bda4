package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/AlibekovAA/session-auth/internal/common/constants"
	"github.com/AlibekovAA/session-auth/internal/observability/metrics"
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps a token bucket per client key.
type RateLimiter struct {
	limiters map[string]*limiterEntry
	mu       sync.Mutex
	rate     rate.Limit
	burst    int
	idleTTL  time.Duration
	now      func() time.Time
}

func NewRateLimiter(perMinute int, burst int) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*limiterEntry),
		rate:     rate.Limit(float64(perMinute) / 60.0),
		burst:    burst,
		idleTTL:  constants.DefaultRateLimiterCleanupAge,
		now:      time.Now,
	}
}

// StartCleanup drops buckets idle for longer than the idle TTL until ctx ends.
func (rl *RateLimiter) StartCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rl.cleanup()
			}
		}
	}()
}

func (rl *RateLimiter) cleanup() {
	cutoff := rl.now().Add(-rl.idleTTL)
	rl.mu.Lock()
	for key, entry := range rl.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(rl.limiters, key)
		}
	}
	rl.mu.Unlock()
}

func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	entry, ok := rl.limiters[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.limiters[key] = entry
	}
	entry.lastSeen = rl.now()
	rl.mu.Unlock()

	return entry.limiter.Allow()
}

func (rl *RateLimiter) size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

// StrictRateLimiter applies separate budgets to credential endpoints, token
// endpoints and OAuth redirects.
type StrictRateLimiter struct {
	credentials *RateLimiter
	token       *RateLimiter
	oauth       *RateLimiter
}

func NewStrictRateLimiter() *StrictRateLimiter {
	return &StrictRateLimiter{
		credentials: NewRateLimiter(constants.DefaultAuthRateLimitPerMin, 5),
		token:       NewRateLimiter(constants.DefaultTokenRateLimitPerMin, 10),
		oauth:       NewRateLimiter(constants.DefaultOAuthRateLimitPerMin, 10),
	}
}

func (srl *StrictRateLimiter) StartCleanup(ctx context.Context, interval time.Duration) {
	srl.credentials.StartCleanup(ctx, interval)
	srl.token.StartCleanup(ctx, interval)
	srl.oauth.StartCleanup(ctx, interval)
}

const (
	LimiterCredentials = "credentials"
	LimiterToken       = "token"
	LimiterOAuth       = "oauth"
)

func (srl *StrictRateLimiter) Middleware(limiterType string) func(http.HandlerFunc) http.HandlerFunc {
	var limiter *RateLimiter
	switch limiterType {
	case LimiterCredentials:
		limiter = srl.credentials
	case LimiterOAuth:
		limiter = srl.oauth
	default:
		limiterType = LimiterToken
		limiter = srl.token
	}

	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(GetClientIP(r)) {
				metrics.RateLimitBlocked.WithLabelValues(r.URL.Path, limiterType).Inc()
				w.Header().Set("Retry-After", "60")
				WriteErrorEnvelope(w, http.StatusTooManyRequests, CodeRateLimited, "rate limit exceeded", TraceIDFromContext(r.Context()))
				return
			}
			next(w, r)
		}
	}
}
