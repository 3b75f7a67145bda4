package domain

import (
	"testing"
	"time"
)

func TestRefreshToken_State(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	revokedAt := now.Add(-time.Minute)

	cases := []struct {
		name  string
		token RefreshToken
		want  TokenState
	}{
		{"active", RefreshToken{ExpiresAt: now.Add(time.Hour)}, TokenActive},
		{"expired at boundary", RefreshToken{ExpiresAt: now}, TokenExpired},
		{"expired", RefreshToken{ExpiresAt: now.Add(-time.Second)}, TokenExpired},
		{"consumed", RefreshToken{ExpiresAt: now.Add(time.Hour), RevokedAt: &revokedAt, RevokeReason: RevokeReasonRotated}, TokenConsumed},
		{"logged out", RefreshToken{ExpiresAt: now.Add(time.Hour), RevokedAt: &revokedAt, RevokeReason: RevokeReasonLogout}, TokenRevoked},
		{"revoked and expired", RefreshToken{ExpiresAt: now.Add(-time.Hour), RevokedAt: &revokedAt, RevokeReason: RevokeReasonReuse}, TokenRevoked},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.token.State(now); got != tc.want {
				t.Fatalf("State() = %q, want %q", got, tc.want)
			}
			if tc.token.IsActive(now) != (tc.want == TokenActive) {
				t.Fatalf("IsActive disagrees with State for %q", tc.name)
			}
		})
	}
}
