package domain

import "time"

type TokenState string

const (
	TokenActive   TokenState = "active"
	TokenConsumed TokenState = "consumed"
	TokenExpired  TokenState = "expired"
	TokenRevoked  TokenState = "revoked"
)

const (
	RevokeReasonRotated = "rotated"
	RevokeReasonLogout  = "logout"
	RevokeReasonReuse   = "reuse"
)

// RefreshToken is persisted under TokenHash. RawToken is only populated on
// the value handed back to the caller right after issue or rotation.
type RefreshToken struct {
	ID           string
	TokenHash    string
	UserID       string
	FamilyID     string
	IssuedAt     time.Time
	ExpiresAt    time.Time
	RevokedAt    *time.Time
	RevokeReason string
	RawToken     string
}

func (t RefreshToken) State(now time.Time) TokenState {
	if t.RevokedAt != nil {
		if t.RevokeReason == RevokeReasonRotated {
			return TokenConsumed
		}
		return TokenRevoked
	}
	if !now.Before(t.ExpiresAt) {
		return TokenExpired
	}
	return TokenActive
}

func (t RefreshToken) IsActive(now time.Time) bool {
	return t.State(now) == TokenActive
}
