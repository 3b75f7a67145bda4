// Package session merges a user, the issued tokens and an error flag into the
// record returned to clients. Nothing here touches storage.
package session

import (
	"encoding/json"
	"time"

	userdomain "github.com/AlibekovAA/session-auth/internal/user/domain"
)

type User struct {
	ID          string          `json:"id"`
	Email       string          `json:"email"`
	Name        string          `json:"name,omitempty"`
	GivenName   string          `json:"givenName,omitempty"`
	FamilyName  string          `json:"familyName,omitempty"`
	Image       string          `json:"image,omitempty"`
	Preferences json.RawMessage `json:"preferences,omitempty"`
}

// Session is the client-facing view of an authenticated user. RefreshToken
// never leaves the server in a body; it travels in the refresh cookie.
type Session struct {
	User                 User       `json:"user"`
	AccessToken          string     `json:"accessToken"`
	AccessTokenExpiresAt *time.Time `json:"accessTokenExpires,omitempty"`
	RefreshToken         string     `json:"-"`
	Expires              *time.Time `json:"expires,omitempty"`
	Error                string     `json:"error,omitempty"`
}

func Build(user userdomain.User, accessToken, refreshToken, errFlag string) Session {
	return Session{
		User:         fromDomain(user),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Error:        errFlag,
	}
}

// WithAccessExpiry records when the access token stops being accepted.
func (s Session) WithAccessExpiry(at time.Time) Session {
	if at.IsZero() {
		s.AccessTokenExpiresAt = nil
		return s
	}
	at = at.UTC()
	s.AccessTokenExpiresAt = &at
	return s
}

// WithExpiry stamps the session read expiry.
func (s Session) WithExpiry(at time.Time) Session {
	at = at.UTC()
	s.Expires = &at
	return s
}

func fromDomain(u userdomain.User) User {
	return User{
		ID:          string(u.ID),
		Email:       u.Email,
		Name:        u.Name,
		GivenName:   u.GivenName,
		FamilyName:  u.FamilyName,
		Image:       u.Image,
		Preferences: u.Preferences,
	}
}
