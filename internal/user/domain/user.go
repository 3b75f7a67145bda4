package domain

import (
	"encoding/json"
	"strings"
	"time"
)

type ID string

type User struct {
	ID           ID
	Email        string
	PasswordHash string
	Name         string
	GivenName    string
	FamilyName   string
	Image        string
	Preferences  json.RawMessage
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u User) HasPassword() bool {
	return u.PasswordHash != ""
}

// ProfileUpdate lists the only user fields a session update may change.
// Nil pointers leave the stored value untouched.
type ProfileUpdate struct {
	Name        *string
	GivenName   *string
	FamilyName  *string
	Image       *string
	Preferences json.RawMessage
}

func (p ProfileUpdate) IsEmpty() bool {
	return p.Name == nil && p.GivenName == nil && p.FamilyName == nil && p.Image == nil && len(p.Preferences) == 0
}

type Account struct {
	Provider          string
	ProviderAccountID string
	UserID            ID
	CreatedAt         time.Time
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// EmailDomain returns the part after the last '@', lower-cased.
func EmailDomain(email string) string {
	i := strings.LastIndex(email, "@")
	if i < 0 || i == len(email)-1 {
		return ""
	}
	return strings.ToLower(email[i+1:])
}
