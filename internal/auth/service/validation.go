package service

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/AlibekovAA/session-auth/internal/common/constants"
	userdomain "github.com/AlibekovAA/session-auth/internal/user/domain"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func validateCredentials(email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ErrValidation.WithCause(errors.New("email is required"))
	}
	if password == "" {
		return ErrValidation.WithCause(errors.New("password is required"))
	}
	if len(email) > constants.EmailMaxLength {
		return ErrValidation.WithCause(errors.New("email is too long"))
	}
	if err := validate.Var(email, "email"); err != nil {
		return ErrValidation.WithCause(errors.New("email must be a valid email address"))
	}
	if len(password) > constants.PasswordMaxLength {
		return ErrValidation.WithCause(errors.New("password is too long"))
	}
	return nil
}

func validateNewPassword(password string) error {
	if len(password) < constants.PasswordMinLength {
		return ErrValidation.WithCause(errors.New("password is too short"))
	}
	return nil
}

func validateName(field, value string) error {
	if len(value) > constants.NameMaxLength {
		return ErrValidation.WithCause(errors.New(field + " is too long"))
	}
	return nil
}

func validateProfileUpdate(update userdomain.ProfileUpdate) error {
	names := []struct {
		field string
		value *string
	}{
		{"name", update.Name},
		{"givenName", update.GivenName},
		{"familyName", update.FamilyName},
	}
	for _, n := range names {
		if n.value == nil {
			continue
		}
		if err := validateName(n.field, *n.value); err != nil {
			return err
		}
	}

	if update.Image != nil && len(*update.Image) > constants.ImageURLMaxLength {
		return ErrValidation.WithCause(errors.New("image url is too long"))
	}
	if update.Image != nil && *update.Image != "" {
		if err := validate.Var(*update.Image, "url"); err != nil {
			return ErrValidation.WithCause(errors.New("image must be a valid url"))
		}
	}
	if len(update.Preferences) > 0 {
		if !json.Valid(update.Preferences) {
			return ErrValidation.WithCause(errors.New("preferences must be valid JSON"))
		}
		if len(update.Preferences) > constants.PreferencesMaxSize {
			return ErrValidation.WithCause(errors.New("preferences are too large"))
		}
	}
	return nil
}
