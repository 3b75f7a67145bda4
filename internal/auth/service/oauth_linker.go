package service

import (
	"context"
	"errors"
	"strings"

	commonerrors "github.com/AlibekovAA/session-auth/internal/common/errors"
	"github.com/AlibekovAA/session-auth/internal/common/logger"
	userdomain "github.com/AlibekovAA/session-auth/internal/user/domain"
	userrepo "github.com/AlibekovAA/session-auth/internal/user/repository"
)

// OAuthProfile is the identity a provider vouches for after a code exchange.
type OAuthProfile struct {
	Provider          string
	ProviderAccountID string
	Email             string
	EmailVerified     bool
	Name              string
	GivenName         string
	FamilyName        string
	Image             string
}

// FindOrCreateUserFromOAuthProfile returns the user linked to the provider
// account, creating one on first sign-in. An existing user with the same
// email is only linked when allowEmailLinking is set and the provider has
// verified the address.
func (s *AuthService) FindOrCreateUserFromOAuthProfile(ctx context.Context, profile OAuthProfile, allowEmailLinking bool) (userdomain.User, error) {
	if profile.Provider == "" || profile.ProviderAccountID == "" {
		return userdomain.User{}, ErrValidation.WithCause(errors.New("provider account id is required"))
	}

	fields := logger.Fields{"provider": profile.Provider}

	user, err := s.findByAccount(ctx, profile)
	if err == nil {
		recordSignIn(signInMethodOAuth, signInResultSuccess)
		return user, nil
	}
	if !errors.Is(err, userrepo.ErrUserNotFound) {
		recordSignIn(signInMethodOAuth, signInResultError)
		return userdomain.User{}, err
	}

	email := userdomain.NormalizeEmail(profile.Email)
	if email == "" {
		recordSignIn(signInMethodOAuth, signInResultValidation)
		return userdomain.User{}, ErrValidation.WithCause(errors.New("provider did not return an email"))
	}
	if !s.whitelist.Allows(email) {
		fields["email_domain"] = userdomain.EmailDomain(email)
		fields["action"] = "oauth_domain_not_allowed"
		s.log.WithFields(ctx, fields).Warn("oauth sign-in rejected: email domain not allowed")
		recordSignIn(signInMethodOAuth, signInResultDomainDenied)
		return userdomain.User{}, ErrDomainNotAllowed
	}

	now := s.clock.Now()
	account := userdomain.Account{
		Provider:          profile.Provider,
		ProviderAccountID: profile.ProviderAccountID,
		CreatedAt:         now,
	}

	var existing userdomain.User
	err = s.dbCircuitBreaker.Call(ctx, func(ctx context.Context) error {
		var err error
		existing, err = s.repo.FindByEmail(ctx, email)
		return err
	})
	switch {
	case err == nil:
		if !allowEmailLinking || !profile.EmailVerified {
			fields["user_id"] = string(existing.ID)
			fields["action"] = "oauth_link_refused"
			s.log.WithFields(ctx, fields).Warn("oauth sign-in refused: email belongs to an unlinked user")
			recordSignIn(signInMethodOAuth, signInResultInvalid)
			return userdomain.User{}, ErrOAuthAccountNotLinked
		}
		account.UserID = existing.ID
		if err := s.linkAccount(ctx, account); err != nil {
			return userdomain.User{}, err
		}
		fields["user_id"] = string(existing.ID)
		fields["action"] = "oauth_account_linked"
		s.log.WithFields(ctx, fields).Info("oauth account linked to existing user")
		recordSignIn(signInMethodOAuth, signInResultSuccess)
		return existing, nil
	case !errors.Is(err, userrepo.ErrUserNotFound):
		recordSignIn(signInMethodOAuth, signInResultError)
		return userdomain.User{}, commonerrors.ErrUserGetFailed.WithCause(handleCircuitBreakerError(err))
	}

	id, err := s.idGenerator.NewID()
	if err != nil {
		return userdomain.User{}, err
	}

	user = userdomain.User{
		ID:         userdomain.ID(id),
		Email:      email,
		Name:       strings.TrimSpace(profile.Name),
		GivenName:  strings.TrimSpace(profile.GivenName),
		FamilyName: strings.TrimSpace(profile.FamilyName),
		Image:      profile.Image,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	account.UserID = user.ID

	err = s.dbCircuitBreaker.Call(ctx, func(ctx context.Context) error {
		return s.repo.CreateWithAccount(ctx, user, account)
	})
	if err != nil {
		// A concurrent callback for the same account may have won the insert.
		if errors.Is(err, userrepo.ErrAccountAlreadyLinked) || errors.Is(err, userrepo.ErrEmailAlreadyExists) {
			if linked, findErr := s.findByAccount(ctx, profile); findErr == nil {
				recordSignIn(signInMethodOAuth, signInResultSuccess)
				return linked, nil
			}
			recordSignIn(signInMethodOAuth, signInResultInvalid)
			return userdomain.User{}, ErrOAuthAccountNotLinked
		}
		fields["action"] = "oauth_user_create_failed"
		s.log.WithFields(ctx, fields).Errorf("failed to create oauth user: %v", err)
		recordSignIn(signInMethodOAuth, signInResultError)
		return userdomain.User{}, commonerrors.ErrDatabaseError.WithCause(handleCircuitBreakerError(err))
	}

	incrementUsersCreated(userOriginOAuth)
	fields["user_id"] = string(user.ID)
	fields["action"] = "oauth_user_created"
	s.log.WithFields(ctx, fields).Info("oauth user created")
	recordSignIn(signInMethodOAuth, signInResultSuccess)
	return user, nil
}

func (s *AuthService) findByAccount(ctx context.Context, profile OAuthProfile) (userdomain.User, error) {
	var user userdomain.User
	err := s.dbCircuitBreaker.Call(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.repo.FindByAccount(ctx, profile.Provider, profile.ProviderAccountID)
		return err
	})
	if err != nil {
		if errors.Is(err, userrepo.ErrUserNotFound) {
			return userdomain.User{}, err
		}
		return userdomain.User{}, commonerrors.ErrUserGetFailed.WithCause(handleCircuitBreakerError(err))
	}
	return user, nil
}

func (s *AuthService) linkAccount(ctx context.Context, account userdomain.Account) error {
	err := s.dbCircuitBreaker.Call(ctx, func(ctx context.Context) error {
		return s.repo.LinkAccount(ctx, account)
	})
	if err == nil {
		return nil
	}
	if errors.Is(err, userrepo.ErrAccountAlreadyLinked) {
		return commonerrors.ErrAccountAlreadyLinked
	}
	return commonerrors.ErrDatabaseError.WithCause(handleCircuitBreakerError(err))
}
