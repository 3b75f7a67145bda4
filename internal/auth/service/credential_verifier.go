package service

import (
	"context"
	"errors"

	commoncrypto "github.com/AlibekovAA/session-auth/internal/common/crypto"
	commonerrors "github.com/AlibekovAA/session-auth/internal/common/errors"
	"github.com/AlibekovAA/session-auth/internal/common/logger"
	"github.com/AlibekovAA/session-auth/internal/common/resilience"
	userdomain "github.com/AlibekovAA/session-auth/internal/user/domain"
	userrepo "github.com/AlibekovAA/session-auth/internal/user/repository"
)

// DomainWhitelist restricts which email domains may sign in. An empty
// whitelist allows every domain.
type DomainWhitelist struct {
	domains map[string]struct{}
}

func NewDomainWhitelist(domains []string) DomainWhitelist {
	set := make(map[string]struct{}, len(domains))
	for _, d := range domains {
		d = userdomain.NormalizeEmail(d)
		if d != "" {
			set[d] = struct{}{}
		}
	}
	return DomainWhitelist{domains: set}
}

func (w DomainWhitelist) Allows(email string) bool {
	if len(w.domains) == 0 {
		return true
	}
	_, ok := w.domains[userdomain.EmailDomain(email)]
	return ok
}

type CredentialVerifier struct {
	users     userrepo.Repository
	hasher    commoncrypto.PasswordHasher
	whitelist DomainWhitelist
	breaker   resilience.CircuitBreakerInterface
	log       *logger.Logger
}

func NewCredentialVerifier(
	users userrepo.Repository,
	hasher commoncrypto.PasswordHasher,
	whitelist DomainWhitelist,
	breaker resilience.CircuitBreakerInterface,
	log *logger.Logger,
) *CredentialVerifier {
	return &CredentialVerifier{
		users:     users,
		hasher:    hasher,
		whitelist: whitelist,
		breaker:   breaker,
		log:       log,
	}
}

// Authenticate returns the user owning email if password matches the stored
// scrypt hash. Unknown users, users without a password and wrong passwords
// all yield ErrInvalidCredentials.
func (v *CredentialVerifier) Authenticate(ctx context.Context, email, password string) (userdomain.User, error) {
	if err := validateCredentials(email, password); err != nil {
		recordSignIn(signInMethodCredentials, signInResultValidation)
		return userdomain.User{}, err
	}

	email = userdomain.NormalizeEmail(email)
	domain := userdomain.EmailDomain(email)

	if !v.whitelist.Allows(email) {
		v.log.WithFields(ctx, logger.Fields{
			"email_domain": domain,
			"action":       "signin_domain_not_allowed",
		}).Warn("sign-in rejected: email domain not allowed")
		recordSignIn(signInMethodCredentials, signInResultDomainDenied)
		return userdomain.User{}, ErrDomainNotAllowed
	}

	var user userdomain.User
	err := v.breaker.Call(ctx, func(ctx context.Context) error {
		var err error
		user, err = v.users.FindByEmail(ctx, email)
		return err
	})
	if err != nil {
		if errors.Is(err, userrepo.ErrUserNotFound) {
			v.log.WithFields(ctx, logger.Fields{
				"email_domain": domain,
				"action":       "signin_user_not_found",
			}).Warn("sign-in failed: user not found")
			recordSignIn(signInMethodCredentials, signInResultInvalid)
			return userdomain.User{}, ErrInvalidCredentials
		}
		v.log.WithFields(ctx, logger.Fields{
			"email_domain": domain,
			"action":       "signin_lookup_failed",
		}).Errorf("sign-in failed: user lookup error: %v", err)
		recordSignIn(signInMethodCredentials, signInResultError)
		return userdomain.User{}, commonerrors.ErrUserGetFailed.WithCause(handleCircuitBreakerError(err))
	}

	if !user.HasPassword() {
		v.log.WithFields(ctx, logger.Fields{
			"user_id": string(user.ID),
			"action":  "signin_no_password",
		}).Warn("sign-in failed: account has no password")
		recordSignIn(signInMethodCredentials, signInResultInvalid)
		return userdomain.User{}, ErrInvalidCredentials
	}

	if err := v.hasher.Compare(user.PasswordHash, password); err != nil {
		entry := v.log.WithFields(ctx, logger.Fields{
			"user_id": string(user.ID),
			"action":  "signin_invalid_password",
		})
		if errors.Is(err, commoncrypto.ErrMalformedHash) {
			entry.Errorf("sign-in failed: stored hash is malformed: %v", err)
		} else {
			entry.Warn("sign-in failed: invalid password")
		}
		recordSignIn(signInMethodCredentials, signInResultInvalid)
		return userdomain.User{}, ErrInvalidCredentials
	}

	recordSignIn(signInMethodCredentials, signInResultSuccess)
	return user, nil
}
