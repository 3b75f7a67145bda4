package service

import (
	"context"
	"errors"
	"strings"
	"time"

	authdomain "github.com/AlibekovAA/session-auth/internal/auth/domain"
	"github.com/AlibekovAA/session-auth/internal/auth/session"
	"github.com/AlibekovAA/session-auth/internal/common/clock"
	commoncrypto "github.com/AlibekovAA/session-auth/internal/common/crypto"
	commonerrors "github.com/AlibekovAA/session-auth/internal/common/errors"
	"github.com/AlibekovAA/session-auth/internal/common/logger"
	"github.com/AlibekovAA/session-auth/internal/common/resilience"
	userdomain "github.com/AlibekovAA/session-auth/internal/user/domain"
	userrepo "github.com/AlibekovAA/session-auth/internal/user/repository"
)

type Config struct {
	SessionTTL time.Duration
}

type AuthService struct {
	repo             userrepo.Repository
	verifier         *CredentialVerifier
	signer           AccessTokenSigner
	rotator          RefreshTokenRotatorInterface
	hasher           commoncrypto.PasswordHasher
	idGenerator      commoncrypto.IDGenerator
	whitelist        DomainWhitelist
	dbCircuitBreaker resilience.CircuitBreakerInterface
	clock            clock.Clock
	cfg              Config
	log              *logger.Logger
}

func NewAuthService(
	repo userrepo.Repository,
	verifier *CredentialVerifier,
	signer AccessTokenSigner,
	rotator RefreshTokenRotatorInterface,
	hasher commoncrypto.PasswordHasher,
	idGenerator commoncrypto.IDGenerator,
	whitelist DomainWhitelist,
	dbCircuitBreaker resilience.CircuitBreakerInterface,
	cfg Config,
	clock clock.Clock,
	log *logger.Logger,
) *AuthService {
	return &AuthService{
		repo:             repo,
		verifier:         verifier,
		signer:           signer,
		rotator:          rotator,
		hasher:           hasher,
		idGenerator:      idGenerator,
		whitelist:        whitelist,
		dbCircuitBreaker: dbCircuitBreaker,
		clock:            clock,
		cfg:              cfg,
		log:              log,
	}
}

type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (session.Session, error) {
	email := userdomain.NormalizeEmail(input.Email)
	domain := userdomain.EmailDomain(email)

	s.log.WithFields(ctx, logger.Fields{
		"email_domain": domain,
		"action":       "register_attempt",
	}).Info("register attempt")

	if err := validateCredentials(email, input.Password); err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"email_domain": domain,
			"action":       "register_validation_failed",
		}).Warnf("register validation failed: %v", err)
		return session.Session{}, err
	}
	if err := validateNewPassword(input.Password); err != nil {
		return session.Session{}, err
	}
	if err := validateName("name", input.Name); err != nil {
		return session.Session{}, err
	}

	if !s.whitelist.Allows(email) {
		s.log.WithFields(ctx, logger.Fields{
			"email_domain": domain,
			"action":       "register_domain_not_allowed",
		}).Warn("register rejected: email domain not allowed")
		return session.Session{}, ErrDomainNotAllowed
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"email_domain": domain,
			"action":       "register_hash_failed",
		}).Errorf("register failed: password hash error: %v", err)
		return session.Session{}, err
	}

	id, err := s.idGenerator.NewID()
	if err != nil {
		return session.Session{}, err
	}

	now := s.clock.Now()
	user := userdomain.User{
		ID:           userdomain.ID(id),
		Email:        email,
		PasswordHash: hash,
		Name:         strings.TrimSpace(input.Name),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.dbCircuitBreaker.Call(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, user)
	})
	if err != nil {
		if errors.Is(err, userrepo.ErrEmailAlreadyExists) {
			s.log.WithFields(ctx, logger.Fields{
				"email_domain": domain,
				"action":       "register_email_exists",
			}).Warn("register failed: email already exists")
			return session.Session{}, ErrEmailTaken
		}
		s.log.WithFields(ctx, logger.Fields{
			"email_domain": domain,
			"action":       "register_create_failed",
		}).Errorf("register failed: %v", err)
		return session.Session{}, commonerrors.ErrDatabaseError.WithCause(handleCircuitBreakerError(err))
	}

	incrementUsersCreated(userOriginCredentials)
	s.log.WithFields(ctx, logger.Fields{
		"user_id": string(user.ID),
		"action":  "register_success",
	}).Info("register success")

	return s.startSession(ctx, user)
}

func (s *AuthService) SignIn(ctx context.Context, email, password string) (session.Session, error) {
	user, err := s.verifier.Authenticate(ctx, email, password)
	if err != nil {
		return session.Session{}, err
	}

	s.log.WithFields(ctx, logger.Fields{
		"user_id": string(user.ID),
		"action":  "signin_success",
	}).Info("sign-in success")

	return s.startSession(ctx, user)
}

// SignInWithOAuth resolves the provider profile to a local user and starts a
// new session for it.
func (s *AuthService) SignInWithOAuth(ctx context.Context, profile OAuthProfile, allowEmailLinking bool) (session.Session, error) {
	user, err := s.FindOrCreateUserFromOAuthProfile(ctx, profile, allowEmailLinking)
	if err != nil {
		return session.Session{}, err
	}
	return s.startSession(ctx, user)
}

// RefreshAccessToken rotates presented and signs a fresh access token for the
// token owner. A signing failure does not undo the rotation: the session is
// returned with an empty access token and SigningErrorFlag set.
func (s *AuthService) RefreshAccessToken(ctx context.Context, presented string) (session.Session, error) {
	rotated, err := s.rotator.Rotate(ctx, presented)
	if err != nil {
		return session.Session{}, err
	}

	user, err := s.findUser(ctx, userdomain.ID(rotated.UserID))
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"user_id": rotated.UserID,
			"action":  "refresh_token_user_lookup_failed",
		}).Errorf("refresh token failed: user lookup error: %v", err)
		return session.Session{}, err
	}

	return s.assemble(ctx, user, rotated), nil
}

func (s *AuthService) RevokeRefreshToken(ctx context.Context, presented string) error {
	return s.rotator.RevokeOnLogout(ctx, presented)
}

// CurrentSession reads the user live from the store so that profile changes
// show up without re-issuing tokens.
func (s *AuthService) CurrentSession(ctx context.Context, userID, accessToken string) (session.Session, error) {
	user, err := s.findUser(ctx, userdomain.ID(userID))
	if err != nil {
		if errors.Is(err, userrepo.ErrUserNotFound) {
			return session.Session{}, ErrSessionUserNotFound
		}
		return session.Session{}, err
	}

	return session.Build(user, accessToken, "", "").WithExpiry(s.clock.Now().Add(s.cfg.SessionTTL)), nil
}

func (s *AuthService) UpdateSession(ctx context.Context, userID, accessToken string, update userdomain.ProfileUpdate) (session.Session, error) {
	if update.IsEmpty() {
		return s.CurrentSession(ctx, userID, accessToken)
	}
	if err := validateProfileUpdate(update); err != nil {
		return session.Session{}, err
	}

	var user userdomain.User
	err := s.dbCircuitBreaker.Call(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.repo.UpdateProfile(ctx, userdomain.ID(userID), update, s.clock.Now())
		return err
	})
	if err != nil {
		if errors.Is(err, userrepo.ErrUserNotFound) {
			return session.Session{}, ErrSessionUserNotFound
		}
		s.log.WithFields(ctx, logger.Fields{
			"user_id": userID,
			"action":  "session_update_failed",
		}).Errorf("session update failed: %v", err)
		return session.Session{}, commonerrors.ErrDatabaseError.WithCause(handleCircuitBreakerError(err))
	}

	s.log.WithFields(ctx, logger.Fields{
		"user_id": userID,
		"action":  "session_updated",
	}).Info("session profile updated")

	return session.Build(user, accessToken, "", "").WithExpiry(s.clock.Now().Add(s.cfg.SessionTTL)), nil
}

func (s *AuthService) startSession(ctx context.Context, user userdomain.User) (session.Session, error) {
	refresh, err := s.rotator.Issue(ctx, string(user.ID))
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"user_id": string(user.ID),
			"action":  "session_refresh_issue_failed",
		}).Errorf("failed to issue refresh token: %v", err)
		return session.Session{}, err
	}
	return s.assemble(ctx, user, refresh), nil
}

func (s *AuthService) assemble(ctx context.Context, user userdomain.User, refresh authdomain.RefreshToken) session.Session {
	accessToken, expiresAt, err := s.signer.IssueAccessToken(user)
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"user_id": string(user.ID),
			"action":  "access_token_signing_failed",
		}).Errorf("access token signing failed: %v", err)
		return session.Build(user, "", refresh.RawToken, SigningErrorFlag)
	}
	return session.Build(user, accessToken, refresh.RawToken, "").WithAccessExpiry(expiresAt)
}

func (s *AuthService) findUser(ctx context.Context, id userdomain.ID) (userdomain.User, error) {
	var user userdomain.User
	err := s.dbCircuitBreaker.Call(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.repo.FindByID(ctx, id)
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
