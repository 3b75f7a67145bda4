package http

import (
	"net/http"
	"time"

	"github.com/AlibekovAA/session-auth/internal/auth/oauth"
	"github.com/AlibekovAA/session-auth/internal/auth/service"
	"github.com/AlibekovAA/session-auth/internal/common/constants"
	commonhttp "github.com/AlibekovAA/session-auth/internal/common/http"
	"github.com/AlibekovAA/session-auth/internal/common/jwtverify"
	"github.com/AlibekovAA/session-auth/internal/common/logger"
)

type Config struct {
	RequestTimeout  time.Duration
	RefreshTokenTTL time.Duration
	SecureCookies   bool
}

type Handler struct {
	auth         *service.AuthService
	providers    *oauth.Registry
	refresh      *commonhttp.CookieManager
	oauthState   *commonhttp.CookieManager
	oauthPKCE    *commonhttp.CookieManager
	errorHandler *commonhttp.ErrorHandler
	log          *logger.Logger
}

func NewHandler(
	auth *service.AuthService,
	providers *oauth.Registry,
	verifier *jwtverify.Verifier,
	limiter *commonhttp.StrictRateLimiter,
	health map[string]commonhttp.HealthChecker,
	cfg Config,
	log *logger.Logger,
) http.Handler {
	h := &Handler{
		auth:      auth,
		providers: providers,
		refresh: commonhttp.NewCookieManager(commonhttp.CookieConfig{
			Name:     constants.RefreshTokenCookieName,
			Path:     "/",
			Secure:   cfg.SecureCookies,
			SameSite: http.SameSiteLaxMode,
			MaxAge:   cfg.RefreshTokenTTL,
		}),
		oauthState: commonhttp.NewCookieManager(commonhttp.CookieConfig{
			Name:     constants.OAuthStateCookieName,
			Path:     "/auth/callback",
			Secure:   cfg.SecureCookies,
			SameSite: http.SameSiteLaxMode,
			MaxAge:   constants.OAuthCookieMaxAge,
		}),
		oauthPKCE: commonhttp.NewCookieManager(commonhttp.CookieConfig{
			Name:     constants.OAuthVerifierCookie,
			Path:     "/auth/callback",
			Secure:   cfg.SecureCookies,
			SameSite: http.SameSiteLaxMode,
			MaxAge:   constants.OAuthCookieMaxAge,
		}),
		errorHandler: commonhttp.NewErrorHandler(log),
		log:          log,
	}

	timeout := commonhttp.WithTimeout(cfg.RequestTimeout)
	credentials := limiter.Middleware(commonhttp.LimiterCredentials)
	tokens := limiter.Middleware(commonhttp.LimiterToken)
	redirects := limiter.Middleware(commonhttp.LimiterOAuth)
	bearer := jwtverify.Middleware(verifier, log)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", commonhttp.HealthHandler(health))
	mux.HandleFunc("/auth/signup", credentials(commonhttp.RequireMethods(http.MethodPost)(timeout(h.signUp))))
	mux.HandleFunc("/auth/signin", credentials(commonhttp.RequireMethods(http.MethodPost)(timeout(h.signIn))))
	mux.HandleFunc("/auth/token", tokens(commonhttp.RequireMethods(http.MethodPost, http.MethodDelete)(timeout(h.token))))
	mux.HandleFunc("/auth/session", commonhttp.RequireMethods(http.MethodGet, http.MethodPatch)(bearer(timeout(h.session))))
	mux.HandleFunc("/auth/signin/{provider}", redirects(commonhttp.RequireMethods(http.MethodGet)(h.oauthRedirect)))
	mux.HandleFunc("/auth/callback/{provider}", redirects(commonhttp.RequireMethods(http.MethodGet)(timeout(h.oauthCallback))))
	return mux
}

func (h *Handler) token(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodDelete {
		h.revokeToken(w, r)
		return
	}
	h.refreshToken(w, r)
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPatch {
		h.updateSession(w, r)
		return
	}
	h.currentSession(w, r)
}
