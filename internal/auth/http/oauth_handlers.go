package http

import (
	"net/http"

	"github.com/AlibekovAA/session-auth/internal/auth/oauth"
	"github.com/AlibekovAA/session-auth/internal/auth/service"
	commonhttp "github.com/AlibekovAA/session-auth/internal/common/http"
	"github.com/AlibekovAA/session-auth/internal/common/logger"
	"github.com/AlibekovAA/session-auth/internal/observability/metrics"
)

func (h *Handler) oauthRedirect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	provider, err := h.providers.Get(r.PathValue("provider"))
	if err != nil {
		commonhttp.WriteErrorEnvelope(w, http.StatusNotFound, commonhttp.CodeUnknownProvider, "unknown provider", commonhttp.TraceIDFromContext(ctx))
		return
	}

	flow, err := oauth.NewFlow()
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.oauthState.Set(w, flow.State)
	h.oauthPKCE.Set(w, flow.Verifier)

	h.log.WithFields(ctx, logger.Fields{
		"provider": provider.ID(),
		"action":   "oauth_redirect",
	}).Debug("redirecting to oauth provider")

	http.Redirect(w, r, provider.AuthCodeURL(flow.State, flow.Verifier, callbackURL(r, provider)), http.StatusFound)
}

// oauthCallback finishes the authorization code flow. The state and verifier
// cookies are single use and cleared on every outcome.
func (h *Handler) oauthCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	traceID := commonhttp.TraceIDFromContext(ctx)

	expectedState := h.oauthState.Read(r)
	verifier := h.oauthPKCE.Read(r)
	h.oauthState.Clear(w)
	h.oauthPKCE.Clear(w)

	provider, err := h.providers.Get(r.PathValue("provider"))
	if err != nil {
		commonhttp.WriteErrorEnvelope(w, http.StatusNotFound, commonhttp.CodeUnknownProvider, "unknown provider", traceID)
		return
	}

	fields := logger.Fields{"provider": provider.ID()}
	query := r.URL.Query()

	if providerErr := query.Get("error"); providerErr != "" {
		fields["action"] = "oauth_denied"
		h.log.WithFields(ctx, fields).Warnf("oauth provider returned error: %s", providerErr)
		recordCallback(provider.ID(), "denied")
		commonhttp.WriteErrorEnvelope(w, http.StatusUnauthorized, commonhttp.CodeOAuthProviderError, "oauth sign-in was not completed", traceID)
		return
	}

	if !oauth.StateMatches(expectedState, query.Get("state")) || verifier == "" {
		fields["action"] = "oauth_state_mismatch"
		h.log.WithFields(ctx, fields).Warn("oauth callback rejected: state mismatch")
		recordCallback(provider.ID(), "invalid_state")
		commonhttp.WriteErrorEnvelope(w, http.StatusBadRequest, commonhttp.CodeInvalidOAuthState, "invalid oauth state", traceID)
		return
	}

	code := query.Get("code")
	if code == "" {
		recordCallback(provider.ID(), "missing_code")
		commonhttp.WriteErrorEnvelope(w, http.StatusBadRequest, commonhttp.CodeBadRequest, "code is required", traceID)
		return
	}

	token, err := provider.Exchange(ctx, code, verifier, callbackURL(r, provider))
	if err != nil {
		fields["action"] = "oauth_exchange_failed"
		h.log.WithFields(ctx, fields).Errorf("oauth code exchange failed: %v", err)
		recordCallback(provider.ID(), "exchange_failed")
		commonhttp.WriteErrorEnvelope(w, http.StatusBadGateway, commonhttp.CodeOAuthProviderError, "oauth provider error", traceID)
		return
	}

	profile, err := provider.FetchProfile(ctx, token)
	if err != nil {
		fields["action"] = "oauth_userinfo_failed"
		h.log.WithFields(ctx, fields).Errorf("oauth userinfo failed: %v", err)
		recordCallback(provider.ID(), "userinfo_failed")
		commonhttp.WriteErrorEnvelope(w, http.StatusBadGateway, commonhttp.CodeOAuthProviderError, "oauth provider error", traceID)
		return
	}

	sess, err := h.auth.SignInWithOAuth(ctx, service.OAuthProfile{
		Provider:          profile.Provider,
		ProviderAccountID: profile.ProviderAccountID,
		Email:             profile.Email,
		EmailVerified:     profile.EmailVerified,
		Name:              profile.Name,
		GivenName:         profile.GivenName,
		FamilyName:        profile.FamilyName,
		Image:             profile.Image,
	}, provider.AllowEmailLinking())
	if err != nil {
		recordCallback(provider.ID(), "rejected")
		h.errorHandler.HandleError(w, r, err)
		return
	}

	recordCallback(provider.ID(), "success")
	h.writeSession(w, http.StatusOK, sess)
}

func recordCallback(provider, result string) {
	metrics.OAuthCallbacksTotal.WithLabelValues(provider, result).Inc()
}

// callbackURL derives the redirect URI from the request when the provider
// has none configured.
func callbackURL(r *http.Request, provider *oauth.Provider) string {
	if provider.HasRedirectURL() {
		return ""
	}
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + r.Host + "/auth/callback/" + provider.ID()
}
