package http

import (
	"net/http"

	"github.com/AlibekovAA/session-auth/internal/auth/service"
	"github.com/AlibekovAA/session-auth/internal/auth/session"
	commonhttp "github.com/AlibekovAA/session-auth/internal/common/http"
	"github.com/AlibekovAA/session-auth/internal/common/logger"
)

type revokeResponse struct {
	Success bool `json:"success"`
}

// refreshToken rotates the refresh cookie. Every non-200 response clears the
// cookie so a client never keeps retrying a dead token.
func (h *Handler) refreshToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	presented := h.refresh.Read(r)
	if presented == "" {
		h.refresh.Clear(w)
		commonhttp.WriteErrorEnvelope(w, http.StatusUnauthorized, commonhttp.CodeMissingRefreshToken, "no refresh token", commonhttp.TraceIDFromContext(ctx))
		return
	}

	sess, err := h.auth.RefreshAccessToken(ctx, presented)
	if err != nil {
		h.refresh.Clear(w)
		if service.IsRotationFailure(err) {
			h.log.WithFields(ctx, logger.Fields{
				"action": "refresh_rejected",
			}).Debugf("refresh rejected: %v", err)
			h.errorHandler.HandleError(w, r, err)
			return
		}
		h.log.WithFields(ctx, logger.Fields{
			"action": "refresh_failed",
		}).Errorf("refresh failed: %v", err)
		commonhttp.WriteErrorEnvelope(w, http.StatusInternalServerError, commonhttp.CodeInternal, "internal server error", commonhttp.TraceIDFromContext(ctx))
		return
	}

	h.writeSession(w, http.StatusOK, sess)
}

func (h *Handler) revokeToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if presented := h.refresh.Read(r); presented != "" {
		if err := h.auth.RevokeRefreshToken(ctx, presented); err != nil {
			h.log.WithFields(ctx, logger.Fields{
				"action": "logout_revoke_failed",
			}).Errorf("logout revoke failed: %v", err)
			h.refresh.Clear(w)
			commonhttp.WriteErrorEnvelope(w, http.StatusInternalServerError, commonhttp.CodeInternal, "failed to revoke refresh token", commonhttp.TraceIDFromContext(ctx))
			return
		}
	}

	h.refresh.Clear(w)
	commonhttp.WriteJSON(w, http.StatusOK, revokeResponse{Success: true})
}

// writeSession sets the refresh cookie when the session carries a new token
// and writes the session body.
func (h *Handler) writeSession(w http.ResponseWriter, status int, sess session.Session) {
	if sess.RefreshToken != "" {
		h.refresh.Set(w, sess.RefreshToken)
	}
	commonhttp.WriteJSON(w, status, sess)
}
