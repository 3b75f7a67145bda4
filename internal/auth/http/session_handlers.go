package http

import (
	"encoding/json"
	"net/http"
	"strings"

	commonhttp "github.com/AlibekovAA/session-auth/internal/common/http"
	"github.com/AlibekovAA/session-auth/internal/common/jwtverify"
	userdomain "github.com/AlibekovAA/session-auth/internal/user/domain"
)

// updateSessionRequest lists every field a client may change. Unknown fields
// are rejected by the decoder.
type updateSessionRequest struct {
	Name        *string         `json:"name" validate:"omitempty,max=128"`
	GivenName   *string         `json:"givenName" validate:"omitempty,max=128"`
	FamilyName  *string         `json:"familyName" validate:"omitempty,max=128"`
	Image       *string         `json:"image" validate:"omitempty,max=2048"`
	Preferences json.RawMessage `json:"preferences"`
}

func (h *Handler) currentSession(w http.ResponseWriter, r *http.Request) {
	claims, ok := jwtverify.FromContext(r.Context())
	if !ok {
		commonhttp.WriteErrorEnvelope(w, http.StatusUnauthorized, commonhttp.CodeMissingAuthorization, "missing or invalid authorization", commonhttp.TraceIDFromContext(r.Context()))
		return
	}

	sess, err := h.auth.CurrentSession(r.Context(), claims.UserID, bearerToken(r))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	commonhttp.WriteJSON(w, http.StatusOK, sess)
}

func (h *Handler) updateSession(w http.ResponseWriter, r *http.Request) {
	claims, ok := jwtverify.FromContext(r.Context())
	if !ok {
		commonhttp.WriteErrorEnvelope(w, http.StatusUnauthorized, commonhttp.CodeMissingAuthorization, "missing or invalid authorization", commonhttp.TraceIDFromContext(r.Context()))
		return
	}

	var req updateSessionRequest
	if !h.decode(w, r, &req) {
		return
	}

	sess, err := h.auth.UpdateSession(r.Context(), claims.UserID, bearerToken(r), userdomain.ProfileUpdate{
		Name:        req.Name,
		GivenName:   req.GivenName,
		FamilyName:  req.FamilyName,
		Image:       req.Image,
		Preferences: req.Preferences,
	})
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	commonhttp.WriteJSON(w, http.StatusOK, sess)
}

func bearerToken(r *http.Request) string {
	return strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
}
