package http

import (
	"net/http"

	"github.com/AlibekovAA/session-auth/internal/auth/service"
	commonhttp "github.com/AlibekovAA/session-auth/internal/common/http"
	"github.com/AlibekovAA/session-auth/internal/common/logger"
)

type signUpRequest struct {
	Email    string `json:"email" validate:"required,max=254"`
	Password string `json:"password" validate:"required"`
	Name     string `json:"name" validate:"max=128"`
}

type signInRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) signUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if !h.decode(w, r, &req) {
		return
	}

	sess, err := h.auth.Register(r.Context(), service.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.writeSession(w, http.StatusCreated, sess)
}

func (h *Handler) signIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if !h.decode(w, r, &req) {
		return
	}

	sess, err := h.auth.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.writeSession(w, http.StatusOK, sess)
}

// decode reads a JSON body into v and runs its validate tags. It writes the
// 400 response itself and reports whether the handler may continue.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	ctx := r.Context()

	if err := commonhttp.DecodeJSON(r, v); err != nil {
		h.log.WithFields(ctx, logger.Fields{
			"path":   r.URL.Path,
			"action": "request_invalid_json",
		}).Warnf("invalid json: %v", err)
		commonhttp.WriteErrorEnvelope(w, http.StatusBadRequest, commonhttp.CodeInvalidJSON, "invalid json", commonhttp.TraceIDFromContext(ctx))
		return false
	}

	if err := commonhttp.ValidateStruct(v); err != nil {
		commonhttp.WriteErrorEnvelope(w, http.StatusBadRequest, commonhttp.CodeBadRequest, err.Error(), commonhttp.TraceIDFromContext(ctx))
		return false
	}
	return true
}
