package jwtverify

import (
	"context"
	"net/http"
	"strings"

	commonhttp "github.com/AlibekovAA/session-auth/internal/common/http"
	"github.com/AlibekovAA/session-auth/internal/common/logger"
)

type contextKey string

const claimsKey contextKey = "jwt_claims"

func Middleware(verifier *Verifier, log *logger.Logger) func(next http.HandlerFunc) http.HandlerFunc {
	errorHandler := commonhttp.NewErrorHandler(log)

	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get("Authorization")
			if raw == "" || !strings.HasPrefix(raw, "Bearer ") {
				log.WithFields(r.Context(), logger.Fields{
					"path":   r.URL.Path,
					"action": "jwt_missing_authorization",
				}).Debug("missing or invalid authorization header")
				commonhttp.WriteErrorEnvelope(w, http.StatusUnauthorized, commonhttp.CodeMissingAuthorization, "missing or invalid authorization", commonhttp.TraceIDFromContext(r.Context()))
				return
			}

			claims, err := verifier.Verify(strings.TrimPrefix(raw, "Bearer "))
			if err != nil {
				log.WithFields(r.Context(), logger.Fields{
					"path":   r.URL.Path,
					"action": "jwt_verify_failed",
				}).Debugf("jwt auth failed: %v", err)
				errorHandler.HandleError(w, r, err)
				return
			}

			next(w, r.WithContext(WithClaims(r.Context(), claims)))
		}
	}
}

func WithClaims(ctx context.Context, claims Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

func FromContext(ctx context.Context) (Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(Claims)
	return claims, ok
}
