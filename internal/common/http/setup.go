package http

import (
	"net/http"

	"github.com/AlibekovAA/session-auth/internal/common/constants"
	"github.com/AlibekovAA/session-auth/internal/common/httpmetrics"
	"github.com/AlibekovAA/session-auth/internal/common/logger"
)

// BuildBaseHandler wraps handler with the middleware chain shared by every
// route, outermost first: security headers, trace id, panic recovery, body
// size limit, request metrics.
func BuildBaseHandler(log *logger.Logger, handler http.Handler, secureTransport bool) http.Handler {
	chain := []func(http.Handler) http.Handler{
		SecurityHeadersMiddleware(secureTransport),
		TraceIDMiddleware,
		RecoveryMiddleware(log),
		MaxRequestSizeMiddleware(constants.DefaultMaxRequestSize),
		httpmetrics.New().Wrap,
	}

	for i := len(chain) - 1; i >= 0; i-- {
		handler = chain[i](handler)
	}
	return handler
}
