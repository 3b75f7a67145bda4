package http

const (
	CodeMethodNotAllowed     = "METHOD_NOT_ALLOWED"
	CodeInvalidJSON          = "INVALID_JSON"
	CodeBadRequest           = "BAD_REQUEST"
	CodeMissingRefreshToken  = "MISSING_REFRESH_TOKEN"
	CodeMissingAuthorization = "MISSING_AUTHORIZATION"
	CodeInvalidToken         = "INVALID_TOKEN"
	CodeRateLimited          = "RATE_LIMITED"
	CodeRequestTooLarge      = "REQUEST_TOO_LARGE"
	CodeInternal             = "INTERNAL_ERROR"
	CodeUnknownProvider      = "UNKNOWN_PROVIDER"
	CodeInvalidOAuthState    = "INVALID_OAUTH_STATE"
	CodeOAuthProviderError   = "OAUTH_PROVIDER_ERROR"
)
