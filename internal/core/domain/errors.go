package domain

import "errors"

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the identifier is outside the known bounds or upstream has no such item
	ErrNotFound = errors.New("not found")

	// ErrUpstream indicates the content API answered with a non-2xx status or a malformed payload
	ErrUpstream = errors.New("upstream error")

	// ErrTimeout indicates the content API did not answer within the deadline
	ErrTimeout = errors.New("upstream timeout")

	// ErrConfig indicates an unknown content type or an unsupported filter combination
	ErrConfig = errors.New("invalid configuration")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates authentication failed or missing
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the caller lacks permission for this action
	ErrForbidden = errors.New("forbidden")

	// ErrTokenExpired indicates the auth token has expired
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid indicates the auth token is malformed or invalid
	ErrTokenInvalid = errors.New("token invalid")
)

// ErrorKind returns the taxonomy name of err for logs and metrics.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrUpstream):
		return "upstream"
	case errors.Is(err, ErrConfig):
		return "config"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	default:
		return "internal"
	}
}

// IsSkippable reports whether a catalog may drop the failed item and continue.
// Configuration errors are caller mistakes and must abort the whole request.
func IsSkippable(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrUpstream) || errors.Is(err, ErrTimeout)
}
