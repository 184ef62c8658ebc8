package authentication

import "errors"

var (
	// ErrInvalidRequest is returned when the request cannot be authenticated because
	// signing headers are missing or malformed, the timestamp is stale or the nonce was replayed.
	// The request is passed through unauthenticated.
	ErrInvalidRequest = errors.New("invalid signed request")

	// ErrAuthenticationFailed is returned when the request signature does not match.
	// The request is passed through unauthenticated.
	ErrAuthenticationFailed = errors.New("request signature verification failed")

	// ErrInvalidBackendData is returned when the server side collaborators fail or hold
	// unusable data. The exchange is aborted with an internal server error.
	ErrInvalidBackendData = errors.New("invalid backend data")
)

// IsFatal reports whether err must abort the exchange instead of passing the request through.
func IsFatal(err error) bool {
	return errors.Is(err, ErrInvalidBackendData)
}
