package exchange

import "github.com/bsv-blockchain/go-signed-exchange/pkg/internal/authentication"

var (
	// ErrInvalidRequest marks requests without usable signing headers, with a stale timestamp or a replayed nonce.
	ErrInvalidRequest = authentication.ErrInvalidRequest

	// ErrAuthenticationFailed marks requests whose signature does not match.
	ErrAuthenticationFailed = authentication.ErrAuthenticationFailed

	// ErrInvalidBackendData marks failures of the key store, the nonce store or the server keys.
	ErrInvalidBackendData = authentication.ErrInvalidBackendData
)
