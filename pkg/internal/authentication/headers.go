package authentication

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/bsv-blockchain/go-signed-exchange/pkg/constants"
)

type signedHeaders struct {
	nonce     string
	timestamp string
	identity  string
	signature string
}

func headersFromRequest(req *http.Request) (*signedHeaders, error) {
	h := &signedHeaders{
		nonce:     req.Header.Get(constants.HeaderNonce),
		timestamp: req.Header.Get(constants.HeaderTimestamp),
		identity:  req.Header.Get(constants.HeaderIdentity),
		signature: req.Header.Get(constants.HeaderSignature),
	}

	var missing []string
	for _, header := range []struct{ name, value string }{
		{constants.HeaderNonce, h.nonce},
		{constants.HeaderTimestamp, h.timestamp},
		{constants.HeaderIdentity, h.identity},
		{constants.HeaderSignature, h.signature},
	} {
		if header.value == "" {
			missing = append(missing, header.name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing headers %s", ErrInvalidRequest, strings.Join(missing, ", "))
	}

	return h, nil
}

// HasSigningHeaders reports whether the request carries any of the signing headers.
func HasSigningHeaders(req *http.Request) bool {
	for _, name := range []string{
		constants.HeaderNonce,
		constants.HeaderTimestamp,
		constants.HeaderIdentity,
		constants.HeaderSignature,
	} {
		if req.Header.Get(name) != "" {
			return true
		}
	}
	return false
}

func decodeSignature(signature string) ([]byte, error) {
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(signature))
	if err != nil {
		return nil, fmt.Errorf("%w: signature is not valid base64: %w", ErrInvalidRequest, err)
	}
	if len(decoded) == 0 {
		return nil, fmt.Errorf("%w: signature is empty", ErrInvalidRequest)
	}
	return decoded, nil
}
