package exchange

import (
	"net/http"

	"github.com/bsv-blockchain/go-signed-exchange/pkg/internal/transport"
)

type unwrapper interface {
	Unwrap() http.ResponseWriter
}

// SendError signals an error response from a handler.
//
// Inside a signed exchange the body written so far is kept and signed, the response is
// marked with the X-EXCLUDEBODY header and message is sent after the body, so it is not
// covered by the response signature. Outside of a signed exchange it behaves like http.Error.
func SendError(w http.ResponseWriter, status int, message string) {
	if buffer, ok := findResponseBuffer(w); ok {
		buffer.SendError(status, message)
		return
	}
	http.Error(w, message, status)
}

func findResponseBuffer(w http.ResponseWriter) (*transport.ResponseBuffer, bool) {
	for w != nil {
		if buffer, ok := transport.AsResponseBuffer(w); ok {
			return buffer, true
		}
		u, ok := w.(unwrapper)
		if !ok {
			return nil, false
		}
		w = u.Unwrap()
	}
	return nil, false
}
