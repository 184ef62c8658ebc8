package signing

import (
	"fmt"
	"net/http"
	"strconv"
)

// Response holds everything that is covered by a response signature.
//
// RequestSignature binds the response to the exact signed request that produced it,
// so a captured response cannot be spliced onto another request that reuses the nonce.
type Response struct {
	Nonce            string
	RequestSignature string
	Status           int
	IsError          bool
	Body             []byte
}

// NewResponse creates a validated Response.
func NewResponse(nonce, requestSignature string, status int, isError bool, body []byte) (*Response, error) {
	r := &Response{
		Nonce:            nonce,
		RequestSignature: requestSignature,
		Status:           status,
		IsError:          isError,
		Body:             body,
	}

	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Validate checks that the response is bound to a request and carries a valid status code.
func (r *Response) Validate() error {
	if r.Status < 100 || r.Status > 999 {
		return fmt.Errorf("%w: invalid status code %d", ErrValidation, r.Status)
	}
	return validateFields(r.canonicalFields()...)
}

// DataToSign returns the canonical bytes of the response:
// NONCE, REQUEST_SIGNATURE, STATUS and IS_ERROR joined by newlines, followed by the body.
func (r *Response) DataToSign() ([]byte, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return Canonicalize(fieldValues(r.canonicalFields()), r.Body), nil
}

func (r *Response) canonicalFields() []field {
	return []field{
		{name: "nonce", value: r.Nonce},
		{name: "request signature", value: r.RequestSignature},
		{name: "status", value: strconv.Itoa(r.Status)},
		{name: "error flag", value: strconv.FormatBool(r.IsError)},
	}
}

// BodyAllowed reports whether a response with status to a request with method reaches the
// client with a body. Responses that cannot carry one are signed over an empty body.
func BodyAllowed(method string, status int) bool {
	if method == http.MethodHead {
		return false
	}
	switch {
	case status >= 100 && status < 200, status == http.StatusNoContent, status == http.StatusNotModified:
		return false
	default:
		return true
	}
}
