package signing

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	hash "github.com/bsv-blockchain/go-sdk/primitives/hash"
	"github.com/google/uuid"
)

// Request holds everything that is covered by a request signature.
// Two requests are equal when all fields, including the content bytes, are equal.
type Request struct {
	Method    string
	URI       string
	Nonce     string
	Timestamp string
	Identity  string
	Content   []byte
}

// NewRequest creates a Request from exact parameters, typically the ones extracted
// from an inbound request for verification.
func NewRequest(method, uri, nonce, timestamp, identity string) (*Request, error) {
	r := &Request{
		Method:    method,
		URI:       uri,
		Nonce:     nonce,
		Timestamp: timestamp,
		Identity:  identity,
	}

	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// NewFreshRequest creates a Request with a new random nonce and a timestamp of now minus clockSkew.
// A client that knows its clock runs ahead of the server by clockSkew can compensate for it here.
// Content is optional.
func NewFreshRequest(method, uri string, clockSkew time.Duration, identity string, content []byte) (*Request, error) {
	r := &Request{
		Method:    method,
		URI:       uri,
		Nonce:     uuid.NewString(),
		Timestamp: FormatTimestamp(time.Now().Add(-clockSkew)),
		Identity:  identity,
		Content:   content,
	}

	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// WithContent sets the body bytes covered by the signature and returns the request.
func (r *Request) WithContent(content []byte) *Request {
	r.Content = content
	return r
}

// Validate checks that all required fields are present and free of line breaks.
func (r *Request) Validate() error {
	return validateFields(r.canonicalFields()...)
}

// DataToSign returns the canonical bytes of the request.
func (r *Request) DataToSign() ([]byte, error) {
	fields := r.canonicalFields()
	if err := validateFields(fields...); err != nil {
		return nil, err
	}
	return Canonicalize(fieldValues(fields), r.Content), nil
}

// Equal reports whether both requests would produce the same signature input.
func (r *Request) Equal(other *Request) bool {
	if r == nil || other == nil {
		return r == other
	}

	return r.Method == other.Method &&
		r.URI == other.URI &&
		r.Nonce == other.Nonce &&
		r.Timestamp == other.Timestamp &&
		r.Identity == other.Identity &&
		bytes.Equal(r.Content, other.Content)
}

// String returns a representation safe for logs: content is replaced by its fingerprint.
func (r *Request) String() string {
	content := "none"
	if r.Content != nil {
		content = fingerprint(r.Content)
	}

	return fmt.Sprintf("Request{method=%q, uri=%q, nonce=%q, timestamp=%q, identity=%q, content=%s}",
		r.Method, r.URI, r.Nonce, r.Timestamp, r.Identity, content)
}

func (r *Request) canonicalFields() []field {
	return []field{
		{name: "method", value: strings.ToUpper(strings.TrimSpace(r.Method))},
		{name: "uri", value: strings.TrimSpace(r.URI)},
		{name: "nonce", value: r.Nonce},
		{name: "timestamp", value: strings.ToUpper(strings.TrimSpace(r.Timestamp))},
		{name: "identity", value: r.Identity},
	}
}

func fingerprint(content []byte) string {
	return hex.EncodeToString(hash.Sha256(content))
}
