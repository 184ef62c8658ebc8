package client

import (
	"fmt"
	"net/http"
)

// Transport is an http.RoundTripper that signs outgoing requests and, when a
// response verifier is configured, rejects responses whose signature does not verify.
type Transport struct {
	base   http.RoundTripper
	config Config
}

// NewTransport creates a signing Transport that delegates to base after
// signing each request. When base is nil, a clone of http.DefaultTransport
// is used.
func NewTransport(base http.RoundTripper, cfg Config) *Transport {
	if base == nil {
		base = http.DefaultTransport.(*http.Transport).Clone()
	}

	return &Transport{
		base:   base,
		config: cfg,
	}
}

// NewHTTPClient returns an http.Client using a signing Transport.
func NewHTTPClient(cfg Config) *http.Client {
	return &http.Client{Transport: NewTransport(nil, cfg)}
}

// RoundTrip signs a clone of the request and then delegates to the base transport.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())

	if clone.Body != nil && req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("failed to copy request body: %w", err)
		}

		clone.Body = body
	}

	signature, err := SignRequest(clone, t.config)
	if err != nil {
		return nil, err
	}

	resp, err := t.base.RoundTrip(clone)
	if err != nil {
		return nil, err //nolint:wrapcheck // transport errors are passed through unchanged
	}

	if t.config.ResponseVerifier == nil {
		return resp, nil
	}

	if err := VerifyResponse(resp, signature, t.config.ResponseVerifier); err != nil {
		_ = resp.Body.Close()
		return nil, err
	}
	return resp, nil
}
