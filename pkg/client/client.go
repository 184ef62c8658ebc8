// Package client signs outgoing requests and verifies the signed responses of an exchange server.
package client

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bsv-blockchain/go-signed-exchange/pkg/constants"
	"github.com/bsv-blockchain/go-signed-exchange/pkg/keys"
	"github.com/bsv-blockchain/go-signed-exchange/pkg/signing"
)

var (
	// ErrResponseSignature is returned when a response is unsigned or its signature does not verify.
	ErrResponseSignature = errors.New("client: invalid response signature")

	// ErrMissingSigner is returned when Config has no identity or signer.
	ErrMissingSigner = errors.New("client: identity and signer are required")
)

// Config configures request signing.
type Config struct {
	// Identity is sent in X-IDENTITY and must be known to the server key store. Required.
	Identity string

	// Signer signs the canonical request. Required.
	Signer keys.Signer

	// ResponseVerifier checks response signatures. When nil, responses are not verified.
	// For HMAC identities this is the same key as Signer.
	ResponseVerifier keys.Verifier

	// ClockSkew is subtracted from the local time when stamping requests.
	ClockSkew time.Duration

	// IncludeQuery must match the server setting.
	IncludeQuery bool
}

// Signature identifies a signed request. Both values are bound into the response signature.
type Signature struct {
	Nonce string
	Value string
}

// SignRequest adds the signing headers to req. The body, if any, is read and replaced
// with a replayable copy.
func SignRequest(req *http.Request, cfg Config) (*Signature, error) {
	if cfg.Identity == "" || cfg.Signer == nil {
		return nil, ErrMissingSigner
	}

	body, err := drainBody(req)
	if err != nil {
		return nil, err
	}

	signingRequest, err := signing.NewFreshRequest(
		req.Method,
		signing.RequestURI(req.URL, cfg.IncludeQuery),
		cfg.ClockSkew,
		cfg.Identity,
		body,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare request signature: %w", err)
	}

	data, err := signingRequest.DataToSign()
	if err != nil {
		return nil, fmt.Errorf("failed to prepare request signature: %w", err)
	}

	sig, err := cfg.Signer.Sign(data)
	if err != nil {
		return nil, fmt.Errorf("failed to sign request: %w", err)
	}

	signature := &Signature{
		Nonce: signingRequest.Nonce,
		Value: base64.StdEncoding.EncodeToString(sig),
	}

	req.Header.Set(constants.HeaderNonce, signature.Nonce)
	req.Header.Set(constants.HeaderTimestamp, signingRequest.Timestamp)
	req.Header.Set(constants.HeaderIdentity, cfg.Identity)
	req.Header.Set(constants.HeaderSignature, signature.Value)

	return signature, nil
}

// VerifyResponse checks the signature of resp against the request it answers.
// The body is read and replaced with a replayable copy. For responses marked with
// X-EXCLUDEBODY only the first X-SIGNED-BODY-LENGTH body bytes are covered by the
// signature; the error payload after them is not.
func VerifyResponse(resp *http.Response, signature *Signature, verifier keys.Verifier) error {
	if signature == nil || verifier == nil {
		return fmt.Errorf("%w: request signature and verifier are required", ErrResponseSignature)
	}

	header := resp.Header.Get(constants.HeaderSignature)
	if header == "" {
		return fmt.Errorf("%w: response is not signed", ErrResponseSignature)
	}

	sig, err := base64.StdEncoding.DecodeString(strings.TrimSpace(header))
	if err != nil {
		return fmt.Errorf("%w: signature is not valid base64: %w", ErrResponseSignature, err)
	}

	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))

	isError := strings.EqualFold(strings.TrimSpace(resp.Header.Get(constants.HeaderExcludeBody)), constants.ExcludeBodyValue)
	signedBody := body
	switch {
	case !signing.BodyAllowed(requestMethod(resp), resp.StatusCode):
		signedBody = nil
	case isError:
		signedBody, err = signedErrorBody(resp.Header, body)
		if err != nil {
			return err
		}
	}

	response, err := signing.NewResponse(signature.Nonce, signature.Value, resp.StatusCode, isError, signedBody)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrResponseSignature, err)
	}

	data, err := response.DataToSign()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrResponseSignature, err)
	}

	if err := verifier.Verify(data, sig); err != nil {
		return fmt.Errorf("%w: %w", ErrResponseSignature, err)
	}
	return nil
}

// signedErrorBody returns the body prefix that precedes the error payload.
func signedErrorBody(header http.Header, body []byte) ([]byte, error) {
	value := strings.TrimSpace(header.Get(constants.HeaderSignedBodyLength))
	if value == "" {
		return nil, nil
	}

	length, err := strconv.Atoi(value)
	if err != nil || length < 0 || length > len(body) {
		return nil, fmt.Errorf("%w: invalid %s header %q", ErrResponseSignature, constants.HeaderSignedBodyLength, value)
	}
	return body[:length], nil
}

func requestMethod(resp *http.Response) string {
	if resp.Request == nil {
		return ""
	}
	return resp.Request.Method
}

func drainBody(req *http.Request) ([]byte, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}

	body, err := io.ReadAll(req.Body)
	_ = req.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}

	req.Body = io.NopCloser(bytes.NewReader(body))
	req.ContentLength = int64(len(body))
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(body)), nil
	}
	return body, nil
}
