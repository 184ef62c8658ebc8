package authentication

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-softwarelab/common/pkg/to"

	"github.com/bsv-blockchain/go-signed-exchange/pkg/keys"
	"github.com/bsv-blockchain/go-signed-exchange/pkg/keystore"
	"github.com/bsv-blockchain/go-signed-exchange/pkg/noncestore"
	"github.com/bsv-blockchain/go-signed-exchange/pkg/signing"
)

const (
	// DefaultAllowedClockSkew is the default tolerated difference between request timestamp and server time.
	DefaultAllowedClockSkew = 5 * time.Minute

	// DefaultMaxBodySize is the default limit of a request body covered by the signature.
	DefaultMaxBodySize int64 = 10 << 20
)

type Config struct {
	AllowedClockSkew      time.Duration
	MaxBodySize           int64
	IncludeQuery          bool
	DefaultResponseSigner keys.Signer
	Now                   func() time.Time
}

// Authenticator verifies signed requests.
type Authenticator struct {
	keyStore   keystore.Store
	nonceStore noncestore.Store
	cfg        Config
}

// Result of a request authentication.
//
// Body holds the request body bytes consumed during authentication. On a soft failure
// that happened after the body was read, a Result carrying only Body is returned together
// with the error, so the caller can restore the body for the next handler.
type Result struct {
	Identity       *keystore.Identity
	ResponseSigner keys.Signer
	Nonce          string
	Signature      string
	Body           []byte
}

func NewAuthenticator(keyStore keystore.Store, nonceStore noncestore.Store, opts ...func(*Config)) (*Authenticator, error) {
	cfg := to.OptionsWithDefault(Config{
		AllowedClockSkew: DefaultAllowedClockSkew,
		MaxBodySize:      DefaultMaxBodySize,
		Now:              time.Now,
	}, opts...)

	if keyStore == nil {
		return nil, errors.New("key store is required")
	}
	if nonceStore == nil {
		return nil, errors.New("nonce store is required")
	}
	if cfg.AllowedClockSkew <= 0 {
		return nil, fmt.Errorf("allowed clock skew must be positive, got %s", cfg.AllowedClockSkew)
	}
	if cfg.MaxBodySize <= 0 {
		return nil, fmt.Errorf("max body size must be positive, got %d", cfg.MaxBodySize)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Authenticator{
		keyStore:   keyStore,
		nonceStore: nonceStore,
		cfg:        cfg,
	}, nil
}

// Authenticate verifies the signing headers and body of req.
//
// Errors wrap ErrInvalidRequest or ErrAuthenticationFailed for soft failures,
// and ErrInvalidBackendData when the exchange has to be aborted.
func (a *Authenticator) Authenticate(ctx context.Context, req *http.Request) (*Result, error) {
	headers, err := headersFromRequest(req)
	if err != nil {
		return nil, err
	}

	if err := a.checkFreshness(headers.timestamp); err != nil {
		return nil, err
	}

	fresh, err := a.nonceStore.CheckAndRecord(ctx, headers.nonce, 2*a.cfg.AllowedClockSkew)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to check nonce: %w", ErrInvalidBackendData, err)
	}
	if !fresh {
		return nil, fmt.Errorf("%w: nonce %q has already been used", ErrInvalidRequest, headers.nonce)
	}

	identity, err := a.keyStore.Resolve(ctx, headers.identity)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to resolve identity %q: %w", ErrInvalidBackendData, headers.identity, err)
	}
	if identity == nil || identity.Verifier == nil {
		return nil, fmt.Errorf("%w: identity %q has no verifying key", ErrInvalidBackendData, headers.identity)
	}

	responseSigner := identity.ResponseSigner
	if responseSigner == nil {
		responseSigner = a.cfg.DefaultResponseSigner
	}
	if responseSigner == nil {
		return nil, fmt.Errorf("%w: no response signing key for identity %q", ErrInvalidBackendData, headers.identity)
	}

	body, err := a.readBody(req)
	if err != nil {
		return &Result{Body: body}, err
	}
	partial := &Result{Body: body}

	signature, err := decodeSignature(headers.signature)
	if err != nil {
		return partial, err
	}

	signingRequest, err := signing.NewRequest(
		req.Method,
		signing.RequestURI(req.URL, a.cfg.IncludeQuery),
		headers.nonce,
		headers.timestamp,
		headers.identity,
	)
	if err != nil {
		return partial, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	data, err := signingRequest.WithContent(body).DataToSign()
	if err != nil {
		return partial, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	if err := identity.Verifier.Verify(data, signature); err != nil {
		if errors.Is(err, keys.ErrSignatureInvalid) {
			return partial, fmt.Errorf("%w: %w", ErrAuthenticationFailed, err)
		}
		return nil, fmt.Errorf("%w: failed to verify signature of %q: %w", ErrInvalidBackendData, headers.identity, err)
	}

	return &Result{
		Identity:       identity,
		ResponseSigner: responseSigner,
		Nonce:          headers.nonce,
		Signature:      headers.signature,
		Body:           body,
	}, nil
}

// AllowedClockSkew returns the configured freshness tolerance.
func (a *Authenticator) AllowedClockSkew() time.Duration {
	return a.cfg.AllowedClockSkew
}

func (a *Authenticator) checkFreshness(timestamp string) error {
	ts, err := signing.ParseTimestamp(timestamp)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	now := a.cfg.Now()
	if ts.Before(now.Add(-a.cfg.AllowedClockSkew)) || ts.After(now.Add(a.cfg.AllowedClockSkew)) {
		return fmt.Errorf("%w: timestamp %s is outside of allowed clock skew %s", ErrInvalidRequest, timestamp, a.cfg.AllowedClockSkew)
	}
	return nil
}

// readBody returns whatever was read, also on error.
func (a *Authenticator) readBody(req *http.Request) ([]byte, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}

	body, err := io.ReadAll(io.LimitReader(req.Body, a.cfg.MaxBodySize+1))
	if err != nil {
		return body, fmt.Errorf("%w: failed to read request body: %w", ErrInvalidRequest, err)
	}
	if int64(len(body)) > a.cfg.MaxBodySize {
		return body, fmt.Errorf("%w: request body exceeds %d bytes", ErrInvalidRequest, a.cfg.MaxBodySize)
	}
	return body, nil
}
