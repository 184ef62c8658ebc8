// Package exchange provides the HTTP middleware that authenticates signed requests
// and signs the matching responses.
package exchange

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-softwarelab/common/pkg/to"

	"github.com/bsv-blockchain/go-signed-exchange/pkg/constants"
	"github.com/bsv-blockchain/go-signed-exchange/pkg/internal/authctx"
	"github.com/bsv-blockchain/go-signed-exchange/pkg/internal/authentication"
	"github.com/bsv-blockchain/go-signed-exchange/pkg/internal/logging"
	"github.com/bsv-blockchain/go-signed-exchange/pkg/internal/transport"
	"github.com/bsv-blockchain/go-signed-exchange/pkg/keystore"
	"github.com/bsv-blockchain/go-signed-exchange/pkg/metrics"
	"github.com/bsv-blockchain/go-signed-exchange/pkg/middleware/httperror"
	"github.com/bsv-blockchain/go-signed-exchange/pkg/noncestore"
	"github.com/bsv-blockchain/go-signed-exchange/pkg/signing"
)

var errResponseNotSent = errors.New("failed to send signed response")

// Middleware authenticates signed requests and signs their responses.
//
// Requests that cannot be authenticated are passed to the next handler without an identity.
// Failures of the key or nonce store abort the exchange with an internal server error.
type Middleware struct {
	authenticator *authentication.Authenticator
	log           *slog.Logger
	metrics       *metrics.Metrics
	errorHandler  httperror.Handler
	now           func() time.Time
}

// New creates the exchange middleware.
func New(keyStore keystore.Store, nonceStore noncestore.Store, opts ...func(*Config)) (*Middleware, error) {
	cfg := to.OptionsWithDefault(Config{
		AllowedClockSkew: authentication.DefaultAllowedClockSkew,
		MaxBodySize:      authentication.DefaultMaxBodySize,
		Logger:           slog.Default(),
		ErrorHandler:     httperror.DefaultHandler,
		Now:              time.Now,
	}, opts...)

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = httperror.DefaultHandler
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	authenticator, err := authentication.NewAuthenticator(keyStore, nonceStore, func(c *authentication.Config) {
		c.AllowedClockSkew = cfg.AllowedClockSkew
		c.MaxBodySize = cfg.MaxBodySize
		c.IncludeQuery = cfg.IncludeQuery
		c.DefaultResponseSigner = cfg.ServerSigner
		c.Now = cfg.Now
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create exchange middleware: %w", err)
	}

	return &Middleware{
		authenticator: authenticator,
		log:           logging.Child(cfg.Logger, "ExchangeMiddleware"),
		metrics:       cfg.Metrics,
		errorHandler:  cfg.ErrorHandler,
		now:           cfg.Now,
	}, nil
}

// NewHandler wraps next with a new exchange middleware.
func NewHandler(next http.Handler, keyStore keystore.Store, nonceStore noncestore.Store, opts ...func(*Config)) (http.Handler, error) {
	m, err := New(keyStore, nonceStore, opts...)
	if err != nil {
		return nil, err
	}
	return m.Handler(next), nil
}

// Handler returns a middleware handler function
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.serve(w, r, next)
	})
}

func (m *Middleware) serve(w http.ResponseWriter, r *http.Request, next http.Handler) {
	ctx := r.Context()
	log := m.log.With(slog.String("path", r.URL.Path), slog.String("method", r.Method))

	if !authctx.IsUnauthenticated(ctx) {
		m.metrics.ObserveAuthentication(metrics.OutcomePreAuthenticated)
		next.ServeHTTP(w, r)
		return
	}

	result, err := m.authenticator.Authenticate(ctx, r)
	if err != nil {
		if authentication.IsFatal(err) {
			log.ErrorContext(ctx, "Failed to authenticate request", logging.Error(err))
			m.metrics.ObserveAuthentication(metrics.OutcomeBackendError)
			m.errorHandler(ctx, log, toHTTPError(err), w, r)
			return
		}

		m.metrics.ObserveAuthentication(softFailureOutcome(r, err))
		log.DebugContext(ctx, "Passing request through unauthenticated", logging.Error(err))
		if result != nil {
			r.Body = restoredBody(result.Body, r.Body)
		}
		next.ServeHTTP(w, r)
		return
	}

	m.metrics.ObserveAuthentication(metrics.OutcomeAuthenticated)
	log = log.With(slog.String("identity", result.Identity.Name))

	if err := m.handle(ctx, log, w, r, result, next); err != nil {
		log.ErrorContext(ctx, "Failed to complete signed exchange", logging.Error(err))
		if !errors.Is(err, errResponseNotSent) {
			m.errorHandler(ctx, log, toHTTPError(err), w, r)
		}
	}
}

// handle runs next against a buffered response and sends it signed.
// Errors not wrapping errResponseNotSent are returned before anything was written to w.
func (m *Middleware) handle(ctx context.Context, log *slog.Logger, w http.ResponseWriter, r *http.Request, result *authentication.Result, next http.Handler) error {
	r.Body = io.NopCloser(bytes.NewReader(result.Body))
	r = r.WithContext(authctx.WithIdentity(ctx, result.Identity))

	header := w.Header().Clone()
	buffer := transport.NewResponseBuffer(w)
	next.ServeHTTP(buffer, r)

	if ctx.Err() != nil {
		buffer.Discard()
		m.metrics.ObserveDiscardedResponse()
		log.DebugContext(ctx, "Client went away, discarding response", logging.Error(ctx.Err()))
		return nil
	}

	if !signing.BodyAllowed(r.Method, buffer.StatusCode()) {
		buffer.Discard()
	}

	if err := m.signResponse(w.Header(), buffer, result); err != nil {
		resetHeader(w.Header(), header)
		return err
	}

	if err := buffer.Commit(); err != nil {
		return fmt.Errorf("%w: %w", errResponseNotSent, err)
	}

	m.metrics.ObserveSignedResponse(buffer.IsError())
	return nil
}

func (m *Middleware) signResponse(header http.Header, buffer *transport.ResponseBuffer, result *authentication.Result) error {
	body := buffer.Body()
	response, err := signing.NewResponse(result.Nonce, result.Signature, buffer.StatusCode(), buffer.IsError(), body)
	if err != nil {
		return fmt.Errorf("failed to prepare response signature: %w", err)
	}

	data, err := response.DataToSign()
	if err != nil {
		return fmt.Errorf("failed to prepare response signature: %w", err)
	}

	signature, err := result.ResponseSigner.Sign(data)
	if err != nil {
		return fmt.Errorf("%w: failed to sign response: %w", ErrInvalidBackendData, err)
	}

	header.Set(constants.HeaderTimestamp, signing.FormatTimestamp(m.now()))
	header.Set(constants.HeaderSignature, base64.StdEncoding.EncodeToString(signature))
	if buffer.IsError() {
		header.Set(constants.HeaderExcludeBody, constants.ExcludeBodyValue)
		header.Set(constants.HeaderSignedBodyLength, strconv.Itoa(len(body)))
	}
	return nil
}

// resetHeader puts back the headers w had before the handler ran.
func resetHeader(h, original http.Header) {
	clear(h)
	for name, values := range original {
		h[name] = values
	}
}

func softFailureOutcome(r *http.Request, err error) metrics.Outcome {
	switch {
	case !authentication.HasSigningHeaders(r):
		return metrics.OutcomeUnsigned
	case errors.Is(err, ErrAuthenticationFailed):
		return metrics.OutcomeAuthenticationFailed
	default:
		return metrics.OutcomeInvalidRequest
	}
}

func toHTTPError(err error) *httperror.Error {
	httpErr := &httperror.Error{
		StatusCode: http.StatusInternalServerError,
		Err:        err,
	}

	switch {
	case errors.Is(err, ErrInvalidBackendData):
		httpErr.Code = httperror.ErrCodeInvalidBackendData
		httpErr.Message = err.Error()
	case errors.Is(err, signing.ErrValidation):
		httpErr.Code = httperror.ErrCodeResponseSigning
		httpErr.Message = "Internal Server Error: " + err.Error()
	default:
		httpErr.Code = httperror.ErrCodeInternal
		httpErr.Message = "Internal Server Error: " + err.Error()
	}

	return httpErr
}

type restoredReadCloser struct {
	io.Reader
	io.Closer
}

// restoredBody puts the bytes consumed during authentication back in front of the unread rest.
func restoredBody(consumed []byte, rest io.ReadCloser) io.ReadCloser {
	if rest == nil {
		rest = http.NoBody
	}
	if len(consumed) == 0 {
		return rest
	}
	return restoredReadCloser{
		Reader: io.MultiReader(bytes.NewReader(consumed), rest),
		Closer: rest,
	}
}
