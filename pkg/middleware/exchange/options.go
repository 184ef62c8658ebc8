package exchange

import (
	"log/slog"
	"time"

	"github.com/bsv-blockchain/go-signed-exchange/pkg/keys"
	"github.com/bsv-blockchain/go-signed-exchange/pkg/metrics"
	"github.com/bsv-blockchain/go-signed-exchange/pkg/middleware/httperror"
)

// Config configures the exchange middleware.
type Config struct {
	// AllowedClockSkew is the tolerated difference between the request timestamp and server time.
	// Nonces are remembered for twice this duration.
	AllowedClockSkew time.Duration

	// MaxBodySize limits the request body read for verification.
	MaxBodySize int64

	// IncludeQuery adds the query string to the signed URI.
	IncludeQuery bool

	// ServerSigner signs responses for identities that have no response key of their own.
	ServerSigner keys.Signer

	Logger       *slog.Logger
	Metrics      *metrics.Metrics
	ErrorHandler httperror.Handler

	// Now is the clock used for freshness checks and response timestamps.
	Now func() time.Time
}

// WithAllowedClockSkew sets the freshness window.
func WithAllowedClockSkew(skew time.Duration) func(*Config) {
	return func(c *Config) {
		c.AllowedClockSkew = skew
	}
}

// WithMaxBodySize sets the request body limit.
func WithMaxBodySize(size int64) func(*Config) {
	return func(c *Config) {
		c.MaxBodySize = size
	}
}

// WithIncludeQuery makes the query string part of the signed URI.
func WithIncludeQuery(include bool) func(*Config) {
	return func(c *Config) {
		c.IncludeQuery = include
	}
}

// WithServerSigner sets the default response signer.
func WithServerSigner(signer keys.Signer) func(*Config) {
	return func(c *Config) {
		c.ServerSigner = signer
	}
}

func WithLogger(logger *slog.Logger) func(*Config) {
	return func(c *Config) {
		c.Logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) func(*Config) {
	return func(c *Config) {
		c.Metrics = m
	}
}

// WithErrorHandler replaces the handler used to report fatal failures.
func WithErrorHandler(handler httperror.Handler) func(*Config) {
	return func(c *Config) {
		c.ErrorHandler = handler
	}
}

func WithClock(now func() time.Time) func(*Config) {
	return func(c *Config) {
		c.Now = now
	}
}
