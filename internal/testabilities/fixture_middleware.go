package testabilities

import (
	"log/slog"
	"testing"
	"time"

	"github.com/go-softwarelab/common/pkg/slogx"
	"github.com/go-softwarelab/common/pkg/to"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/bsv-blockchain/go-signed-exchange/internal/testabilities/fixture"
	"github.com/bsv-blockchain/go-signed-exchange/internal/testabilities/testusers"
	"github.com/bsv-blockchain/go-signed-exchange/pkg/keystore"
	"github.com/bsv-blockchain/go-signed-exchange/pkg/metrics"
	"github.com/bsv-blockchain/go-signed-exchange/pkg/middleware/exchange"
	"github.com/bsv-blockchain/go-signed-exchange/pkg/noncestore"
)

type MiddlewareFixtureOptions struct {
	logger *slog.Logger
}

func WithMiddlewareLogger(logger *slog.Logger) func(options *MiddlewareFixtureOptions) {
	return func(options *MiddlewareFixtureOptions) {
		options.logger = logger
	}
}

func WithoutLoggingFromMiddleware() func(*MiddlewareFixtureOptions) {
	return func(options *MiddlewareFixtureOptions) {
		options.logger = slog.New(slog.DiscardHandler)
	}
}

type MiddlewareFixture interface {
	// NewExchange creates the middleware with Alice, Bob and Carol registered
	// and the server identity as default response signer.
	NewExchange(opts ...func(*exchange.Config)) *exchange.Middleware

	KeyStore() *keystore.MemoryStore
	NonceStore() *noncestore.MemoryStore
	Registry() *prometheus.Registry

	// FreezeClockAt makes the middleware see now as the current time.
	FreezeClockAt(now time.Time)
}

type middlewareFixture struct {
	testing.TB
	logger     *slog.Logger
	keyStore   *keystore.MemoryStore
	nonceStore *noncestore.MemoryStore
	registry   *prometheus.Registry
	metrics    *metrics.Metrics
	now        func() time.Time
}

func NewMiddlewareFixture(t testing.TB, opts ...func(*MiddlewareFixtureOptions)) MiddlewareFixture {
	f := &middlewareFixture{
		TB: t,
	}

	options := to.OptionsWithDefault(MiddlewareFixtureOptions{
		logger: slogx.NewTestLogger(f),
	}, opts...)

	f.logger = options.logger
	f.keyStore = keystore.NewMemoryStore(
		testusers.Alice.Identity(t),
		testusers.Bob.Identity(t),
		testusers.Carol.Identity(t),
	)
	f.nonceStore = noncestore.NewMemoryStore()
	t.Cleanup(f.nonceStore.Close)
	f.registry = prometheus.NewRegistry()
	f.metrics = metrics.New(f.registry, "test")
	f.now = time.Now

	return f
}

func (f *middlewareFixture) NewExchange(opts ...func(*exchange.Config)) *exchange.Middleware {
	defaults := []func(*exchange.Config){
		exchange.WithLogger(f.logger),
		exchange.WithServerSigner(fixture.ServerIdentity.PrivateKey),
		exchange.WithMetrics(f.metrics),
		exchange.WithClock(func() time.Time { return f.now() }),
	}

	m, err := exchange.New(f.keyStore, f.nonceStore, append(defaults, opts...)...)
	require.NoError(f, err, "failed to create exchange middleware: invalid test setup")

	return m
}

func (f *middlewareFixture) KeyStore() *keystore.MemoryStore {
	return f.keyStore
}

func (f *middlewareFixture) NonceStore() *noncestore.MemoryStore {
	return f.nonceStore
}

func (f *middlewareFixture) Registry() *prometheus.Registry {
	return f.registry
}

func (f *middlewareFixture) FreezeClockAt(now time.Time) {
	f.now = func() time.Time { return now }
}
