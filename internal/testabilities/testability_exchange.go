package testabilities

import (
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-softwarelab/common/pkg/slogx"
	"github.com/go-softwarelab/common/pkg/to"
	"github.com/stretchr/testify/require"
)

type ExchangeTestsFixture interface {
	Server() ServerFixture
	Middleware() MiddlewareFixture
	Client() ClientFixture
}

type ExchangeTestsAssertion interface {
	Request(*http.Request) RequestAssertion
	Response(*http.Response) ResponseAssertion
}

func New(t testing.TB, opts ...func(*Options)) (ExchangeTestsFixture, ExchangeTestsAssertion) {
	return Given(t, opts...), Then(t)
}

func Given(t testing.TB, opts ...func(*Options)) ExchangeTestsFixture {
	f := &exchangeTestsFixture{
		TB: t,
	}

	options := to.OptionsWithDefault(Options{
		logger: slogx.NewTestLogger(f),
	}, opts...)

	f.logger = options.logger
	f.serverFixture = NewServerFixture(f)
	f.middlewareFixture = NewMiddlewareFixture(f, WithMiddlewareLogger(f.logger))
	f.clientFixture = newClientFixture(f)

	return f
}

func Then(t testing.TB) ExchangeTestsAssertion {
	return &exchangeTestsAssertion{
		TB: t,
	}
}

type exchangeTestsFixture struct {
	testing.TB
	serverFixture     ServerFixture
	middlewareFixture MiddlewareFixture
	clientFixture     ClientFixture
	logger            *slog.Logger
}

func (f *exchangeTestsFixture) Server() ServerFixture {
	return f.serverFixture
}

func (f *exchangeTestsFixture) Middleware() MiddlewareFixture {
	return f.middlewareFixture
}

func (f *exchangeTestsFixture) Client() ClientFixture {
	return f.clientFixture
}

type exchangeTestsAssertion struct {
	testing.TB
}

func (a *exchangeTestsAssertion) Request(request *http.Request) RequestAssertion {
	return NewRequestAssertion(a, request)
}

func (a *exchangeTestsAssertion) Response(response *http.Response) ResponseAssertion {
	a.Helper()
	require.NotNil(a, response, "response should not be nil")

	return NewResponseAssertion(a, response)
}
