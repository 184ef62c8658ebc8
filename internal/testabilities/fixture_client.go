package testabilities

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bsv-blockchain/go-signed-exchange/internal/testabilities/fixture"
	"github.com/bsv-blockchain/go-signed-exchange/internal/testabilities/testusers"
	"github.com/bsv-blockchain/go-signed-exchange/pkg/client"
	"github.com/bsv-blockchain/go-signed-exchange/pkg/keys"
)

type ClientFixture interface {
	// ForUser returns an http.Client that signs requests as user and verifies the responses.
	ForUser(user testusers.User, opts ...func(*client.Config)) *http.Client

	// SignedRequest builds a request signed as user, for tests that need to tamper with it.
	SignedRequest(user testusers.User, method, url, body string, opts ...func(*client.Config)) (*http.Request, *client.Signature)

	// ResponseVerifierFor returns the key verifying responses sent to user.
	ResponseVerifierFor(user testusers.User) keys.Verifier
}

type clientFixture struct {
	testing.TB
}

func newClientFixture(t testing.TB) ClientFixture {
	return &clientFixture{
		TB: t,
	}
}

func (f *clientFixture) ForUser(user testusers.User, opts ...func(*client.Config)) *http.Client {
	withVerifier := func(c *client.Config) {
		c.ResponseVerifier = f.ResponseVerifierFor(user)
	}

	return client.NewHTTPClient(f.config(user, append([]func(*client.Config){withVerifier}, opts...)...))
}

func (f *clientFixture) SignedRequest(user testusers.User, method, url, body string, opts ...func(*client.Config)) (*http.Request, *client.Signature) {
	f.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req, err := http.NewRequestWithContext(f.Context(), method, url, reader)
	require.NoError(f, err, "failed to create request: invalid test setup")

	signature, err := client.SignRequest(req, f.config(user, opts...))
	require.NoError(f, err, "failed to sign request: invalid test setup")

	return req, signature
}

func (f *clientFixture) ResponseVerifierFor(user testusers.User) keys.Verifier {
	if verifier := user.ResponseVerifier(f); verifier != nil {
		return verifier
	}
	return fixture.ServerIdentity.Verifier
}

func (f *clientFixture) config(user testusers.User, opts ...func(*client.Config)) client.Config {
	cfg := client.Config{
		Identity: user.IdentityName(f),
		Signer:   user.Signer(f),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
