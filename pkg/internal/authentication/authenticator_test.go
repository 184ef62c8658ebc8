package authentication_test

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bsv-blockchain/go-signed-exchange/pkg/constants"
	"github.com/bsv-blockchain/go-signed-exchange/pkg/internal/authentication"
	"github.com/bsv-blockchain/go-signed-exchange/pkg/internal/test/mocks"
	"github.com/bsv-blockchain/go-signed-exchange/pkg/keys"
	"github.com/bsv-blockchain/go-signed-exchange/pkg/keystore"
	"github.com/bsv-blockchain/go-signed-exchange/pkg/noncestore"
	"github.com/bsv-blockchain/go-signed-exchange/pkg/signing"
)

var now = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	t          *testing.T
	key        *keys.HMACKey
	keyStore   keystore.Store
	nonceStore noncestore.Store
	opts       []func(*authentication.Config)
}

func given(t *testing.T) *fixture {
	key, err := keys.NewHMACKey(keys.HMACSHA256, []byte("client-a-secret"))
	require.NoError(t, err)
	identity, err := keystore.NewSymmetricIdentity("client-a", key)
	require.NoError(t, err)

	nonceStore := noncestore.NewMemoryStore()
	t.Cleanup(nonceStore.Close)

	return &fixture{
		t:          t,
		key:        key,
		keyStore:   keystore.NewMemoryStore(identity),
		nonceStore: nonceStore,
	}
}

func (f *fixture) authenticator() *authentication.Authenticator {
	opts := append([]func(*authentication.Config){
		func(c *authentication.Config) { c.Now = func() time.Time { return now } },
	}, f.opts...)

	a, err := authentication.NewAuthenticator(f.keyStore, f.nonceStore, opts...)
	require.NoError(f.t, err)
	return a
}

func (f *fixture) signedRequest(method, target, body string, modify ...func(*signing.Request)) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)

	sr := &signing.Request{
		Method:    method,
		URI:       req.URL.EscapedPath(),
		Nonce:     "nonce-" + f.t.Name(),
		Timestamp: signing.FormatTimestamp(now),
		Identity:  "client-a",
		Content:   []byte(body),
	}
	for _, m := range modify {
		m(sr)
	}

	data, err := sr.DataToSign()
	require.NoError(f.t, err)
	sig, err := f.key.Sign(data)
	require.NoError(f.t, err)

	req.Header.Set(constants.HeaderNonce, sr.Nonce)
	req.Header.Set(constants.HeaderTimestamp, sr.Timestamp)
	req.Header.Set(constants.HeaderIdentity, sr.Identity)
	req.Header.Set(constants.HeaderSignature, base64.StdEncoding.EncodeToString(sig))
	return req
}

func TestAuthenticateSuccess(t *testing.T) {
	// given:
	f := given(t)
	req := f.signedRequest(http.MethodPost, "/orders", `{"item":"book"}`)

	// when:
	result, err := f.authenticator().Authenticate(context.Background(), req)

	// then:
	require.NoError(t, err)
	assert.Equal(t, "client-a", result.Identity.Name)
	assert.Same(t, f.key, result.ResponseSigner)
	assert.Equal(t, req.Header.Get(constants.HeaderNonce), result.Nonce)
	assert.Equal(t, req.Header.Get(constants.HeaderSignature), result.Signature)
	assert.Equal(t, `{"item":"book"}`, string(result.Body))
}

func TestAuthenticateWithoutBody(t *testing.T) {
	f := given(t)
	req := f.signedRequest(http.MethodGet, "/ping", "")

	result, err := f.authenticator().Authenticate(context.Background(), req)

	require.NoError(t, err)
	assert.Empty(t, result.Body)
}

func TestAuthenticateSoftFailures(t *testing.T) {
	tests := map[string]struct {
		request  func(f *fixture) *http.Request
		expected error
		body     string
	}{
		"missing signature header": {
			request: func(f *fixture) *http.Request {
				req := f.signedRequest(http.MethodGet, "/ping", "")
				req.Header.Del(constants.HeaderSignature)
				return req
			},
			expected: authentication.ErrInvalidRequest,
		},
		"unparsable timestamp": {
			request: func(f *fixture) *http.Request {
				return f.signedRequest(http.MethodGet, "/ping", "", func(r *signing.Request) { r.Timestamp = "yesterday" })
			},
			expected: authentication.ErrInvalidRequest,
		},
		"stale timestamp": {
			request: func(f *fixture) *http.Request {
				return f.signedRequest(http.MethodGet, "/ping", "", func(r *signing.Request) {
					r.Timestamp = signing.FormatTimestamp(now.Add(-authentication.DefaultAllowedClockSkew - time.Second))
				})
			},
			expected: authentication.ErrInvalidRequest,
		},
		"timestamp in the future": {
			request: func(f *fixture) *http.Request {
				return f.signedRequest(http.MethodGet, "/ping", "", func(r *signing.Request) {
					r.Timestamp = signing.FormatTimestamp(now.Add(authentication.DefaultAllowedClockSkew + time.Second))
				})
			},
			expected: authentication.ErrInvalidRequest,
		},
		"signature is not base64": {
			request: func(f *fixture) *http.Request {
				req := f.signedRequest(http.MethodPost, "/orders", "payload")
				req.Header.Set(constants.HeaderSignature, "%%%")
				return req
			},
			expected: authentication.ErrInvalidRequest,
			body:     "payload",
		},
		"tampered body": {
			request: func(f *fixture) *http.Request {
				req := f.signedRequest(http.MethodPost, "/orders", `{"qty":1}`)
				req.Body = io.NopCloser(strings.NewReader(`{"qty":9}`))
				return req
			},
			expected: authentication.ErrAuthenticationFailed,
			body:     `{"qty":9}`,
		},
		"tampered method": {
			request: func(f *fixture) *http.Request {
				req := f.signedRequest(http.MethodPost, "/orders", "payload")
				req.Method = http.MethodPut
				return req
			},
			expected: authentication.ErrAuthenticationFailed,
			body:     "payload",
		},
		"tampered path": {
			request: func(f *fixture) *http.Request {
				return f.signedRequest(http.MethodGet, "/orders/2", "", func(r *signing.Request) { r.URI = "/orders/1" })
			},
			expected: authentication.ErrAuthenticationFailed,
		},
		"signed by another key": {
			request: func(f *fixture) *http.Request {
				other, err := keys.NewHMACKey(keys.HMACSHA256, []byte("other-secret"))
				require.NoError(f.t, err)
				f.key = other
				return f.signedRequest(http.MethodGet, "/ping", "")
			},
			expected: authentication.ErrAuthenticationFailed,
		},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			// given:
			f := given(t)
			authenticator := f.authenticator()
			req := test.request(f)

			// when:
			result, err := authenticator.Authenticate(context.Background(), req)

			// then:
			require.ErrorIs(t, err, test.expected)
			assert.False(t, authentication.IsFatal(err))
			if test.body != "" {
				require.NotNil(t, result)
				assert.Equal(t, test.body, string(result.Body))
				assert.Nil(t, result.Identity)
			}
		})
	}
}

func TestAuthenticateRejectsReplay(t *testing.T) {
	// given:
	f := given(t)
	authenticator := f.authenticator()

	_, err := authenticator.Authenticate(context.Background(), f.signedRequest(http.MethodGet, "/ping", ""))
	require.NoError(t, err)

	// when:
	_, err = authenticator.Authenticate(context.Background(), f.signedRequest(http.MethodGet, "/ping", ""))

	// then:
	assert.ErrorIs(t, err, authentication.ErrInvalidRequest)
}

func TestAuthenticateIncludesQueryWhenConfigured(t *testing.T) {
	// given:
	f := given(t)
	f.opts = append(f.opts, func(c *authentication.Config) { c.IncludeQuery = true })

	signedWithQuery := f.signedRequest(http.MethodGet, "/orders?page=2", "", func(r *signing.Request) {
		r.URI = "/orders?page=2"
	})

	// when:
	_, err := f.authenticator().Authenticate(context.Background(), signedWithQuery)

	// then:
	require.NoError(t, err)
}

func TestAuthenticateIgnoresQueryByDefault(t *testing.T) {
	f := given(t)
	req := f.signedRequest(http.MethodGet, "/orders?page=2", "")

	_, err := f.authenticator().Authenticate(context.Background(), req)

	require.NoError(t, err)
}

func TestAuthenticateOversizedBody(t *testing.T) {
	// given:
	f := given(t)
	f.opts = append(f.opts, func(c *authentication.Config) { c.MaxBodySize = 4 })
	req := f.signedRequest(http.MethodPost, "/orders", "0123456789")

	// when:
	result, err := f.authenticator().Authenticate(context.Background(), req)

	// then:
	require.ErrorIs(t, err, authentication.ErrInvalidRequest)
	require.NotNil(t, result)
	assert.Equal(t, "01234", string(result.Body))
}

func TestAuthenticateFatalFailures(t *testing.T) {
	tests := map[string]struct {
		modify func(f *fixture)
	}{
		"unknown identity": {
			modify: func(f *fixture) {
				f.keyStore = keystore.NewMemoryStore()
			},
		},
		"key store error": {
			modify: func(f *fixture) {
				f.keyStore = keystore.StoreFunc(func(context.Context, string) (*keystore.Identity, error) {
					return nil, errors.New("connection refused")
				})
			},
		},
		"nonce store error": {
			modify: func(f *fixture) {
				f.nonceStore = noncestore.StoreFunc(func(context.Context, string, time.Duration) (bool, error) {
					return false, errors.New("connection refused")
				})
			},
		},
		"identity without response signer": {
			modify: func(f *fixture) {
				identity, err := keystore.NewIdentity("client-a", f.key, nil)
				require.NoError(f.t, err)
				f.keyStore = keystore.NewMemoryStore(identity)
			},
		},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			// given:
			f := given(t)
			test.modify(f)
			req := f.signedRequest(http.MethodGet, "/ping", "")

			// when:
			_, err := f.authenticator().Authenticate(context.Background(), req)

			// then:
			require.ErrorIs(t, err, authentication.ErrInvalidBackendData)
			assert.True(t, authentication.IsFatal(err))
		})
	}
}

func TestAuthenticateFallsBackToDefaultResponseSigner(t *testing.T) {
	// given:
	f := given(t)
	identity, err := keystore.NewIdentity("client-a", f.key, nil)
	require.NoError(t, err)
	f.keyStore = keystore.NewMemoryStore(identity)

	serverKey, err := keys.GenerateSecp256k1Key()
	require.NoError(t, err)
	f.opts = append(f.opts, func(c *authentication.Config) { c.DefaultResponseSigner = serverKey })

	// when:
	result, err := f.authenticator().Authenticate(context.Background(), f.signedRequest(http.MethodGet, "/ping", ""))

	// then:
	require.NoError(t, err)
	assert.Same(t, serverKey, result.ResponseSigner)
}

func TestNewAuthenticatorValidation(t *testing.T) {
	f := given(t)

	_, err := authentication.NewAuthenticator(nil, f.nonceStore)
	require.Error(t, err)

	_, err = authentication.NewAuthenticator(f.keyStore, nil)
	require.Error(t, err)

	_, err = authentication.NewAuthenticator(f.keyStore, f.nonceStore, func(c *authentication.Config) { c.AllowedClockSkew = 0 })
	require.Error(t, err)

	_, err = authentication.NewAuthenticator(f.keyStore, f.nonceStore, func(c *authentication.Config) { c.MaxBodySize = -1 })
	require.Error(t, err)
}

func TestHasSigningHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	assert.False(t, authentication.HasSigningHeaders(req))

	req.Header.Set(constants.HeaderIdentity, "client-a")
	assert.True(t, authentication.HasSigningHeaders(req))
}

func TestAuthenticateChecksNonceBeforeResolvingIdentity(t *testing.T) {
	t.Run("replayed nonce", func(t *testing.T) {
		// given:
		f := given(t)
		keyStore := mocks.NewStrictKeyStore()
		nonceStore := mocks.NewMockableNonceStore(t)
		f.keyStore = keyStore
		f.nonceStore = nonceStore

		// and:
		req := f.signedRequest(http.MethodGet, "/ping", "")
		nonceStore.OnCheckAndRecordOnce(req.Header.Get(constants.HeaderNonce), false, nil)

		// when:
		_, err := f.authenticator().Authenticate(context.Background(), req)

		// then:
		require.ErrorIs(t, err, authentication.ErrInvalidRequest)
		keyStore.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything)
		nonceStore.AssertExpectations(t)
	})

	t.Run("fresh nonce", func(t *testing.T) {
		// given:
		f := given(t)
		identity, err := keystore.NewSymmetricIdentity("client-a", f.key)
		require.NoError(t, err)

		keyStore := mocks.NewStrictKeyStore()
		keyStore.OnResolveOnce("client-a", identity, nil)
		nonceStore := mocks.NewMockableNonceStore(t)
		f.keyStore = keyStore
		f.nonceStore = nonceStore

		// when:
		result, err := f.authenticator().Authenticate(context.Background(), f.signedRequest(http.MethodGet, "/ping", ""))

		// then:
		require.NoError(t, err)
		assert.Equal(t, "client-a", result.Identity.Name)
		assert.Equal(t, 1, nonceStore.Len())
		keyStore.AssertExpectations(t)
	})

	t.Run("nonce window is twice the clock skew", func(t *testing.T) {
		// given:
		f := given(t)
		nonceStore := mocks.NewMockableNonceStore(t)
		f.nonceStore = nonceStore
		f.opts = append(f.opts, func(c *authentication.Config) { c.AllowedClockSkew = time.Minute })

		// and:
		req := f.signedRequest(http.MethodGet, "/ping", "")
		nonceStore.On("CheckAndRecord", mock.Anything, req.Header.Get(constants.HeaderNonce), 2*time.Minute).Return(true, nil).Once()

		// when:
		_, err := f.authenticator().Authenticate(context.Background(), req)

		// then:
		require.NoError(t, err)
		nonceStore.AssertExpectations(t)
	})
}
