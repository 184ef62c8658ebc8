package authctx_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bsv-blockchain/go-signed-exchange/pkg/internal/authctx"
	"github.com/bsv-blockchain/go-signed-exchange/pkg/keys"
	"github.com/bsv-blockchain/go-signed-exchange/pkg/keystore"
)

func TestIdentityInContext(t *testing.T) {
	t.Run("empty context is unauthenticated", func(t *testing.T) {
		ctx := context.Background()

		_, err := authctx.ShouldGetIdentity(ctx)

		assert.Error(t, err)
		assert.True(t, authctx.IsUnauthenticated(ctx))
	})

	t.Run("stored identity is returned", func(t *testing.T) {
		// given:
		key, err := keys.NewHMACKey(keys.HMACSHA256, []byte("secret"))
		require.NoError(t, err)
		identity, err := keystore.NewSymmetricIdentity("client-a", key)
		require.NoError(t, err)

		// when:
		ctx := authctx.WithIdentity(context.Background(), identity)

		// then:
		got, ok := authctx.GetIdentity(ctx)
		require.True(t, ok)
		assert.Same(t, identity, got)
		assert.False(t, authctx.IsUnauthenticated(ctx))
	})

	t.Run("nil identity is unauthenticated", func(t *testing.T) {
		ctx := authctx.WithIdentity(context.Background(), nil)

		assert.True(t, authctx.IsUnauthenticated(ctx))
	})

	t.Run("unexpected type", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), authctx.IdentityKey, "client-a")

		_, err := authctx.ShouldGetIdentity(ctx)

		assert.ErrorContains(t, err, "unexpected type")
	})
}
