package exchange

import (
	"context"
	"fmt"

	"github.com/bsv-blockchain/go-signed-exchange/pkg/internal/authctx"
	"github.com/bsv-blockchain/go-signed-exchange/pkg/keystore"
)

// GetIdentityFromContext retrieves the authenticated identity from the request context.
func GetIdentityFromContext(ctx context.Context) (*keystore.Identity, bool) {
	return authctx.GetIdentity(ctx)
}

// ShouldGetIdentity retrieves the authenticated identity or returns an error when the request is not authenticated.
func ShouldGetIdentity(ctx context.Context) (*keystore.Identity, error) {
	identity, err := authctx.ShouldGetIdentity(ctx)
	if err != nil {
		return nil, fmt.Errorf("request is not authenticated: %w", err)
	}
	return identity, nil
}

// WithIdentity marks the context as already authenticated, for example by an upstream
// middleware. The exchange middleware passes such requests through untouched.
func WithIdentity(ctx context.Context, identity *keystore.Identity) context.Context {
	return authctx.WithIdentity(ctx, identity)
}
