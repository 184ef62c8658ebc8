package authctx

import (
	"context"
	"fmt"

	"github.com/bsv-blockchain/go-signed-exchange/pkg/keystore"
)

type contextKey string

// IdentityKey stores identity in context.
const IdentityKey contextKey = "identity_key"

func WithIdentity(ctx context.Context, identity *keystore.Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, identity)
}

func ShouldGetIdentity(ctx context.Context) (*keystore.Identity, error) {
	contextValue := ctx.Value(IdentityKey)
	if contextValue == nil {
		return nil, fmt.Errorf("%s not found in context", IdentityKey)
	}

	identity, ok := contextValue.(*keystore.Identity)
	if !ok {
		return nil, fmt.Errorf("%s contains unexpected type %T", IdentityKey, contextValue)
	}
	if identity == nil {
		return nil, fmt.Errorf("%s is empty", IdentityKey)
	}

	return identity, nil
}

// GetIdentity returns the identity stored in the context, if any.
func GetIdentity(ctx context.Context) (*keystore.Identity, bool) {
	identity, err := ShouldGetIdentity(ctx)
	return identity, err == nil
}

func IsUnauthenticated(ctx context.Context) bool {
	_, ok := GetIdentity(ctx)
	return !ok
}
