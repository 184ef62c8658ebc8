// Package keystore resolves a claimed client identity to the keys needed to verify its
// requests and to sign the responses sent back to it.
package keystore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bsv-blockchain/go-signed-exchange/pkg/keys"
)

// ErrIdentityNotFound is returned when the identity is not known to the store.
var ErrIdentityNotFound = errors.New("keystore: identity not found")

// Store resolves identities to their key material.
type Store interface {
	Resolve(ctx context.Context, identity string) (*Identity, error)
}

// StoreFunc adapts a plain function to the Store interface.
type StoreFunc func(ctx context.Context, identity string) (*Identity, error)

// Resolve calls f(ctx, identity).
func (f StoreFunc) Resolve(ctx context.Context, identity string) (*Identity, error) {
	return f(ctx, identity)
}

// Identity is an authenticated client together with its key material.
// ResponseSigner may be nil, in which case the server default signer is used.
type Identity struct {
	Name           string
	Verifier       keys.Verifier
	ResponseSigner keys.Signer
}

// NewIdentity validates and creates an identity.
func NewIdentity(name string, verifier keys.Verifier, responseSigner keys.Signer) (*Identity, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: identity name is required", keys.ErrInvalidKey)
	}
	if verifier == nil {
		return nil, fmt.Errorf("%w: identity %q has no verifier", keys.ErrInvalidKey, name)
	}
	return &Identity{
		Name:           name,
		Verifier:       verifier,
		ResponseSigner: responseSigner,
	}, nil
}

// NewSymmetricIdentity creates an identity sharing one HMAC key for both directions.
func NewSymmetricIdentity(name string, key *keys.HMACKey) (*Identity, error) {
	if key == nil {
		return nil, fmt.Errorf("%w: identity %q has no hmac key", keys.ErrInvalidKey, name)
	}
	return NewIdentity(name, key, key)
}
