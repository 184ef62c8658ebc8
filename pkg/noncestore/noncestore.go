// Package noncestore remembers request nonces for the freshness window so that a
// captured request cannot be replayed.
package noncestore

import (
	"context"
	"errors"
	"time"
)

// ErrInvalidNonce is returned for an empty nonce or a non-positive retention window.
var ErrInvalidNonce = errors.New("noncestore: invalid nonce or window")

// Store records nonces.
//
// CheckAndRecord atomically checks whether nonce was seen within window and records it.
// It returns true when the nonce is fresh (first use) and false when it is a replay.
type Store interface {
	CheckAndRecord(ctx context.Context, nonce string, window time.Duration) (bool, error)
}

// StoreFunc adapts a plain function to the Store interface.
type StoreFunc func(ctx context.Context, nonce string, window time.Duration) (bool, error)

// CheckAndRecord calls f(ctx, nonce, window).
func (f StoreFunc) CheckAndRecord(ctx context.Context, nonce string, window time.Duration) (bool, error) {
	return f(ctx, nonce, window)
}

func validate(nonce string, window time.Duration) error {
	if nonce == "" || window <= 0 {
		return ErrInvalidNonce
	}
	return nil
}
