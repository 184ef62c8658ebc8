package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/bsv-blockchain/go-signed-exchange/pkg/keystore"
)

// MockableKeyStore returns mocked values for expected calls and resolves
// everything else from the wrapped store. Without a wrapped store every call must be expected.
type MockableKeyStore struct {
	mock.Mock

	store *keystore.MemoryStore
}

// NewMockableKeyStore creates a MockableKeyStore backed by a memory store with the given identities.
func NewMockableKeyStore(identities ...*keystore.Identity) *MockableKeyStore {
	return &MockableKeyStore{
		store: keystore.NewMemoryStore(identities...),
	}
}

// NewStrictKeyStore creates a MockableKeyStore that fails on any unexpected call.
func NewStrictKeyStore() *MockableKeyStore {
	return &MockableKeyStore{}
}

// Resolve return mocked value or resolve the identity from the wrapped store.
func (m *MockableKeyStore) Resolve(ctx context.Context, identity string) (*keystore.Identity, error) {
	if m.store == nil || isExpectedMockCall(m.ExpectedCalls, "Resolve", ctx, identity) {
		args := m.Called(ctx, identity)
		if id, ok := args.Get(0).(*keystore.Identity); ok {
			return id, args.Error(1)
		}
		return nil, args.Error(1)
	}

	return m.store.Resolve(ctx, identity) //nolint:wrapcheck // mock passes store errors through
}

// OnResolveOnce sets up a one-time expectation for the Resolve method.
func (m *MockableKeyStore) OnResolveOnce(identity string, result *keystore.Identity, err error) *mock.Call {
	return m.On("Resolve", mock.Anything, identity).Return(result, err).Once()
}
