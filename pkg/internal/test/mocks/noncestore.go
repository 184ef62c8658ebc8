package mocks

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/bsv-blockchain/go-signed-exchange/pkg/noncestore"
)

// MockableNonceStore returns mocked values for expected calls and records
// everything else in the wrapped memory store.
type MockableNonceStore struct {
	mock.Mock

	store *noncestore.MemoryStore
}

// NewMockableNonceStore creates a MockableNonceStore backed by a memory store.
// The memory store is closed when the test ends.
func NewMockableNonceStore(t testing.TB) *MockableNonceStore {
	store := noncestore.NewMemoryStore()
	t.Cleanup(store.Close)

	return &MockableNonceStore{
		store: store,
	}
}

// CheckAndRecord return mocked value or check the nonce in the wrapped store.
func (m *MockableNonceStore) CheckAndRecord(ctx context.Context, nonce string, window time.Duration) (bool, error) {
	if isExpectedMockCall(m.ExpectedCalls, "CheckAndRecord", ctx, nonce, window) {
		args := m.Called(ctx, nonce, window)
		return args.Bool(0), args.Error(1)
	}

	return m.store.CheckAndRecord(ctx, nonce, window) //nolint:wrapcheck // mock passes store errors through
}

// OnCheckAndRecordOnce sets up a one-time expectation for the CheckAndRecord method.
func (m *MockableNonceStore) OnCheckAndRecordOnce(nonce string, fresh bool, err error) *mock.Call {
	return m.On("CheckAndRecord", mock.Anything, nonce, mock.Anything).Return(fresh, err).Once()
}

// Len returns the number of nonces in the wrapped store.
func (m *MockableNonceStore) Len() int {
	return m.store.Len()
}
