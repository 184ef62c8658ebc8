package noncestore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// MemoryStore keeps nonces in a process-local TTL cache.
// Expired nonces are evicted by a background goroutine until Close is called.
type MemoryStore struct {
	cache     *ttlcache.Cache[string, time.Time]
	mu        sync.Mutex
	closeOnce sync.Once
}

// NewMemoryStore creates a MemoryStore and starts its eviction loop.
func NewMemoryStore() *MemoryStore {
	cache := ttlcache.New[string, time.Time](
		ttlcache.WithDisableTouchOnHit[string, time.Time](),
	)
	go cache.Start()

	return &MemoryStore{cache: cache}
}

// CheckAndRecord records nonce for window, reporting false if it is already present.
func (s *MemoryStore) CheckAndRecord(ctx context.Context, nonce string, window time.Duration) (bool, error) {
	if err := validate(nonce, window); err != nil {
		return false, err
	}
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("check nonce: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, found := s.cache.GetOrSet(nonce, time.Now(), ttlcache.WithTTL[string, time.Time](window))
	return !found, nil
}

// Len returns the number of nonces currently retained.
func (s *MemoryStore) Len() int {
	return s.cache.Len()
}

// Close stops the eviction loop. It is safe to call more than once.
func (s *MemoryStore) Close() {
	s.closeOnce.Do(s.cache.Stop)
}
