package keystore

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// MemoryStore keeps identities in memory. It is safe for concurrent use.
type MemoryStore struct {
	mu         sync.RWMutex
	identities map[string]*Identity
}

// NewMemoryStore creates a store holding the given identities.
func NewMemoryStore(identities ...*Identity) *MemoryStore {
	s := &MemoryStore{
		identities: make(map[string]*Identity, len(identities)),
	}
	for _, identity := range identities {
		s.Add(identity)
	}
	return s
}

// Add registers or replaces an identity. Nil identities are ignored.
func (s *MemoryStore) Add(identity *Identity) {
	if identity == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.identities[identity.Name] = identity
}

// Remove forgets an identity.
func (s *MemoryStore) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.identities, name)
}

func (s *MemoryStore) has(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.identities[name]
	return ok
}

// Names returns the registered identity names in sorted order.
func (s *MemoryStore) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.identities))
	for name := range s.identities {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Resolve returns a copy of the registered identity.
func (s *MemoryStore) Resolve(ctx context.Context, name string) (*Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("resolve identity %q: %w", name, err)
	}

	s.mu.RLock()
	identity, ok := s.identities[name]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrIdentityNotFound, name)
	}

	resolved := *identity
	return &resolved, nil
}
