package memory

import (
	"context"
	"sync"
	"time"
)

// IdentityStore is an in-process implementation of game.IdentityStore: a
// map from client address to display name with a per-entry lifetime. A TTL
// of zero or less disables expiry.
type IdentityStore struct {
	ttl   time.Duration
	clock func() time.Time

	mu      sync.RWMutex
	entries map[string]identityEntry
}

type identityEntry struct {
	name      string
	expiresAt time.Time
}

func NewIdentityStore(ttl time.Duration) *IdentityStore {
	return NewIdentityStoreWithClock(ttl, time.Now)
}

// NewIdentityStoreWithClock allows deterministic expiry in tests.
func NewIdentityStoreWithClock(ttl time.Duration, clock func() time.Time) *IdentityStore {
	return &IdentityStore{
		ttl:     ttl,
		clock:   clock,
		entries: make(map[string]identityEntry),
	}
}

func (s *IdentityStore) Remember(_ context.Context, addr, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[addr] = identityEntry{name: name, expiresAt: s.clock().Add(s.ttl)}
	return nil
}

func (s *IdentityStore) Lookup(_ context.Context, addr string) (string, bool, error) {
	s.mu.RLock()
	entry, ok := s.entries[addr]
	s.mu.RUnlock()
	if !ok {
		return "", false, nil
	}
	if s.expired(entry) {
		s.mu.Lock()
		// Re-check under the write lock; the entry may have been refreshed.
		if entry, ok = s.entries[addr]; ok && s.expired(entry) {
			delete(s.entries, addr)
			ok = false
		}
		s.mu.Unlock()
		if !ok {
			return "", false, nil
		}
	}
	return entry.name, true, nil
}

func (s *IdentityStore) Forget(_ context.Context, addr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, addr)
	return nil
}

func (s *IdentityStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]identityEntry)
	return nil
}

// Sweep drops expired entries; the server runs it periodically so
// abandoned addresses do not accumulate between lookups.
func (s *IdentityStore) Sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for addr, entry := range s.entries {
		if s.expired(entry) {
			delete(s.entries, addr)
		}
	}
}

func (s *IdentityStore) expired(entry identityEntry) bool {
	return s.ttl > 0 && !entry.expiresAt.After(s.clock())
}
