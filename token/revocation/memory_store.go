package revocation

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store for tests and single-node development.
// Expired entries are treated as absent and pruned lazily on read.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]time.Time // jti -> revoked-until
	nowFunc func() time.Time
}

// MemoryStoreOption defines a function type to modify the MemoryStore instance.
type MemoryStoreOption func(*MemoryStore)

// WithMemoryNowFunc sets the clock function (primarily for testing).
func WithMemoryNowFunc(now func() time.Time) MemoryStoreOption {
	return func(s *MemoryStore) {
		s.nowFunc = now
	}
}

// NewMemoryStore creates an empty in-memory revocation store.
func NewMemoryStore(options ...MemoryStoreOption) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]time.Time),
		nowFunc: time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

var _ Store = (*MemoryStore)(nil)

// Blacklist marks a token ID as revoked until ttl passes.
func (s *MemoryStore) Blacklist(_ context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[jti] = s.nowFunc().Add(ttl)
	return nil
}

// IsBlacklisted reports whether a token ID is currently revoked.
func (s *MemoryStore) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	s.mu.RLock()
	until, ok := s.entries[jti]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if s.nowFunc().After(until) {
		s.mu.Lock()
		delete(s.entries, jti)
		s.mu.Unlock()
		return false, nil
	}
	return true, nil
}
