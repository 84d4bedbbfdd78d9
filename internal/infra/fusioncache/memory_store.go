package fusioncache

import (
	"context"
	"sync"
	"time"

	"github.com/starfuse/starfuse/internal/domain/fusion"
)

type memoryEntry struct {
	record    fusion.Record
	expiresAt time.Time
}

// MemoryStore is an in-process cache implementation for tests/dev.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore constructs a cache backed by process memory.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Get implements fusion.Cache. Expired entries are invisible even though
// they may still occupy the map until the next Put.
func (s *MemoryStore) Get(_ context.Context, key string) (fusion.Record, bool, error) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return fusion.Record{}, false, nil
	}
	if !entry.expiresAt.After(s.now()) {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return fusion.Record{}, false, nil
	}
	return entry.record, true, nil
}

// Put implements fusion.Cache with last-writer-wins semantics.
func (s *MemoryStore) Put(_ context.Context, key string, record fusion.Record, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = memoryEntry{
		record:    record,
		expiresAt: s.now().Add(ttl),
	}
	return nil
}

var _ fusion.Cache = (*MemoryStore)(nil)
