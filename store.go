package paymcp

import (
	"context"
	"sync"
	"time"
)

// Default state-store timing
const (
	DefaultStateTTL     = 30 * time.Minute
	memorySweepInterval = 5 * time.Minute
)

// StateStore holds pending payment state keyed by payment or session ID.
// Values are plain JSON-compatible maps so any backend can hold them.
//
// Consume is an atomic get-and-delete: when several callers race for the
// same key, exactly one receives the value and the rest get nil. Flows rely
// on this to run a paid call exactly once.
type StateStore interface {
	Put(ctx context.Context, key string, value map[string]interface{}) error
	Get(ctx context.Context, key string) (map[string]interface{}, error)
	Consume(ctx context.Context, key string) (map[string]interface{}, error)
	Delete(ctx context.Context, key string) error
}

// MemoryStore is the default process-wide state store. Entries expire after
// the configured TTL; expired entries are swept lazily on access.
type MemoryStore struct {
	mu        sync.Mutex
	entries   map[string]map[string]interface{}
	expiry    map[string]time.Time
	ttl       time.Duration
	lastSweep time.Time
}

// NewMemoryStore creates a memory store with the given TTL.
// A ttl of 0 uses DefaultStateTTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl == 0 {
		ttl = DefaultStateTTL
	}
	return &MemoryStore{
		entries:   make(map[string]map[string]interface{}),
		expiry:    make(map[string]time.Time),
		ttl:       ttl,
		lastSweep: time.Now(),
	}
}

// Put stores a value under key, resetting its TTL.
func (s *MemoryStore) Put(_ context.Context, key string, value map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweepLocked()
	s.entries[key] = value
	s.expiry[key] = time.Now().Add(s.ttl)
	return nil
}

// Get returns the value for key, or nil if absent or expired.
func (s *MemoryStore) Get(_ context.Context, key string) (map[string]interface{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweepLocked()

	expiry, exists := s.expiry[key]
	if !exists {
		return nil, nil
	}
	if time.Now().After(expiry) {
		delete(s.entries, key)
		delete(s.expiry, key)
		return nil, nil
	}
	return s.entries[key], nil
}

// Consume removes key and returns its value, or nil if absent or expired.
// The lookup and removal happen under one lock acquisition.
func (s *MemoryStore) Consume(_ context.Context, key string) (map[string]interface{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweepLocked()

	expiry, exists := s.expiry[key]
	if !exists {
		return nil, nil
	}
	value := s.entries[key]
	delete(s.entries, key)
	delete(s.expiry, key)

	if time.Now().After(expiry) {
		return nil, nil
	}
	return value, nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	delete(s.expiry, key)
	return nil
}

// sweepLocked removes expired entries at most once per sweep interval.
// Must be called with the lock held.
func (s *MemoryStore) sweepLocked() {
	now := time.Now()
	if now.Sub(s.lastSweep) < memorySweepInterval {
		return
	}
	s.lastSweep = now

	for key, expiry := range s.expiry {
		if now.After(expiry) {
			delete(s.entries, key)
			delete(s.expiry, key)
		}
	}
}
