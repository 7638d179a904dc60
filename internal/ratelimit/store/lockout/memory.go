// Package lockout persists login throttle records.
package lockout

import (
	"context"
	"sync"
	"time"

	"fleetpool/internal/ratelimit/models"
	"fleetpool/pkg/platform/sentinel"
)

type entry struct {
	record    models.Lockout
	expiresAt time.Time
}

// InMemory keeps lockout records in a map for tests and single-node runs.
// Expired entries are dropped lazily on read.
type InMemory struct {
	mu      sync.Mutex
	entries map[string]entry
}

func NewInMemory() *InMemory {
	return &InMemory{entries: make(map[string]entry)}
}

func (s *InMemory) Get(_ context.Context, identifier string) (*models.Lockout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[identifier]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if time.Now().After(e.expiresAt) {
		delete(s.entries, identifier)
		return nil, sentinel.ErrNotFound
	}
	record := e.record
	return &record, nil
}

func (s *InMemory) Save(_ context.Context, record *models.Lockout, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[record.Identifier] = entry{record: *record, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (s *InMemory) Delete(_ context.Context, identifier string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, identifier)
	return nil
}
