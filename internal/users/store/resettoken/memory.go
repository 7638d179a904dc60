package resettoken

import (
	"context"
	"sync"
	"time"

	id "fleetpool/pkg/domain"
	"fleetpool/pkg/platform/sentinel"
)

type entry struct {
	userID    id.UserID
	expiresAt time.Time
}

// InMemory is the in-memory token store used by unit tests and local runs.
// Expired entries are dropped lazily on consume.
type InMemory struct {
	mu     sync.Mutex
	tokens map[string]entry
}

func NewInMemory() *InMemory {
	return &InMemory{tokens: make(map[string]entry)}
}

func (s *InMemory) Save(_ context.Context, token string, userID id.UserID, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens[token] = entry{userID: userID, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (s *InMemory) Consume(_ context.Context, token string) (id.UserID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.tokens[token]
	if !ok {
		return id.UserID{}, sentinel.ErrNotFound
	}
	delete(s.tokens, token)
	if time.Now().After(e.expiresAt) {
		return id.UserID{}, sentinel.ErrExpired
	}
	return e.userID, nil
}
