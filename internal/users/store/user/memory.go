package user

import (
	"context"
	"strings"
	"sync"

	"fleetpool/internal/users/models"
	id "fleetpool/pkg/domain"
	"fleetpool/pkg/platform/sentinel"
)

// InMemory is the in-memory user store used by unit tests and local runs.
// Email uniqueness is enforced case-insensitively, matching the Postgres
// unique index on lower(email).
type InMemory struct {
	mu      sync.RWMutex
	users   map[id.UserID]*models.User
	byEmail map[string]id.UserID
}

func NewInMemory() *InMemory {
	return &InMemory{
		users:   make(map[id.UserID]*models.User),
		byEmail: make(map[string]id.UserID),
	}
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *InMemory) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := emailKey(user.Email)
	if _, taken := s.byEmail[key]; taken {
		return sentinel.ErrConflict
	}
	clone := *user
	s.users[user.ID] = &clone
	s.byEmail[key] = user.ID
	return nil
}

func (s *InMemory) Update(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.users[user.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	newKey := emailKey(user.Email)
	if owner, taken := s.byEmail[newKey]; taken && owner != user.ID {
		return sentinel.ErrConflict
	}
	delete(s.byEmail, emailKey(current.Email))
	clone := *user
	s.users[user.ID] = &clone
	s.byEmail[newKey] = user.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, userID id.UserID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *user
	return &clone, nil
}

func (s *InMemory) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	userID, ok := s.byEmail[emailKey(email)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *s.users[userID]
	return &clone, nil
}
