package registration

import (
	"context"
	"sync"

	"fleetpool/internal/carpool/models"
	id "fleetpool/pkg/domain"
	"fleetpool/pkg/platform/sentinel"
)

type pairKey struct {
	listing   id.ListingID
	passenger id.UserID
}

// InMemory is the in-memory registration store used by unit tests and local
// runs. The (listing, passenger) uniqueness is enforced here, matching the
// Postgres unique index.
type InMemory struct {
	mu            sync.RWMutex
	registrations map[id.RegistrationID]*models.Registration
	byPair        map[pairKey]id.RegistrationID
}

func NewInMemory() *InMemory {
	return &InMemory{
		registrations: make(map[id.RegistrationID]*models.Registration),
		byPair:        make(map[pairKey]id.RegistrationID),
	}
}

func (s *InMemory) Create(_ context.Context, registration *models.Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey{listing: registration.ListingID, passenger: registration.PassengerID}
	if _, taken := s.byPair[key]; taken {
		return sentinel.ErrConflict
	}
	clone := *registration
	s.registrations[registration.ID] = &clone
	s.byPair[key] = registration.ID
	return nil
}

func (s *InMemory) FindByListingAndPassenger(_ context.Context, listingID id.ListingID, passengerID id.UserID) (*models.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	registrationID, ok := s.byPair[pairKey{listing: listingID, passenger: passengerID}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *s.registrations[registrationID]
	return &clone, nil
}

func (s *InMemory) ListByListing(_ context.Context, listingID id.ListingID) ([]*models.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Registration
	for _, registration := range s.registrations {
		if registration.ListingID == listingID {
			clone := *registration
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (s *InMemory) ListByPassenger(_ context.Context, passengerID id.UserID) ([]*models.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Registration
	for _, registration := range s.registrations {
		if registration.PassengerID == passengerID {
			clone := *registration
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (s *InMemory) CountByListing(_ context.Context, listingID id.ListingID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, registration := range s.registrations {
		if registration.ListingID == listingID {
			count++
		}
	}
	return count, nil
}

func (s *InMemory) Delete(_ context.Context, registrationID id.RegistrationID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	registration, ok := s.registrations[registrationID]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.byPair, pairKey{listing: registration.ListingID, passenger: registration.PassengerID})
	delete(s.registrations, registrationID)
	return nil
}

func (s *InMemory) DeleteByListing(_ context.Context, listingID id.ListingID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for registrationID, registration := range s.registrations {
		if registration.ListingID == listingID {
			delete(s.byPair, pairKey{listing: listingID, passenger: registration.PassengerID})
			delete(s.registrations, registrationID)
		}
	}
	return nil
}
