package reservation

import (
	"context"
	"sync"

	"fleetpool/internal/reservations/models"
	id "fleetpool/pkg/domain"
	"fleetpool/pkg/platform/sentinel"
)

// InMemory is the in-memory reservation store used by unit tests and local
// runs. The store-wide mutex serializes read-then-write booking sections,
// which is the whole consistency story in this implementation.
type InMemory struct {
	mu           sync.RWMutex
	reservations map[id.ReservationID]*models.Reservation
}

func NewInMemory() *InMemory {
	return &InMemory{
		reservations: make(map[id.ReservationID]*models.Reservation),
	}
}

func (s *InMemory) Create(_ context.Context, reservation *models.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.reservations[reservation.ID]; exists {
		return sentinel.ErrConflict
	}
	clone := *reservation
	s.reservations[reservation.ID] = &clone
	return nil
}

func (s *InMemory) Update(_ context.Context, reservation *models.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reservations[reservation.ID]; !ok {
		return sentinel.ErrNotFound
	}
	clone := *reservation
	s.reservations[reservation.ID] = &clone
	return nil
}

func (s *InMemory) FindByID(_ context.Context, reservationID id.ReservationID) (*models.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reservation, ok := s.reservations[reservationID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *reservation
	return &clone, nil
}

func (s *InMemory) ListByUser(_ context.Context, userID id.UserID) ([]*models.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Reservation
	for _, reservation := range s.reservations {
		if reservation.UserID == userID {
			clone := *reservation
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (s *InMemory) ListByVehicle(_ context.Context, vehicleID id.VehicleID) ([]*models.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Reservation
	for _, reservation := range s.reservations {
		if reservation.VehicleID == vehicleID {
			clone := *reservation
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (s *InMemory) Delete(_ context.Context, reservationID id.ReservationID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reservations[reservationID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.reservations, reservationID)
	return nil
}
