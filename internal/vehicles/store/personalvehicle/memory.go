package personalvehicle

import (
	"context"
	"sync"

	"fleetpool/internal/vehicles/models"
	id "fleetpool/pkg/domain"
	"fleetpool/pkg/platform/sentinel"
)

// InMemory is the in-memory personal vehicle store. It enforces the
// one-vehicle-per-owner invariant the same way the Postgres unique index on
// owner_id does.
type InMemory struct {
	mu       sync.RWMutex
	vehicles map[id.VehicleID]*models.PersonalVehicle
	byOwner  map[id.UserID]id.VehicleID
}

func NewInMemory() *InMemory {
	return &InMemory{
		vehicles: make(map[id.VehicleID]*models.PersonalVehicle),
		byOwner:  make(map[id.UserID]id.VehicleID),
	}
}

func (s *InMemory) Create(_ context.Context, vehicle *models.PersonalVehicle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byOwner[vehicle.OwnerID]; taken {
		return sentinel.ErrConflict
	}
	clone := *vehicle
	s.vehicles[vehicle.ID] = &clone
	s.byOwner[vehicle.OwnerID] = vehicle.ID
	return nil
}

func (s *InMemory) Update(_ context.Context, vehicle *models.PersonalVehicle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.vehicles[vehicle.ID]; !ok {
		return sentinel.ErrNotFound
	}
	clone := *vehicle
	s.vehicles[vehicle.ID] = &clone
	return nil
}

func (s *InMemory) FindByID(_ context.Context, vehicleID id.VehicleID) (*models.PersonalVehicle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	vehicle, ok := s.vehicles[vehicleID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *vehicle
	return &clone, nil
}

func (s *InMemory) FindByOwner(_ context.Context, ownerID id.UserID) (*models.PersonalVehicle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	vehicleID, ok := s.byOwner[ownerID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *s.vehicles[vehicleID]
	return &clone, nil
}

func (s *InMemory) Delete(_ context.Context, vehicleID id.VehicleID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	vehicle, ok := s.vehicles[vehicleID]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.byOwner, vehicle.OwnerID)
	delete(s.vehicles, vehicleID)
	return nil
}
