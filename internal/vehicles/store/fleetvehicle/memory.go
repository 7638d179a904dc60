package fleetvehicle

import (
	"context"
	"strings"
	"sync"

	"fleetpool/internal/vehicles/models"
	id "fleetpool/pkg/domain"
	"fleetpool/pkg/platform/sentinel"
)

// InMemory is the in-memory fleet vehicle store used by unit tests and local
// runs. Plate uniqueness is enforced case-insensitively, matching the
// Postgres unique index on lower(plate).
type InMemory struct {
	mu       sync.RWMutex
	vehicles map[id.VehicleID]*models.FleetVehicle
	byPlate  map[string]id.VehicleID
}

func NewInMemory() *InMemory {
	return &InMemory{
		vehicles: make(map[id.VehicleID]*models.FleetVehicle),
		byPlate:  make(map[string]id.VehicleID),
	}
}

func plateKey(plate string) string {
	return strings.ToLower(strings.TrimSpace(plate))
}

func (s *InMemory) Create(_ context.Context, vehicle *models.FleetVehicle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := plateKey(vehicle.Plate)
	if _, taken := s.byPlate[key]; taken {
		return sentinel.ErrConflict
	}
	clone := *vehicle
	s.vehicles[vehicle.ID] = &clone
	s.byPlate[key] = vehicle.ID
	return nil
}

func (s *InMemory) Update(_ context.Context, vehicle *models.FleetVehicle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.vehicles[vehicle.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	newKey := plateKey(vehicle.Plate)
	if owner, taken := s.byPlate[newKey]; taken && owner != vehicle.ID {
		return sentinel.ErrConflict
	}
	delete(s.byPlate, plateKey(current.Plate))
	clone := *vehicle
	s.vehicles[vehicle.ID] = &clone
	s.byPlate[newKey] = vehicle.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, vehicleID id.VehicleID) (*models.FleetVehicle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	vehicle, ok := s.vehicles[vehicleID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *vehicle
	return &clone, nil
}

func (s *InMemory) List(_ context.Context) ([]*models.FleetVehicle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.FleetVehicle, 0, len(s.vehicles))
	for _, vehicle := range s.vehicles {
		clone := *vehicle
		out = append(out, &clone)
	}
	return out, nil
}

func (s *InMemory) ListByStatus(_ context.Context, status models.VehicleStatus) ([]*models.FleetVehicle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.FleetVehicle
	for _, vehicle := range s.vehicles {
		if vehicle.Status == status {
			clone := *vehicle
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (s *InMemory) Delete(_ context.Context, vehicleID id.VehicleID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	vehicle, ok := s.vehicles[vehicleID]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.byPlate, plateKey(vehicle.Plate))
	delete(s.vehicles, vehicleID)
	return nil
}
