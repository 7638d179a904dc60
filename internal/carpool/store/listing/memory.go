package listing

import (
	"context"
	"sync"

	"fleetpool/internal/carpool/models"
	id "fleetpool/pkg/domain"
	"fleetpool/pkg/platform/sentinel"
)

// InMemory is the in-memory listing store used by unit tests and local runs.
type InMemory struct {
	mu       sync.RWMutex
	listings map[id.ListingID]*models.Listing
}

func NewInMemory() *InMemory {
	return &InMemory{
		listings: make(map[id.ListingID]*models.Listing),
	}
}

func cloneListing(listing *models.Listing) *models.Listing {
	clone := *listing
	if listing.FleetVehicleID != nil {
		vehicleID := *listing.FleetVehicleID
		clone.FleetVehicleID = &vehicleID
	}
	return &clone
}

func (s *InMemory) Create(_ context.Context, listing *models.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.listings[listing.ID]; exists {
		return sentinel.ErrConflict
	}
	s.listings[listing.ID] = cloneListing(listing)
	return nil
}

func (s *InMemory) Update(_ context.Context, listing *models.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.listings[listing.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.listings[listing.ID] = cloneListing(listing)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, listingID id.ListingID) (*models.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	listing, ok := s.listings[listingID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneListing(listing), nil
}

func (s *InMemory) List(_ context.Context) ([]*models.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Listing, 0, len(s.listings))
	for _, listing := range s.listings {
		out = append(out, cloneListing(listing))
	}
	return out, nil
}

func (s *InMemory) ListByVehicle(_ context.Context, vehicleID id.VehicleID) ([]*models.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Listing
	for _, listing := range s.listings {
		if listing.FleetVehicleID != nil && *listing.FleetVehicleID == vehicleID {
			out = append(out, cloneListing(listing))
		}
	}
	return out, nil
}

func (s *InMemory) Delete(_ context.Context, listingID id.ListingID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.listings[listingID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.listings, listingID)
	return nil
}
