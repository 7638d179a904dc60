package service

import (
	"context"

	"fleetpool/internal/carpool/models"
	id "fleetpool/pkg/domain"
	dErrors "fleetpool/pkg/domain-errors"
	"fleetpool/pkg/timeslot"
)

// FindConflictingListings returns the listings backed by the given fleet
// vehicle whose derived trip window overlaps window. The reservations
// module consults this before letting a reservation be deleted: a trip
// scheduled on the vehicle during the reservation depends on it.
//
// Back-to-back windows are not conflicts, same rule as everywhere else.
func (s *Service) FindConflictingListings(ctx context.Context, vehicleID id.VehicleID, window timeslot.Window) ([]*models.Listing, error) {
	listings, err := s.listings.ListByVehicle(ctx, vehicleID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list vehicle listings")
	}

	var conflicting []*models.Listing
	for _, listing := range listings {
		if listing.Window().Overlaps(window) {
			conflicting = append(conflicting, listing)
		}
	}
	return conflicting, nil
}
