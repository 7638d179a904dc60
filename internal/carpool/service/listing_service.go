package service

import (
	"context"
	"errors"
	"time"

	"fleetpool/internal/carpool/models"
	id "fleetpool/pkg/domain"
	dErrors "fleetpool/pkg/domain-errors"
	"fleetpool/pkg/platform/sentinel"
	"fleetpool/pkg/requestcontext"
)

// CreateListingInput carries the fields of a new listing. Zero DistanceKm
// or DurationMinutes means "unknown, compute it": the route planner fills
// them in.
type CreateListingInput struct {
	Departure        time.Time
	DurationMinutes  int
	DistanceKm       int
	DepartureAddress models.Address
	ArrivalAddress   models.Address
	FleetVehicleID   *id.VehicleID
}

// UpdateListingInput is a partial update: nil fields keep their current
// values. ClearFleetVehicle reverts the listing to personal-vehicle-backed
// (the wire form's explicit null); it wins over FleetVehicleID.
type UpdateListingInput struct {
	Departure         *time.Time
	DurationMinutes   *int
	DistanceKm        *int
	DepartureAddress  *models.Address
	ArrivalAddress    *models.Address
	FleetVehicleID    *id.VehicleID
	ClearFleetVehicle bool
}

// CreateListing publishes a carpool listing. A given fleet vehicle must
// resolve; its lifecycle state is deliberately not re-checked here (the
// reservation path owns the vehicle calendar and its gate). Without a
// fleet vehicle the organizer must own a personal one. Missing distance or
// duration is obtained from the route planner; enrichment failure fails
// the whole creation.
func (s *Service) CreateListing(ctx context.Context, userID id.UserID, input CreateListingInput) (*models.Listing, error) {
	now := requestcontext.Now(ctx)
	listing, err := models.NewListing(id.NewListingID(), userID, input.Departure, now)
	if err != nil {
		return nil, err
	}
	if input.DepartureAddress.IsZero() || input.ArrivalAddress.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "departure and arrival addresses are required")
	}
	listing.DurationMinutes = input.DurationMinutes
	listing.DistanceKm = input.DistanceKm
	listing.DepartureAddress = input.DepartureAddress
	listing.ArrivalAddress = input.ArrivalAddress

	if err := s.resolveBackingVehicle(ctx, listing, input.FleetVehicleID); err != nil {
		return nil, err
	}
	if listing.NeedsRouteEnrichment() {
		if err := s.enrichRoute(ctx, listing); err != nil {
			return nil, err
		}
	}

	if err := s.listings.Create(ctx, listing); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist listing")
	}

	s.logger.InfoContext(ctx, "carpool listing created",
		"listing_id", listing.ID,
		"organizer_id", userID,
		"window", listing.Window().String(),
		"fleet_backed", listing.UsesFleetVehicle())
	if s.metrics != nil {
		s.metrics.ListingsCreated.Inc()
	}
	return listing, nil
}

// GetListing fetches one listing with its seat counts.
func (s *Service) GetListing(ctx context.Context, listingID id.ListingID) (*models.SeatSummary, error) {
	listing, err := s.loadListing(ctx, listingID)
	if err != nil {
		return nil, err
	}
	return s.summarize(ctx, listing)
}

// ListListings returns every listing with seat availability attached.
func (s *Service) ListListings(ctx context.Context) ([]*models.SeatSummary, error) {
	listings, err := s.listings.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list listings")
	}
	out := make([]*models.SeatSummary, 0, len(listings))
	for _, listing := range listings {
		summary, err := s.summarize(ctx, listing)
		if err != nil {
			return nil, err
		}
		out = append(out, summary)
	}
	return out, nil
}

// ListByPassenger returns the listings the user holds a seat on.
func (s *Service) ListByPassenger(ctx context.Context, userID id.UserID) ([]*models.Listing, error) {
	registrations, err := s.registrations.ListByPassenger(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list registrations")
	}
	out := make([]*models.Listing, 0, len(registrations))
	for _, registration := range registrations {
		listing, err := s.loadListing(ctx, registration.ListingID)
		if err != nil {
			return nil, err
		}
		out = append(out, listing)
	}
	return out, nil
}

// ListParticipants returns the live registrations on a listing.
func (s *Service) ListParticipants(ctx context.Context, listingID id.ListingID) ([]*models.Registration, error) {
	if _, err := s.loadListing(ctx, listingID); err != nil {
		return nil, err
	}
	registrations, err := s.registrations.ListByListing(ctx, listingID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list registrations")
	}
	return registrations, nil
}

// UpdateListing applies a partial update. Refused once any passenger holds
// a seat: they booked a specific trip.
func (s *Service) UpdateListing(ctx context.Context, userID id.UserID, listingID id.ListingID, input UpdateListingInput) (*models.Listing, error) {
	now := requestcontext.Now(ctx)

	var updated *models.Listing
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		listing, err := s.loadListing(ctx, listingID)
		if err != nil {
			return err
		}
		if !listing.IsOrganizedBy(userID) {
			return dErrors.New(dErrors.CodeNotOrganizer, "listing belongs to another organizer")
		}

		occupied, err := s.OccupiedSeats(ctx, listingID)
		if err != nil {
			return err
		}
		if occupied > 0 {
			return dErrors.Newf(dErrors.CodeSeatsAlreadyTaken,
				"%d passenger(s) already booked this trip", occupied)
		}

		if input.Departure != nil {
			listing.Departure = *input.Departure
		}
		if input.DurationMinutes != nil {
			listing.DurationMinutes = *input.DurationMinutes
		}
		if input.DistanceKm != nil {
			listing.DistanceKm = *input.DistanceKm
		}
		if input.DepartureAddress != nil {
			listing.DepartureAddress = *input.DepartureAddress
		}
		if input.ArrivalAddress != nil {
			listing.ArrivalAddress = *input.ArrivalAddress
		}
		switch {
		case input.ClearFleetVehicle:
			listing.FleetVehicleID = nil
			if err := s.resolveBackingVehicle(ctx, listing, nil); err != nil {
				return err
			}
		case input.FleetVehicleID != nil:
			if err := s.resolveBackingVehicle(ctx, listing, input.FleetVehicleID); err != nil {
				return err
			}
		}
		if listing.NeedsRouteEnrichment() {
			if err := s.enrichRoute(ctx, listing); err != nil {
				return err
			}
		}

		listing.UpdatedAt = now
		if err := s.listings.Update(ctx, listing); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update listing")
		}
		updated = listing
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "carpool listing updated", "listing_id", listingID)
	return updated, nil
}

// DeleteListing withdraws a listing, cascading its registrations. Every
// registered passenger is notified afterwards; notification failures are
// logged and swallowed.
func (s *Service) DeleteListing(ctx context.Context, userID id.UserID, listingID id.ListingID) error {
	var (
		listing    *models.Listing
		passengers []id.UserID
	)
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		listing, err = s.loadListing(ctx, listingID)
		if err != nil {
			return err
		}
		if !listing.IsOrganizedBy(userID) {
			return dErrors.New(dErrors.CodeNotOrganizer, "listing belongs to another organizer")
		}

		registrations, err := s.registrations.ListByListing(ctx, listingID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to list registrations")
		}
		for _, registration := range registrations {
			passengers = append(passengers, registration.PassengerID)
		}

		if err := s.registrations.DeleteByListing(ctx, listingID); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete registrations")
		}
		if err := s.listings.Delete(ctx, listingID); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete listing")
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, passengerID := range passengers {
		if err := s.notifier.ListingCancelled(ctx, passengerID, listing); err != nil {
			s.logger.WarnContext(ctx, "failed to notify passenger of cancellation",
				"listing_id", listingID, "passenger_id", passengerID, "error", err)
		}
	}

	s.logger.InfoContext(ctx, "carpool listing deleted",
		"listing_id", listingID, "notified_passengers", len(passengers))
	if s.metrics != nil {
		s.metrics.ListingsDeleted.Inc()
	}
	return nil
}

// loadListing fetches a listing translating store sentinels.
func (s *Service) loadListing(ctx context.Context, listingID id.ListingID) (*models.Listing, error) {
	listing, err := s.listings.FindByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "listing %s not found", listingID)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load listing")
	}
	return listing, nil
}

// resolveBackingVehicle enforces the backing-vehicle invariant on the
// listing: a given fleet vehicle must exist, otherwise the organizer must
// own a personal vehicle.
func (s *Service) resolveBackingVehicle(ctx context.Context, listing *models.Listing, fleetVehicleID *id.VehicleID) error {
	if fleetVehicleID != nil && !fleetVehicleID.IsNil() {
		if _, err := s.fleet.FindByID(ctx, *fleetVehicleID); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.Newf(dErrors.CodeNotFound, "fleet vehicle %s not found", *fleetVehicleID)
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load fleet vehicle")
		}
		vehicleID := *fleetVehicleID
		listing.FleetVehicleID = &vehicleID
		return nil
	}

	if _, err := s.personal.FindByOwner(ctx, listing.OrganizerID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNoVehicleSpecified,
				"no fleet vehicle specified and you own no personal vehicle")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load personal vehicle")
	}
	return nil
}

// enrichRoute fills in missing distance/duration from the route planner.
func (s *Service) enrichRoute(ctx context.Context, listing *models.Listing) error {
	started := time.Now()
	route, err := s.route.ComputeRoute(ctx, listing.DepartureAddress, listing.ArrivalAddress)
	if s.metrics != nil {
		s.metrics.ObserveEnrichment(started)
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeRouteUnavailable, "could not compute the trip route")
	}
	if listing.DistanceKm <= 0 {
		listing.DistanceKm = route.DistanceKm
	}
	if listing.DurationMinutes <= 0 {
		listing.DurationMinutes = route.DurationMinutes
	}
	return nil
}

func (s *Service) summarize(ctx context.Context, listing *models.Listing) (*models.SeatSummary, error) {
	total, err := s.TotalSeats(ctx, listing)
	if err != nil {
		return nil, err
	}
	occupied, err := s.OccupiedSeats(ctx, listing.ID)
	if err != nil {
		return nil, err
	}
	return &models.SeatSummary{Listing: listing, TotalSeats: total, OccupiedSeats: occupied}, nil
}
