package service

import (
	"context"
	"errors"

	carpoolmetrics "fleetpool/internal/carpool/metrics"
	"fleetpool/internal/carpool/models"
	id "fleetpool/pkg/domain"
	dErrors "fleetpool/pkg/domain-errors"
	"fleetpool/pkg/platform/sentinel"
	"fleetpool/pkg/requestcontext"
)

// TotalSeats returns the listing's passenger capacity: backing vehicle
// seats minus one, the organizer's. The backing vehicle is the fleet
// vehicle when set, else the organizer's personal vehicle. A listing whose
// backing vehicle no longer resolves is inconsistent data, reported as
// no_vehicle_found.
func (s *Service) TotalSeats(ctx context.Context, listing *models.Listing) (int, error) {
	seats, err := s.backingVehicleSeats(ctx, listing)
	if err != nil {
		return 0, err
	}
	if seats < 1 {
		return 0, nil
	}
	return seats - 1, nil
}

func (s *Service) backingVehicleSeats(ctx context.Context, listing *models.Listing) (int, error) {
	if listing.UsesFleetVehicle() {
		vehicle, err := s.fleet.FindByID(ctx, *listing.FleetVehicleID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return 0, dErrors.Newf(dErrors.CodeNoVehicleFound,
					"listing %s references a fleet vehicle that no longer exists", listing.ID)
			}
			return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load fleet vehicle")
		}
		return vehicle.Seats, nil
	}

	vehicle, err := s.personal.FindByOwner(ctx, listing.OrganizerID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return 0, dErrors.Newf(dErrors.CodeNoVehicleFound,
				"organizer of listing %s owns no personal vehicle", listing.ID)
		}
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load personal vehicle")
	}
	return vehicle.Seats, nil
}

// OccupiedSeats returns the count of live registrations on the listing.
func (s *Service) OccupiedSeats(ctx context.Context, listingID id.ListingID) (int, error) {
	count, err := s.registrations.CountByListing(ctx, listingID)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count registrations")
	}
	return count, nil
}

// Register books one seat for the user on the listing. Checks run in
// order: not already registered, not the organizer, a seat is still free.
// The capacity read and the insert share one transaction.
func (s *Service) Register(ctx context.Context, userID id.UserID, listingID id.ListingID) (*models.Registration, error) {
	now := requestcontext.Now(ctx)

	var registration *models.Registration
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		listing, err := s.loadListing(ctx, listingID)
		if err != nil {
			return err
		}

		if _, err := s.registrations.FindByListingAndPassenger(ctx, listingID, userID); err == nil {
			s.incRejected(carpoolmetrics.ReasonAlreadyRegistered)
			return dErrors.New(dErrors.CodeAlreadyRegistered, "you already hold a seat on this listing")
		} else if !errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check registration")
		}

		if listing.IsOrganizedBy(userID) {
			s.incRejected(carpoolmetrics.ReasonOrganizer)
			return dErrors.New(dErrors.CodeOrganizerCannotRegister, "organizers cannot book a seat on their own listing")
		}

		total, err := s.TotalSeats(ctx, listing)
		if err != nil {
			return err
		}
		occupied, err := s.OccupiedSeats(ctx, listingID)
		if err != nil {
			return err
		}
		if occupied >= total {
			s.incRejected(carpoolmetrics.ReasonNoSeats)
			return dErrors.Newf(dErrors.CodeNoSeatsAvailable,
				"all %d passenger seats are taken", total)
		}

		registration = models.NewRegistration(id.NewRegistrationID(), listingID, userID, now)
		if err := s.registrations.Create(ctx, registration); err != nil {
			// Unique index lost a race with a concurrent booking by the
			// same user.
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeAlreadyRegistered, "you already hold a seat on this listing")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist registration")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "carpool seat booked",
		"listing_id", listingID, "passenger_id", userID)
	if s.metrics != nil {
		s.metrics.SeatsBooked.Inc()
	}
	return registration, nil
}

// Unregister releases the user's seat on the listing. Releasing a seat you
// do not hold is no_registration; a second release of the same seat fails
// the same way.
func (s *Service) Unregister(ctx context.Context, userID id.UserID, listingID id.ListingID) error {
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		registration, err := s.registrations.FindByListingAndPassenger(ctx, listingID, userID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNoRegistration, "you hold no seat on this listing")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load registration")
		}
		if err := s.registrations.Delete(ctx, registration.ID); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete registration")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "carpool seat released",
		"listing_id", listingID, "passenger_id", userID)
	if s.metrics != nil {
		s.metrics.SeatsReleased.Inc()
	}
	return nil
}

func (s *Service) incRejected(reason string) {
	if s.metrics != nil {
		s.metrics.IncRejected(reason)
	}
}
