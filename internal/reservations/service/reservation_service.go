package service

import (
	"context"
	"errors"
	"time"

	"fleetpool/internal/reservations/models"
	id "fleetpool/pkg/domain"
	dErrors "fleetpool/pkg/domain-errors"
	"fleetpool/pkg/platform/sentinel"
	"fleetpool/pkg/requestcontext"
	"fleetpool/pkg/timeslot"

	resmetrics "fleetpool/internal/reservations/metrics"
)

// CreateInput carries the fields of a new reservation.
type CreateInput struct {
	VehicleID id.VehicleID
	Start     time.Time
	End       time.Time
}

// UpdateInput is a partial update: nil fields keep their current values.
// The effective values are re-validated exactly as on create.
type UpdateInput struct {
	VehicleID *id.VehicleID
	Start     *time.Time
	End       *time.Time
}

// Create books a fleet vehicle for the given window. The checks run in
// order: time-range validity against the request clock, vehicle lifecycle
// gate, per-vehicle non-overlap, per-user non-overlap. The overlap reads
// and the insert share one transaction.
func (s *Service) Create(ctx context.Context, userID id.UserID, input CreateInput) (*models.Reservation, error) {
	now := requestcontext.Now(ctx)
	reservation, err := models.NewReservation(id.NewReservationID(), userID, input.VehicleID, input.Start, input.End, now)
	if err != nil {
		return nil, err
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.requireBookableVehicle(ctx, input.VehicleID); err != nil {
			return err
		}
		if err := s.checkNoOverlap(ctx, reservation, id.ReservationID{}); err != nil {
			return err
		}
		if err := s.store.Create(ctx, reservation); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist reservation")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "reservation created",
		"reservation_id", reservation.ID,
		"vehicle_id", reservation.VehicleID,
		"user_id", userID,
		"window", reservation.Window().String())
	if s.metrics != nil {
		s.metrics.Created.Inc()
	}
	return reservation, nil
}

// Get fetches one reservation; only the owner may read it.
func (s *Service) Get(ctx context.Context, userID id.UserID, reservationID id.ReservationID) (*models.Reservation, error) {
	reservation, err := s.load(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if !reservation.IsOwnedBy(userID) {
		return nil, dErrors.New(dErrors.CodeNotOwner, "reservation belongs to another user")
	}
	return reservation, nil
}

// ListByUser returns all reservations owned by the user.
func (s *Service) ListByUser(ctx context.Context, userID id.UserID) ([]*models.Reservation, error) {
	reservations, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list reservations")
	}
	return reservations, nil
}

// ListByVehicle returns all reservations against the vehicle.
func (s *Service) ListByVehicle(ctx context.Context, vehicleID id.VehicleID) ([]*models.Reservation, error) {
	reservations, err := s.store.ListByVehicle(ctx, vehicleID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list reservations")
	}
	return reservations, nil
}

// FindByUserCovering returns the user's reservation whose window fully
// contains [start, start+durationMinutes), or CodeNotFound if none does.
// Lets a caller find which fleet vehicle they actually hold over a planned
// trip before publishing a listing for it.
func (s *Service) FindByUserCovering(ctx context.Context, userID id.UserID, start time.Time, durationMinutes int) (*models.Reservation, error) {
	if durationMinutes < 1 {
		return nil, dErrors.New(dErrors.CodeValidation, "duration must be at least one minute")
	}
	needed := timeslot.FromDuration(start, durationMinutes)

	reservations, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list reservations")
	}
	for _, reservation := range reservations {
		if reservation.Window().Contains(needed) {
			return reservation, nil
		}
	}
	return nil, dErrors.Newf(dErrors.CodeNotFound, "no reservation covers %s", needed)
}

// Update applies a partial update to a reservation. The effective values
// (supplied fields overlaid on current ones) go through the full create
// validation, excluding the reservation itself from both overlap candidate
// sets so a no-op update succeeds.
func (s *Service) Update(ctx context.Context, userID id.UserID, reservationID id.ReservationID, input UpdateInput) (*models.Reservation, error) {
	now := requestcontext.Now(ctx)

	var updated *models.Reservation
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		reservation, err := s.load(ctx, reservationID)
		if err != nil {
			return err
		}
		if !reservation.IsOwnedBy(userID) {
			return dErrors.New(dErrors.CodeNotOwner, "reservation belongs to another user")
		}

		if input.VehicleID != nil {
			reservation.VehicleID = *input.VehicleID
		}
		if input.Start != nil {
			reservation.Start = *input.Start
		}
		if input.End != nil {
			reservation.End = *input.End
		}
		if err := models.ValidateWindow(reservation.Start, reservation.End, now); err != nil {
			return err
		}
		if err := s.requireBookableVehicle(ctx, reservation.VehicleID); err != nil {
			return err
		}
		if err := s.checkNoOverlap(ctx, reservation, reservation.ID); err != nil {
			return err
		}

		reservation.UpdatedAt = now
		if err := s.store.Update(ctx, reservation); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update reservation")
		}
		updated = reservation
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "reservation updated",
		"reservation_id", reservationID, "window", updated.Window().String())
	return updated, nil
}

// Delete cancels a reservation. Refused when any carpool listing backed by
// the reservation's vehicle overlaps its window: cancelling would strand
// the trip. The error enumerates every conflicting listing.
func (s *Service) Delete(ctx context.Context, userID id.UserID, reservationID id.ReservationID) error {
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		reservation, err := s.load(ctx, reservationID)
		if err != nil {
			return err
		}
		if !reservation.IsOwnedBy(userID) {
			return dErrors.New(dErrors.CodeNotOwner, "reservation belongs to another user")
		}

		conflicts, err := s.carpool.FindConflictingListings(ctx, reservation.VehicleID, reservation.Window())
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check carpool conflicts")
		}
		if len(conflicts) > 0 {
			s.incConflict(resmetrics.ReasonCarpoolConflict)
			details := make([]map[string]string, 0, len(conflicts))
			for _, listing := range conflicts {
				details = append(details, map[string]string{
					"listing_id": listing.ID.String(),
					"window":     listing.Window().String(),
				})
			}
			return dErrors.Add(dErrors.Newf(dErrors.CodeCarpoolConflict,
				"%d carpool listing(s) depend on this reservation's vehicle and window", len(conflicts)),
				"conflicts", details)
		}

		if err := s.store.Delete(ctx, reservationID); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete reservation")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "reservation deleted",
		"reservation_id", reservationID, "user_id", userID)
	if s.metrics != nil {
		s.metrics.Deleted.Inc()
	}
	return nil
}

// load fetches a reservation translating store sentinels.
func (s *Service) load(ctx context.Context, reservationID id.ReservationID) (*models.Reservation, error) {
	reservation, err := s.store.FindByID(ctx, reservationID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "reservation %s not found", reservationID)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load reservation")
	}
	return reservation, nil
}

// requireBookableVehicle resolves the fleet vehicle and applies the
// lifecycle gate. Cheap rejection before any overlap scan.
func (s *Service) requireBookableVehicle(ctx context.Context, vehicleID id.VehicleID) error {
	vehicle, err := s.vehicles.FindByID(ctx, vehicleID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Newf(dErrors.CodeNotFound, "fleet vehicle %s not found", vehicleID)
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load fleet vehicle")
	}
	if err := vehicle.RequireBookable(); err != nil {
		s.incConflict(resmetrics.ReasonVehicleStatus)
		return err
	}
	return nil
}

// checkNoOverlap enforces the per-vehicle then per-user non-overlap
// invariants for the candidate reservation. exclude names a reservation to
// skip in both candidate sets (the one being updated); pass the zero ID on
// create.
func (s *Service) checkNoOverlap(ctx context.Context, candidate *models.Reservation, exclude id.ReservationID) error {
	window := candidate.Window()

	byVehicle, err := s.store.ListByVehicle(ctx, candidate.VehicleID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load vehicle reservations")
	}
	for _, existing := range byVehicle {
		if existing.ID == exclude {
			continue
		}
		if window.Overlaps(existing.Window()) {
			s.incConflict(resmetrics.ReasonVehicleBusy)
			return dErrors.Newf(dErrors.CodeVehicleUnavailable,
				"vehicle is already reserved over %s", existing.Window())
		}
	}

	byUser, err := s.store.ListByUser(ctx, candidate.UserID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user reservations")
	}
	for _, existing := range byUser {
		if existing.ID == exclude {
			continue
		}
		if window.Overlaps(existing.Window()) {
			s.incConflict(resmetrics.ReasonUserDoubleBook)
			return dErrors.Newf(dErrors.CodeUserDoubleBooked,
				"you already hold a reservation over %s", existing.Window())
		}
	}
	return nil
}
