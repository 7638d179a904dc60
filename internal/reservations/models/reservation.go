package models

import (
	"time"

	id "fleetpool/pkg/domain"
	dErrors "fleetpool/pkg/domain-errors"
	"fleetpool/pkg/timeslot"
)

// Reservation is a time-slot booking of a fleet vehicle by one user.
//
// Invariants:
//   - Start strictly precedes End
//   - both bounds are strictly in the future at creation/modification time,
//     judged against a single now snapshot
//   - per vehicle: live reservations are pairwise non-overlapping
//   - per user: live reservations are pairwise non-overlapping
//   - only the owner may mutate or delete it
//
// The non-overlap invariants use half-open windows: a reservation ending
// exactly when another begins does not conflict.
type Reservation struct {
	ID        id.ReservationID `json:"id"`
	UserID    id.UserID        `json:"user_id"`
	VehicleID id.VehicleID     `json:"vehicle_id"`
	Start     time.Time        `json:"start"`
	End       time.Time        `json:"end"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// NewReservation validates the time range against the given now snapshot and
// constructs a reservation. Overlap checks are the service's concern; this
// only enforces the shape of a single reservation.
func NewReservation(reservationID id.ReservationID, userID id.UserID, vehicleID id.VehicleID, start, end, now time.Time) (*Reservation, error) {
	if err := ValidateWindow(start, end, now); err != nil {
		return nil, err
	}
	return &Reservation{
		ID:        reservationID,
		UserID:    userID,
		VehicleID: vehicleID,
		Start:     start,
		End:       end,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// ValidateWindow enforces the time-range rules shared by create and update:
// both bounds strictly after now (same snapshot for both checks) and start
// strictly before end.
func ValidateWindow(start, end, now time.Time) error {
	if !start.After(now) {
		return dErrors.New(dErrors.CodeInvalidTimeRange, "start must be strictly in the future")
	}
	if !end.After(now) {
		return dErrors.New(dErrors.CodeInvalidTimeRange, "end must be strictly in the future")
	}
	if !start.Before(end) {
		return dErrors.New(dErrors.CodeInvalidTimeRange, "start must be strictly before end")
	}
	return nil
}

// Window returns the reservation's half-open time window.
func (r *Reservation) Window() timeslot.Window {
	return timeslot.New(r.Start, r.End)
}

// IsOwnedBy reports whether userID owns the reservation.
func (r *Reservation) IsOwnedBy(userID id.UserID) bool {
	return r.UserID == userID
}
