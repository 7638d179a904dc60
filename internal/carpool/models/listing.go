package models

import (
	"fmt"
	"time"

	id "fleetpool/pkg/domain"
	dErrors "fleetpool/pkg/domain-errors"
	"fleetpool/pkg/timeslot"
)

// Address is the departure or arrival location of a listing, kept as a value
// object on the listing itself. The route planner geocodes it when distance
// or duration need enriching.
type Address struct {
	Number     string `json:"number,omitempty"`
	Street     string `json:"street"`
	PostalCode string `json:"postal_code"`
	City       string `json:"city"`
}

// IsZero reports whether the address carries no usable location.
func (a Address) IsZero() bool {
	return a.Street == "" && a.City == ""
}

func (a Address) String() string {
	if a.Number != "" {
		return fmt.Sprintf("%s %s, %s %s", a.Number, a.Street, a.PostalCode, a.City)
	}
	return fmt.Sprintf("%s, %s %s", a.Street, a.PostalCode, a.City)
}

// Listing is a carpool trip announcement.
//
// Invariants:
//   - Organizer is fixed at creation and is the only allowed mutator
//   - DurationMinutes >= 1 once enriched; the derived window is
//     [Departure, Departure+Duration)
//   - FleetVehicleID nil means the trip runs on the organizer's personal
//     vehicle; the organizer must own one in that case
//   - no mutation once any passenger holds a seat (enforced by the service
//     through the seat ledger)
//
// A listing never reserves its backing fleet vehicle: it only blocks the
// deletion of a fleet reservation whose window overlaps the trip. Listing
// creation deliberately does not pre-empt conflicts with existing
// reservations nor re-check the vehicle lifecycle state; that asymmetry is
// intentional (reservations own the vehicle calendar, listings do not).
type Listing struct {
	ID               id.ListingID  `json:"id"`
	OrganizerID      id.UserID     `json:"organizer_id"`
	Departure        time.Time     `json:"departure"`
	DurationMinutes  int           `json:"duration_minutes"`
	DistanceKm       int           `json:"distance_km"`
	DepartureAddress Address       `json:"departure_address"`
	ArrivalAddress   Address       `json:"arrival_address"`
	FleetVehicleID   *id.VehicleID `json:"fleet_vehicle_id,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// NewListing validates and constructs a listing. Enrichment (distance and
// duration) may still be pending at this point; the service fills it in
// before persisting.
func NewListing(listingID id.ListingID, organizerID id.UserID, departure time.Time, now time.Time) (*Listing, error) {
	if organizerID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "listing organizer is required")
	}
	if departure.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "listing departure time is required")
	}
	return &Listing{
		ID:          listingID,
		OrganizerID: organizerID,
		Departure:   departure,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Window returns the trip's derived half-open window
// [Departure, Departure+Duration).
func (l *Listing) Window() timeslot.Window {
	return timeslot.FromDuration(l.Departure, l.DurationMinutes)
}

// IsOrganizedBy reports whether userID organizes the listing.
func (l *Listing) IsOrganizedBy(userID id.UserID) bool {
	return l.OrganizerID == userID
}

// UsesFleetVehicle reports whether a fleet vehicle backs the trip.
func (l *Listing) UsesFleetVehicle() bool {
	return l.FleetVehicleID != nil && !l.FleetVehicleID.IsNil()
}

// NeedsRouteEnrichment reports whether distance or duration are missing and
// must be obtained from the route planner. Zero counts as missing, matching
// the create contract.
func (l *Listing) NeedsRouteEnrichment() bool {
	return l.DistanceKm <= 0 || l.DurationMinutes <= 0
}

// SeatSummary pairs a listing with its seat ledger counts for read APIs.
type SeatSummary struct {
	Listing       *Listing `json:"listing"`
	TotalSeats    int      `json:"total_seats"`
	OccupiedSeats int      `json:"occupied_seats"`
}
