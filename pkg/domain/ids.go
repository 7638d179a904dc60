// Package domain defines the typed identifiers shared across verticals.
//
// Every aggregate gets its own UUID-backed type so a reservation ID can never
// be handed to a function expecting a listing ID. Parsing happens once, at
// trust boundaries (HTTP handlers, storage rows); everything past the boundary
// works with the typed form.
package domain

import (
	"github.com/google/uuid"

	dErrors "fleetpool/pkg/domain-errors"
)

type (
	// UserID identifies an employee account.
	UserID uuid.UUID
	// VehicleID identifies a vehicle, fleet or personal.
	VehicleID uuid.UUID
	// ReservationID identifies a fleet-vehicle time-slot reservation.
	ReservationID uuid.UUID
	// ListingID identifies a carpool listing.
	ListingID uuid.UUID
	// RegistrationID identifies a passenger's seat on a listing.
	RegistrationID uuid.UUID
)

func (id UserID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id VehicleID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id ReservationID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id ListingID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id RegistrationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func (id UserID) String() string         { return uuid.UUID(id).String() }
func (id VehicleID) String() string      { return uuid.UUID(id).String() }
func (id ReservationID) String() string  { return uuid.UUID(id).String() }
func (id ListingID) String() string      { return uuid.UUID(id).String() }
func (id RegistrationID) String() string { return uuid.UUID(id).String() }

// NewUserID returns a fresh random identifier.
func NewUserID() UserID                 { return UserID(uuid.New()) }
func NewVehicleID() VehicleID           { return VehicleID(uuid.New()) }
func NewReservationID() ReservationID   { return ReservationID(uuid.New()) }
func NewListingID() ListingID           { return ListingID(uuid.New()) }
func NewRegistrationID() RegistrationID { return RegistrationID(uuid.New()) }

// parseUUID enforces the shared parsing invariant: IDs must be valid,
// non-empty, non-nil UUIDs.
func parseUUID(raw, kind string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id is required")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id must be a valid UUID")
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id must not be the nil UUID")
	}
	return parsed, nil
}

// The ID types marshal as their canonical UUID string on the wire and
// unmarshal through the Parse functions, so malformed IDs in request
// bodies fail with the same invalid_input error as path parameters.

func (id UserID) MarshalText() ([]byte, error)         { return []byte(id.String()), nil }
func (id VehicleID) MarshalText() ([]byte, error)      { return []byte(id.String()), nil }
func (id ReservationID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }
func (id ListingID) MarshalText() ([]byte, error)      { return []byte(id.String()), nil }
func (id RegistrationID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *UserID) UnmarshalText(b []byte) error {
	parsed, err := ParseUserID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *VehicleID) UnmarshalText(b []byte) error {
	parsed, err := ParseVehicleID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *ReservationID) UnmarshalText(b []byte) error {
	parsed, err := ParseReservationID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *ListingID) UnmarshalText(b []byte) error {
	parsed, err := ParseListingID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *RegistrationID) UnmarshalText(b []byte) error {
	parsed, err := ParseRegistrationID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ParseUserID parses an external string into a UserID.
func ParseUserID(raw string) (UserID, error) {
	parsed, err := parseUUID(raw, "user")
	return UserID(parsed), err
}

// ParseVehicleID parses an external string into a VehicleID.
func ParseVehicleID(raw string) (VehicleID, error) {
	parsed, err := parseUUID(raw, "vehicle")
	return VehicleID(parsed), err
}

// ParseReservationID parses an external string into a ReservationID.
func ParseReservationID(raw string) (ReservationID, error) {
	parsed, err := parseUUID(raw, "reservation")
	return ReservationID(parsed), err
}

// ParseListingID parses an external string into a ListingID.
func ParseListingID(raw string) (ListingID, error) {
	parsed, err := parseUUID(raw, "listing")
	return ListingID(parsed), err
}

// ParseRegistrationID parses an external string into a RegistrationID.
func ParseRegistrationID(raw string) (RegistrationID, error) {
	parsed, err := parseUUID(raw, "registration")
	return RegistrationID(parsed), err
}
