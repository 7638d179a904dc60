package models

import (
	id "fleetpool/pkg/domain"
	dErrors "fleetpool/pkg/domain-errors"
)

// VehicleStatus is the lifecycle state of a fleet vehicle.
//
// Only InService vehicles accept new reservations or back new carpool
// listings. The gate is enforced at the service layer (RequireBookable)
// before any overlap check runs, so a withdrawn vehicle is rejected cheaply
// without loading its reservation history.
type VehicleStatus string

const (
	StatusInService    VehicleStatus = "in_service"
	StatusUnderRepair  VehicleStatus = "under_repair"
	StatusOutOfService VehicleStatus = "out_of_service"
)

// Valid reports whether s is one of the known lifecycle states.
func (s VehicleStatus) Valid() bool {
	switch s {
	case StatusInService, StatusUnderRepair, StatusOutOfService:
		return true
	}
	return false
}

// Motorization classifies the vehicle's powertrain.
type Motorization string

const (
	MotorizationCombustion Motorization = "combustion"
	MotorizationHybrid     Motorization = "hybrid"
	MotorizationElectric   Motorization = "electric"
)

// Category classifies the vehicle's size class.
type Category string

const (
	CategoryMicroUrban  Category = "micro_urban"
	CategoryMiniCity    Category = "mini_city"
	CategoryCityCar     Category = "city_car"
	CategoryCompact     Category = "compact"
	CategorySedanSmall  Category = "sedan_s"
	CategorySedanMedium Category = "sedan_m"
	CategorySedanLarge  Category = "sedan_l"
	CategorySUVPickup   Category = "suv_pickup"
)

// Vehicle is the shape shared by fleet and personal vehicles.
//
// Invariants:
//   - Plate is non-empty and unique across all vehicles
//   - Seats >= 1 (the seat ledger derives passenger capacity from it)
//   - CO2GPerKm, Motorization, Category and PhotoURL are optional metadata
type Vehicle struct {
	ID           id.VehicleID `json:"id"`
	Plate        string       `json:"plate"`
	Make         string       `json:"make"`
	Model        string       `json:"model"`
	Seats        int          `json:"seats"`
	CO2GPerKm    *int         `json:"co2_g_per_km,omitempty"`
	Motorization Motorization `json:"motorization,omitempty"`
	Category     Category     `json:"category,omitempty"`
	PhotoURL     string       `json:"photo_url,omitempty"`
}

func (v *Vehicle) validate() error {
	if v.Plate == "" {
		return dErrors.New(dErrors.CodeValidation, "vehicle plate is required")
	}
	if v.Seats < 1 {
		return dErrors.New(dErrors.CodeValidation, "vehicle must have at least one seat")
	}
	return nil
}

// FleetVehicle is a company-owned vehicle governed by a lifecycle state.
type FleetVehicle struct {
	Vehicle
	Status VehicleStatus `json:"status"`
}

// NewFleetVehicle validates and constructs a fleet vehicle. New vehicles
// enter the fleet in service.
func NewFleetVehicle(vehicleID id.VehicleID, plate, make, model string, seats int) (*FleetVehicle, error) {
	fv := &FleetVehicle{
		Vehicle: Vehicle{ID: vehicleID, Plate: plate, Make: make, Model: model, Seats: seats},
		Status:  StatusInService,
	}
	if err := fv.validate(); err != nil {
		return nil, err
	}
	return fv, nil
}

// IsBookable reports whether the vehicle accepts new bookings.
func (v *FleetVehicle) IsBookable() bool {
	return v.Status == StatusInService
}

// RequireBookable fails with the vehicle's current status when it is not in
// service. Reservation and listing managers call this before any overlap
// check.
func (v *FleetVehicle) RequireBookable() error {
	if v.IsBookable() {
		return nil
	}
	err := dErrors.Newf(dErrors.CodeVehicleNotAvailable,
		"vehicle %s is not in service (status: %s)", v.Plate, v.Status)
	return dErrors.Add(err, "status", string(v.Status))
}

// PersonalVehicle is an employee-owned vehicle. It has no lifecycle state
// and is implicitly always available; it backs carpool listings when no
// fleet vehicle is specified.
//
// Invariant: exactly one owner, and a user owns at most one personal
// vehicle. The one-per-owner rule is enforced by the store.
type PersonalVehicle struct {
	Vehicle
	OwnerID id.UserID `json:"owner_id"`
}

// NewPersonalVehicle validates and constructs a personal vehicle.
func NewPersonalVehicle(vehicleID id.VehicleID, ownerID id.UserID, plate, make, model string, seats int) (*PersonalVehicle, error) {
	if ownerID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "personal vehicle owner is required")
	}
	pv := &PersonalVehicle{
		Vehicle: Vehicle{ID: vehicleID, Plate: plate, Make: make, Model: model, Seats: seats},
		OwnerID: ownerID,
	}
	if err := pv.validate(); err != nil {
		return nil, err
	}
	return pv, nil
}
