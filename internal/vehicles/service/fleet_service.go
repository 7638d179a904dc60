package service

import (
	"context"
	"errors"
	"time"

	resmodels "fleetpool/internal/reservations/models"
	"fleetpool/internal/vehicles/models"
	id "fleetpool/pkg/domain"
	dErrors "fleetpool/pkg/domain-errors"
	"fleetpool/pkg/platform/sentinel"
	"fleetpool/pkg/requestcontext"
	"fleetpool/pkg/timeslot"
)

// CreateFleetVehicleInput carries the fields needed to add a vehicle to the
// fleet. Optional metadata is applied after construction.
type CreateFleetVehicleInput struct {
	Plate        string
	Make         string
	Model        string
	Seats        int
	CO2GPerKm    *int
	Motorization models.Motorization
	Category     models.Category
	PhotoURL     string
}

// UpdateFleetVehicleInput is a partial update: nil fields keep their current
// values.
type UpdateFleetVehicleInput struct {
	Plate     *string
	Make      *string
	Model     *string
	Seats     *int
	CO2GPerKm *int
	PhotoURL  *string
}

// CreateFleetVehicle adds a vehicle to the fleet, in service.
func (s *Service) CreateFleetVehicle(ctx context.Context, input CreateFleetVehicleInput) (*models.FleetVehicle, error) {
	vehicle, err := models.NewFleetVehicle(id.NewVehicleID(), input.Plate, input.Make, input.Model, input.Seats)
	if err != nil {
		return nil, err
	}
	vehicle.CO2GPerKm = input.CO2GPerKm
	vehicle.Motorization = input.Motorization
	vehicle.Category = input.Category
	vehicle.PhotoURL = input.PhotoURL

	if err := s.fleet.Create(ctx, vehicle); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.Newf(dErrors.CodeConflict, "a vehicle with plate %s already exists", input.Plate)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create fleet vehicle")
	}

	s.logger.InfoContext(ctx, "fleet vehicle created",
		"vehicle_id", vehicle.ID, "plate", vehicle.Plate)
	if s.metrics != nil {
		s.metrics.FleetVehiclesCreated.Inc()
	}
	return vehicle, nil
}

// GetFleetVehicle fetches one fleet vehicle.
func (s *Service) GetFleetVehicle(ctx context.Context, vehicleID id.VehicleID) (*models.FleetVehicle, error) {
	vehicle, err := s.fleet.FindByID(ctx, vehicleID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "fleet vehicle %s not found", vehicleID)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load fleet vehicle")
	}
	return vehicle, nil
}

// ListFleetVehicles returns the whole fleet.
func (s *Service) ListFleetVehicles(ctx context.Context) ([]*models.FleetVehicle, error) {
	vehicles, err := s.fleet.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list fleet vehicles")
	}
	return vehicles, nil
}

// ListFleetVehiclesByStatus returns the fleet vehicles in one lifecycle
// state.
func (s *Service) ListFleetVehiclesByStatus(ctx context.Context, status models.VehicleStatus) ([]*models.FleetVehicle, error) {
	if !status.Valid() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown vehicle status %q", status)
	}
	vehicles, err := s.fleet.ListByStatus(ctx, status)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list fleet vehicles")
	}
	return vehicles, nil
}

// UpdateFleetVehicle applies a partial update to a fleet vehicle's metadata.
// Status changes go through ChangeFleetVehicleStatus.
func (s *Service) UpdateFleetVehicle(ctx context.Context, vehicleID id.VehicleID, input UpdateFleetVehicleInput) (*models.FleetVehicle, error) {
	vehicle, err := s.GetFleetVehicle(ctx, vehicleID)
	if err != nil {
		return nil, err
	}

	if input.Plate != nil {
		vehicle.Plate = *input.Plate
	}
	if input.Make != nil {
		vehicle.Make = *input.Make
	}
	if input.Model != nil {
		vehicle.Model = *input.Model
	}
	if input.Seats != nil {
		vehicle.Seats = *input.Seats
	}
	if input.CO2GPerKm != nil {
		vehicle.CO2GPerKm = input.CO2GPerKm
	}
	if input.PhotoURL != nil {
		vehicle.PhotoURL = *input.PhotoURL
	}
	if vehicle.Plate == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "vehicle plate is required")
	}
	if vehicle.Seats < 1 {
		return nil, dErrors.New(dErrors.CodeValidation, "vehicle must have at least one seat")
	}

	if err := s.fleet.Update(ctx, vehicle); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.Newf(dErrors.CodeConflict, "a vehicle with plate %s already exists", vehicle.Plate)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update fleet vehicle")
	}
	return vehicle, nil
}

// ChangeFleetVehicleStatus moves a vehicle between lifecycle states. The
// state machine has no forbidden transitions; the gate bites at booking
// time, not here.
func (s *Service) ChangeFleetVehicleStatus(ctx context.Context, vehicleID id.VehicleID, status models.VehicleStatus) (*models.FleetVehicle, error) {
	if !status.Valid() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown vehicle status %q", status)
	}
	vehicle, err := s.GetFleetVehicle(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	vehicle.Status = status
	if err := s.fleet.Update(ctx, vehicle); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update vehicle status")
	}
	s.logger.InfoContext(ctx, "fleet vehicle status changed",
		"vehicle_id", vehicleID, "status", status)
	return vehicle, nil
}

// DeleteFleetVehicle removes a vehicle from the fleet. Refused while the
// vehicle still has reservations that end in the future; those must be
// cancelled first.
func (s *Service) DeleteFleetVehicle(ctx context.Context, vehicleID id.VehicleID) error {
	if _, err := s.GetFleetVehicle(ctx, vehicleID); err != nil {
		return err
	}

	reservations, err := s.reservations.ListByVehicle(ctx, vehicleID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load vehicle reservations")
	}
	now := requestcontext.Now(ctx)
	for _, reservation := range reservations {
		if reservation.End.After(now) {
			return dErrors.Newf(dErrors.CodeConflict,
				"vehicle has an upcoming reservation %s", reservation.Window())
		}
	}

	if err := s.fleet.Delete(ctx, vehicleID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete fleet vehicle")
	}
	s.logger.InfoContext(ctx, "fleet vehicle deleted", "vehicle_id", vehicleID)
	return nil
}

// FindAvailable returns the in-service fleet vehicles free over the given
// window. The window must be valid and fully in the future, judged against
// the request clock.
func (s *Service) FindAvailable(ctx context.Context, start, end time.Time) ([]*models.FleetVehicle, error) {
	started := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.ObserveAvailability(started)
		}
	}()

	now := requestcontext.Now(ctx)
	if err := resmodels.ValidateWindow(start, end, now); err != nil {
		return nil, err
	}
	requested := timeslot.New(start, end)

	inService, err := s.fleet.ListByStatus(ctx, models.StatusInService)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list in-service vehicles")
	}

	available := make([]*models.FleetVehicle, 0, len(inService))
	for _, vehicle := range inService {
		reservations, err := s.reservations.ListByVehicle(ctx, vehicle.ID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load vehicle reservations")
		}
		free := true
		for _, reservation := range reservations {
			if requested.Overlaps(reservation.Window()) {
				free = false
				break
			}
		}
		if free {
			available = append(available, vehicle)
		}
	}
	return available, nil
}
