package service

import (
	"context"
	"errors"

	"fleetpool/internal/vehicles/models"
	id "fleetpool/pkg/domain"
	dErrors "fleetpool/pkg/domain-errors"
	"fleetpool/pkg/platform/sentinel"
)

// CreatePersonalVehicleInput carries the fields an employee declares for
// their own car.
type CreatePersonalVehicleInput struct {
	Plate        string
	Make         string
	Model        string
	Seats        int
	CO2GPerKm    *int
	Motorization models.Motorization
	Category     models.Category
}

// DeclarePersonalVehicle records the caller's personal vehicle. A user owns
// at most one; a second declaration is a conflict.
func (s *Service) DeclarePersonalVehicle(ctx context.Context, ownerID id.UserID, input CreatePersonalVehicleInput) (*models.PersonalVehicle, error) {
	vehicle, err := models.NewPersonalVehicle(id.NewVehicleID(), ownerID, input.Plate, input.Make, input.Model, input.Seats)
	if err != nil {
		return nil, err
	}
	vehicle.CO2GPerKm = input.CO2GPerKm
	vehicle.Motorization = input.Motorization
	vehicle.Category = input.Category

	if err := s.personal.Create(ctx, vehicle); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "you already declared a personal vehicle")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create personal vehicle")
	}

	s.logger.InfoContext(ctx, "personal vehicle declared",
		"vehicle_id", vehicle.ID, "owner_id", ownerID)
	if s.metrics != nil {
		s.metrics.PersonalVehiclesCreated.Inc()
	}
	return vehicle, nil
}

// GetPersonalVehicle returns the caller's personal vehicle.
func (s *Service) GetPersonalVehicle(ctx context.Context, ownerID id.UserID) (*models.PersonalVehicle, error) {
	vehicle, err := s.personal.FindByOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no personal vehicle declared")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load personal vehicle")
	}
	return vehicle, nil
}

// UpdatePersonalVehicle applies a partial update to the caller's vehicle.
func (s *Service) UpdatePersonalVehicle(ctx context.Context, ownerID id.UserID, input UpdateFleetVehicleInput) (*models.PersonalVehicle, error) {
	vehicle, err := s.GetPersonalVehicle(ctx, ownerID)
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
	if vehicle.Plate == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "vehicle plate is required")
	}
	if vehicle.Seats < 1 {
		return nil, dErrors.New(dErrors.CodeValidation, "vehicle must have at least one seat")
	}

	if err := s.personal.Update(ctx, vehicle); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update personal vehicle")
	}
	return vehicle, nil
}

// RemovePersonalVehicle deletes the caller's personal vehicle.
func (s *Service) RemovePersonalVehicle(ctx context.Context, ownerID id.UserID) error {
	vehicle, err := s.GetPersonalVehicle(ctx, ownerID)
	if err != nil {
		return err
	}
	if err := s.personal.Delete(ctx, vehicle.ID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete personal vehicle")
	}
	s.logger.InfoContext(ctx, "personal vehicle removed",
		"vehicle_id", vehicle.ID, "owner_id", ownerID)
	return nil
}
