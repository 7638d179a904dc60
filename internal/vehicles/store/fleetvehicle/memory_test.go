package fleetvehicle

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"fleetpool/internal/vehicles/models"
	id "fleetpool/pkg/domain"
	"fleetpool/pkg/platform/sentinel"
)

type FleetVehicleStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *FleetVehicleStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestFleetVehicleStoreSuite(t *testing.T) {
	suite.Run(t, new(FleetVehicleStoreSuite))
}

func (s *FleetVehicleStoreSuite) newVehicle(plate string) *models.FleetVehicle {
	vehicle, err := models.NewFleetVehicle(id.NewVehicleID(), plate, "Renault", "Zoe", 5)
	s.Require().NoError(err)
	return vehicle
}

// TestCreationAndLookups verifies the store correctly creates and retrieves
// vehicles.
func (s *FleetVehicleStoreSuite) TestCreationAndLookups() {
	s.Run("creates and finds vehicle by ID", func() {
		vehicle := s.newVehicle("AB-123-CD")
		s.Require().NoError(s.store.Create(s.ctx, vehicle))

		found, err := s.store.FindByID(s.ctx, vehicle.ID)
		s.Require().NoError(err)
		s.Equal(vehicle.Plate, found.Plate)
	})

	s.Run("returns ErrNotFound for unknown ID", func() {
		_, err := s.store.FindByID(s.ctx, id.NewVehicleID())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("returned vehicle is a copy", func() {
		vehicle := s.newVehicle("EF-456-GH")
		s.Require().NoError(s.store.Create(s.ctx, vehicle))

		found, err := s.store.FindByID(s.ctx, vehicle.ID)
		s.Require().NoError(err)
		found.Seats = 99

		again, err := s.store.FindByID(s.ctx, vehicle.ID)
		s.Require().NoError(err)
		s.Equal(5, again.Seats)
	})
}

// TestPlateUniqueness verifies case-insensitive plate uniqueness.
func (s *FleetVehicleStoreSuite) TestPlateUniqueness() {
	s.Run("rejects duplicate plate", func() {
		s.Require().NoError(s.store.Create(s.ctx, s.newVehicle("AA-111-AA")))
		s.ErrorIs(s.store.Create(s.ctx, s.newVehicle("aa-111-aa")), sentinel.ErrConflict)
	})

	s.Run("update cannot steal another vehicle's plate", func() {
		first := s.newVehicle("BB-222-BB")
		second := s.newVehicle("CC-333-CC")
		s.Require().NoError(s.store.Create(s.ctx, first))
		s.Require().NoError(s.store.Create(s.ctx, second))

		second.Plate = "BB-222-BB"
		s.ErrorIs(s.store.Update(s.ctx, second), sentinel.ErrConflict)
	})

	s.Run("plate is released on delete", func() {
		vehicle := s.newVehicle("DD-444-DD")
		s.Require().NoError(s.store.Create(s.ctx, vehicle))
		s.Require().NoError(s.store.Delete(s.ctx, vehicle.ID))
		s.NoError(s.store.Create(s.ctx, s.newVehicle("DD-444-DD")))
	})
}

// TestStatusFiltering verifies ListByStatus.
func (s *FleetVehicleStoreSuite) TestStatusFiltering() {
	active := s.newVehicle("EE-555-EE")
	repairing := s.newVehicle("FF-666-FF")
	repairing.Status = models.StatusUnderRepair
	s.Require().NoError(s.store.Create(s.ctx, active))
	s.Require().NoError(s.store.Create(s.ctx, repairing))

	inService, err := s.store.ListByStatus(s.ctx, models.StatusInService)
	s.Require().NoError(err)
	s.Require().Len(inService, 1)
	s.Equal(active.ID, inService[0].ID)

	all, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Len(all, 2)
}

// TestUpdatesAndDeletes verifies mutation paths return the right sentinels.
func (s *FleetVehicleStoreSuite) TestUpdatesAndDeletes() {
	s.Run("update of unknown vehicle is not found", func() {
		s.ErrorIs(s.store.Update(s.ctx, s.newVehicle("GG-777-GG")), sentinel.ErrNotFound)
	})

	s.Run("delete of unknown vehicle is not found", func() {
		s.ErrorIs(s.store.Delete(s.ctx, id.NewVehicleID()), sentinel.ErrNotFound)
	})

	s.Run("update persists changes", func() {
		vehicle := s.newVehicle("HH-888-HH")
		s.Require().NoError(s.store.Create(s.ctx, vehicle))

		vehicle.Status = models.StatusOutOfService
		s.Require().NoError(s.store.Update(s.ctx, vehicle))

		found, err := s.store.FindByID(s.ctx, vehicle.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusOutOfService, found.Status)
	})
}
