package reservation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"fleetpool/internal/reservations/models"
	id "fleetpool/pkg/domain"
	"fleetpool/pkg/platform/sentinel"
)

type ReservationStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
	base  time.Time
}

func (s *ReservationStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
	s.base = time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)
}

func TestReservationStoreSuite(t *testing.T) {
	suite.Run(t, new(ReservationStoreSuite))
}

func (s *ReservationStoreSuite) newReservation(user id.UserID, vehicle id.VehicleID, startHour int) *models.Reservation {
	start := s.base.Add(time.Duration(startHour) * time.Hour)
	reservation, err := models.NewReservation(id.NewReservationID(), user, vehicle, start, start.Add(time.Hour), s.base.Add(-time.Hour))
	s.Require().NoError(err)
	return reservation
}

// TestCreationAndLookups verifies create/find round trips and sentinels.
func (s *ReservationStoreSuite) TestCreationAndLookups() {
	s.Run("creates and finds by ID", func() {
		reservation := s.newReservation(id.NewUserID(), id.NewVehicleID(), 1)
		s.Require().NoError(s.store.Create(s.ctx, reservation))

		found, err := s.store.FindByID(s.ctx, reservation.ID)
		s.Require().NoError(err)
		s.True(found.Start.Equal(reservation.Start))
	})

	s.Run("returns ErrNotFound for unknown ID", func() {
		_, err := s.store.FindByID(s.ctx, id.NewReservationID())
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("duplicate ID conflicts", func() {
		reservation := s.newReservation(id.NewUserID(), id.NewVehicleID(), 2)
		s.Require().NoError(s.store.Create(s.ctx, reservation))
		s.ErrorIs(s.store.Create(s.ctx, reservation), sentinel.ErrConflict)
	})
}

// TestCandidateSets verifies the per-user and per-vehicle listings the
// overlap checks read.
func (s *ReservationStoreSuite) TestCandidateSets() {
	user := id.NewUserID()
	vehicle := id.NewVehicleID()

	mine := s.newReservation(user, vehicle, 1)
	sameVehicle := s.newReservation(id.NewUserID(), vehicle, 3)
	unrelated := s.newReservation(id.NewUserID(), id.NewVehicleID(), 5)
	for _, r := range []*models.Reservation{mine, sameVehicle, unrelated} {
		s.Require().NoError(s.store.Create(s.ctx, r))
	}

	byVehicle, err := s.store.ListByVehicle(s.ctx, vehicle)
	s.Require().NoError(err)
	s.Len(byVehicle, 2)

	byUser, err := s.store.ListByUser(s.ctx, user)
	s.Require().NoError(err)
	s.Require().Len(byUser, 1)
	s.Equal(mine.ID, byUser[0].ID)
}

// TestMutations verifies update and delete paths.
func (s *ReservationStoreSuite) TestMutations() {
	s.Run("update persists the new window", func() {
		reservation := s.newReservation(id.NewUserID(), id.NewVehicleID(), 1)
		s.Require().NoError(s.store.Create(s.ctx, reservation))

		reservation.End = reservation.End.Add(time.Hour)
		s.Require().NoError(s.store.Update(s.ctx, reservation))

		found, err := s.store.FindByID(s.ctx, reservation.ID)
		s.Require().NoError(err)
		s.True(found.End.Equal(reservation.End))
	})

	s.Run("update of unknown reservation is not found", func() {
		s.ErrorIs(s.store.Update(s.ctx, s.newReservation(id.NewUserID(), id.NewVehicleID(), 2)), sentinel.ErrNotFound)
	})

	s.Run("delete removes exactly once", func() {
		reservation := s.newReservation(id.NewUserID(), id.NewVehicleID(), 4)
		s.Require().NoError(s.store.Create(s.ctx, reservation))
		s.Require().NoError(s.store.Delete(s.ctx, reservation.ID))
		s.ErrorIs(s.store.Delete(s.ctx, reservation.ID), sentinel.ErrNotFound)
	})
}
