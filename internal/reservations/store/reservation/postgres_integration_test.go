//go:build integration

package reservation_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	resmodels "fleetpool/internal/reservations/models"
	"fleetpool/internal/reservations/store/reservation"
	vehmodels "fleetpool/internal/vehicles/models"
	"fleetpool/internal/vehicles/store/fleetvehicle"
	id "fleetpool/pkg/domain"
	"fleetpool/pkg/platform/sentinel"
	"fleetpool/pkg/platform/tx"
	"fleetpool/pkg/testutil/containers"
	"fleetpool/pkg/timeslot"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *reservation.Postgres
	fleet    *fleetvehicle.Postgres
	runner   *tx.SQLRunner

	base    time.Time
	vehicle *vehmodels.FleetVehicle
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = reservation.NewPostgres(s.postgres.DB)
	s.fleet = fleetvehicle.NewPostgres(s.postgres.DB)
	s.runner = tx.NewSQLRunner(s.postgres.DB)
	s.base = time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateTables(ctx,
		"carpool_registrations", "carpool_listings", "reservations", "fleet_vehicles"))

	var err error
	s.vehicle, err = vehmodels.NewFleetVehicle(id.NewVehicleID(), "AB-123-CD", "Renault", "Zoe", 5)
	s.Require().NoError(err)
	s.Require().NoError(s.fleet.Create(ctx, s.vehicle))
}

func (s *PostgresStoreSuite) newReservation(startHour int) *resmodels.Reservation {
	start := s.base.Add(time.Duration(startHour) * time.Hour)
	reservation, err := resmodels.NewReservation(
		id.NewReservationID(), id.NewUserID(), s.vehicle.ID,
		start, start.Add(time.Hour), s.base.Add(-time.Hour))
	s.Require().NoError(err)
	return reservation
}

func (s *PostgresStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	created := s.newReservation(1)
	s.Require().NoError(s.store.Create(ctx, created))

	found, err := s.store.FindByID(ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(created.UserID, found.UserID)
	s.Equal(created.VehicleID, found.VehicleID)
	s.True(found.Start.Equal(created.Start))
	s.True(found.End.Equal(created.End))

	found.End = found.End.Add(time.Hour)
	s.Require().NoError(s.store.Update(ctx, found))
	again, err := s.store.FindByID(ctx, created.ID)
	s.Require().NoError(err)
	s.True(again.End.Equal(found.End))

	s.Require().NoError(s.store.Delete(ctx, created.ID))
	_, err = s.store.FindByID(ctx, created.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestCandidateSets() {
	ctx := context.Background()
	first := s.newReservation(1)
	second := s.newReservation(3)
	s.Require().NoError(s.store.Create(ctx, first))
	s.Require().NoError(s.store.Create(ctx, second))

	byVehicle, err := s.store.ListByVehicle(ctx, s.vehicle.ID)
	s.Require().NoError(err)
	s.Require().Len(byVehicle, 2)
	s.True(byVehicle[0].Start.Before(byVehicle[1].Start), "ordered by start")

	byUser, err := s.store.ListByUser(ctx, first.UserID)
	s.Require().NoError(err)
	s.Require().Len(byUser, 1)
	s.Equal(first.ID, byUser[0].ID)
}

// TestConcurrentBookingSerializes drives two transactions through the same
// read-then-write section; the row locks plus serializable isolation must
// prevent both from committing an overlapping pair.
func (s *PostgresStoreSuite) TestConcurrentBookingSerializes() {
	ctx := context.Background()
	window := timeslot.New(s.base.Add(time.Hour), s.base.Add(2*time.Hour))

	book := func() error {
		return s.runner.RunInTx(ctx, func(ctx context.Context) error {
			existing, err := s.store.ListByVehicle(ctx, s.vehicle.ID)
			if err != nil {
				return err
			}
			for _, r := range existing {
				if window.Overlaps(r.Window()) {
					return sentinel.ErrConflict
				}
			}
			candidate, err := resmodels.NewReservation(
				id.NewReservationID(), id.NewUserID(), s.vehicle.ID,
				window.Start, window.End, s.base.Add(-time.Hour))
			if err != nil {
				return err
			}
			return s.store.Create(ctx, candidate)
		})
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = book()
		}(i)
	}
	wg.Wait()

	stored, err := s.store.ListByVehicle(ctx, s.vehicle.ID)
	s.Require().NoError(err)
	s.Len(stored, 1, "exactly one booking must commit")
	s.True((errs[0] == nil) != (errs[1] == nil), "exactly one of the two bookings succeeds")
}
