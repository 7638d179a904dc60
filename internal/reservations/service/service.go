package service

import (
	"context"
	"log/slog"

	carpoolmodels "fleetpool/internal/carpool/models"
	resmetrics "fleetpool/internal/reservations/metrics"
	"fleetpool/internal/reservations/models"
	vehmodels "fleetpool/internal/vehicles/models"
	id "fleetpool/pkg/domain"
	"fleetpool/pkg/platform/tx"
	"fleetpool/pkg/timeslot"
)

// ReservationStore persists fleet reservations. Implementations return
// sentinel.ErrNotFound for missing reservations. List methods are the
// candidate sets for the overlap checks; inside a transaction they must
// lock the rows they return so concurrent bookings on the same vehicle or
// user serialize.
type ReservationStore interface {
	Create(ctx context.Context, reservation *models.Reservation) error
	Update(ctx context.Context, reservation *models.Reservation) error
	FindByID(ctx context.Context, reservationID id.ReservationID) (*models.Reservation, error)
	ListByUser(ctx context.Context, userID id.UserID) ([]*models.Reservation, error)
	ListByVehicle(ctx context.Context, vehicleID id.VehicleID) ([]*models.Reservation, error)
	Delete(ctx context.Context, reservationID id.ReservationID) error
}

// FleetVehicleReader resolves the fleet vehicle a booking targets; the
// lifecycle gate runs against the returned vehicle.
type FleetVehicleReader interface {
	FindByID(ctx context.Context, vehicleID id.VehicleID) (*vehmodels.FleetVehicle, error)
}

// CarpoolConflictFinder is the cross-domain hook consulted before a
// reservation is deleted: listings backed by the vehicle whose derived
// window overlaps the reservation's block the deletion.
type CarpoolConflictFinder interface {
	FindConflictingListings(ctx context.Context, vehicleID id.VehicleID, window timeslot.Window) ([]*carpoolmodels.Listing, error)
}

// Service manages fleet reservations and their consistency invariants.
type Service struct {
	store    ReservationStore
	vehicles FleetVehicleReader
	carpool  CarpoolConflictFinder
	tx       tx.Runner
	logger   *slog.Logger
	metrics  *resmetrics.Metrics
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *resmetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithTxRunner sets the transaction boundary for the read-then-write
// booking sections. Defaults to a passthrough, which is only safe under
// a single goroutine; concurrent callers need a SQLRunner or MutexRunner.
func WithTxRunner(runner tx.Runner) Option {
	return func(s *Service) {
		s.tx = runner
	}
}

// New constructs a Service.
func New(store ReservationStore, vehicles FleetVehicleReader, carpool CarpoolConflictFinder, opts ...Option) *Service {
	s := &Service{
		store:    store,
		vehicles: vehicles,
		carpool:  carpool,
		tx:       tx.PassthroughRunner{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) incConflict(reason string) {
	if s.metrics != nil {
		s.metrics.IncConflict(reason)
	}
}
