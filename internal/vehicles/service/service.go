package service

import (
	"context"
	"log/slog"

	resmodels "fleetpool/internal/reservations/models"
	vehiclemetrics "fleetpool/internal/vehicles/metrics"
	"fleetpool/internal/vehicles/models"
	id "fleetpool/pkg/domain"
)

// FleetVehicleStore persists company fleet vehicles. Implementations return
// sentinel.ErrNotFound for missing vehicles and sentinel.ErrConflict for
// plate collisions.
type FleetVehicleStore interface {
	Create(ctx context.Context, vehicle *models.FleetVehicle) error
	Update(ctx context.Context, vehicle *models.FleetVehicle) error
	FindByID(ctx context.Context, vehicleID id.VehicleID) (*models.FleetVehicle, error)
	List(ctx context.Context) ([]*models.FleetVehicle, error)
	ListByStatus(ctx context.Context, status models.VehicleStatus) ([]*models.FleetVehicle, error)
	Delete(ctx context.Context, vehicleID id.VehicleID) error
}

// PersonalVehicleStore persists employee-owned vehicles. Implementations
// enforce the one-vehicle-per-owner rule with sentinel.ErrConflict.
type PersonalVehicleStore interface {
	Create(ctx context.Context, vehicle *models.PersonalVehicle) error
	Update(ctx context.Context, vehicle *models.PersonalVehicle) error
	FindByID(ctx context.Context, vehicleID id.VehicleID) (*models.PersonalVehicle, error)
	FindByOwner(ctx context.Context, ownerID id.UserID) (*models.PersonalVehicle, error)
	Delete(ctx context.Context, vehicleID id.VehicleID) error
}

// ReservationReader is the read-only slice of the reservation store this
// vertical needs: availability search and the upcoming-reservation guard on
// vehicle deletion.
type ReservationReader interface {
	ListByVehicle(ctx context.Context, vehicleID id.VehicleID) ([]*resmodels.Reservation, error)
}

// Service manages the vehicle inventory and the availability gate.
type Service struct {
	fleet        FleetVehicleStore
	personal     PersonalVehicleStore
	reservations ReservationReader
	logger       *slog.Logger
	metrics      *vehiclemetrics.Metrics
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *vehiclemetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New constructs a Service.
func New(fleet FleetVehicleStore, personal PersonalVehicleStore, reservations ReservationReader, opts ...Option) *Service {
	s := &Service{
		fleet:        fleet,
		personal:     personal,
		reservations: reservations,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
