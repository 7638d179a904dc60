package service

import (
	"context"
	"log/slog"

	carpoolmetrics "fleetpool/internal/carpool/metrics"
	"fleetpool/internal/carpool/models"
	vehmodels "fleetpool/internal/vehicles/models"
	id "fleetpool/pkg/domain"
	"fleetpool/pkg/platform/tx"
)

// ListingStore persists carpool listings. Implementations return
// sentinel.ErrNotFound for missing listings.
type ListingStore interface {
	Create(ctx context.Context, listing *models.Listing) error
	Update(ctx context.Context, listing *models.Listing) error
	FindByID(ctx context.Context, listingID id.ListingID) (*models.Listing, error)
	List(ctx context.Context) ([]*models.Listing, error)
	ListByVehicle(ctx context.Context, vehicleID id.VehicleID) ([]*models.Listing, error)
	Delete(ctx context.Context, listingID id.ListingID) error
}

// RegistrationStore persists passenger registrations. Implementations
// enforce (listing, passenger) uniqueness with sentinel.ErrConflict and,
// inside a transaction, lock the per-listing rows they count so the seat
// capacity check stays true until commit.
type RegistrationStore interface {
	Create(ctx context.Context, registration *models.Registration) error
	FindByListingAndPassenger(ctx context.Context, listingID id.ListingID, passengerID id.UserID) (*models.Registration, error)
	ListByListing(ctx context.Context, listingID id.ListingID) ([]*models.Registration, error)
	ListByPassenger(ctx context.Context, passengerID id.UserID) ([]*models.Registration, error)
	CountByListing(ctx context.Context, listingID id.ListingID) (int, error)
	Delete(ctx context.Context, registrationID id.RegistrationID) error
	DeleteByListing(ctx context.Context, listingID id.ListingID) error
}

// FleetVehicleReader resolves the fleet vehicle backing a listing.
type FleetVehicleReader interface {
	FindByID(ctx context.Context, vehicleID id.VehicleID) (*vehmodels.FleetVehicle, error)
}

// PersonalVehicleReader resolves the organizer's personal vehicle when no
// fleet vehicle backs the trip.
type PersonalVehicleReader interface {
	FindByOwner(ctx context.Context, ownerID id.UserID) (*vehmodels.PersonalVehicle, error)
}

// Route is the enrichment result for a trip between two addresses.
type Route struct {
	DistanceKm      int
	DurationMinutes int
}

// RoutePlanner computes distance and duration between two addresses.
// Implementations return sentinel.ErrUnavailable when the upstream
// geocoding or routing call fails.
type RoutePlanner interface {
	ComputeRoute(ctx context.Context, origin, destination models.Address) (Route, error)
}

// Notifier informs a passenger that a listing they were registered on was
// cancelled. Failures are logged, never surfaced: notification must not
// block or undo the deletion.
type Notifier interface {
	ListingCancelled(ctx context.Context, passengerID id.UserID, listing *models.Listing) error
}

// Service manages carpool listings, the seat ledger, and the cross-domain
// conflict detector consumed by the reservations module.
type Service struct {
	listings      ListingStore
	registrations RegistrationStore
	fleet         FleetVehicleReader
	personal      PersonalVehicleReader
	route         RoutePlanner
	notifier      Notifier
	tx            tx.Runner
	logger        *slog.Logger
	metrics       *carpoolmetrics.Metrics
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *carpoolmetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithTxRunner sets the transaction boundary for the seat booking and
// listing mutation sections. Defaults to a passthrough, which is only safe
// under a single goroutine; concurrent callers need a SQLRunner or
// MutexRunner.
func WithTxRunner(runner tx.Runner) Option {
	return func(s *Service) {
		s.tx = runner
	}
}

// New constructs a Service.
func New(listings ListingStore, registrations RegistrationStore, fleet FleetVehicleReader, personal PersonalVehicleReader, route RoutePlanner, notifier Notifier, opts ...Option) *Service {
	s := &Service{
		listings:      listings,
		registrations: registrations,
		fleet:         fleet,
		personal:      personal,
		route:         route,
		notifier:      notifier,
		tx:            tx.PassthroughRunner{},
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
