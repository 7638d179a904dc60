package listing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"fleetpool/internal/carpool/models"
	id "fleetpool/pkg/domain"
	"fleetpool/pkg/platform/sentinel"
	txcontext "fleetpool/pkg/platform/tx"
)

// Postgres is the production listing store.
//
// Expected schema:
//
//	CREATE TABLE carpool_listings (
//	    id                   UUID PRIMARY KEY,
//	    organizer_id         UUID NOT NULL,
//	    departure            TIMESTAMPTZ NOT NULL,
//	    duration_minutes     INT NOT NULL,
//	    distance_km          INT NOT NULL,
//	    dep_number           TEXT NOT NULL DEFAULT '',
//	    dep_street           TEXT NOT NULL DEFAULT '',
//	    dep_postal_code      TEXT NOT NULL DEFAULT '',
//	    dep_city             TEXT NOT NULL DEFAULT '',
//	    arr_number           TEXT NOT NULL DEFAULT '',
//	    arr_street           TEXT NOT NULL DEFAULT '',
//	    arr_postal_code      TEXT NOT NULL DEFAULT '',
//	    arr_city             TEXT NOT NULL DEFAULT '',
//	    fleet_vehicle_id     UUID REFERENCES fleet_vehicles (id),
//	    created_at           TIMESTAMPTZ NOT NULL,
//	    updated_at           TIMESTAMPTZ NOT NULL
//	);
//	CREATE INDEX carpool_listings_vehicle_idx ON carpool_listings (fleet_vehicle_id);
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Postgres) execer(ctx context.Context) (dbExecutor, bool) {
	if tx, ok := txcontext.From(ctx); ok {
		return tx, true
	}
	return s.db, false
}

const listingColumns = `id, organizer_id, departure, duration_minutes, distance_km,
	dep_number, dep_street, dep_postal_code, dep_city,
	arr_number, arr_street, arr_postal_code, arr_city,
	fleet_vehicle_id, created_at, updated_at`

func (s *Postgres) Create(ctx context.Context, listing *models.Listing) error {
	query := `
		INSERT INTO carpool_listings (` + listingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	exec, _ := s.execer(ctx)
	_, err := exec.ExecContext(ctx, query,
		uuid.UUID(listing.ID), uuid.UUID(listing.OrganizerID),
		listing.Departure, listing.DurationMinutes, listing.DistanceKm,
		listing.DepartureAddress.Number, listing.DepartureAddress.Street,
		listing.DepartureAddress.PostalCode, listing.DepartureAddress.City,
		listing.ArrivalAddress.Number, listing.ArrivalAddress.Street,
		listing.ArrivalAddress.PostalCode, listing.ArrivalAddress.City,
		nullableVehicleID(listing.FleetVehicleID), listing.CreatedAt, listing.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert listing: %w", err)
	}
	return nil
}

func (s *Postgres) Update(ctx context.Context, listing *models.Listing) error {
	query := `
		UPDATE carpool_listings
		SET departure = $2, duration_minutes = $3, distance_km = $4,
		    dep_number = $5, dep_street = $6, dep_postal_code = $7, dep_city = $8,
		    arr_number = $9, arr_street = $10, arr_postal_code = $11, arr_city = $12,
		    fleet_vehicle_id = $13, updated_at = $14
		WHERE id = $1
	`
	exec, _ := s.execer(ctx)
	result, err := exec.ExecContext(ctx, query,
		uuid.UUID(listing.ID),
		listing.Departure, listing.DurationMinutes, listing.DistanceKm,
		listing.DepartureAddress.Number, listing.DepartureAddress.Street,
		listing.DepartureAddress.PostalCode, listing.DepartureAddress.City,
		listing.ArrivalAddress.Number, listing.ArrivalAddress.Street,
		listing.ArrivalAddress.PostalCode, listing.ArrivalAddress.City,
		nullableVehicleID(listing.FleetVehicleID), listing.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update listing: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update listing: rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, listingID id.ListingID) (*models.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM carpool_listings WHERE id = $1`
	exec, inTx := s.execer(ctx)
	if inTx {
		query += ` FOR UPDATE`
	}
	row := exec.QueryRowContext(ctx, query, uuid.UUID(listingID))
	return scanListing(row)
}

func (s *Postgres) List(ctx context.Context) ([]*models.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM carpool_listings ORDER BY departure`
	return s.queryMany(ctx, query)
}

func (s *Postgres) ListByVehicle(ctx context.Context, vehicleID id.VehicleID) ([]*models.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM carpool_listings WHERE fleet_vehicle_id = $1 ORDER BY departure`
	return s.queryMany(ctx, query, uuid.UUID(vehicleID))
}

func (s *Postgres) Delete(ctx context.Context, listingID id.ListingID) error {
	exec, _ := s.execer(ctx)
	result, err := exec.ExecContext(ctx, `DELETE FROM carpool_listings WHERE id = $1`, uuid.UUID(listingID))
	if err != nil {
		return fmt.Errorf("delete listing: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete listing: rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) queryMany(ctx context.Context, query string, args ...any) ([]*models.Listing, error) {
	exec, _ := s.execer(ctx)
	rows, err := exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query listings: %w", err)
	}
	defer rows.Close()

	var out []*models.Listing
	for rows.Next() {
		listing, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, listing)
	}
	return out, rows.Err()
}

func nullableVehicleID(vehicleID *id.VehicleID) any {
	if vehicleID == nil {
		return nil
	}
	return uuid.UUID(*vehicleID)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanListing(row rowScanner) (*models.Listing, error) {
	var (
		listing    models.Listing
		rawID      uuid.UUID
		rawOwner   uuid.UUID
		rawVehicle uuid.NullUUID
	)
	err := row.Scan(&rawID, &rawOwner,
		&listing.Departure, &listing.DurationMinutes, &listing.DistanceKm,
		&listing.DepartureAddress.Number, &listing.DepartureAddress.Street,
		&listing.DepartureAddress.PostalCode, &listing.DepartureAddress.City,
		&listing.ArrivalAddress.Number, &listing.ArrivalAddress.Street,
		&listing.ArrivalAddress.PostalCode, &listing.ArrivalAddress.City,
		&rawVehicle, &listing.CreatedAt, &listing.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan listing: %w", err)
	}
	listing.ID = id.ListingID(rawID)
	listing.OrganizerID = id.UserID(rawOwner)
	if rawVehicle.Valid {
		vehicleID := id.VehicleID(rawVehicle.UUID)
		listing.FleetVehicleID = &vehicleID
	}
	return &listing, nil
}
