package fleetvehicle

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"fleetpool/internal/vehicles/models"
	id "fleetpool/pkg/domain"
	"fleetpool/pkg/platform/sentinel"
	txcontext "fleetpool/pkg/platform/tx"
)

// Postgres is the production fleet vehicle store.
//
// Expected schema:
//
//	CREATE TABLE fleet_vehicles (
//	    id            UUID PRIMARY KEY,
//	    plate         TEXT NOT NULL,
//	    make          TEXT NOT NULL DEFAULT '',
//	    model         TEXT NOT NULL DEFAULT '',
//	    seats         INT  NOT NULL CHECK (seats >= 1),
//	    co2_g_per_km  INT,
//	    motorization  TEXT NOT NULL DEFAULT '',
//	    category      TEXT NOT NULL DEFAULT '',
//	    photo_url     TEXT NOT NULL DEFAULT '',
//	    status        TEXT NOT NULL
//	);
//	CREATE UNIQUE INDEX fleet_vehicles_plate_idx ON fleet_vehicles (lower(plate));
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

func (s *Postgres) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

const fleetVehicleColumns = "id, plate, make, model, seats, co2_g_per_km, motorization, category, photo_url, status"

func (s *Postgres) Create(ctx context.Context, vehicle *models.FleetVehicle) error {
	query := `
		INSERT INTO fleet_vehicles (` + fleetVehicleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(vehicle.ID), vehicle.Plate, vehicle.Make, vehicle.Model, vehicle.Seats,
		vehicle.CO2GPerKm, string(vehicle.Motorization), string(vehicle.Category),
		vehicle.PhotoURL, string(vehicle.Status),
	)
	if isUniqueViolation(err) {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert fleet vehicle: %w", err)
	}
	return nil
}

func (s *Postgres) Update(ctx context.Context, vehicle *models.FleetVehicle) error {
	query := `
		UPDATE fleet_vehicles
		SET plate = $2, make = $3, model = $4, seats = $5, co2_g_per_km = $6,
		    motorization = $7, category = $8, photo_url = $9, status = $10
		WHERE id = $1
	`
	result, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(vehicle.ID), vehicle.Plate, vehicle.Make, vehicle.Model, vehicle.Seats,
		vehicle.CO2GPerKm, string(vehicle.Motorization), string(vehicle.Category),
		vehicle.PhotoURL, string(vehicle.Status),
	)
	if isUniqueViolation(err) {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("update fleet vehicle: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update fleet vehicle: rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, vehicleID id.VehicleID) (*models.FleetVehicle, error) {
	query := `SELECT ` + fleetVehicleColumns + ` FROM fleet_vehicles WHERE id = $1`
	row := s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(vehicleID))
	return scanFleetVehicle(row)
}

func (s *Postgres) List(ctx context.Context) ([]*models.FleetVehicle, error) {
	query := `SELECT ` + fleetVehicleColumns + ` FROM fleet_vehicles ORDER BY plate`
	return s.queryMany(ctx, query)
}

func (s *Postgres) ListByStatus(ctx context.Context, status models.VehicleStatus) ([]*models.FleetVehicle, error) {
	query := `SELECT ` + fleetVehicleColumns + ` FROM fleet_vehicles WHERE status = $1 ORDER BY plate`
	return s.queryMany(ctx, query, string(status))
}

func (s *Postgres) Delete(ctx context.Context, vehicleID id.VehicleID) error {
	result, err := s.execer(ctx).ExecContext(ctx, `DELETE FROM fleet_vehicles WHERE id = $1`, uuid.UUID(vehicleID))
	if err != nil {
		return fmt.Errorf("delete fleet vehicle: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete fleet vehicle: rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) queryMany(ctx context.Context, query string, args ...any) ([]*models.FleetVehicle, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query fleet vehicles: %w", err)
	}
	defer rows.Close()

	var out []*models.FleetVehicle
	for rows.Next() {
		vehicle, err := scanFleetVehicle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, vehicle)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFleetVehicle(row rowScanner) (*models.FleetVehicle, error) {
	var (
		vehicle      models.FleetVehicle
		rawID        uuid.UUID
		motorization string
		category     string
		status       string
	)
	err := row.Scan(&rawID, &vehicle.Plate, &vehicle.Make, &vehicle.Model, &vehicle.Seats,
		&vehicle.CO2GPerKm, &motorization, &category, &vehicle.PhotoURL, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan fleet vehicle: %w", err)
	}
	vehicle.ID = id.VehicleID(rawID)
	vehicle.Motorization = models.Motorization(motorization)
	vehicle.Category = models.Category(category)
	vehicle.Status = models.VehicleStatus(status)
	return &vehicle, nil
}
