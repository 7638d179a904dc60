package personalvehicle

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

// Postgres is the production personal vehicle store.
//
// Expected schema:
//
//	CREATE TABLE personal_vehicles (
//	    id            UUID PRIMARY KEY,
//	    owner_id      UUID NOT NULL UNIQUE REFERENCES users (id),
//	    plate         TEXT NOT NULL,
//	    make          TEXT NOT NULL DEFAULT '',
//	    model         TEXT NOT NULL DEFAULT '',
//	    seats         INT  NOT NULL CHECK (seats >= 1),
//	    co2_g_per_km  INT,
//	    motorization  TEXT NOT NULL DEFAULT '',
//	    category      TEXT NOT NULL DEFAULT ''
//	);
//
// The UNIQUE on owner_id is the one-personal-vehicle-per-user invariant.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
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

const personalVehicleColumns = "id, owner_id, plate, make, model, seats, co2_g_per_km, motorization, category"

func (s *Postgres) Create(ctx context.Context, vehicle *models.PersonalVehicle) error {
	query := `
		INSERT INTO personal_vehicles (` + personalVehicleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(vehicle.ID), uuid.UUID(vehicle.OwnerID), vehicle.Plate, vehicle.Make,
		vehicle.Model, vehicle.Seats, vehicle.CO2GPerKm,
		string(vehicle.Motorization), string(vehicle.Category),
	)
	if isUniqueViolation(err) {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert personal vehicle: %w", err)
	}
	return nil
}

func (s *Postgres) Update(ctx context.Context, vehicle *models.PersonalVehicle) error {
	query := `
		UPDATE personal_vehicles
		SET plate = $2, make = $3, model = $4, seats = $5, co2_g_per_km = $6,
		    motorization = $7, category = $8
		WHERE id = $1
	`
	result, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(vehicle.ID), vehicle.Plate, vehicle.Make, vehicle.Model, vehicle.Seats,
		vehicle.CO2GPerKm, string(vehicle.Motorization), string(vehicle.Category),
	)
	if err != nil {
		return fmt.Errorf("update personal vehicle: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update personal vehicle: rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, vehicleID id.VehicleID) (*models.PersonalVehicle, error) {
	query := `SELECT ` + personalVehicleColumns + ` FROM personal_vehicles WHERE id = $1`
	return scanPersonalVehicle(s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(vehicleID)))
}

func (s *Postgres) FindByOwner(ctx context.Context, ownerID id.UserID) (*models.PersonalVehicle, error) {
	query := `SELECT ` + personalVehicleColumns + ` FROM personal_vehicles WHERE owner_id = $1`
	return scanPersonalVehicle(s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(ownerID)))
}

func (s *Postgres) Delete(ctx context.Context, vehicleID id.VehicleID) error {
	result, err := s.execer(ctx).ExecContext(ctx, `DELETE FROM personal_vehicles WHERE id = $1`, uuid.UUID(vehicleID))
	if err != nil {
		return fmt.Errorf("delete personal vehicle: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete personal vehicle: rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func scanPersonalVehicle(row *sql.Row) (*models.PersonalVehicle, error) {
	var (
		vehicle      models.PersonalVehicle
		rawID        uuid.UUID
		rawOwner     uuid.UUID
		motorization string
		category     string
	)
	err := row.Scan(&rawID, &rawOwner, &vehicle.Plate, &vehicle.Make, &vehicle.Model,
		&vehicle.Seats, &vehicle.CO2GPerKm, &motorization, &category)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan personal vehicle: %w", err)
	}
	vehicle.ID = id.VehicleID(rawID)
	vehicle.OwnerID = id.UserID(rawOwner)
	vehicle.Motorization = models.Motorization(motorization)
	vehicle.Category = models.Category(category)
	return &vehicle, nil
}
