package reservation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"fleetpool/internal/reservations/models"
	id "fleetpool/pkg/domain"
	"fleetpool/pkg/platform/sentinel"
	txcontext "fleetpool/pkg/platform/tx"
)

// Postgres is the production reservation store.
//
// Expected schema:
//
//	CREATE TABLE reservations (
//	    id         UUID PRIMARY KEY,
//	    user_id    UUID NOT NULL,
//	    vehicle_id UUID NOT NULL REFERENCES fleet_vehicles (id),
//	    start_at   TIMESTAMPTZ NOT NULL,
//	    end_at     TIMESTAMPTZ NOT NULL CHECK (start_at < end_at),
//	    created_at TIMESTAMPTZ NOT NULL,
//	    updated_at TIMESTAMPTZ NOT NULL
//	);
//	CREATE INDEX reservations_vehicle_idx ON reservations (vehicle_id);
//	CREATE INDEX reservations_user_idx ON reservations (user_id);
//
// Inside a transaction the list queries lock their candidate rows with
// FOR UPDATE so two concurrent bookings on the same vehicle (or by the same
// user) cannot both pass the overlap check.
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

const reservationColumns = "id, user_id, vehicle_id, start_at, end_at, created_at, updated_at"

func (s *Postgres) Create(ctx context.Context, reservation *models.Reservation) error {
	query := `
		INSERT INTO reservations (` + reservationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	exec, _ := s.execer(ctx)
	_, err := exec.ExecContext(ctx, query,
		uuid.UUID(reservation.ID), uuid.UUID(reservation.UserID), uuid.UUID(reservation.VehicleID),
		reservation.Start, reservation.End, reservation.CreatedAt, reservation.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert reservation: %w", err)
	}
	return nil
}

func (s *Postgres) Update(ctx context.Context, reservation *models.Reservation) error {
	query := `
		UPDATE reservations
		SET user_id = $2, vehicle_id = $3, start_at = $4, end_at = $5, updated_at = $6
		WHERE id = $1
	`
	exec, _ := s.execer(ctx)
	result, err := exec.ExecContext(ctx, query,
		uuid.UUID(reservation.ID), uuid.UUID(reservation.UserID), uuid.UUID(reservation.VehicleID),
		reservation.Start, reservation.End, reservation.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update reservation: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update reservation: rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, reservationID id.ReservationID) (*models.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`
	exec, inTx := s.execer(ctx)
	if inTx {
		query += ` FOR UPDATE`
	}
	row := exec.QueryRowContext(ctx, query, uuid.UUID(reservationID))
	return scanReservation(row)
}

func (s *Postgres) ListByUser(ctx context.Context, userID id.UserID) ([]*models.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE user_id = $1 ORDER BY start_at`
	return s.queryMany(ctx, query, uuid.UUID(userID))
}

func (s *Postgres) ListByVehicle(ctx context.Context, vehicleID id.VehicleID) ([]*models.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE vehicle_id = $1 ORDER BY start_at`
	return s.queryMany(ctx, query, uuid.UUID(vehicleID))
}

func (s *Postgres) Delete(ctx context.Context, reservationID id.ReservationID) error {
	exec, _ := s.execer(ctx)
	result, err := exec.ExecContext(ctx, `DELETE FROM reservations WHERE id = $1`, uuid.UUID(reservationID))
	if err != nil {
		return fmt.Errorf("delete reservation: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete reservation: rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) queryMany(ctx context.Context, query string, args ...any) ([]*models.Reservation, error) {
	exec, inTx := s.execer(ctx)
	if inTx {
		query += ` FOR UPDATE`
	}
	rows, err := exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query reservations: %w", err)
	}
	defer rows.Close()

	var out []*models.Reservation
	for rows.Next() {
		reservation, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, reservation)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(row rowScanner) (*models.Reservation, error) {
	var (
		reservation models.Reservation
		rawID       uuid.UUID
		rawUser     uuid.UUID
		rawVehicle  uuid.UUID
	)
	err := row.Scan(&rawID, &rawUser, &rawVehicle,
		&reservation.Start, &reservation.End, &reservation.CreatedAt, &reservation.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan reservation: %w", err)
	}
	reservation.ID = id.ReservationID(rawID)
	reservation.UserID = id.UserID(rawUser)
	reservation.VehicleID = id.VehicleID(rawVehicle)
	return &reservation, nil
}
