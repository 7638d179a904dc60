package registration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"fleetpool/internal/carpool/models"
	id "fleetpool/pkg/domain"
	"fleetpool/pkg/platform/sentinel"
	txcontext "fleetpool/pkg/platform/tx"
)

// Postgres is the production registration store.
//
// Expected schema:
//
//	CREATE TABLE carpool_registrations (
//	    id           UUID PRIMARY KEY,
//	    listing_id   UUID NOT NULL REFERENCES carpool_listings (id),
//	    passenger_id UUID NOT NULL,
//	    created_at   TIMESTAMPTZ NOT NULL,
//	    UNIQUE (listing_id, passenger_id)
//	);
//
// Inside a transaction the per-listing reads lock their rows so the seat
// capacity check and the insert are atomic against concurrent bookings.
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

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

const registrationColumns = "id, listing_id, passenger_id, created_at"

func (s *Postgres) Create(ctx context.Context, registration *models.Registration) error {
	query := `
		INSERT INTO carpool_registrations (` + registrationColumns + `)
		VALUES ($1, $2, $3, $4)
	`
	exec, _ := s.execer(ctx)
	_, err := exec.ExecContext(ctx, query,
		uuid.UUID(registration.ID), uuid.UUID(registration.ListingID),
		uuid.UUID(registration.PassengerID), registration.CreatedAt,
	)
	if isUniqueViolation(err) {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert registration: %w", err)
	}
	return nil
}

func (s *Postgres) FindByListingAndPassenger(ctx context.Context, listingID id.ListingID, passengerID id.UserID) (*models.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM carpool_registrations WHERE listing_id = $1 AND passenger_id = $2`
	exec, inTx := s.execer(ctx)
	if inTx {
		query += ` FOR UPDATE`
	}
	row := exec.QueryRowContext(ctx, query, uuid.UUID(listingID), uuid.UUID(passengerID))
	return scanRegistration(row)
}

func (s *Postgres) ListByListing(ctx context.Context, listingID id.ListingID) ([]*models.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM carpool_registrations WHERE listing_id = $1 ORDER BY created_at`
	return s.queryMany(ctx, query, uuid.UUID(listingID))
}

func (s *Postgres) ListByPassenger(ctx context.Context, passengerID id.UserID) ([]*models.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM carpool_registrations WHERE passenger_id = $1 ORDER BY created_at`
	return s.queryMany(ctx, query, uuid.UUID(passengerID))
}

func (s *Postgres) CountByListing(ctx context.Context, listingID id.ListingID) (int, error) {
	exec, inTx := s.execer(ctx)
	if inTx {
		// Lock the listing's registrations so the count stays true until
		// the transaction commits.
		rows, err := exec.QueryContext(ctx,
			`SELECT id FROM carpool_registrations WHERE listing_id = $1 FOR UPDATE`, uuid.UUID(listingID))
		if err != nil {
			return 0, fmt.Errorf("lock registrations: %w", err)
		}
		count := 0
		for rows.Next() {
			count++
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return 0, fmt.Errorf("lock registrations: %w", err)
		}
		rows.Close()
		return count, nil
	}

	var count int
	err := exec.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM carpool_registrations WHERE listing_id = $1`, uuid.UUID(listingID)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count registrations: %w", err)
	}
	return count, nil
}

func (s *Postgres) Delete(ctx context.Context, registrationID id.RegistrationID) error {
	exec, _ := s.execer(ctx)
	result, err := exec.ExecContext(ctx, `DELETE FROM carpool_registrations WHERE id = $1`, uuid.UUID(registrationID))
	if err != nil {
		return fmt.Errorf("delete registration: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete registration: rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) DeleteByListing(ctx context.Context, listingID id.ListingID) error {
	exec, _ := s.execer(ctx)
	_, err := exec.ExecContext(ctx, `DELETE FROM carpool_registrations WHERE listing_id = $1`, uuid.UUID(listingID))
	if err != nil {
		return fmt.Errorf("delete listing registrations: %w", err)
	}
	return nil
}

func (s *Postgres) queryMany(ctx context.Context, query string, args ...any) ([]*models.Registration, error) {
	exec, _ := s.execer(ctx)
	rows, err := exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query registrations: %w", err)
	}
	defer rows.Close()

	var out []*models.Registration
	for rows.Next() {
		registration, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, registration)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRegistration(row rowScanner) (*models.Registration, error) {
	var (
		registration models.Registration
		rawID        uuid.UUID
		rawListing   uuid.UUID
		rawPassenger uuid.UUID
	)
	err := row.Scan(&rawID, &rawListing, &rawPassenger, &registration.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan registration: %w", err)
	}
	registration.ID = id.RegistrationID(rawID)
	registration.ListingID = id.ListingID(rawListing)
	registration.PassengerID = id.UserID(rawPassenger)
	return &registration, nil
}
