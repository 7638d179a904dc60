//go:build integration

package containers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// schema is the booking schema the Postgres stores expect.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            UUID PRIMARY KEY,
    email         TEXT NOT NULL,
    first_name    TEXT NOT NULL DEFAULT '',
    last_name     TEXT NOT NULL DEFAULT '',
    password_hash TEXT NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL,
    updated_at    TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS users_email_idx ON users (lower(email));

CREATE TABLE IF NOT EXISTS fleet_vehicles (
    id            UUID PRIMARY KEY,
    plate         TEXT NOT NULL,
    make          TEXT NOT NULL DEFAULT '',
    model         TEXT NOT NULL DEFAULT '',
    seats         INT  NOT NULL CHECK (seats >= 1),
    co2_g_per_km  INT,
    motorization  TEXT NOT NULL DEFAULT '',
    category      TEXT NOT NULL DEFAULT '',
    photo_url     TEXT NOT NULL DEFAULT '',
    status        TEXT NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS fleet_vehicles_plate_idx ON fleet_vehicles (lower(plate));

CREATE TABLE IF NOT EXISTS personal_vehicles (
    id            UUID PRIMARY KEY,
    owner_id      UUID NOT NULL UNIQUE,
    plate         TEXT NOT NULL,
    make          TEXT NOT NULL DEFAULT '',
    model         TEXT NOT NULL DEFAULT '',
    seats         INT  NOT NULL CHECK (seats >= 1),
    co2_g_per_km  INT,
    motorization  TEXT NOT NULL DEFAULT '',
    category      TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS reservations (
    id         UUID PRIMARY KEY,
    user_id    UUID NOT NULL,
    vehicle_id UUID NOT NULL REFERENCES fleet_vehicles (id),
    start_at   TIMESTAMPTZ NOT NULL,
    end_at     TIMESTAMPTZ NOT NULL CHECK (start_at < end_at),
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS reservations_vehicle_idx ON reservations (vehicle_id);
CREATE INDEX IF NOT EXISTS reservations_user_idx ON reservations (user_id);

CREATE TABLE IF NOT EXISTS carpool_listings (
    id               UUID PRIMARY KEY,
    organizer_id     UUID NOT NULL,
    departure        TIMESTAMPTZ NOT NULL,
    duration_minutes INT NOT NULL,
    distance_km      INT NOT NULL,
    dep_number       TEXT NOT NULL DEFAULT '',
    dep_street       TEXT NOT NULL DEFAULT '',
    dep_postal_code  TEXT NOT NULL DEFAULT '',
    dep_city         TEXT NOT NULL DEFAULT '',
    arr_number       TEXT NOT NULL DEFAULT '',
    arr_street       TEXT NOT NULL DEFAULT '',
    arr_postal_code  TEXT NOT NULL DEFAULT '',
    arr_city         TEXT NOT NULL DEFAULT '',
    fleet_vehicle_id UUID REFERENCES fleet_vehicles (id),
    created_at       TIMESTAMPTZ NOT NULL,
    updated_at       TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS carpool_listings_vehicle_idx ON carpool_listings (fleet_vehicle_id);

CREATE TABLE IF NOT EXISTS carpool_registrations (
    id           UUID PRIMARY KEY,
    listing_id   UUID NOT NULL REFERENCES carpool_listings (id),
    passenger_id UUID NOT NULL,
    created_at   TIMESTAMPTZ NOT NULL,
    UNIQUE (listing_id, passenger_id)
);
`

// PostgresContainer wraps a testcontainers Postgres instance with the
// schema applied.
type PostgresContainer struct {
	Container testcontainers.Container
	DSN       string
	DB        *sql.DB
}

// NewPostgresContainer starts a new Postgres container and applies the
// schema.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("fleetpool"),
		tcpostgres.WithUsername("fleetpool"),
		tcpostgres.WithPassword("fleetpool"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to open postgres connection: %v", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to ping postgres: %v", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to apply schema: %v", err)
	}

	// Shared across suites; Ryuk reaps the container after the run.
	return &PostgresContainer{
		Container: container,
		DSN:       dsn,
		DB:        db,
	}
}

// TruncateTables empties the given tables. Use between tests for
// isolation; list dependents before their referenced tables.
func (p *PostgresContainer) TruncateTables(ctx context.Context, tables ...string) error {
	if len(tables) == 0 {
		return nil
	}
	query := fmt.Sprintf("TRUNCATE TABLE %s CASCADE", strings.Join(tables, ", "))
	if _, err := p.DB.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("truncate tables: %w", err)
	}
	return nil
}
