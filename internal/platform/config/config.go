// Package config reads process configuration from the environment so main
// stays lean. Absent Postgres or Redis URLs select the in-memory stores,
// which keeps local development free of infrastructure.
package config

import (
	"os"
	"time"
)

// Server captures everything cmd/server needs to wire the process.
type Server struct {
	Addr string

	PostgresURL string
	RedisURL    string

	JWTSigningKey string
	JWTIssuer     string
	JWTTTL        time.Duration

	NominatimURL string
	OSRMURL      string

	SMTPAddr     string
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string

	ResetTokenTTL time.Duration
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	return Server{
		Addr: envOr("FLEETPOOL_ADDR", ":8080"),

		PostgresURL: os.Getenv("FLEETPOOL_POSTGRES_URL"),
		RedisURL:    os.Getenv("FLEETPOOL_REDIS_URL"),

		// Default signing key is for development only.
		JWTSigningKey: envOr("FLEETPOOL_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		JWTIssuer:     envOr("FLEETPOOL_JWT_ISSUER", "fleetpool"),
		JWTTTL:        envDurationOr("FLEETPOOL_JWT_TTL", time.Hour),

		NominatimURL: envOr("FLEETPOOL_NOMINATIM_URL", "https://nominatim.openstreetmap.org"),
		OSRMURL:      envOr("FLEETPOOL_OSRM_URL", "https://router.project-osrm.org"),

		SMTPAddr:     os.Getenv("FLEETPOOL_SMTP_ADDR"),
		SMTPFrom:     envOr("FLEETPOOL_SMTP_FROM", "no-reply@fleetpool.example"),
		SMTPUsername: os.Getenv("FLEETPOOL_SMTP_USERNAME"),
		SMTPPassword: os.Getenv("FLEETPOOL_SMTP_PASSWORD"),

		ResetTokenTTL: envDurationOr("FLEETPOOL_RESET_TOKEN_TTL", 30*time.Minute),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
