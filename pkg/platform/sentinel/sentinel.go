package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into domain errors with the right
// booking semantics.
//
// These represent factual states about stored aggregates, not validation
// failures:
//   - ErrNotFound: vehicle/user/reservation/listing/registration does not exist
//   - ErrConflict: a uniqueness constraint (plate, one personal vehicle per
//     user, one registration per passenger per listing) rejected the write
//   - ErrExpired: a password-reset token outlived its TTL
//   - ErrInvalidState: aggregate in the wrong lifecycle state for the operation
//   - ErrUnavailable: backing service (Postgres, Redis, OSRM) unreachable
//
// For validation errors (bad input, broken invariants), use
// pkg/domain-errors directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrExpired      = errors.New("expired")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
