// Package tx threads a SQL transaction through context so a booking
// operation's read-then-write section hits the same transaction in every
// store it touches. The overlap and capacity checks rely on this: reading
// existing reservations/registrations and writing the new one must be atomic
// with respect to other writers on the same vehicle or listing.
package tx

import (
	"context"
	"database/sql"
)

type ctxKey struct{}

var txKey = ctxKey{}

// WithTx stores a SQL transaction in context for downstream store usage.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey, tx)
}

// From extracts a SQL transaction from context if present.
func From(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txKey).(*sql.Tx)
	return tx, ok
}
