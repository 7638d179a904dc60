package tx

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
)

// Runner runs a function inside a transaction boundary. Services depend on
// this interface so the same code path works against SQL stores and the
// in-memory stores used in tests.
type Runner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// SQLRunner opens a serializable transaction per call and threads it
// through context, where store execers pick it up. Serializable keeps the
// check-then-insert booking sections honest under concurrent writers.
type SQLRunner struct {
	db *sql.DB
}

// NewSQLRunner wraps db in a Runner.
func NewSQLRunner(db *sql.DB) *SQLRunner {
	return &SQLRunner{db: db}
}

func (r *SQLRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	sqlTx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(WithTx(ctx, sqlTx)); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback after %w: %v", err, rbErr)
		}
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// MutexRunner serializes every RunInTx section behind one mutex. The
// in-memory stores only lock per call, so without it two concurrent
// check-then-insert sections can both pass their reads and both write.
// It is the runner to pair with the in-memory stores whenever more than
// one goroutine books.
type MutexRunner struct {
	mu sync.Mutex
}

// NewMutexRunner returns a Runner backed by a single process-wide lock.
func NewMutexRunner() *MutexRunner {
	return &MutexRunner{}
}

func (r *MutexRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(ctx)
}

// PassthroughRunner satisfies Runner without a database and without
// locking. It gives the booking sections no atomicity, so it is only safe
// where a single goroutine drives the service, as in sequential tests.
type PassthroughRunner struct{}

func (PassthroughRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
