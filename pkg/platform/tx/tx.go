// Package tx carries a SQL transaction through context so stores can join an
// enclosing commit without a direct dependency on the transaction owner.
package tx

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
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

// Boundary runs a function atomically with respect to other boundary users.
// Runner backs it with a database transaction; MemoryRunner with a process
// mutex for the in-memory stores.
type Boundary interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Runner executes functions inside a database transaction, exposing the
// transaction to participating stores via context.
type Runner struct {
	db *sql.DB
}

// NewRunner wraps a database handle.
func NewRunner(db *sql.DB) *Runner {
	return &Runner{db: db}
}

// RunInTx begins a transaction, runs fn with the transaction in context, and
// commits when fn returns nil. Any error rolls back; registry mutations and
// ledger appends inside fn therefore land together or not at all.
func (r *Runner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	sqlTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(WithTx(ctx, sqlTx)); err != nil {
		_ = sqlTx.Rollback()
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// MemoryRunner serializes boundary functions with a mutex. The in-memory
// stores mutate under this lock, so a failed fn leaves nothing half-applied
// as long as fn defers its own mutations until validation has passed.
type MemoryRunner struct {
	mu sync.Mutex
}

// NewMemoryRunner returns a process-local boundary.
func NewMemoryRunner() *MemoryRunner {
	return &MemoryRunner{}
}

// RunInTx runs fn while holding the boundary lock.
func (r *MemoryRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx)
}
