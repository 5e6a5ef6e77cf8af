package tx

import (
	"context"
	"database/sql"
	"errors"
	"time"

	dErrors "registro/pkg/domain-errors"
)

const defaultTxTimeout = 5 * time.Second

// Runner opens a Postgres transaction per unit of work. Nested calls reuse
// the transaction already carried by ctx.
type Runner struct {
	db      *sql.DB
	timeout time.Duration
}

// NewRunner builds a Runner; a zero timeout uses the 5s default.
func NewRunner(db *sql.DB, timeout time.Duration) *Runner {
	if timeout <= 0 {
		timeout = defaultTxTimeout
	}
	return &Runner{db: db, timeout: timeout}
}

// RunInTx executes fn inside a transaction, committing on success and rolling
// back on error or panic.
func (r *Runner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return canceled(err)
	}

	if _, ok := From(ctx); ok {
		return fn(ctx)
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	sqlTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = sqlTx.Rollback() //nolint:errcheck // rollback after commit is no-op; error already captured
	}()

	if err := fn(WithTx(ctx, sqlTx)); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// canceled reports a request that ended before its transaction began. The
// cause is local, so it is not reported as an upstream timeout.
func canceled(err error) error {
	msg := "la solicitud fue cancelada"
	if errors.Is(err, context.DeadlineExceeded) {
		msg = "la solicitud excedio su tiempo limite"
	}
	return dErrors.Wrap(err, dErrors.CodeCanceled, msg)
}

// NoopRunner runs fn directly. In-memory stores and unit tests use it.
type NoopRunner struct{}

func (NoopRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
