package testutil

import (
	"context"
	"database/sql"

	"github.com/alexanderramin/expedit/internal/db"
)

// FailOnNthExecUoW runs real transactions but makes the FailOn-th write
// inside each one return Err, so tests can check that a multi-write use
// case leaves nothing behind. Reads are not counted. FailedQuery records
// the statement that was refused.
type FailOnNthExecUoW struct {
	DB     *sql.DB
	FailOn int
	Err    error

	FailedQuery string
}

func (u *FailOnNthExecUoW) WithinTx(ctx context.Context, fn func(ctx context.Context, tx db.DBTX) error) error {
	return db.NewSQLiteUnitOfWork(u.DB).WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return fn(ctx, &countingTx{DBTX: tx, uow: u})
	})
}

type countingTx struct {
	db.DBTX
	uow    *FailOnNthExecUoW
	writes int
}

func (c *countingTx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	c.writes++
	if c.writes == c.uow.FailOn {
		c.uow.FailedQuery = query
		return nil, c.uow.Err
	}
	return c.DBTX.ExecContext(ctx, query, args...)
}
