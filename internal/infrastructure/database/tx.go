package database

import (
	"context"
	"database/sql"
	"fmt"
)

// DBTX is the subset of database/sql used by repositories.
// *DB, *sql.DB, *sql.Tx and the handle passed to WithTx callbacks all satisfy it.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx begins a transaction, runs fn with a transactional handle, and then
// commits on success or rolls back on error or panic. Panics are re-raised
// after the rollback.
//
// Because Open uses _txlock=immediate, the transaction holds SQLite's write
// lock from BEGIN, so read-then-write sequences inside fn are serialised
// against every other writer.
//
// Example:
//
//	err := db.WithTx(ctx, func(ctx context.Context, tx database.DBTX) error {
//	    _, err := tx.ExecContext(ctx, "UPDATE ...")
//	    return err
//	})
func (db *DB) WithTx(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) (err error) {
	sqlTx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = sqlTx.Rollback() //nolint:errcheck // Re-panicking below
			panic(p)
		}
		if err != nil {
			_ = sqlTx.Rollback() //nolint:errcheck // Original error is more useful
			return
		}
		if commitErr := sqlTx.Commit(); commitErr != nil {
			err = fmt.Errorf("committing transaction: %w", commitErr)
		}
	}()

	return fn(ctx, &tracedTx{tx: sqlTx, echo: db.echo})
}

// tracedTx forwards to *sql.Tx and echoes statements.
type tracedTx struct {
	tx   *sql.Tx
	echo EchoFunc
}

func (t *tracedTx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	t.trace(ctx, query, args)
	return t.tx.ExecContext(ctx, query, args...)
}

func (t *tracedTx) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	t.trace(ctx, query, args)
	return t.tx.QueryContext(ctx, query, args...)
}

func (t *tracedTx) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	t.trace(ctx, query, args)
	return t.tx.QueryRowContext(ctx, query, args...)
}

func (t *tracedTx) trace(ctx context.Context, query string, args []any) {
	if t.echo != nil {
		t.echo(ctx, query, args)
	}
}
