// Package dbx holds the small database/sql helpers the client
// repositories share: the DBTX query interface, a transaction runner,
// and the canonical timestamp column format.
package dbx

import (
	"context"
	"database/sql"
)

// DBTX is the query surface repositories are written against. Both
// *sql.DB and *sql.Tx satisfy it, so the same repository code runs
// standalone or inside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx runs fn inside a transaction on db. The transaction is
// committed when fn returns nil and rolled back when it returns an
// error or panics; panics are re-raised after rollback.
//
// The stories cache refresh uses it to make clear-and-reload atomic:
//
//	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
//	    if _, err := tx.ExecContext(ctx, "DELETE FROM stories"); err != nil {
//	        return err
//	    }
//	    return insertAll(ctx, tx, stories)
//	})
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	err = fn(ctx, tx)
	return err
}
