// Package dbx holds the small database/sql helpers shared by the SQL
// repositories: a query interface satisfied by *sql.DB and *sql.Tx, a
// dialect-bound wrapper that rewrites '?' placeholders, and a transaction
// runner.
package dbx

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// DBTX is the subset of database/sql used by the repositories.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Bound runs queries written with '?' placeholders against a handle of a
// specific dialect.
type Bound struct {
	db      DBTX
	dialect Dialect
}

// Bind wraps db. Binding an already bound handle is a no-op.
func Bind(db DBTX, d Dialect) DBTX {
	if b, ok := db.(Bound); ok && b.dialect == d {
		return b
	}
	return Bound{db: db, dialect: d}
}

func (b Bound) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return b.db.ExecContext(ctx, b.dialect.Rebind(query), args...)
}

func (b Bound) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return b.db.QueryContext(ctx, b.dialect.Rebind(query), args...)
}

func (b Bound) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return b.db.QueryRowContext(ctx, b.dialect.Rebind(query), args...)
}

// WithTx runs fn inside a transaction on db and commits when fn succeeds.
// The handle passed to fn is bound to d. On error or panic the transaction
// is rolled back; panics are re-raised and rollback failures are joined to
// the returned error.
//
//	err := dbx.WithTx(ctx, db, dbx.Postgres, func(ctx context.Context, tx dbx.DBTX) error {
//	    _, err := tx.ExecContext(ctx, `DELETE FROM zones WHERE template_id = ?`, id)
//	    return err
//	})
func WithTx(ctx context.Context, db *sql.DB, d Dialect, fn func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				err = errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
			}
			return
		}
		if cErr := tx.Commit(); cErr != nil {
			err = fmt.Errorf("commit: %w", cErr)
		}
	}()

	return fn(ctx, Bind(tx, d))
}
