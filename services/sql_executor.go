package services

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

// SQLExecutor is the slice of *sqlx.DB the services depend on, so they can
// be handed the pool explicitly instead of reaching for a global.
type SQLExecutor interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

var _ SQLExecutor = (*sqlx.DB)(nil)

// withTx runs fn inside a transaction, committing on success and rolling
// back on error.
func withTx(ctx context.Context, db SQLExecutor, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
