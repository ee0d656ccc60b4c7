package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// WithTx runs fn inside a database transaction on db, committing on success
// and rolling back on any error or panic. This is the single place every
// service-layer "one transaction per operation" requirement funnels
// through, following the same repeated BeginTx/defer Rollback/Commit
// shape used throughout internal/repository.
func WithTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()
	defer tx.Rollback() //nolint:errcheck

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
