package repository

import (
	"context"
	"database/sql"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx, letting every repository
// run either against the pool directly or pinned to a caller-managed
// transaction via WithTx. This mirrors the common pattern of handing
// sqlc-generated Queries a *sql.Tx (qtx := r.q.WithTx(tx)); here it is the
// bare database/sql handle instead.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
