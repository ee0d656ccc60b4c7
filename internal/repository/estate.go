// Package repository implements the domain repository interfaces against
// a SQLite database using plain database/sql: raw SQL, no ORM, typed
// domain errors translated at the boundary.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ghillie/internal/domain"
)

// EstateRepo implements domain.EstateRepository against a dbtx, so the
// same implementation works against the pool or a caller-managed
// transaction (see WithTx).
type EstateRepo struct {
	db dbtx
}

// NewEstateRepo constructs an EstateRepo bound to db.
func NewEstateRepo(db *sql.DB) *EstateRepo { return &EstateRepo{db: db} }

// WithTx returns a repo bound to tx instead of the pool.
func (r *EstateRepo) WithTx(tx *sql.Tx) *EstateRepo { return &EstateRepo{db: tx} }

var _ domain.EstateRepository = (*EstateRepo)(nil)

func (r *EstateRepo) GetByKey(ctx context.Context, key string) (*domain.Estate, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, key, name, created_at, updated_at
		FROM estates WHERE key = ?`, key)
	var e domain.Estate
	if err := row.Scan(&e.ID, &e.Key, &e.Name, &e.CreatedAt, &e.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get estate by key: %w", err)
	}
	return &e, nil
}

func (r *EstateRepo) Create(ctx context.Context, key, name string) (*domain.Estate, error) {
	id := domain.NewID()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO estates (id, key, name) VALUES (?, ?, ?)`, id, key, name)
	if err != nil {
		return nil, fmt.Errorf("create estate: %w", err)
	}
	return r.GetByKey(ctx, key)
}

func (r *EstateRepo) UpdateName(ctx context.Context, id, name string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE estates SET name = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, name, id)
	if err != nil {
		return fmt.Errorf("update estate name: %w", err)
	}
	return nil
}
