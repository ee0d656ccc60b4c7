package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"ghillie/internal/domain"
)

// ComponentEdgeRepo implements domain.ComponentEdgeRepository.
type ComponentEdgeRepo struct {
	db dbtx
}

func NewComponentEdgeRepo(db *sql.DB) *ComponentEdgeRepo { return &ComponentEdgeRepo{db: db} }

func (r *ComponentEdgeRepo) WithTx(tx *sql.Tx) *ComponentEdgeRepo {
	return &ComponentEdgeRepo{db: tx}
}

var _ domain.ComponentEdgeRepository = (*ComponentEdgeRepo)(nil)

func (r *ComponentEdgeRepo) ListByFromComponents(ctx context.Context, componentIDs []string) ([]domain.ComponentEdgeRecord, error) {
	if len(componentIDs) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(componentIDs))
	args := make([]any, len(componentIDs))
	for i, id := range componentIDs {
		placeholders[i] = "?"
		args[i] = id
	}
	query := `SELECT id, from_component_id, to_component_id, relationship, kind, rationale, created_at, updated_at
		FROM component_edges WHERE from_component_id IN (` + strings.Join(placeholders, ",") + `)`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list component edges: %w", err)
	}
	defer rows.Close()

	var out []domain.ComponentEdgeRecord
	for rows.Next() {
		var e domain.ComponentEdgeRecord
		if err := rows.Scan(&e.ID, &e.FromComponentID, &e.ToComponentID, &e.Relationship,
			&e.Kind, &e.Rationale, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan component edge: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *ComponentEdgeRepo) Create(ctx context.Context, e domain.ComponentEdgeRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO component_edges (id, from_component_id, to_component_id, relationship, kind, rationale)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.FromComponentID, e.ToComponentID, e.Relationship, e.Kind, e.Rationale)
	if err != nil {
		return fmt.Errorf("create component edge: %w", err)
	}
	return nil
}

func (r *ComponentEdgeRepo) Update(ctx context.Context, e domain.ComponentEdgeRecord) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE component_edges SET kind = ?, rationale = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, e.Kind, e.Rationale, e.ID)
	if err != nil {
		return fmt.Errorf("update component edge: %w", err)
	}
	return nil
}

func (r *ComponentEdgeRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM component_edges WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete component edge: %w", err)
	}
	return nil
}
