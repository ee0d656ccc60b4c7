package repository

import (
	"context"
	"database/sql"
	"fmt"

	"ghillie/internal/domain"
)

// ComponentRepo implements domain.ComponentRepository.
type ComponentRepo struct {
	db dbtx
}

func NewComponentRepo(db *sql.DB) *ComponentRepo { return &ComponentRepo{db: db} }

func (r *ComponentRepo) WithTx(tx *sql.Tx) *ComponentRepo { return &ComponentRepo{db: tx} }

var _ domain.ComponentRepository = (*ComponentRepo)(nil)

const componentSelectColumns = `id, estate_id, project_id, key, name, type, lifecycle,
	       description, repository_id, notes_json, created_at, updated_at`

func (r *ComponentRepo) ListByProject(ctx context.Context, projectID string) ([]domain.ComponentRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+componentSelectColumns+`
		FROM components WHERE project_id = ?`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list components by project: %w", err)
	}
	defer rows.Close()
	return scanComponents(rows)
}

func (r *ComponentRepo) ListByEstate(ctx context.Context, estateID string) ([]domain.ComponentRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+componentSelectColumns+`
		FROM components WHERE estate_id = ?`, estateID)
	if err != nil {
		return nil, fmt.Errorf("list components by estate: %w", err)
	}
	defer rows.Close()
	return scanComponents(rows)
}

func scanComponents(rows *sql.Rows) ([]domain.ComponentRecord, error) {
	var out []domain.ComponentRecord
	for rows.Next() {
		c, err := scanComponent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanComponent(rows *sql.Rows) (domain.ComponentRecord, error) {
	var c domain.ComponentRecord
	var notes string
	if err := rows.Scan(&c.ID, &c.EstateID, &c.ProjectID, &c.Key, &c.Name, &c.Type, &c.Lifecycle,
		&c.Description, &c.RepositoryID, &notes, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return c, fmt.Errorf("scan component: %w", err)
	}
	parsed, err := unmarshalStrings(notes)
	if err != nil {
		return c, fmt.Errorf("decode component notes_json: %w", err)
	}
	c.Notes = parsed
	return c, nil
}

func (r *ComponentRepo) Create(ctx context.Context, c domain.ComponentRecord) error {
	notes, err := marshalStrings(c.Notes)
	if err != nil {
		return fmt.Errorf("encode component notes: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO components (id, estate_id, project_id, key, name, type, lifecycle,
		                         description, repository_id, notes_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.EstateID, c.ProjectID, c.Key, c.Name, c.Type, c.Lifecycle,
		c.Description, c.RepositoryID, notes)
	if err != nil {
		return fmt.Errorf("create component: %w", err)
	}
	return nil
}

func (r *ComponentRepo) Update(ctx context.Context, c domain.ComponentRecord) error {
	notes, err := marshalStrings(c.Notes)
	if err != nil {
		return fmt.Errorf("encode component notes: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		UPDATE components
		SET name = ?, type = ?, lifecycle = ?, description = ?, repository_id = ?,
		    notes_json = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		c.Name, c.Type, c.Lifecycle, c.Description, c.RepositoryID, notes, c.ID)
	if err != nil {
		return fmt.Errorf("update component: %w", err)
	}
	return nil
}

func (r *ComponentRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM components WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete component: %w", err)
	}
	return nil
}
