package repository

import (
	"context"
	"database/sql"
	"fmt"

	"ghillie/internal/domain"
)

// ProjectRepo implements domain.ProjectRepository.
type ProjectRepo struct {
	db dbtx
}

func NewProjectRepo(db *sql.DB) *ProjectRepo { return &ProjectRepo{db: db} }

func (r *ProjectRepo) WithTx(tx *sql.Tx) *ProjectRepo { return &ProjectRepo{db: tx} }

var _ domain.ProjectRepository = (*ProjectRepo)(nil)

func (r *ProjectRepo) ListByEstate(ctx context.Context, estateID string) ([]domain.ProjectRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, estate_id, key, name, description, programme_key, noise_json,
		       status_json, documentation_paths_json, created_at, updated_at
		FROM projects WHERE estate_id = ?`, estateID)
	if err != nil {
		return nil, fmt.Errorf("list projects by estate: %w", err)
	}
	defer rows.Close()

	var out []domain.ProjectRecord
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanProject(rows *sql.Rows) (domain.ProjectRecord, error) {
	var p domain.ProjectRecord
	var docPaths string
	if err := rows.Scan(&p.ID, &p.EstateID, &p.Key, &p.Name, &p.Description, &p.ProgrammeKey,
		&p.NoiseJSON, &p.StatusJSON, &docPaths, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return p, fmt.Errorf("scan project: %w", err)
	}
	paths, err := unmarshalStrings(docPaths)
	if err != nil {
		return p, fmt.Errorf("decode project documentation_paths_json: %w", err)
	}
	p.DocumentationPaths = paths
	return p, nil
}

func (r *ProjectRepo) Create(ctx context.Context, p domain.ProjectRecord) error {
	docPaths, err := marshalStrings(p.DocumentationPaths)
	if err != nil {
		return fmt.Errorf("encode project documentation_paths: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO projects (id, estate_id, key, name, description, programme_key,
		                       noise_json, status_json, documentation_paths_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.EstateID, p.Key, p.Name, p.Description, p.ProgrammeKey,
		p.NoiseJSON, p.StatusJSON, docPaths)
	if err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	return nil
}

func (r *ProjectRepo) Update(ctx context.Context, p domain.ProjectRecord) error {
	docPaths, err := marshalStrings(p.DocumentationPaths)
	if err != nil {
		return fmt.Errorf("encode project documentation_paths: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		UPDATE projects
		SET name = ?, description = ?, programme_key = ?, noise_json = ?,
		    status_json = ?, documentation_paths_json = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		p.Name, p.Description, p.ProgrammeKey, p.NoiseJSON, p.StatusJSON, docPaths, p.ID)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	return nil
}

func (r *ProjectRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return nil
}
