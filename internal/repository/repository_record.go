package repository

import (
	"context"
	"database/sql"
	"fmt"

	"ghillie/internal/domain"
)

// RepositoryRecordRepo implements domain.RepositoryRecordRepository.
type RepositoryRecordRepo struct {
	db dbtx
}

func NewRepositoryRecordRepo(db *sql.DB) *RepositoryRecordRepo { return &RepositoryRecordRepo{db: db} }

func (r *RepositoryRecordRepo) WithTx(tx *sql.Tx) *RepositoryRecordRepo {
	return &RepositoryRecordRepo{db: tx}
}

var _ domain.RepositoryRecordRepository = (*RepositoryRecordRepo)(nil)

func (r *RepositoryRecordRepo) ListAll(ctx context.Context) ([]domain.RepositoryRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner, name, default_branch, documentation_paths_json, created_at, updated_at
		FROM repositories`)
	if err != nil {
		return nil, fmt.Errorf("list repository records: %w", err)
	}
	defer rows.Close()

	var out []domain.RepositoryRecord
	for rows.Next() {
		var rec domain.RepositoryRecord
		var paths string
		if err := rows.Scan(&rec.ID, &rec.Owner, &rec.Name, &rec.DefaultBranch, &paths,
			&rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan repository record: %w", err)
		}
		decoded, err := unmarshalStrings(paths)
		if err != nil {
			return nil, fmt.Errorf("decode repository documentation_paths_json: %w", err)
		}
		rec.DocumentationPaths = decoded
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *RepositoryRecordRepo) Create(ctx context.Context, rec domain.RepositoryRecord) error {
	paths, err := marshalStrings(rec.DocumentationPaths)
	if err != nil {
		return fmt.Errorf("encode repository documentation_paths: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO repositories (id, owner, name, default_branch, documentation_paths_json)
		VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.Owner, rec.Name, rec.DefaultBranch, paths)
	if err != nil {
		return fmt.Errorf("create repository record: %w", err)
	}
	return nil
}

func (r *RepositoryRecordRepo) Update(ctx context.Context, rec domain.RepositoryRecord) error {
	paths, err := marshalStrings(rec.DocumentationPaths)
	if err != nil {
		return fmt.Errorf("encode repository documentation_paths: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		UPDATE repositories
		SET default_branch = ?, documentation_paths_json = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, rec.DefaultBranch, paths, rec.ID)
	if err != nil {
		return fmt.Errorf("update repository record: %w", err)
	}
	return nil
}

func (r *RepositoryRecordRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM repositories WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete repository record: %w", err)
	}
	return nil
}

// ReferencedByOtherEstate reports whether any component outside
// excludeEstateID still references repositoryID.
func (r *RepositoryRecordRepo) ReferencedByOtherEstate(ctx context.Context, repositoryID, excludeEstateID string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM components
		WHERE repository_id = ? AND estate_id != ?`, repositoryID, excludeEstateID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check repository usage across estates: %w", err)
	}
	return count > 0, nil
}
