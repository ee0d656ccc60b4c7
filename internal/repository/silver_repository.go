package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"ghillie/internal/domain"
)

// SilverRepositoryRepo implements domain.SilverRepositoryRepository.
type SilverRepositoryRepo struct {
	db dbtx
}

func NewSilverRepositoryRepo(db *sql.DB) *SilverRepositoryRepo { return &SilverRepositoryRepo{db: db} }

func (r *SilverRepositoryRepo) WithTx(tx *sql.Tx) *SilverRepositoryRepo {
	return &SilverRepositoryRepo{db: tx}
}

var _ domain.SilverRepositoryRepository = (*SilverRepositoryRepo)(nil)

const silverRepositoryColumns = `id, owner, name, default_branch, estate_id, catalogue_repository_id,
	       ingestion_enabled, documentation_paths_json, last_synced_at, created_at, updated_at`

func scanSilverRepository(scan func(dest ...any) error) (domain.SilverRepository, error) {
	var s domain.SilverRepository
	var paths string
	var ingestionEnabled int
	if err := scan(&s.ID, &s.Owner, &s.Name, &s.DefaultBranch, &s.EstateID, &s.CatalogueRepositoryID,
		&ingestionEnabled, &paths, &s.LastSyncedAt, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return s, fmt.Errorf("scan silver repository: %w", err)
	}
	s.IngestionEnabled = ingestionEnabled != 0
	decoded, err := unmarshalStrings(paths)
	if err != nil {
		return s, fmt.Errorf("decode silver repository documentation_paths_json: %w", err)
	}
	s.DocumentationPaths = decoded
	return s, nil
}

// ListByEstateOrNull returns rows whose estate_id matches estateID or is
// null, the candidate set sync_from_catalogue diffs against.
func (r *SilverRepositoryRepo) ListByEstateOrNull(ctx context.Context, estateID string) ([]domain.SilverRepository, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+silverRepositoryColumns+`
		FROM silver_repositories WHERE estate_id = ? OR estate_id IS NULL`, estateID)
	if err != nil {
		return nil, fmt.Errorf("list silver repositories by estate or null: %w", err)
	}
	defer rows.Close()
	return scanSilverRepositories(rows)
}

func scanSilverRepositories(rows *sql.Rows) ([]domain.SilverRepository, error) {
	var out []domain.SilverRepository
	for rows.Next() {
		s, err := scanSilverRepository(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SilverRepositoryRepo) GetByID(ctx context.Context, id string) (*domain.SilverRepository, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+silverRepositoryColumns+`
		FROM silver_repositories WHERE id = ?`, id)
	s, err := scanSilverRepository(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *SilverRepositoryRepo) GetBySlugAndEstate(ctx context.Context, owner, name, estateID string) (*domain.SilverRepository, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+silverRepositoryColumns+`
		FROM silver_repositories WHERE owner = ? AND name = ? AND estate_id = ?`, owner, name, estateID)
	s, err := scanSilverRepository(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *SilverRepositoryRepo) GetBySlug(ctx context.Context, owner, name string) (*domain.SilverRepository, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+silverRepositoryColumns+`
		FROM silver_repositories WHERE owner = ? AND name = ? LIMIT 1`, owner, name)
	s, err := scanSilverRepository(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *SilverRepositoryRepo) Create(ctx context.Context, s domain.SilverRepository) error {
	paths, err := marshalStrings(s.DocumentationPaths)
	if err != nil {
		return fmt.Errorf("encode silver repository documentation_paths: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO silver_repositories (id, owner, name, default_branch, estate_id,
		                                  catalogue_repository_id, ingestion_enabled,
		                                  documentation_paths_json, last_synced_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.Owner, s.Name, s.DefaultBranch, s.EstateID, s.CatalogueRepositoryID,
		boolToInt(s.IngestionEnabled), paths, s.LastSyncedAt)
	if err != nil {
		return fmt.Errorf("create silver repository: %w", err)
	}
	return nil
}

func (r *SilverRepositoryRepo) Update(ctx context.Context, s domain.SilverRepository) error {
	paths, err := marshalStrings(s.DocumentationPaths)
	if err != nil {
		return fmt.Errorf("encode silver repository documentation_paths: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		UPDATE silver_repositories
		SET default_branch = ?, estate_id = ?, catalogue_repository_id = ?,
		    ingestion_enabled = ?, documentation_paths_json = ?, last_synced_at = ?,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		s.DefaultBranch, s.EstateID, s.CatalogueRepositoryID, boolToInt(s.IngestionEnabled),
		paths, s.LastSyncedAt, s.ID)
	if err != nil {
		return fmt.Errorf("update silver repository: %w", err)
	}
	return nil
}

// SetIngestionEnabled sets the ingestion flag and returns whether it changed.
func (r *SilverRepositoryRepo) SetIngestionEnabled(ctx context.Context, id string, enabled bool, syncedAt time.Time) (bool, error) {
	var current int
	err := r.db.QueryRowContext(ctx, `SELECT ingestion_enabled FROM silver_repositories WHERE id = ?`, id).Scan(&current)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, domain.ErrRepositoryNotFound(id)
		}
		return false, fmt.Errorf("read ingestion_enabled: %w", err)
	}
	if (current != 0) == enabled {
		return false, nil
	}
	_, err = r.db.ExecContext(ctx, `
		UPDATE silver_repositories
		SET ingestion_enabled = ?, last_synced_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, boolToInt(enabled), syncedAt, id)
	if err != nil {
		return false, fmt.Errorf("set ingestion_enabled: %w", err)
	}
	return true, nil
}

func (r *SilverRepositoryRepo) ListActive(ctx context.Context, estateID *string, limit, offset int) ([]domain.SilverRepository, error) {
	return r.list(ctx, estateID, boolPtr(true), limit, offset)
}

func (r *SilverRepositoryRepo) ListAll(ctx context.Context, estateID *string, limit, offset int) ([]domain.SilverRepository, error) {
	return r.list(ctx, estateID, nil, limit, offset)
}

// ListActiveByEstate returns every ingestion-enabled repository in the
// estate with no pagination, for callers that must process all of them.
func (r *SilverRepositoryRepo) ListActiveByEstate(ctx context.Context, estateID string) ([]domain.SilverRepository, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+silverRepositoryColumns+`
		FROM silver_repositories
		WHERE estate_id = ? AND ingestion_enabled = 1
		ORDER BY owner, name`, estateID)
	if err != nil {
		return nil, fmt.Errorf("list active silver repositories by estate: %w", err)
	}
	defer rows.Close()
	return scanSilverRepositories(rows)
}

func (r *SilverRepositoryRepo) list(ctx context.Context, estateID *string, ingestionEnabled *bool, limit, offset int) ([]domain.SilverRepository, error) {
	query := `SELECT ` + silverRepositoryColumns + ` FROM silver_repositories WHERE 1=1`
	var args []any
	if estateID != nil {
		query += ` AND estate_id = ?`
		args = append(args, *estateID)
	}
	if ingestionEnabled != nil {
		query += ` AND ingestion_enabled = ?`
		args = append(args, boolToInt(*ingestionEnabled))
	}
	query += ` ORDER BY owner, name LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list silver repositories: %w", err)
	}
	defer rows.Close()
	return scanSilverRepositories(rows)
}

func (r *SilverRepositoryRepo) ListByCatalogueRepositoryIDsAndEstate(ctx context.Context, repositoryIDs []string, estateID string) ([]domain.SilverRepository, error) {
	if len(repositoryIDs) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(repositoryIDs))
	args := make([]any, 0, len(repositoryIDs)+1)
	for i, id := range repositoryIDs {
		placeholders[i] = "?"
		args = append(args, id)
	}
	args = append(args, estateID)
	query := `SELECT ` + silverRepositoryColumns + ` FROM silver_repositories
		WHERE catalogue_repository_id IN (` + strings.Join(placeholders, ",") + `) AND estate_id = ?`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list silver repositories by catalogue ids and estate: %w", err)
	}
	defer rows.Close()
	return scanSilverRepositories(rows)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func boolPtr(b bool) *bool { return &b }
