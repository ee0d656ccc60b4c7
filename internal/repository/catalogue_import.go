package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ghillie/internal/domain"
)

// CatalogueImportRepo implements domain.CatalogueImportRepository.
type CatalogueImportRepo struct {
	db dbtx
}

func NewCatalogueImportRepo(db *sql.DB) *CatalogueImportRepo { return &CatalogueImportRepo{db: db} }

func (r *CatalogueImportRepo) WithTx(tx *sql.Tx) *CatalogueImportRepo {
	return &CatalogueImportRepo{db: tx}
}

var _ domain.CatalogueImportRepository = (*CatalogueImportRepo)(nil)

func (r *CatalogueImportRepo) Exists(ctx context.Context, estateID, commitSHA string) (bool, error) {
	var id string
	err := r.db.QueryRowContext(ctx, `
		SELECT id FROM catalogue_import_records WHERE estate_id = ? AND commit_sha = ?`,
		estateID, commitSHA).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check catalogue import record: %w", err)
	}
	return true, nil
}

func (r *CatalogueImportRepo) Create(ctx context.Context, rec domain.CatalogueImportRecordRow) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO catalogue_import_records (id, estate_id, commit_sha) VALUES (?, ?, ?)`,
		rec.ID, rec.EstateID, rec.CommitSHA)
	if err != nil {
		return fmt.Errorf("create catalogue import record: %w", err)
	}
	return nil
}
