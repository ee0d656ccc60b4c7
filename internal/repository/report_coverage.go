package repository

import (
	"context"
	"database/sql"
	"fmt"

	"ghillie/internal/domain"
)

// ReportCoverageRepo implements domain.ReportCoverageRepository.
type ReportCoverageRepo struct {
	db dbtx
}

func NewReportCoverageRepo(db *sql.DB) *ReportCoverageRepo { return &ReportCoverageRepo{db: db} }

func (r *ReportCoverageRepo) WithTx(tx *sql.Tx) *ReportCoverageRepo {
	return &ReportCoverageRepo{db: tx}
}

var _ domain.ReportCoverageRepository = (*ReportCoverageRepo)(nil)

func (r *ReportCoverageRepo) CreateMany(ctx context.Context, rows []domain.ReportCoverageRow) error {
	for _, row := range rows {
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO report_coverage (report_id, event_fact_id) VALUES (?, ?)`,
			row.ReportID, row.EventFactID)
		if err != nil {
			return fmt.Errorf("create report coverage row: %w", err)
		}
	}
	return nil
}

func (r *ReportCoverageRepo) CountByReport(ctx context.Context, reportID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM report_coverage WHERE report_id = ?`, reportID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count report coverage: %w", err)
	}
	return count, nil
}
