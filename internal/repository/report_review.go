package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ghillie/internal/domain"
)

// ReportReviewRepo implements domain.ReportReviewRepository.
type ReportReviewRepo struct {
	db dbtx
}

func NewReportReviewRepo(db *sql.DB) *ReportReviewRepo { return &ReportReviewRepo{db: db} }

func (r *ReportReviewRepo) WithTx(tx *sql.Tx) *ReportReviewRepo {
	return &ReportReviewRepo{db: tx}
}

var _ domain.ReportReviewRepository = (*ReportReviewRepo)(nil)

const reportReviewColumns = `id, repository_id, window_start, window_end, state, attempt_count,
	       issues_json, created_at, updated_at`

func scanReportReview(scan func(dest ...any) error) (domain.ReportReview, error) {
	var rev domain.ReportReview
	var issuesJSON string
	if err := scan(&rev.ID, &rev.RepositoryID, &rev.WindowStart, &rev.WindowEnd, &rev.State,
		&rev.AttemptCount, &issuesJSON, &rev.CreatedAt, &rev.UpdatedAt); err != nil {
		return rev, fmt.Errorf("scan report review: %w", err)
	}
	var issues []domain.ReportValidationIssue
	if err := json.Unmarshal([]byte(issuesJSON), &issues); err != nil {
		return rev, fmt.Errorf("decode report review issues_json: %w", err)
	}
	rev.Issues = issues
	return rev, nil
}

// GetPending returns the pending review marker for (repoID, start, end), if
// one exists, so a retry of the same window updates it instead of creating
// a duplicate.
func (r *ReportReviewRepo) GetPending(ctx context.Context, repoID string, start, end time.Time) (*domain.ReportReview, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+reportReviewColumns+`
		FROM report_reviews
		WHERE repository_id = ? AND window_start = ? AND window_end = ? AND state = ?`,
		repoID, start, end, domain.ReportReviewPending)
	rev, err := scanReportReview(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rev, nil
}

// Upsert inserts review or, if a row with that id already exists, updates
// its mutable fields in place.
func (r *ReportReviewRepo) Upsert(ctx context.Context, review domain.ReportReview) error {
	issues, err := json.Marshal(review.Issues)
	if err != nil {
		return fmt.Errorf("encode report review issues: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO report_reviews (id, repository_id, window_start, window_end, state,
		                             attempt_count, issues_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			state = excluded.state,
			attempt_count = excluded.attempt_count,
			issues_json = excluded.issues_json,
			updated_at = CURRENT_TIMESTAMP`,
		review.ID, review.RepositoryID, review.WindowStart, review.WindowEnd, review.State,
		review.AttemptCount, string(issues))
	if err != nil {
		return fmt.Errorf("upsert report review: %w", err)
	}
	return nil
}
