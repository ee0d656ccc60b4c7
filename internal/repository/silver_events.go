package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"ghillie/internal/domain"
)

// SilverEventsRepo implements domain.SilverEventsRepository: read-only
// access to the Silver-layer commit/pull-request/issue/documentation-change
// tables that feed evidence assembly. Evidence assembly never writes to
// these tables; ingestion owns them.
type SilverEventsRepo struct {
	db dbtx
}

func NewSilverEventsRepo(db *sql.DB) *SilverEventsRepo { return &SilverEventsRepo{db: db} }

func (r *SilverEventsRepo) WithTx(tx *sql.Tx) *SilverEventsRepo {
	return &SilverEventsRepo{db: tx}
}

var _ domain.SilverEventsRepository = (*SilverEventsRepo)(nil)

func (r *SilverEventsRepo) ListCommitsInWindow(ctx context.Context, repoID string, start, end time.Time) ([]domain.Commit, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, silver_repository_id, event_fact_id, sha, message, author, committed_at
		FROM commits
		WHERE silver_repository_id = ? AND committed_at >= ? AND committed_at < ?
		ORDER BY committed_at`, repoID, start, end)
	if err != nil {
		return nil, fmt.Errorf("list commits in window: %w", err)
	}
	defer rows.Close()

	var out []domain.Commit
	for rows.Next() {
		var c domain.Commit
		if err := rows.Scan(&c.ID, &c.SilverRepositoryID, &c.EventFactID, &c.SHA, &c.Message,
			&c.Author, &c.CommittedAt); err != nil {
			return nil, fmt.Errorf("scan commit: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListPullRequestsInWindow matches a pull request whose created_at,
// merged_at, or closed_at falls within [start, end) — any one
// timestamp in the window is enough.
func (r *SilverEventsRepo) ListPullRequestsInWindow(ctx context.Context, repoID string, start, end time.Time) ([]domain.PullRequest, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, silver_repository_id, event_fact_id, number, title, labels_json, author,
		       state, created_at, merged_at, closed_at
		FROM pull_requests
		WHERE silver_repository_id = ?
		  AND ((created_at >= ? AND created_at < ?)
		       OR (merged_at >= ? AND merged_at < ?)
		       OR (closed_at >= ? AND closed_at < ?))
		ORDER BY COALESCE(merged_at, closed_at, created_at)`,
		repoID, start, end, start, end, start, end)
	if err != nil {
		return nil, fmt.Errorf("list pull requests in window: %w", err)
	}
	defer rows.Close()

	var out []domain.PullRequest
	for rows.Next() {
		var pr domain.PullRequest
		var labels string
		if err := rows.Scan(&pr.ID, &pr.SilverRepositoryID, &pr.EventFactID, &pr.Number, &pr.Title,
			&labels, &pr.Author, &pr.State, &pr.CreatedAt, &pr.MergedAt, &pr.ClosedAt); err != nil {
			return nil, fmt.Errorf("scan pull request: %w", err)
		}
		decoded, err := unmarshalStrings(labels)
		if err != nil {
			return nil, fmt.Errorf("decode pull request labels_json: %w", err)
		}
		pr.Labels = decoded
		out = append(out, pr)
	}
	return out, rows.Err()
}

// ListIssuesInWindow matches an issue whose created_at or closed_at falls
// within [start, end).
func (r *SilverEventsRepo) ListIssuesInWindow(ctx context.Context, repoID string, start, end time.Time) ([]domain.Issue, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, silver_repository_id, event_fact_id, number, title, labels_json, author,
		       state, created_at, closed_at
		FROM issues
		WHERE silver_repository_id = ?
		  AND ((created_at >= ? AND created_at < ?)
		       OR (closed_at >= ? AND closed_at < ?))
		ORDER BY COALESCE(closed_at, created_at)`,
		repoID, start, end, start, end)
	if err != nil {
		return nil, fmt.Errorf("list issues in window: %w", err)
	}
	defer rows.Close()

	var out []domain.Issue
	for rows.Next() {
		var is domain.Issue
		var labels string
		if err := rows.Scan(&is.ID, &is.SilverRepositoryID, &is.EventFactID, &is.Number, &is.Title,
			&labels, &is.Author, &is.State, &is.CreatedAt, &is.ClosedAt); err != nil {
			return nil, fmt.Errorf("scan issue: %w", err)
		}
		decoded, err := unmarshalStrings(labels)
		if err != nil {
			return nil, fmt.Errorf("decode issue labels_json: %w", err)
		}
		is.Labels = decoded
		out = append(out, is)
	}
	return out, rows.Err()
}

func (r *SilverEventsRepo) ListDocumentationChangesInWindow(ctx context.Context, repoID string, start, end time.Time) ([]domain.DocumentationChange, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, silver_repository_id, event_fact_id, path, occurred_at, author
		FROM documentation_changes
		WHERE silver_repository_id = ? AND occurred_at >= ? AND occurred_at < ?
		ORDER BY occurred_at`, repoID, start, end)
	if err != nil {
		return nil, fmt.Errorf("list documentation changes in window: %w", err)
	}
	defer rows.Close()

	var out []domain.DocumentationChange
	for rows.Next() {
		var d domain.DocumentationChange
		if err := rows.Scan(&d.ID, &d.SilverRepositoryID, &d.EventFactID, &d.Path, &d.OccurredAt,
			&d.Author); err != nil {
			return nil, fmt.Errorf("scan documentation change: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// ListEventFactIDsInWindow returns the ids every report_coverage row for
// this window's report will reference.
func (r *SilverEventsRepo) ListEventFactIDsInWindow(ctx context.Context, repoID string, start, end time.Time) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id FROM event_facts
		WHERE silver_repository_id = ? AND occurred_at >= ? AND occurred_at < ?`, repoID, start, end)
	if err != nil {
		return nil, fmt.Errorf("list event fact ids in window: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan event fact id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
