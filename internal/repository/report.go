package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"ghillie/internal/domain"
)

// ReportRepo implements domain.ReportRepository.
type ReportRepo struct {
	db dbtx
}

func NewReportRepo(db *sql.DB) *ReportRepo { return &ReportRepo{db: db} }

func (r *ReportRepo) WithTx(tx *sql.Tx) *ReportRepo { return &ReportRepo{db: tx} }

var _ domain.ReportRepository = (*ReportRepo)(nil)

const reportColumns = `id, scope, repository_id, project_key, estate_id, window_start, window_end,
	       generated_at, model_identifier, human_text, machine_summary_json,
	       latency_ms, prompt_tokens, completion_tokens, total_tokens`

func scanReport(scan func(dest ...any) error) (domain.Report, error) {
	var rep domain.Report
	var summaryJSON string
	if err := scan(&rep.ID, &rep.Scope, &rep.RepositoryID, &rep.ProjectKey, &rep.EstateID,
		&rep.WindowStart, &rep.WindowEnd, &rep.GeneratedAt, &rep.ModelIdentifier, &rep.HumanText,
		&summaryJSON, &rep.LatencyMS, &rep.PromptTokens, &rep.CompletionTokens, &rep.TotalTokens); err != nil {
		return rep, fmt.Errorf("scan report: %w", err)
	}
	var summary domain.MachineSummary
	if err := json.Unmarshal([]byte(summaryJSON), &summary); err != nil {
		return rep, fmt.Errorf("decode report machine_summary_json: %w", err)
	}
	rep.MachineSummary = summary
	return rep, nil
}

func scanReports(rows *sql.Rows) ([]domain.Report, error) {
	var out []domain.Report
	for rows.Next() {
		rep, err := scanReport(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, rep)
	}
	return out, rows.Err()
}

func (r *ReportRepo) Create(ctx context.Context, rep domain.Report) error {
	summary, err := json.Marshal(rep.MachineSummary)
	if err != nil {
		return fmt.Errorf("encode report machine_summary: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO reports (id, scope, repository_id, project_key, estate_id, window_start,
		                      window_end, generated_at, model_identifier, human_text,
		                      machine_summary_json, latency_ms, prompt_tokens,
		                      completion_tokens, total_tokens)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rep.ID, rep.Scope, rep.RepositoryID, rep.ProjectKey, rep.EstateID, rep.WindowStart,
		rep.WindowEnd, rep.GeneratedAt, rep.ModelIdentifier, rep.HumanText, string(summary),
		rep.LatencyMS, rep.PromptTokens, rep.CompletionTokens, rep.TotalTokens)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	if rep.Scope == domain.ReportScopeProject && rep.ProjectKey != nil && rep.EstateID != nil {
		_, err = r.db.ExecContext(ctx, `
			INSERT INTO report_projects (report_id, project_key, estate_id) VALUES (?, ?, ?)`,
			rep.ID, *rep.ProjectKey, *rep.EstateID)
		if err != nil {
			return fmt.Errorf("create report project link: %w", err)
		}
	}
	return nil
}

func (r *ReportRepo) Get(ctx context.Context, id string) (*domain.Report, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+reportColumns+` FROM reports WHERE id = ?`, id)
	rep, err := scanReport(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rep, nil
}

func (r *ReportRepo) GetLatestByRepository(ctx context.Context, repoID string) (*domain.Report, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+reportColumns+`
		FROM reports
		WHERE repository_id = ? AND scope = ?
		ORDER BY generated_at DESC LIMIT 1`, repoID, domain.ReportScopeRepository)
	rep, err := scanReport(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rep, nil
}

func (r *ReportRepo) ListPreviousByRepository(ctx context.Context, repoID string, before time.Time, limit int) ([]domain.Report, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+reportColumns+`
		FROM reports
		WHERE repository_id = ? AND scope = ? AND window_end <= ?
		ORDER BY window_end DESC LIMIT ?`, repoID, domain.ReportScopeRepository, before, limit)
	if err != nil {
		return nil, fmt.Errorf("list previous reports by repository: %w", err)
	}
	defer rows.Close()
	return scanReports(rows)
}

// LatestByRepositoryIDs returns, for each repository id that has at least
// one report, the single most recent one via a windowed row_number query
// rather than loading full per-repository history.
func (r *ReportRepo) LatestByRepositoryIDs(ctx context.Context, repoIDs []string) (map[string]domain.Report, error) {
	out := make(map[string]domain.Report)
	if len(repoIDs) == 0 {
		return out, nil
	}
	placeholders := make([]string, len(repoIDs))
	args := make([]any, 0, len(repoIDs)+1)
	for i, id := range repoIDs {
		placeholders[i] = "?"
		args = append(args, id)
	}
	args = append(args, domain.ReportScopeRepository)
	query := `
		SELECT ` + reportColumns + ` FROM (
			SELECT ` + reportColumns + `,
			       ROW_NUMBER() OVER (PARTITION BY repository_id ORDER BY generated_at DESC) AS rn
			FROM reports
			WHERE repository_id IN (` + strings.Join(placeholders, ",") + `) AND scope = ?
		) ranked WHERE rn = 1`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list latest reports by repository ids: %w", err)
	}
	defer rows.Close()

	reports, err := scanReports(rows)
	if err != nil {
		return nil, err
	}
	for _, rep := range reports {
		if rep.RepositoryID != nil {
			out[*rep.RepositoryID] = rep
		}
	}
	return out, nil
}

// ListMetricsRows returns repository-scope reports generated within
// [periodStart, periodEnd), optionally restricted to one estate's
// repositories via a join against silver_repositories. Satisfies
// reporting.MetricsRepository.
func (r *ReportRepo) ListMetricsRows(ctx context.Context, estateID *string, periodStart, periodEnd time.Time) ([]domain.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports WHERE scope = ? AND generated_at >= ? AND generated_at < ?`
	args := []any{domain.ReportScopeRepository, periodStart, periodEnd}
	if estateID != nil {
		query = `SELECT ` + qualify(reportColumns, "reports") + `
			FROM reports JOIN silver_repositories ON reports.repository_id = silver_repositories.id
			WHERE reports.scope = ? AND reports.generated_at >= ? AND reports.generated_at < ?
			  AND silver_repositories.estate_id = ?`
		args = append(args, *estateID)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reporting metrics rows: %w", err)
	}
	defer rows.Close()
	return scanReports(rows)
}

// qualify prefixes each column in a comma-separated column list with
// table, needed when joining to disambiguate shared column names.
func qualify(columns, table string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = table + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

// ListPreviousByProject recovers project-scope reports through the
// report_projects join, newest window_end first.
func (r *ReportRepo) ListPreviousByProject(ctx context.Context, projectKey, estateID string, before time.Time, limit int) ([]domain.Report, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+qualify(reportColumns, "reports")+`
		FROM reports
		JOIN report_projects ON report_projects.report_id = reports.id
		WHERE report_projects.project_key = ? AND report_projects.estate_id = ?
		  AND reports.scope = ? AND reports.window_end <= ?
		ORDER BY reports.window_end DESC LIMIT ?`,
		projectKey, estateID, domain.ReportScopeProject, before, limit)
	if err != nil {
		return nil, fmt.Errorf("list previous reports by project: %w", err)
	}
	defer rows.Close()
	return scanReports(rows)
}
