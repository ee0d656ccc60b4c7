package reporting_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ghillie/internal/db"
	"ghillie/internal/domain"
	"ghillie/internal/repository"
	"ghillie/internal/service/evidence"
	"ghillie/internal/service/reporting"
)

// sequenceStatusModel returns its configured results in order, one per
// SummarizeRepository call, repeating the last entry once exhausted.
type sequenceStatusModel struct {
	results []reporting.StatusResult
	calls   int
}

func (m *sequenceStatusModel) SummarizeRepository(_ context.Context, _ *evidence.RepositoryEvidenceBundle) (reporting.StatusResult, error) {
	idx := m.calls
	if idx >= len(m.results) {
		idx = len(m.results) - 1
	}
	m.calls++
	return m.results[idx], nil
}

func seedSilverRepository(t *testing.T, write *sql.DB, owner, name string) domain.SilverRepository {
	t.Helper()
	repo := domain.SilverRepository{
		ID:               domain.NewID(),
		Owner:            owner,
		Name:             name,
		DefaultBranch:    "main",
		IngestionEnabled: true,
	}
	require.NoError(t, repository.NewSilverRepositoryRepo(write).Create(context.Background(), repo))
	return repo
}

func seedEventFact(t *testing.T, write *sql.DB, repoID string, occurredAt time.Time) string {
	t.Helper()
	id := domain.NewID()
	_, err := write.ExecContext(context.Background(), `
		INSERT INTO event_facts (id, silver_repository_id, occurred_at) VALUES (?, ?, ?)`,
		id, repoID, occurredAt)
	require.NoError(t, err)
	return id
}

func seedCommit(t *testing.T, write *sql.DB, repoID string, committedAt time.Time) {
	t.Helper()
	eventID := seedEventFact(t, write, repoID, committedAt)
	_, err := write.ExecContext(context.Background(), `
		INSERT INTO commits (id, silver_repository_id, event_fact_id, sha, message, author, committed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		domain.NewID(), repoID, eventID, "abc1234", "fix: nil pointer", "alice", committedAt)
	require.NoError(t, err)
}

func newServiceFixtures(write *sql.DB) (*evidence.Service, domain.ReportRepository) {
	evidenceSvc := evidence.New(
		repository.NewSilverRepositoryRepo(write),
		repository.NewSilverEventsRepo(write),
		repository.NewReportRepo(write),
		repository.NewReportCoverageRepo(write),
	)
	return evidenceSvc, repository.NewReportRepo(write)
}

func TestRunForRepositorySkipsOnEmptyWindow(t *testing.T) {
	t.Parallel()
	write, _ := db.OpenTestSQLite(t)
	repo := seedSilverRepository(t, write, "acme", "empty-repo")
	evidenceSvc, reports := newServiceFixtures(write)

	model := &sequenceStatusModel{results: []reporting.StatusResult{{
		Summary: "ok", Status: domain.ReportStatusOnTrack,
	}}}
	svc := reporting.New(write, evidenceSvc, model, nil, reporting.DefaultConfig(), nil)

	asOf := time.Now().UTC()
	report, err := svc.RunForRepository(context.Background(), repo.ID, &asOf)
	require.NoError(t, err)
	assert.Nil(t, report)

	latest, err := reports.GetLatestByRepository(context.Background(), repo.ID)
	require.NoError(t, err)
	assert.Nil(t, latest)
}

func TestGenerateReportRetryThenSucceed(t *testing.T) {
	t.Parallel()
	write, _ := db.OpenTestSQLite(t)
	repo := seedSilverRepository(t, write, "acme", "retry-repo")
	start := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 7, 8, 0, 0, 0, 0, time.UTC)
	seedCommit(t, write, repo.ID, start.Add(24*time.Hour))

	evidenceSvc, reports := newServiceFixtures(write)
	model := &sequenceStatusModel{results: []reporting.StatusResult{
		{Summary: "", Status: domain.ReportStatusOnTrack},
		{Summary: "Second attempt succeeded.", Status: domain.ReportStatusOnTrack, Highlights: []string{"shipped fix"}},
	}}
	cfg := reporting.DefaultConfig()
	svc := reporting.New(write, evidenceSvc, model, nil, cfg, nil)

	report, err := svc.GenerateReport(context.Background(), repo.ID, start, end, nil)
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.Equal(t, "Second attempt succeeded.", *report.HumanText)
	assert.Equal(t, 2, model.calls)

	reviews := repository.NewReportReviewRepo(write)
	pending, err := reviews.GetPending(context.Background(), repo.ID, start, end)
	require.NoError(t, err)
	assert.Nil(t, pending, "no review row should exist after an eventual success")

	stored, err := reports.GetLatestByRepository(context.Background(), repo.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, report.ID, stored.ID)
}

func TestGenerateReportExhaustedRetriesCreatesReviewAndNoReport(t *testing.T) {
	t.Parallel()
	write, _ := db.OpenTestSQLite(t)
	repo := seedSilverRepository(t, write, "acme", "fail-repo")
	start := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 7, 8, 0, 0, 0, 0, time.UTC)
	seedCommit(t, write, repo.ID, start.Add(time.Hour))

	evidenceSvc, reports := newServiceFixtures(write)
	model := &sequenceStatusModel{results: []reporting.StatusResult{
		{Summary: "", Status: domain.ReportStatusOnTrack},
		{Summary: "", Status: domain.ReportStatusOnTrack},
	}}
	cfg := reporting.DefaultConfig()
	svc := reporting.New(write, evidenceSvc, model, nil, cfg, nil)

	report, err := svc.GenerateReport(context.Background(), repo.ID, start, end, nil)
	require.Error(t, err)
	assert.Nil(t, report)

	var valErr *domain.ReportValidationError
	require.ErrorAs(t, err, &valErr)
	assert.NotEmpty(t, valErr.ReviewID)
	assert.Equal(t, cfg.ValidationMaxAttempts, model.calls)

	reviews := repository.NewReportReviewRepo(write)
	pending, err := reviews.GetPending(context.Background(), repo.ID, start, end)
	require.NoError(t, err)
	require.NotNil(t, pending)
	assert.Equal(t, cfg.ValidationMaxAttempts, pending.AttemptCount)
	assert.Equal(t, domain.ReportReviewPending, pending.State)

	latest, err := reports.GetLatestByRepository(context.Background(), repo.ID)
	require.NoError(t, err)
	assert.Nil(t, latest)
}

func TestGenerateReportRejectsInvertedWindow(t *testing.T) {
	t.Parallel()
	write, _ := db.OpenTestSQLite(t)
	repo := seedSilverRepository(t, write, "acme", "bad-window")
	evidenceSvc, _ := newServiceFixtures(write)
	model := &sequenceStatusModel{results: []reporting.StatusResult{{Summary: "ok", Status: domain.ReportStatusOnTrack}}}
	svc := reporting.New(write, evidenceSvc, model, nil, reporting.DefaultConfig(), nil)

	start := time.Date(2024, 7, 8, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	_, err := svc.GenerateReport(context.Background(), repo.ID, start, end, nil)
	require.Error(t, err)

	var valErr *domain.ValidationError
	assert.ErrorAs(t, err, &valErr)
}

func TestComputeNextWindowContiguity(t *testing.T) {
	t.Parallel()
	write, _ := db.OpenTestSQLite(t)
	repo := seedSilverRepository(t, write, "acme", "contiguous-repo")
	firstWindowEnd := time.Date(2024, 7, 8, 0, 0, 0, 0, time.UTC)
	seedCommit(t, write, repo.ID, firstWindowEnd.Add(-time.Hour))

	evidenceSvc, _ := newServiceFixtures(write)
	model := &sequenceStatusModel{results: []reporting.StatusResult{{Summary: "first window", Status: domain.ReportStatusOnTrack}}}
	svc := reporting.New(write, evidenceSvc, model, nil, reporting.DefaultConfig(), nil)

	_, err := svc.GenerateReport(context.Background(), repo.ID, firstWindowEnd.Add(-7*24*time.Hour), firstWindowEnd, nil)
	require.NoError(t, err)

	asOf := time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC)
	window, err := svc.ComputeNextWindow(context.Background(), repo.ID, &asOf)
	require.NoError(t, err)
	assert.True(t, window.Start.Equal(firstWindowEnd))
	assert.True(t, window.End.Equal(asOf))
}

func TestComputeNextWindowGuardsAgainstBackdatedAsOf(t *testing.T) {
	t.Parallel()
	write, _ := db.OpenTestSQLite(t)
	repo := seedSilverRepository(t, write, "acme", "backdated-repo")
	lastEnd := time.Date(2024, 7, 8, 0, 0, 0, 0, time.UTC)
	seedCommit(t, write, repo.ID, lastEnd.Add(-time.Hour))

	evidenceSvc, _ := newServiceFixtures(write)
	model := &sequenceStatusModel{results: []reporting.StatusResult{{Summary: "first", Status: domain.ReportStatusOnTrack}}}
	svc := reporting.New(write, evidenceSvc, model, nil, reporting.DefaultConfig(), nil)
	_, err := svc.GenerateReport(context.Background(), repo.ID, lastEnd.Add(-7*24*time.Hour), lastEnd, nil)
	require.NoError(t, err)

	backdated := lastEnd.Add(-48 * time.Hour)
	window, err := svc.ComputeNextWindow(context.Background(), repo.ID, &backdated)
	require.NoError(t, err)
	assert.True(t, window.Start.Equal(window.End), "start must not be after end when asOf predates the previous window_end")
}

func TestCoverageExactnessMatchesEventFactsInWindow(t *testing.T) {
	t.Parallel()
	write, _ := db.OpenTestSQLite(t)
	repo := seedSilverRepository(t, write, "acme", "coverage-repo")
	start := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 7, 8, 0, 0, 0, 0, time.UTC)
	seedCommit(t, write, repo.ID, start.Add(time.Hour))
	seedCommit(t, write, repo.ID, start.Add(2*time.Hour))
	seedCommit(t, write, repo.ID, end.Add(time.Hour)) // outside window

	evidenceSvc, _ := newServiceFixtures(write)
	model := &sequenceStatusModel{results: []reporting.StatusResult{{Summary: "ok", Status: domain.ReportStatusOnTrack}}}
	svc := reporting.New(write, evidenceSvc, model, nil, reporting.DefaultConfig(), nil)

	report, err := svc.GenerateReport(context.Background(), repo.ID, start, end, nil)
	require.NoError(t, err)

	count, err := repository.NewReportCoverageRepo(write).CountByReport(context.Background(), report.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
