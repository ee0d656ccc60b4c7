package evidence_test

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
)

func seedRepo(t *testing.T, write *sql.DB, owner, name string) domain.SilverRepository {
	t.Helper()
	repo := domain.SilverRepository{
		ID: domain.NewID(), Owner: owner, Name: name, DefaultBranch: "main", IngestionEnabled: true,
	}
	require.NoError(t, repository.NewSilverRepositoryRepo(write).Create(context.Background(), repo))
	return repo
}

func insertEventFact(t *testing.T, write *sql.DB, repoID string, at time.Time) string {
	t.Helper()
	id := domain.NewID()
	_, err := write.ExecContext(context.Background(),
		`INSERT INTO event_facts (id, silver_repository_id, occurred_at) VALUES (?, ?, ?)`, id, repoID, at)
	require.NoError(t, err)
	return id
}

func insertCommit(t *testing.T, write *sql.DB, repoID, message string, at time.Time) {
	t.Helper()
	eventID := insertEventFact(t, write, repoID, at)
	_, err := write.ExecContext(context.Background(),
		`INSERT INTO commits (id, silver_repository_id, event_fact_id, sha, message, author, committed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`, domain.NewID(), repoID, eventID, "sha1", message, "bob", at)
	require.NoError(t, err)
}

func insertPR(t *testing.T, write *sql.DB, repoID string, number int, title string, labels []string, createdAt, mergedAt, closedAt *time.Time) {
	t.Helper()
	labelsJSON := "[]"
	if len(labels) > 0 {
		encoded := "["
		for i, l := range labels {
			if i > 0 {
				encoded += ","
			}
			encoded += `"` + l + `"`
		}
		labelsJSON = encoded + "]"
	}
	_, err := write.ExecContext(context.Background(),
		`INSERT INTO pull_requests (id, silver_repository_id, number, title, labels_json, author, state, created_at, merged_at, closed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		domain.NewID(), repoID, number, title, labelsJSON, "carol", "open", createdAt, mergedAt, closedAt)
	require.NoError(t, err)
}

func TestBuildBundleFailsWhenRepositoryMissing(t *testing.T) {
	t.Parallel()
	write, _ := db.OpenTestSQLite(t)
	svc := evidence.New(
		repository.NewSilverRepositoryRepo(write),
		repository.NewSilverEventsRepo(write),
		repository.NewReportRepo(write),
		repository.NewReportCoverageRepo(write),
	)
	_, err := svc.BuildBundle(context.Background(), "ghost", time.Now(), time.Now())
	var evErr *domain.EvidenceError
	require.ErrorAs(t, err, &evErr)
}

func TestBuildBundleExcludesMergeCommitsFromGroupings(t *testing.T) {
	t.Parallel()
	write, _ := db.OpenTestSQLite(t)
	repo := seedRepo(t, write, "acme", "widget")
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(7 * 24 * time.Hour)
	insertCommit(t, write, repo.ID, "fix: off-by-one", start.Add(time.Hour))
	insertCommit(t, write, repo.ID, "Merge pull request #42 from acme/feature", start.Add(2*time.Hour))

	svc := evidence.New(
		repository.NewSilverRepositoryRepo(write),
		repository.NewSilverEventsRepo(write),
		repository.NewReportRepo(write),
		repository.NewReportCoverageRepo(write),
	)
	bundle, err := svc.BuildBundle(context.Background(), repo.ID, start, end)
	require.NoError(t, err)

	require.Len(t, bundle.Commits, 2)
	var mergeCount int
	for _, c := range bundle.Commits {
		if c.IsMergeCommit {
			mergeCount++
		}
	}
	assert.Equal(t, 1, mergeCount)

	var bugGrouping *evidence.WorkTypeGrouping
	for i := range bundle.WorkTypeGroupings {
		if bundle.WorkTypeGroupings[i].WorkType == evidence.WorkTypeBug {
			bugGrouping = &bundle.WorkTypeGroupings[i]
		}
	}
	require.NotNil(t, bugGrouping)
	assert.Equal(t, 1, bugGrouping.CommitCount, "merge commit must not count toward groupings")
}

func TestBuildBundlePullRequestMatchesOnAnyTimestampInWindow(t *testing.T) {
	t.Parallel()
	write, _ := db.OpenTestSQLite(t)
	repo := seedRepo(t, write, "acme", "widget")
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(7 * 24 * time.Hour)

	createdOutside := start.Add(-48 * time.Hour)
	mergedInside := start.Add(time.Hour)
	insertPR(t, write, repo.ID, 1, "feat: add widget export", []string{"feature"}, &createdOutside, &mergedInside, nil)

	svc := evidence.New(
		repository.NewSilverRepositoryRepo(write),
		repository.NewSilverEventsRepo(write),
		repository.NewReportRepo(write),
		repository.NewReportCoverageRepo(write),
	)
	bundle, err := svc.BuildBundle(context.Background(), repo.ID, start, end)
	require.NoError(t, err)

	require.Len(t, bundle.PullRequests, 1)
	assert.Equal(t, evidence.WorkTypeFeature, bundle.PullRequests[0].WorkType)
}

func TestBuildBundleTotalEventCountAndPreviousContext(t *testing.T) {
	t.Parallel()
	write, _ := db.OpenTestSQLite(t)
	repo := seedRepo(t, write, "acme", "widget")
	start := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	end := start.Add(7 * 24 * time.Hour)
	insertCommit(t, write, repo.ID, "chore: bump deps", start.Add(time.Hour))

	reports := repository.NewReportRepo(write)
	prev := domain.Report{
		ID: domain.NewID(), Scope: domain.ReportScopeRepository, RepositoryID: &repo.ID,
		WindowStart: start.Add(-7 * 24 * time.Hour), WindowEnd: start,
		GeneratedAt: start, ModelIdentifier: "mock-v1",
		MachineSummary: domain.MachineSummary{Status: domain.ReportStatusOnTrack, Summary: "ok"},
	}
	require.NoError(t, reports.Create(context.Background(), prev))

	svc := evidence.New(
		repository.NewSilverRepositoryRepo(write),
		repository.NewSilverEventsRepo(write),
		reports,
		repository.NewReportCoverageRepo(write),
	)
	bundle, err := svc.BuildBundle(context.Background(), repo.ID, start, end)
	require.NoError(t, err)

	assert.Equal(t, 1, bundle.TotalEventCount())
	assert.True(t, bundle.HasPreviousContext())
	require.Len(t, bundle.PreviousReports, 1)
	assert.Equal(t, prev.ID, bundle.PreviousReports[0].ReportID)
}
