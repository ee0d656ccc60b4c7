package reporting_test

import (
	"context"
	"database/sql"
	"sync"
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

// perRepoStatusModel returns a valid result for every repository except
// the ones named in failing, which always produce an empty summary.
type perRepoStatusModel struct {
	failing map[string]bool

	mu    sync.Mutex
	calls map[string]int
}

func (m *perRepoStatusModel) SummarizeRepository(_ context.Context, bundle *evidence.RepositoryEvidenceBundle) (reporting.StatusResult, error) {
	m.mu.Lock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[bundle.Repository.Name]++
	m.mu.Unlock()

	if m.failing[bundle.Repository.Name] {
		return reporting.StatusResult{Summary: "", Status: domain.ReportStatusOnTrack}, nil
	}
	return reporting.StatusResult{
		Summary: "Work landed in " + bundle.Repository.Name + ".",
		Status:  domain.ReportStatusOnTrack,
	}, nil
}

func seedEstateSilverRepository(t *testing.T, write *sql.DB, estateID, owner, name string, enabled bool) domain.SilverRepository {
	t.Helper()
	repo := domain.SilverRepository{
		ID:               domain.NewID(),
		Owner:            owner,
		Name:             name,
		DefaultBranch:    "main",
		EstateID:         &estateID,
		IngestionEnabled: enabled,
	}
	require.NoError(t, repository.NewSilverRepositoryRepo(write).Create(context.Background(), repo))
	return repo
}

func TestRunForEstateAggregatesFailuresWithoutAbortingOthers(t *testing.T) {
	t.Parallel()
	write, _ := db.OpenTestSQLite(t)
	estate, err := repository.NewEstateRepo(write).Create(context.Background(), "acme", "Acme")
	require.NoError(t, err)
	estateID := estate.ID

	good1 := seedEstateSilverRepository(t, write, estateID, "acme", "alpha", true)
	bad := seedEstateSilverRepository(t, write, estateID, "acme", "beta", true)
	good2 := seedEstateSilverRepository(t, write, estateID, "acme", "gamma", true)

	asOf := time.Date(2024, 7, 8, 0, 0, 0, 0, time.UTC)
	for _, repo := range []domain.SilverRepository{good1, bad, good2} {
		seedCommit(t, write, repo.ID, asOf.Add(-time.Hour))
	}

	evidenceSvc, reports := newServiceFixtures(write)
	model := &perRepoStatusModel{failing: map[string]bool{"beta": true}}
	svc := reporting.New(write, evidenceSvc, model, nil, reporting.DefaultConfig(), nil)
	driver := reporting.NewEstateDriver(svc, repository.NewSilverRepositoryRepo(write), nil).WithConcurrency(2)

	results, err := driver.RunForEstate(context.Background(), estateID, &asOf)
	require.Error(t, err)

	var estateErr *domain.EstateReportError
	require.ErrorAs(t, err, &estateErr)
	assert.Len(t, estateErr.Failures, 1)

	var produced int
	for _, r := range results {
		if r != nil {
			produced++
		}
	}
	assert.Equal(t, 2, produced)

	for _, repo := range []domain.SilverRepository{good1, good2} {
		stored, err := reports.GetLatestByRepository(context.Background(), repo.ID)
		require.NoError(t, err)
		require.NotNil(t, stored, "repository %s should have a persisted report", repo.Name)
	}
	stored, err := reports.GetLatestByRepository(context.Background(), bad.ID)
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestRunForEstateSkipsDisabledAndForeignRepositories(t *testing.T) {
	t.Parallel()
	write, _ := db.OpenTestSQLite(t)
	estates := repository.NewEstateRepo(write)
	estate, err := estates.Create(context.Background(), "acme", "Acme")
	require.NoError(t, err)
	otherEstate, err := estates.Create(context.Background(), "other", "Other")
	require.NoError(t, err)
	estateID := estate.ID
	otherEstateID := otherEstate.ID

	active := seedEstateSilverRepository(t, write, estateID, "acme", "active", true)
	disabled := seedEstateSilverRepository(t, write, estateID, "acme", "disabled", false)
	foreign := seedEstateSilverRepository(t, write, otherEstateID, "acme", "foreign", true)

	asOf := time.Date(2024, 7, 8, 0, 0, 0, 0, time.UTC)
	for _, repo := range []domain.SilverRepository{active, disabled, foreign} {
		seedCommit(t, write, repo.ID, asOf.Add(-time.Hour))
	}

	evidenceSvc, _ := newServiceFixtures(write)
	model := &perRepoStatusModel{}
	svc := reporting.New(write, evidenceSvc, model, nil, reporting.DefaultConfig(), nil)
	driver := reporting.NewEstateDriver(svc, repository.NewSilverRepositoryRepo(write), nil)

	results, err := driver.RunForEstate(context.Background(), estateID, &asOf)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.NotNil(t, results[0])
	assert.Equal(t, active.ID, *results[0].RepositoryID)

	assert.Zero(t, model.calls["disabled"])
	assert.Zero(t, model.calls["foreign"])
}

func TestRunForEstateEmptyEstateReturnsNil(t *testing.T) {
	t.Parallel()
	write, _ := db.OpenTestSQLite(t)

	evidenceSvc, _ := newServiceFixtures(write)
	svc := reporting.New(write, evidenceSvc, &perRepoStatusModel{}, nil, reporting.DefaultConfig(), nil)
	driver := reporting.NewEstateDriver(svc, repository.NewSilverRepositoryRepo(write), nil)

	estateID := domain.NewID()
	results, err := driver.RunForEstate(context.Background(), estateID, nil)
	require.NoError(t, err)
	assert.Nil(t, results)
}
