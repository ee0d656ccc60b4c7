package registry_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catmodel "ghillie/internal/catalogue"
	"ghillie/internal/db"
	"ghillie/internal/domain"
	"ghillie/internal/repository"
	catalogueimport "ghillie/internal/service/catalogue"
	"ghillie/internal/service/registry"
)

func importOneComponent(t *testing.T, write *sql.DB, estateKey, owner, name string) {
	t.Helper()
	imp := catalogueimport.New(write)
	cat := catmodel.Catalogue{Version: 1, Projects: []catmodel.Project{{
		Key: "team", Name: "Team", Components: []catmodel.Component{{
			Key: "svc", Name: "Service", Type: catmodel.ComponentTypeService,
			Repository: &catmodel.Repository{Owner: owner, Name: name},
		}},
	}}}
	_, err := imp.Import(context.Background(), estateKey, estateKey, cat, "")
	require.NoError(t, err)
}

func TestSyncFromCatalogueCreatesSilverRepository(t *testing.T) {
	t.Parallel()
	write, _ := db.OpenTestSQLite(t)
	importOneComponent(t, write, "wildside", "wildside", "checkout-api")

	svc := registry.New(write)
	result, err := svc.SyncFromCatalogue(context.Background(), "wildside")
	require.NoError(t, err)

	assert.Equal(t, 1, result.RepositoriesCreated)
	assert.Zero(t, result.RepositoriesUpdated)
	assert.Zero(t, result.RepositoriesDeactivated)

	row, err := svc.GetRepositoryBySlug(context.Background(), "wildside/checkout-api")
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.True(t, row.IngestionEnabled)
}

func TestSyncFromCatalogueUnknownEstateFails(t *testing.T) {
	t.Parallel()
	write, _ := db.OpenTestSQLite(t)
	svc := registry.New(write)

	_, err := svc.SyncFromCatalogue(context.Background(), "does-not-exist")
	require.Error(t, err)

	var syncErr *domain.RegistrySyncError
	assert.ErrorAs(t, err, &syncErr)
}

func TestSyncFromCatalogueHistoryPreservationOnShrunkCatalogue(t *testing.T) {
	t.Parallel()
	write, _ := db.OpenTestSQLite(t)
	importOneComponent(t, write, "wildside", "wildside", "checkout-api")

	svc := registry.New(write)
	ctx := context.Background()
	_, err := svc.SyncFromCatalogue(ctx, "wildside")
	require.NoError(t, err)

	before, err := svc.GetRepositoryBySlug(ctx, "wildside/checkout-api")
	require.NoError(t, err)
	require.NotNil(t, before)

	// Catalogue re-imported with the component (and its repository)
	// removed entirely; the repository record is pruned by the importer,
	// but the Silver row must survive the next sync.
	imp := catalogueimport.New(write)
	_, err = imp.Import(ctx, "wildside", "wildside", catmodel.Catalogue{Version: 1, Projects: []catmodel.Project{{
		Key: "team", Name: "Team", Components: []catmodel.Component{},
	}}}, "")
	require.NoError(t, err)

	result, err := svc.SyncFromCatalogue(ctx, "wildside")
	require.NoError(t, err)
	assert.Equal(t, 1, result.RepositoriesDeactivated)

	after, err := svc.GetRepositoryBySlug(ctx, "wildside/checkout-api")
	require.NoError(t, err)
	require.NotNil(t, after, "silver repository row must still exist")
	assert.False(t, after.IngestionEnabled)
	assert.Equal(t, before.ID, after.ID)
}

func TestAdHocSilverRepositoryNeverMutatedBySync(t *testing.T) {
	t.Parallel()
	write, _ := db.OpenTestSQLite(t)
	ctx := context.Background()

	estate, err := repository.NewEstateRepo(write).Create(ctx, "wildside", "Wildside")
	require.NoError(t, err)

	silver := repository.NewSilverRepositoryRepo(write)
	adHoc := domain.SilverRepository{
		ID:                 domain.NewID(),
		Owner:              "adhoc",
		Name:               "repo",
		DefaultBranch:      "main",
		EstateID:           &estate.ID,
		IngestionEnabled:   false,
		DocumentationPaths: nil,
	}
	require.NoError(t, silver.Create(ctx, adHoc))

	svc := registry.New(write)
	_, err = svc.SyncFromCatalogue(ctx, "wildside")
	require.NoError(t, err)

	row, err := silver.GetByID(ctx, adHoc.ID)
	require.NoError(t, err)
	assert.False(t, row.IngestionEnabled)
	assert.Nil(t, row.CatalogueRepositoryID)
}

func TestSyncDoesNotDeactivateOtherEstatesRepositories(t *testing.T) {
	t.Parallel()
	write, _ := db.OpenTestSQLite(t)
	ctx := context.Background()
	importOneComponent(t, write, "estate-a", "org", "repo-a")
	importOneComponent(t, write, "estate-b", "org", "repo-b")

	svc := registry.New(write)
	_, err := svc.SyncFromCatalogue(ctx, "estate-a")
	require.NoError(t, err)
	_, err = svc.SyncFromCatalogue(ctx, "estate-b")
	require.NoError(t, err)

	// Shrink estate-a's catalogue to nothing and re-sync; estate-b's
	// repository must be untouched.
	imp := catalogueimport.New(write)
	_, err = imp.Import(ctx, "estate-a", "estate-a", catmodel.Catalogue{Version: 1, Projects: []catmodel.Project{{
		Key: "team", Name: "Team", Components: []catmodel.Component{},
	}}}, "")
	require.NoError(t, err)
	_, err = svc.SyncFromCatalogue(ctx, "estate-a")
	require.NoError(t, err)

	rowB, err := svc.GetRepositoryBySlug(ctx, "org/repo-b")
	require.NoError(t, err)
	require.NotNil(t, rowB)
	assert.True(t, rowB.IngestionEnabled)
}

func TestEnableDisableIngestionTogglesAndReportsChange(t *testing.T) {
	t.Parallel()
	write, _ := db.OpenTestSQLite(t)
	importOneComponent(t, write, "wildside", "wildside", "checkout-api")
	svc := registry.New(write)
	ctx := context.Background()
	_, err := svc.SyncFromCatalogue(ctx, "wildside")
	require.NoError(t, err)

	changed, err := svc.DisableIngestion(ctx, "wildside", "checkout-api")
	require.NoError(t, err)
	assert.True(t, changed)

	changedAgain, err := svc.DisableIngestion(ctx, "wildside", "checkout-api")
	require.NoError(t, err)
	assert.False(t, changedAgain)
}

func TestEnableIngestionOnMissingRepositoryFails(t *testing.T) {
	t.Parallel()
	write, _ := db.OpenTestSQLite(t)
	svc := registry.New(write)

	_, err := svc.EnableIngestion(context.Background(), "ghost", "repo")
	var notFound *domain.RepositoryNotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestGetRepositoryBySlugRejectsMalformedSlugWithoutTouchingDatabase(t *testing.T) {
	t.Parallel()
	write, _ := db.OpenTestSQLite(t)
	svc := registry.New(write)

	row, err := svc.GetRepositoryBySlug(context.Background(), "not-a-valid-slug")
	require.NoError(t, err)
	assert.Nil(t, row)

	row, err = svc.GetRepositoryBySlug(context.Background(), "too/many/slashes")
	require.NoError(t, err)
	assert.Nil(t, row)
}

func TestListActiveRepositoriesRejectsNegativePagination(t *testing.T) {
	t.Parallel()
	write, _ := db.OpenTestSQLite(t)
	svc := registry.New(write)

	_, err := svc.ListActiveRepositories(context.Background(), nil, -1, 0)
	var negErr *domain.NegativePaginationError
	require.ErrorAs(t, err, &negErr)
}

func TestListActiveRepositoriesOrderedByOwnerName(t *testing.T) {
	t.Parallel()
	write, _ := db.OpenTestSQLite(t)
	importOneComponent(t, write, "wildside", "zeta", "repo")
	importOneComponent(t, write, "northwind", "alpha", "repo")
	svc := registry.New(write)
	ctx := context.Background()
	_, err := svc.SyncFromCatalogue(ctx, "wildside")
	require.NoError(t, err)
	_, err = svc.SyncFromCatalogue(ctx, "northwind")
	require.NoError(t, err)

	rows, err := svc.ListActiveRepositories(ctx, nil, 10, 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "alpha", rows[0].Owner)
	assert.Equal(t, "zeta", rows[1].Owner)
}
