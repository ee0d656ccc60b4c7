package domain

import (
	"context"
	"time"
)

// EstateRepository persists Estate rows. Owned exclusively by the
// catalogue importer.
type EstateRepository interface {
	GetByKey(ctx context.Context, key string) (*Estate, error)
	Create(ctx context.Context, key, name string) (*Estate, error)
	UpdateName(ctx context.Context, id, name string) error
}

// ProjectRepository persists ProjectRecord rows. Owned exclusively by the
// catalogue importer.
type ProjectRepository interface {
	ListByEstate(ctx context.Context, estateID string) ([]ProjectRecord, error)
	Create(ctx context.Context, p ProjectRecord) error
	Update(ctx context.Context, p ProjectRecord) error
	Delete(ctx context.Context, id string) error
}

// ComponentRepository persists ComponentRecord rows. Owned exclusively by
// the catalogue importer.
type ComponentRepository interface {
	ListByProject(ctx context.Context, projectID string) ([]ComponentRecord, error)
	ListByEstate(ctx context.Context, estateID string) ([]ComponentRecord, error)
	Create(ctx context.Context, c ComponentRecord) error
	Update(ctx context.Context, c ComponentRecord) error
	Delete(ctx context.Context, id string) error
}

// ComponentEdgeRepository persists ComponentEdgeRecord rows.
type ComponentEdgeRepository interface {
	ListByFromComponents(ctx context.Context, componentIDs []string) ([]ComponentEdgeRecord, error)
	Create(ctx context.Context, e ComponentEdgeRecord) error
	Update(ctx context.Context, e ComponentEdgeRecord) error
	Delete(ctx context.Context, id string) error
}

// RepositoryRecordRepository persists catalogue-side RepositoryRecord
// rows, identified by owner/name and shared across estates.
type RepositoryRecordRepository interface {
	ListAll(ctx context.Context) ([]RepositoryRecord, error)
	Create(ctx context.Context, r RepositoryRecord) error
	Update(ctx context.Context, r RepositoryRecord) error
	Delete(ctx context.Context, id string) error
	// ReferencedByOtherEstate reports whether any component outside
	// excludeEstateID still references repositoryID, used by the
	// importer's cross-estate pruning check.
	ReferencedByOtherEstate(ctx context.Context, repositoryID, excludeEstateID string) (bool, error)
}

// CatalogueImportRepository records and checks the (estate, commit)
// idempotency marker.
type CatalogueImportRepository interface {
	Exists(ctx context.Context, estateID, commitSHA string) (bool, error)
	Create(ctx context.Context, rec CatalogueImportRecordRow) error
}

// SilverRepositoryRepository persists the operational Silver Repository
// mirror. Owned exclusively by the registry synchroniser; ad-hoc
// rows are mutated only by ingestion (out of scope).
type SilverRepositoryRepository interface {
	// ListByEstateOrNull returns rows whose estate_id matches estateID or
	// is null, the candidate set sync_from_catalogue diffs against.
	ListByEstateOrNull(ctx context.Context, estateID string) ([]SilverRepository, error)
	GetByID(ctx context.Context, id string) (*SilverRepository, error)
	GetBySlugAndEstate(ctx context.Context, owner, name, estateID string) (*SilverRepository, error)
	GetBySlug(ctx context.Context, owner, name string) (*SilverRepository, error)
	Create(ctx context.Context, r SilverRepository) error
	Update(ctx context.Context, r SilverRepository) error
	SetIngestionEnabled(ctx context.Context, id string, enabled bool, syncedAt time.Time) (bool, error)
	ListActive(ctx context.Context, estateID *string, limit, offset int) ([]SilverRepository, error)
	// ListActiveByEstate returns every ingestion-enabled repository in
	// the estate, unpaginated: the estate-wide reporting driver must
	// process all of them, not a listing page.
	ListActiveByEstate(ctx context.Context, estateID string) ([]SilverRepository, error)
	ListAll(ctx context.Context, estateID *string, limit, offset int) ([]SilverRepository, error)
	ListByCatalogueRepositoryIDsAndEstate(ctx context.Context, repositoryIDs []string, estateID string) ([]SilverRepository, error)
}

// SilverEventsRepository provides read-only access to the Silver-layer
// event tables that feed evidence assembly. Evidence assembly never
// writes to these tables.
type SilverEventsRepository interface {
	ListCommitsInWindow(ctx context.Context, repoID string, start, end time.Time) ([]Commit, error)
	ListPullRequestsInWindow(ctx context.Context, repoID string, start, end time.Time) ([]PullRequest, error)
	ListIssuesInWindow(ctx context.Context, repoID string, start, end time.Time) ([]Issue, error)
	ListDocumentationChangesInWindow(ctx context.Context, repoID string, start, end time.Time) ([]DocumentationChange, error)
	ListEventFactIDsInWindow(ctx context.Context, repoID string, start, end time.Time) ([]string, error)
}

// ReportRepository persists Report rows. Owned exclusively by the
// reporting orchestrator.
type ReportRepository interface {
	// Create persists a Report; project-scope reports also get a
	// ReportProject join row recording their (project, estate) pair.
	Create(ctx context.Context, r Report) error
	Get(ctx context.Context, id string) (*Report, error)
	// GetLatestByRepository returns the most recent repository-scope
	// report for repoID, used by computeNextWindow.
	GetLatestByRepository(ctx context.Context, repoID string) (*Report, error)
	// ListPreviousByRepository returns up to limit repository-scope
	// reports with window_end <= before, newest window_end first.
	ListPreviousByRepository(ctx context.Context, repoID string, before time.Time, limit int) ([]Report, error)
	// LatestByRepositoryIDs returns, for each id in repoIDs that has at
	// least one report, the single most recent report via a windowed
	// row-number query rather than loading full history.
	LatestByRepositoryIDs(ctx context.Context, repoIDs []string) (map[string]Report, error)
	// ListPreviousByProject returns up to limit project-scope reports
	// whose ReportProject join matches (projectKey, estateID), with
	// window_end <= before, newest window_end first.
	ListPreviousByProject(ctx context.Context, projectKey, estateID string, before time.Time, limit int) ([]Report, error)
}

// ReportCoverageRepository persists ReportCoverage rows.
type ReportCoverageRepository interface {
	CreateMany(ctx context.Context, rows []ReportCoverageRow) error
	CountByReport(ctx context.Context, reportID string) (int, error)
}

// ReportReviewRepository persists ReportReview human-review markers.
type ReportReviewRepository interface {
	GetPending(ctx context.Context, repoID string, start, end time.Time) (*ReportReview, error)
	Upsert(ctx context.Context, review ReportReview) error
}
