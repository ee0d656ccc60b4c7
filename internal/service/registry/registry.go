// Package registry implements the registry synchroniser: it
// projects catalogue repositories into the operational Silver
// Repository table and exposes the paginated listing and ingestion
// toggle operations that gate ingestion eligibility.
package registry

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"ghillie/internal/domain"
	"ghillie/internal/repository"
)

// SyncResult summarises one syncFromCatalogue run.
type SyncResult struct {
	EstateKey               string
	RepositoriesCreated     int
	RepositoriesUpdated     int
	RepositoriesDeactivated int
}

// RepoInfo is the read-model returned by listing and lookup operations.
type RepoInfo = domain.SilverRepository

// Service implements the registry synchroniser's public operations.
type Service struct {
	db *sql.DB

	estates *repository.EstateRepo
	repos   *repository.RepositoryRecordRepo
	silver  *repository.SilverRepositoryRepo
}

// New constructs a registry Service bound to db.
func New(db *sql.DB) *Service {
	return &Service{
		db:      db,
		estates: repository.NewEstateRepo(db),
		repos:   repository.NewRepositoryRecordRepo(db),
		silver:  repository.NewSilverRepositoryRepo(db),
	}
}

// catalogueRepo is a catalogue RepositoryRecord reachable from one
// estate's components, the candidate set syncFromCatalogue diffs
// against. The catalogue model carries no activation flag of its own:
// any repository declared by the catalogue is eligible for ingestion.
type catalogueRepo struct {
	domain.RepositoryRecord
}

// SyncFromCatalogue projects catalogue repositories belonging to
// estateKey into the Silver Repository table. Pre-load runs
// outside any transaction; the write phase is a single transaction.
func (s *Service) SyncFromCatalogue(ctx context.Context, estateKey string) (*SyncResult, error) {
	result := &SyncResult{EstateKey: estateKey}

	estate, err := s.estates.GetByKey(ctx, estateKey)
	if err != nil {
		return nil, domain.ErrRegistrySync(estateKey, "database error during sync: %v", err)
	}
	if estate == nil {
		return nil, domain.ErrRegistrySync(estateKey, "estate not found")
	}

	catalogueRepos, err := s.loadCatalogueRepositories(ctx, estate.ID)
	if err != nil {
		return nil, domain.ErrRegistrySync(estateKey, "database error during sync: %v", err)
	}

	err = repository.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		silver := s.silver.WithTx(tx)
		return syncRepositories(ctx, silver, catalogueRepos, estate.ID, result)
	})
	if err != nil {
		return nil, domain.ErrRegistrySync(estateKey, "database error during sync: %v", err)
	}
	return result, nil
}

// loadCatalogueRepositories walks estate → components → repository and
// returns the distinct repositories reachable from it, keyed by slug.
func (s *Service) loadCatalogueRepositories(ctx context.Context, estateID string) (map[string]catalogueRepo, error) {
	allRepos, err := s.repos.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.RepositoryRecord, len(allRepos))
	for _, r := range allRepos {
		byID[r.ID] = r
	}

	components, err := repository.NewComponentRepo(s.db).ListByEstate(ctx, estateID)
	if err != nil {
		return nil, err
	}

	out := make(map[string]catalogueRepo)
	for _, c := range components {
		if c.RepositoryID == nil {
			continue
		}
		rec, ok := byID[*c.RepositoryID]
		if !ok {
			continue
		}
		out[rec.Slug()] = catalogueRepo{rec}
	}
	return out, nil
}

func syncRepositories(ctx context.Context, silver *repository.SilverRepositoryRepo, catalogueRepos map[string]catalogueRepo, estateID string, result *SyncResult) error {
	existing, err := silver.ListByEstateOrNull(ctx, estateID)
	if err != nil {
		return err
	}
	bySlug := make(map[string]domain.SilverRepository, len(existing))
	for _, r := range existing {
		bySlug[r.Slug()] = r
	}

	now := time.Now().UTC()
	seen := make(map[string]struct{}, len(catalogueRepos))

	for slug, cat := range catalogueRepos {
		seen[slug] = struct{}{}

		if row, ok := bySlug[slug]; ok {
			changed := updateSilverRepository(&row, cat, estateID, now)
			if changed {
				if err := silver.Update(ctx, row); err != nil {
					return err
				}
				result.RepositoriesUpdated++
			}
			continue
		}

		eid := estateID
		created := domain.SilverRepository{
			ID:                    domain.NewID(),
			Owner:                 cat.Owner,
			Name:                  cat.Name,
			DefaultBranch:         cat.DefaultBranch,
			EstateID:              &eid,
			CatalogueRepositoryID: &cat.ID,
			IngestionEnabled:      true,
			DocumentationPaths:    append([]string(nil), cat.DocumentationPaths...),
			LastSyncedAt:          &now,
		}
		if err := silver.Create(ctx, created); err != nil {
			return err
		}
		result.RepositoriesCreated++
	}

	return deactivateRemoved(ctx, silver, bySlug, seen, now, result)
}

func updateSilverRepository(row *domain.SilverRepository, cat catalogueRepo, estateID string, now time.Time) bool {
	changed := false

	if row.DefaultBranch != cat.DefaultBranch {
		row.DefaultBranch = cat.DefaultBranch
		changed = true
	}
	if row.EstateID == nil || *row.EstateID != estateID {
		eid := estateID
		row.EstateID = &eid
		changed = true
	}
	if row.CatalogueRepositoryID == nil || *row.CatalogueRepositoryID != cat.ID {
		cid := cat.ID
		row.CatalogueRepositoryID = &cid
		changed = true
	}
	if !row.IngestionEnabled {
		row.IngestionEnabled = true
		changed = true
	}
	if !stringSliceEqual(row.DocumentationPaths, cat.DocumentationPaths) {
		row.DocumentationPaths = append([]string(nil), cat.DocumentationPaths...)
		changed = true
	}

	if changed {
		row.LastSyncedAt = &now
	}
	return changed
}

// deactivateRemoved disables ingestion on Silver rows whose catalogue
// link is no longer seen, leaving ad-hoc rows (no catalogue link) and
// rows from other estates untouched.
func deactivateRemoved(ctx context.Context, silver *repository.SilverRepositoryRepo, bySlug map[string]domain.SilverRepository, seen map[string]struct{}, now time.Time, result *SyncResult) error {
	for slug, row := range bySlug {
		if _, ok := seen[slug]; ok {
			continue
		}
		if row.CatalogueRepositoryID == nil || !row.IngestionEnabled {
			continue
		}
		row.IngestionEnabled = false
		row.LastSyncedAt = &now
		if _, err := silver.SetIngestionEnabled(ctx, row.ID, false, now); err != nil {
			return err
		}
		result.RepositoriesDeactivated++
	}
	return nil
}

// EnableIngestion sets ingestion_enabled=true for the Silver row
// identified by owner/name and returns whether the flag changed.
func (s *Service) EnableIngestion(ctx context.Context, owner, name string) (bool, error) {
	return s.setIngestion(ctx, owner, name, true)
}

// DisableIngestion sets ingestion_enabled=false.
func (s *Service) DisableIngestion(ctx context.Context, owner, name string) (bool, error) {
	return s.setIngestion(ctx, owner, name, false)
}

func (s *Service) setIngestion(ctx context.Context, owner, name string, enabled bool) (bool, error) {
	row, err := s.silver.GetBySlug(ctx, owner, name)
	if err != nil {
		return false, err
	}
	if row == nil {
		return false, domain.ErrRepositoryNotFound(owner + "/" + name)
	}
	return s.silver.SetIngestionEnabled(ctx, row.ID, enabled, time.Now().UTC())
}

// ListActiveRepositories returns repositories with ingestion_enabled=true,
// ordered by (owner, name), optionally scoped to one estate.
func (s *Service) ListActiveRepositories(ctx context.Context, estateID *string, limit, offset int) ([]domain.SilverRepository, error) {
	limit, offset, err := domain.ValidateLimitOffset(limit, offset)
	if err != nil {
		return nil, err
	}
	return s.silver.ListActive(ctx, estateID, limit, offset)
}

// ListAllRepositories returns all Silver repositories regardless of
// ingestion state, ordered by (owner, name).
func (s *Service) ListAllRepositories(ctx context.Context, estateID *string, limit, offset int) ([]domain.SilverRepository, error) {
	limit, offset, err := domain.ValidateLimitOffset(limit, offset)
	if err != nil {
		return nil, err
	}
	return s.silver.ListAll(ctx, estateID, limit, offset)
}

// GetRepositoryBySlug returns the Silver row for "owner/name", or nil if
// absent. A malformed slug (not exactly one '/', or an empty segment)
// short-circuits to nil without touching the database.
func (s *Service) GetRepositoryBySlug(ctx context.Context, slug string) (*domain.SilverRepository, error) {
	owner, name, ok := splitSlug(slug)
	if !ok {
		return nil, nil
	}
	return s.silver.GetBySlug(ctx, owner, name)
}

// EstateIDForKey resolves an estate's opaque ID from its human-readable
// key, returning a RegistrySyncError if no such estate exists. Exposed
// for CLI and scheduler callers that only have the key on hand.
func (s *Service) EstateIDForKey(ctx context.Context, estateKey string) (string, error) {
	estate, err := s.estates.GetByKey(ctx, estateKey)
	if err != nil {
		return "", domain.ErrRegistrySync(estateKey, "database error resolving estate: %v", err)
	}
	if estate == nil {
		return "", domain.ErrRegistrySync(estateKey, "estate not found")
	}
	return estate.ID, nil
}

func splitSlug(slug string) (owner, name string, ok bool) {
	parts := strings.Split(slug, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

func stringSliceEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
