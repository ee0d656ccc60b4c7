// Package catalogue implements the catalogue importer: a
// transactional, idempotent reconciler that projects a validated
// catalogue.Catalogue document onto the relational estate/project/
// component/repository/edge tables, pruning what the new document no
// longer declares.
//
// The reconciliation runs in one transaction: ensure estate, reconcile
// projects, reconcile components (with a cross-estate repository pool
// and referenced-elsewhere pruning guard), reconcile edges, record the
// idempotency marker.
package catalogue

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"ghillie/internal/catalogue"
	"ghillie/internal/domain"
	"ghillie/internal/repository"
)

// ImportResult summarises one reconciliation run's effects.
type ImportResult struct {
	EstateKey string
	CommitSHA string
	Skipped   bool

	ProjectsCreated     int
	ProjectsUpdated     int
	ProjectsDeleted     int
	ComponentsCreated   int
	ComponentsUpdated   int
	ComponentsDeleted   int
	RepositoriesCreated int
	RepositoriesUpdated int
	RepositoriesDeleted int
	EdgesCreated        int
	EdgesUpdated        int
	EdgesDeleted        int
}

// Importer reconciles catalogue documents into the relational schema.
type Importer struct {
	db *sql.DB

	estates    *repository.EstateRepo
	projects   *repository.ProjectRepo
	components *repository.ComponentRepo
	edges      *repository.ComponentEdgeRepo
	repos      *repository.RepositoryRecordRepo
	imports    *repository.CatalogueImportRepo
}

// New constructs an Importer bound to db.
func New(db *sql.DB) *Importer {
	return &Importer{
		db:         db,
		estates:    repository.NewEstateRepo(db),
		projects:   repository.NewProjectRepo(db),
		components: repository.NewComponentRepo(db),
		edges:      repository.NewComponentEdgeRepo(db),
		repos:      repository.NewRepositoryRecordRepo(db),
		imports:    repository.NewCatalogueImportRepo(db),
	}
}

// Import validates and reconciles cat against the estate identified by
// estateKey, recording commitSHA for idempotency when non-empty.
func (imp *Importer) Import(ctx context.Context, estateKey, estateName string, cat catalogue.Catalogue, commitSHA string) (*ImportResult, error) {
	if estateName == "" {
		estateName = estateKey
	}
	cat.ApplyDefaults()
	if _, err := catalogue.Validate(cat); err != nil {
		return nil, err
	}

	result := &ImportResult{EstateKey: estateKey, CommitSHA: commitSHA}

	err := repository.WithTx(ctx, imp.db, func(tx *sql.Tx) error {
		estates := imp.estates.WithTx(tx)
		projects := imp.projects.WithTx(tx)
		components := imp.components.WithTx(tx)
		edges := imp.edges.WithTx(tx)
		repos := imp.repos.WithTx(tx)
		imports := imp.imports.WithTx(tx)

		estate, err := ensureEstate(ctx, estates, estateKey, estateName)
		if err != nil {
			return fmt.Errorf("ensure estate: %w", err)
		}

		if commitSHA != "" {
			exists, err := imports.Exists(ctx, estate.ID, commitSHA)
			if err != nil {
				return err
			}
			if exists {
				result.Skipped = true
				return nil
			}
		}

		projectIndex, err := reconcileProjects(ctx, projects, estate.ID, cat, result)
		if err != nil {
			return fmt.Errorf("reconcile projects: %w", err)
		}

		componentIndex, err := reconcileComponents(ctx, components, repos, estate.ID, projectIndex, cat, result)
		if err != nil {
			return fmt.Errorf("reconcile components: %w", err)
		}

		if err := reconcileEdges(ctx, edges, componentIndex, cat, result); err != nil {
			return fmt.Errorf("reconcile edges: %w", err)
		}

		if commitSHA != "" {
			if err := imports.Create(ctx, domain.CatalogueImportRecordRow{
				ID:        domain.NewID(),
				EstateID:  estate.ID,
				CommitSHA: commitSHA,
			}); err != nil {
				return fmt.Errorf("record catalogue import: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func ensureEstate(ctx context.Context, estates *repository.EstateRepo, key, name string) (*domain.Estate, error) {
	existing, err := estates.GetByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.Name != name {
			if err := estates.UpdateName(ctx, existing.ID, name); err != nil {
				return nil, err
			}
			existing.Name = name
		}
		return existing, nil
	}
	return estates.Create(ctx, key, name)
}

func reconcileProjects(ctx context.Context, projects *repository.ProjectRepo, estateID string, cat catalogue.Catalogue, result *ImportResult) (map[string]domain.ProjectRecord, error) {
	existing, err := projects.ListByEstate(ctx, estateID)
	if err != nil {
		return nil, err
	}
	index := make(map[string]domain.ProjectRecord, len(existing))
	for _, p := range existing {
		index[p.Key] = p
	}

	seen := make(map[string]struct{}, len(cat.Projects))
	for _, project := range cat.Projects {
		seen[project.Key] = struct{}{}

		noiseJSON, err := json.Marshal(project.Noise)
		if err != nil {
			return nil, fmt.Errorf("encode project noise filters: %w", err)
		}
		statusJSON, err := json.Marshal(project.Status)
		if err != nil {
			return nil, fmt.Errorf("encode project status preferences: %w", err)
		}

		if rec, ok := index[project.Key]; ok {
			changed := rec.Name != project.Name ||
				!stringPtrEqual(rec.Description, project.Description) ||
				!stringPtrEqual(rec.ProgrammeKey, project.Programme) ||
				rec.NoiseJSON != string(noiseJSON) ||
				rec.StatusJSON != string(statusJSON) ||
				!stringSliceEqual(rec.DocumentationPaths, project.DocumentationPaths)

			rec.Name = project.Name
			rec.Description = project.Description
			rec.ProgrammeKey = project.Programme
			rec.NoiseJSON = string(noiseJSON)
			rec.StatusJSON = string(statusJSON)
			rec.DocumentationPaths = project.DocumentationPaths
			if changed {
				if err := projects.Update(ctx, rec); err != nil {
					return nil, err
				}
				result.ProjectsUpdated++
			}
			index[project.Key] = rec
			continue
		}

		rec := domain.ProjectRecord{
			ID:                 domain.NewID(),
			EstateID:           estateID,
			Key:                project.Key,
			Name:               project.Name,
			Description:        project.Description,
			ProgrammeKey:       project.Programme,
			NoiseJSON:          string(noiseJSON),
			StatusJSON:         string(statusJSON),
			DocumentationPaths: project.DocumentationPaths,
		}
		if err := projects.Create(ctx, rec); err != nil {
			return nil, err
		}
		index[project.Key] = rec
		result.ProjectsCreated++
	}

	for key, rec := range index {
		if _, ok := seen[key]; !ok {
			if err := projects.Delete(ctx, rec.ID); err != nil {
				return nil, err
			}
			delete(index, key)
			result.ProjectsDeleted++
		}
	}

	return index, nil
}

func reconcileComponents(ctx context.Context, components *repository.ComponentRepo, repos *repository.RepositoryRecordRepo, estateID string, projectIndex map[string]domain.ProjectRecord, cat catalogue.Catalogue, result *ImportResult) (map[string]domain.ComponentRecord, error) {
	allRepos, err := repos.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	repoIndex := make(map[string]domain.RepositoryRecord, len(allRepos))
	existingRepoIDs := make(map[string]struct{}, len(allRepos))
	for _, r := range allRepos {
		repoIndex[r.Slug()] = r
		existingRepoIDs[r.ID] = struct{}{}
	}

	componentIndex := make(map[string]domain.ComponentRecord)

	for _, project := range cat.Projects {
		projectRecord := projectIndex[project.Key]

		existingComponents, err := components.ListByProject(ctx, projectRecord.ID)
		if err != nil {
			return nil, err
		}
		byKey := make(map[string]domain.ComponentRecord, len(existingComponents))
		for _, c := range existingComponents {
			byKey[c.Key] = c
		}

		seen := make(map[string]struct{}, len(project.Components))
		for _, component := range project.Components {
			seen[component.Key] = struct{}{}

			var repoRecordID *string
			if component.Repository != nil {
				repoRecord, err := ensureRepository(ctx, repos, repoIndex, existingRepoIDs, *component.Repository, result)
				if err != nil {
					return nil, err
				}
				repoRecordID = &repoRecord.ID
			}

			notes := component.Notes

			if rec, ok := byKey[component.Key]; ok {
				changed := rec.Name != component.Name ||
					string(rec.Type) != string(component.Type) ||
					string(rec.Lifecycle) != string(component.Lifecycle) ||
					!stringPtrEqual(rec.Description, component.Description) ||
					!stringSliceEqual(rec.Notes, notes) ||
					!stringPtrEqual(rec.RepositoryID, repoRecordID)

				rec.Name = component.Name
				rec.Type = string(component.Type)
				rec.Lifecycle = string(component.Lifecycle)
				rec.Description = component.Description
				rec.Notes = notes
				rec.RepositoryID = repoRecordID
				if changed {
					if err := components.Update(ctx, rec); err != nil {
						return nil, err
					}
					result.ComponentsUpdated++
				}
				byKey[component.Key] = rec
				componentIndex[component.Key] = rec
				continue
			}

			rec := domain.ComponentRecord{
				ID:           domain.NewID(),
				EstateID:     estateID,
				ProjectID:    projectRecord.ID,
				Key:          component.Key,
				Name:         component.Name,
				Type:         string(component.Type),
				Lifecycle:    string(component.Lifecycle),
				Description:  component.Description,
				RepositoryID: repoRecordID,
				Notes:        notes,
			}
			if err := components.Create(ctx, rec); err != nil {
				return nil, err
			}
			byKey[component.Key] = rec
			componentIndex[component.Key] = rec
			result.ComponentsCreated++
		}

		for key, rec := range byKey {
			if _, ok := seen[key]; !ok {
				if err := components.Delete(ctx, rec.ID); err != nil {
					return nil, err
				}
				result.ComponentsDeleted++
			}
		}
	}

	if err := pruneUnreferencedRepositories(ctx, repos, repoIndex, componentIndex, estateID, existingRepoIDs, result); err != nil {
		return nil, err
	}

	return componentIndex, nil
}

func ensureRepository(ctx context.Context, repos *repository.RepositoryRecordRepo, repoIndex map[string]domain.RepositoryRecord, existingRepoIDs map[string]struct{}, decl catalogue.Repository, result *ImportResult) (domain.RepositoryRecord, error) {
	slug := decl.Slug()
	docPaths := dedupe(decl.DocumentationPaths)

	if existing, ok := repoIndex[slug]; ok {
		changed := existing.DefaultBranch != decl.DefaultBranch || !stringSliceEqual(existing.DocumentationPaths, docPaths)
		existing.DefaultBranch = decl.DefaultBranch
		existing.DocumentationPaths = docPaths
		if changed {
			if err := repos.Update(ctx, existing); err != nil {
				return existing, err
			}
			result.RepositoriesUpdated++
		}
		repoIndex[slug] = existing
		return existing, nil
	}

	rec := domain.RepositoryRecord{
		ID:                 domain.NewID(),
		Owner:              decl.Owner,
		Name:               decl.Name,
		DefaultBranch:      decl.DefaultBranch,
		DocumentationPaths: docPaths,
	}
	if err := repos.Create(ctx, rec); err != nil {
		return rec, err
	}
	repoIndex[slug] = rec
	result.RepositoriesCreated++
	return rec, nil
}

// pruneUnreferencedRepositories deletes repositories that no longer
// appear in componentIndex, unless another estate's components still
// reference them.
func pruneUnreferencedRepositories(ctx context.Context, repos *repository.RepositoryRecordRepo, repoIndex map[string]domain.RepositoryRecord, componentIndex map[string]domain.ComponentRecord, estateID string, existingRepoIDs map[string]struct{}, result *ImportResult) error {
	desired := make(map[string]struct{})
	for _, comp := range componentIndex {
		if comp.RepositoryID != nil {
			desired[*comp.RepositoryID] = struct{}{}
		}
	}

	for slug, rec := range repoIndex {
		if _, wasExisting := existingRepoIDs[rec.ID]; !wasExisting {
			continue
		}
		if _, stillDesired := desired[rec.ID]; stillDesired {
			continue
		}
		usedElsewhere, err := repos.ReferencedByOtherEstate(ctx, rec.ID, estateID)
		if err != nil {
			return err
		}
		if usedElsewhere {
			continue
		}
		if err := repos.Delete(ctx, rec.ID); err != nil {
			return err
		}
		delete(repoIndex, slug)
		result.RepositoriesDeleted++
	}
	return nil
}

type edgeKey struct {
	from         string
	to           string
	relationship string
}

func reconcileEdges(ctx context.Context, edges *repository.ComponentEdgeRepo, componentIndex map[string]domain.ComponentRecord, cat catalogue.Catalogue, result *ImportResult) error {
	componentIDs := make([]string, 0, len(componentIndex))
	for _, c := range componentIndex {
		componentIDs = append(componentIDs, c.ID)
	}
	if len(componentIDs) == 0 {
		return nil
	}

	existingList, err := edges.ListByFromComponents(ctx, componentIDs)
	if err != nil {
		return err
	}
	existing := make(map[edgeKey]domain.ComponentEdgeRecord, len(existingList))
	for _, e := range existingList {
		existing[edgeKey{e.FromComponentID, e.ToComponentID, e.Relationship}] = e
	}

	desired := make(map[edgeKey]catalogue.ComponentLink)
	for _, project := range cat.Projects {
		for _, comp := range project.Components {
			source, ok := componentIndex[comp.Key]
			if !ok {
				continue
			}
			groups := []struct {
				relationship string
				links        []catalogue.ComponentLink
			}{
				{string(catalogue.RelationshipDependsOn), comp.DependsOn},
				{string(catalogue.RelationshipBlockedBy), comp.BlockedBy},
				{string(catalogue.RelationshipEmitsEventsTo), comp.EmitsEventsTo},
			}
			for _, group := range groups {
				for _, link := range group.links {
					target, ok := componentIndex[link.Component]
					if !ok {
						return domain.ErrValidation(fmt.Sprintf(
							"edge from %s references unknown component %s; catalogue must maintain globally unique component keys",
							comp.Key, link.Component))
					}
					desired[edgeKey{source.ID, target.ID, group.relationship}] = link
				}
			}
		}
	}

	for key, link := range desired {
		if rec, ok := existing[key]; ok {
			changed := string(rec.Kind) != string(link.Kind) || !stringPtrEqual(rec.Rationale, link.Rationale)
			rec.Kind = string(link.Kind)
			rec.Rationale = link.Rationale
			if changed {
				if err := edges.Update(ctx, rec); err != nil {
					return err
				}
				result.EdgesUpdated++
			}
			continue
		}
		rec := domain.ComponentEdgeRecord{
			ID:              domain.NewID(),
			FromComponentID: key.from,
			ToComponentID:   key.to,
			Relationship:    key.relationship,
			Kind:            string(link.Kind),
			Rationale:       link.Rationale,
		}
		if err := edges.Create(ctx, rec); err != nil {
			return err
		}
		result.EdgesCreated++
	}

	for key, rec := range existing {
		if _, ok := desired[key]; !ok {
			if err := edges.Delete(ctx, rec.ID); err != nil {
				return err
			}
			result.EdgesDeleted++
		}
	}

	return nil
}

func dedupe(ss []string) []string {
	seen := make(map[string]struct{}, len(ss))
	out := make([]string, 0, len(ss))
	for _, s := range ss {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func stringPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
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
