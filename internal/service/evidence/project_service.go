package evidence

import (
	"context"
	"fmt"
	"time"

	"ghillie/internal/domain"
)

// ProjectService builds project-scope evidence bundles by joining
// catalogue projects/components/edges with each linked repository's
// latest Silver/Gold report.
type ProjectService struct {
	projects           domain.ProjectRepository
	components         domain.ComponentRepository
	edges              domain.ComponentEdgeRepository
	silverRepos        domain.SilverRepositoryRepository
	reports            domain.ReportRepository
	maxPreviousReports int
}

// NewProjectService constructs a project-scope evidence ProjectService.
func NewProjectService(projects domain.ProjectRepository, components domain.ComponentRepository, edges domain.ComponentEdgeRepository, silverRepos domain.SilverRepositoryRepository, reports domain.ReportRepository) *ProjectService {
	return &ProjectService{
		projects:           projects,
		components:         components,
		edges:              edges,
		silverRepos:        silverRepos,
		reports:            reports,
		maxPreviousReports: defaultMaxPreviousReports,
	}
}

// BuildBundle assembles the complete evidence for projectKey within
// estateID.
func (s *ProjectService) BuildBundle(ctx context.Context, projectKey, estateID string) (*ProjectEvidenceBundle, error) {
	project, err := s.findProject(ctx, projectKey, estateID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, domain.ErrEvidence("project not found: key=%q estate_id=%q", projectKey, estateID)
	}

	components, err := s.components.ListByProject(ctx, project.ID)
	if err != nil {
		return nil, fmt.Errorf("list project components: %w", err)
	}

	componentIDs := make([]string, 0, len(components))
	componentKeyByID := make(map[string]string, len(components))
	repoCatIDs := make([]string, 0, len(components))
	for _, c := range components {
		componentIDs = append(componentIDs, c.ID)
		componentKeyByID[c.ID] = c.Key
		if c.RepositoryID != nil {
			repoCatIDs = append(repoCatIDs, *c.RepositoryID)
		}
	}

	edges, err := s.edges.ListByFromComponents(ctx, componentIDs)
	if err != nil {
		return nil, fmt.Errorf("list component edges: %w", err)
	}

	summariesByCatID, err := s.fetchLatestSummaries(ctx, repoCatIDs, estateID)
	if err != nil {
		return nil, fmt.Errorf("fetch latest repository summaries: %w", err)
	}

	repoSlugByCatID := make(map[string]string, len(summariesByCatID))
	for catID, summary := range summariesByCatID {
		repoSlugByCatID[catID] = summary.RepositorySlug
	}

	previous, err := s.reports.ListPreviousByProject(ctx, projectKey, estateID, time.Now().UTC(), s.maxPreviousReports)
	if err != nil {
		return nil, fmt.Errorf("fetch previous project reports: %w", err)
	}
	previousSummaries := make([]PreviousReportSummary, 0, len(previous))
	for _, r := range previous {
		previousSummaries = append(previousSummaries, PreviousReportSummary{
			ReportID:    r.ID,
			WindowStart: r.WindowStart,
			WindowEnd:   r.WindowEnd,
			Status:      r.MachineSummary.Status,
			Highlights:  r.MachineSummary.Highlights,
			Risks:       r.MachineSummary.Risks,
		})
	}

	return &ProjectEvidenceBundle{
		Project:         buildProjectMetadata(*project),
		Components:      buildComponentEvidence(components, repoSlugByCatID, summariesByCatID),
		Dependencies:    buildDependencyEvidence(edges, componentKeyByID),
		PreviousReports: previousSummaries,
		GeneratedAt:     time.Now().UTC(),
	}, nil
}

func (s *ProjectService) findProject(ctx context.Context, projectKey, estateID string) (*domain.ProjectRecord, error) {
	all, err := s.projects.ListByEstate(ctx, estateID)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].Key == projectKey {
			return &all[i], nil
		}
	}
	return nil, nil
}

// fetchLatestSummaries maps each catalogue repository id reachable from
// the project's components to its Silver repository's single most
// recent report, via the windowed row_number query behind
// ReportRepository.LatestByRepositoryIDs.
func (s *ProjectService) fetchLatestSummaries(ctx context.Context, catalogueRepoIDs []string, estateID string) (map[string]ComponentRepositorySummary, error) {
	if len(catalogueRepoIDs) == 0 {
		return map[string]ComponentRepositorySummary{}, nil
	}

	silverRepos, err := s.silverRepos.ListByCatalogueRepositoryIDsAndEstate(ctx, catalogueRepoIDs, estateID)
	if err != nil {
		return nil, err
	}
	if len(silverRepos) == 0 {
		return map[string]ComponentRepositorySummary{}, nil
	}

	catIDBySilverID := make(map[string]string, len(silverRepos))
	slugBySilverID := make(map[string]string, len(silverRepos))
	silverIDs := make([]string, 0, len(silverRepos))
	for _, r := range silverRepos {
		if r.CatalogueRepositoryID == nil {
			continue
		}
		catIDBySilverID[r.ID] = *r.CatalogueRepositoryID
		slugBySilverID[r.ID] = r.Slug()
		silverIDs = append(silverIDs, r.ID)
	}

	latestByRepo, err := s.reports.LatestByRepositoryIDs(ctx, silverIDs)
	if err != nil {
		return nil, err
	}

	out := make(map[string]ComponentRepositorySummary, len(latestByRepo))
	for silverID, catID := range catIDBySilverID {
		report, ok := latestByRepo[silverID]
		if !ok {
			continue
		}
		out[catID] = ComponentRepositorySummary{
			RepositorySlug: slugBySilverID[silverID],
			ReportID:       report.ID,
			WindowStart:    report.WindowStart,
			WindowEnd:      report.WindowEnd,
			Status:         report.MachineSummary.Status,
			Summary:        report.MachineSummary.Summary,
			Highlights:     report.MachineSummary.Highlights,
			Risks:          report.MachineSummary.Risks,
			NextSteps:      report.MachineSummary.NextSteps,
			GeneratedAt:    report.GeneratedAt,
		}
	}
	return out, nil
}

func buildProjectMetadata(p domain.ProjectRecord) ProjectMetadata {
	return ProjectMetadata{
		Key:                p.Key,
		Name:               p.Name,
		Description:        p.Description,
		Programme:          p.ProgrammeKey,
		DocumentationPaths: p.DocumentationPaths,
	}
}

func buildComponentEvidence(components []domain.ComponentRecord, repoSlugByCatID map[string]string, summariesByCatID map[string]ComponentRepositorySummary) []ComponentEvidence {
	out := make([]ComponentEvidence, 0, len(components))
	for _, c := range components {
		var slug *string
		var summary *ComponentRepositorySummary
		if c.RepositoryID != nil {
			if s, ok := repoSlugByCatID[*c.RepositoryID]; ok {
				slug = &s
			}
			if sm, ok := summariesByCatID[*c.RepositoryID]; ok {
				summary = &sm
			}
		}
		out = append(out, ComponentEvidence{
			Key:               c.Key,
			Name:              c.Name,
			ComponentType:     c.Type,
			Lifecycle:         c.Lifecycle,
			Description:       c.Description,
			RepositorySlug:    slug,
			RepositorySummary: summary,
			Notes:             c.Notes,
		})
	}
	return out
}

// buildDependencyEvidence resolves edges to component keys, silently
// skipping any edge whose target falls outside this project's component
// set (a cross-project edge).
func buildDependencyEvidence(edges []domain.ComponentEdgeRecord, componentKeyByID map[string]string) []ComponentDependencyEvidence {
	out := make([]ComponentDependencyEvidence, 0, len(edges))
	for _, e := range edges {
		fromKey, ok := componentKeyByID[e.FromComponentID]
		if !ok {
			continue
		}
		toKey, ok := componentKeyByID[e.ToComponentID]
		if !ok {
			continue
		}
		out = append(out, ComponentDependencyEvidence{
			FromComponent: fromKey,
			ToComponent:   toKey,
			Relationship:  e.Relationship,
			Kind:          e.Kind,
			Rationale:     e.Rationale,
		})
	}
	return out
}
