package evidence

import (
	"context"
	"fmt"
	"time"

	"ghillie/internal/domain"
)

// defaultMaxPreviousReports caps how many prior reports a bundle
// carries for context.
const defaultMaxPreviousReports = 2

// Service builds repository-scope evidence bundles from the Silver
// layer.
type Service struct {
	silverRepos        domain.SilverRepositoryRepository
	events             domain.SilverEventsRepository
	reports            domain.ReportRepository
	reportCoverage     domain.ReportCoverageRepository
	classification     ClassificationConfig
	maxPreviousReports int
}

// New constructs a repository-scope evidence Service.
func New(silverRepos domain.SilverRepositoryRepository, events domain.SilverEventsRepository, reports domain.ReportRepository, reportCoverage domain.ReportCoverageRepository) *Service {
	return &Service{
		silverRepos:        silverRepos,
		events:             events,
		reports:            reports,
		reportCoverage:     reportCoverage,
		classification:     DefaultClassificationConfig(),
		maxPreviousReports: defaultMaxPreviousReports,
	}
}

// WithClassificationConfig overrides the default label/title rules.
func (s *Service) WithClassificationConfig(cfg ClassificationConfig) *Service {
	s.classification = cfg
	return s
}

// BuildBundle assembles the complete evidence for repositoryID's
// [windowStart, windowEnd) window.
func (s *Service) BuildBundle(ctx context.Context, repositoryID string, windowStart, windowEnd time.Time) (*RepositoryEvidenceBundle, error) {
	repo, err := s.findRepository(ctx, repositoryID)
	if err != nil {
		return nil, err
	}
	if repo == nil {
		return nil, domain.ErrEvidence("repository not found: %s", repositoryID)
	}

	previous, err := s.fetchPreviousReports(ctx, repositoryID, windowStart)
	if err != nil {
		return nil, fmt.Errorf("fetch previous reports: %w", err)
	}

	commits, err := s.events.ListCommitsInWindow(ctx, repositoryID, windowStart, windowEnd)
	if err != nil {
		return nil, fmt.Errorf("fetch commits: %w", err)
	}
	prs, err := s.events.ListPullRequestsInWindow(ctx, repositoryID, windowStart, windowEnd)
	if err != nil {
		return nil, fmt.Errorf("fetch pull requests: %w", err)
	}
	issues, err := s.events.ListIssuesInWindow(ctx, repositoryID, windowStart, windowEnd)
	if err != nil {
		return nil, fmt.Errorf("fetch issues: %w", err)
	}
	docs, err := s.events.ListDocumentationChangesInWindow(ctx, repositoryID, windowStart, windowEnd)
	if err != nil {
		return nil, fmt.Errorf("fetch documentation changes: %w", err)
	}
	eventFactIDs, err := s.events.ListEventFactIDsInWindow(ctx, repositoryID, windowStart, windowEnd)
	if err != nil {
		return nil, fmt.Errorf("fetch event fact ids: %w", err)
	}

	commitEvidence := s.buildCommitEvidence(commits)
	prEvidence := s.buildPREvidence(prs)
	issueEvidence := s.buildIssueEvidence(issues)
	docEvidence := buildDocEvidence(docs)

	return &RepositoryEvidenceBundle{
		Repository:           buildRepositoryMetadata(*repo),
		WindowStart:          windowStart,
		WindowEnd:            windowEnd,
		PreviousReports:      previous,
		Commits:              commitEvidence,
		PullRequests:         prEvidence,
		Issues:               issueEvidence,
		DocumentationChanges: docEvidence,
		WorkTypeGroupings:    computeWorkTypeGroupings(commitEvidence, prEvidence, issueEvidence),
		EventFactIDs:         eventFactIDs,
		GeneratedAt:          time.Now().UTC(),
	}, nil
}

func (s *Service) findRepository(ctx context.Context, repositoryID string) (*domain.SilverRepository, error) {
	return s.silverRepos.GetByID(ctx, repositoryID)
}

func (s *Service) fetchPreviousReports(ctx context.Context, repositoryID string, before time.Time) ([]PreviousReportSummary, error) {
	reports, err := s.reports.ListPreviousByRepository(ctx, repositoryID, before, s.maxPreviousReports)
	if err != nil {
		return nil, err
	}
	out := make([]PreviousReportSummary, 0, len(reports))
	for _, r := range reports {
		count, err := s.reportCoverage.CountByReport(ctx, r.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, PreviousReportSummary{
			ReportID:    r.ID,
			WindowStart: r.WindowStart,
			WindowEnd:   r.WindowEnd,
			Status:      r.MachineSummary.Status,
			Highlights:  r.MachineSummary.Highlights,
			Risks:       r.MachineSummary.Risks,
			EventCount:  count,
		})
	}
	return out, nil
}

func buildRepositoryMetadata(r domain.SilverRepository) RepositoryMetadata {
	return RepositoryMetadata{
		ID:                 r.ID,
		Owner:              r.Owner,
		Name:               r.Name,
		DefaultBranch:      r.DefaultBranch,
		EstateID:           r.EstateID,
		DocumentationPaths: r.DocumentationPaths,
	}
}

func (s *Service) buildCommitEvidence(commits []domain.Commit) []CommitEvidence {
	out := make([]CommitEvidence, 0, len(commits))
	for _, c := range commits {
		committedAt := c.CommittedAt
		out = append(out, CommitEvidence{
			SHA:           c.SHA,
			Message:       c.Message,
			Author:        c.Author,
			CommittedAt:   &committedAt,
			WorkType:      ClassifyCommit(c.Message, s.classification),
			IsMergeCommit: IsMergeCommit(c.Message),
		})
	}
	return out
}

func (s *Service) buildPREvidence(prs []domain.PullRequest) []PullRequestEvidence {
	out := make([]PullRequestEvidence, 0, len(prs))
	for _, pr := range prs {
		out = append(out, PullRequestEvidence{
			Number:    pr.Number,
			Title:     pr.Title,
			Author:    pr.Author,
			State:     pr.State,
			Labels:    pr.Labels,
			CreatedAt: pr.CreatedAt,
			MergedAt:  pr.MergedAt,
			ClosedAt:  pr.ClosedAt,
			WorkType:  ClassifyPullRequest(pr.Labels, pr.Title, s.classification),
		})
	}
	return out
}

func (s *Service) buildIssueEvidence(issues []domain.Issue) []IssueEvidence {
	out := make([]IssueEvidence, 0, len(issues))
	for _, is := range issues {
		out = append(out, IssueEvidence{
			Number:    is.Number,
			Title:     is.Title,
			Author:    is.Author,
			State:     is.State,
			Labels:    is.Labels,
			CreatedAt: is.CreatedAt,
			ClosedAt:  is.ClosedAt,
			WorkType:  ClassifyIssue(is.Labels, is.Title, s.classification),
		})
	}
	return out
}

func buildDocEvidence(docs []domain.DocumentationChange) []DocumentationEvidence {
	out := make([]DocumentationEvidence, 0, len(docs))
	for _, d := range docs {
		out = append(out, DocumentationEvidence{
			Path:       d.Path,
			OccurredAt: d.OccurredAt,
			Author:     d.Author,
		})
	}
	return out
}

const sampleTitleLimit = 5
const commitMessageTruncateLimit = 100

// computeWorkTypeGroupings buckets evidence by classified work type,
// excluding merge commits, and skips groupings with no events.
func computeWorkTypeGroupings(commits []CommitEvidence, prs []PullRequestEvidence, issues []IssueEvidence) []WorkTypeGrouping {
	type bucket struct {
		commitCount, prCount, issueCount int
		titles                           []string
	}
	buckets := make(map[WorkType]*bucket, len(allWorkTypes))
	for _, wt := range allWorkTypes {
		buckets[wt] = &bucket{}
	}

	for _, c := range commits {
		if c.IsMergeCommit {
			continue
		}
		b := buckets[c.WorkType]
		b.commitCount++
		if c.Message != nil {
			b.titles = append(b.titles, truncate(*c.Message, commitMessageTruncateLimit))
		}
	}
	for _, pr := range prs {
		b := buckets[pr.WorkType]
		b.prCount++
		if pr.Title != nil {
			b.titles = append(b.titles, *pr.Title)
		}
	}
	for _, is := range issues {
		b := buckets[is.WorkType]
		b.issueCount++
		if is.Title != nil {
			b.titles = append(b.titles, *is.Title)
		}
	}

	var out []WorkTypeGrouping
	for _, wt := range allWorkTypes {
		b := buckets[wt]
		if b.commitCount == 0 && b.prCount == 0 && b.issueCount == 0 {
			continue
		}
		samples := b.titles
		if len(samples) > sampleTitleLimit {
			samples = samples[:sampleTitleLimit]
		}
		out = append(out, WorkTypeGrouping{
			WorkType:     wt,
			CommitCount:  b.commitCount,
			PRCount:      b.prCount,
			IssueCount:   b.issueCount,
			SampleTitles: samples,
		})
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
