// Package evidence implements the repository-scope and
// project-scope evidence assemblers: read-only queries over the
// Silver layer and the catalogue, classified and shaped into immutable
// bundles ready for status-model summarisation.
package evidence

import (
	"time"

	"ghillie/internal/domain"
)

// WorkType enumerates the kind of work an event represents, as
// classified by label or title heuristics.
type WorkType string

const (
	WorkTypeFeature       WorkType = "feature"
	WorkTypeBug           WorkType = "bug"
	WorkTypeRefactor      WorkType = "refactor"
	WorkTypeChore         WorkType = "chore"
	WorkTypeDocumentation WorkType = "documentation"
	WorkTypeUnknown       WorkType = "unknown"
)

// allWorkTypes enumerates WorkType in the fixed order groupings are
// evaluated.
var allWorkTypes = []WorkType{
	WorkTypeFeature, WorkTypeBug, WorkTypeRefactor, WorkTypeChore,
	WorkTypeDocumentation, WorkTypeUnknown,
}

// RepositoryMetadata is the repository identity carried by a bundle.
type RepositoryMetadata struct {
	ID                 string
	Owner              string
	Name               string
	DefaultBranch      string
	EstateID           *string
	DocumentationPaths []string
}

// Slug returns the owner/name identifier.
func (m RepositoryMetadata) Slug() string { return m.Owner + "/" + m.Name }

// CommitEvidence is a classified commit.
type CommitEvidence struct {
	SHA           string
	Message       *string
	Author        *string
	CommittedAt   *time.Time
	WorkType      WorkType
	IsMergeCommit bool
}

// PullRequestEvidence is a classified pull request.
type PullRequestEvidence struct {
	Number    int
	Title     *string
	Author    *string
	State     *string
	Labels    []string
	CreatedAt *time.Time
	MergedAt  *time.Time
	ClosedAt  *time.Time
	WorkType  WorkType
}

// IssueEvidence is a classified issue.
type IssueEvidence struct {
	Number    int
	Title     *string
	Author    *string
	State     *string
	Labels    []string
	CreatedAt *time.Time
	ClosedAt  *time.Time
	WorkType  WorkType
}

// DocumentationEvidence is a single documentation change.
type DocumentationEvidence struct {
	Path       string
	OccurredAt time.Time
	Author     *string
}

// PreviousReportSummary condenses a prior report for context.
type PreviousReportSummary struct {
	ReportID    string
	WindowStart time.Time
	WindowEnd   time.Time
	Status      domain.ReportStatus
	Highlights  []string
	Risks       []string
	EventCount  int
}

// WorkTypeGrouping aggregates a window's events by classified work type.
type WorkTypeGrouping struct {
	WorkType     WorkType
	CommitCount  int
	PRCount      int
	IssueCount   int
	SampleTitles []string
}

// RepositoryEvidenceBundle is the complete evidence for one repository's
// reporting window.
type RepositoryEvidenceBundle struct {
	Repository           RepositoryMetadata
	WindowStart          time.Time
	WindowEnd            time.Time
	PreviousReports      []PreviousReportSummary
	Commits              []CommitEvidence
	PullRequests         []PullRequestEvidence
	Issues               []IssueEvidence
	DocumentationChanges []DocumentationEvidence
	WorkTypeGroupings    []WorkTypeGrouping
	EventFactIDs         []string
	GeneratedAt          time.Time
}

// TotalEventCount is the sum of every event kind in the bundle.
func (b RepositoryEvidenceBundle) TotalEventCount() int {
	return len(b.Commits) + len(b.PullRequests) + len(b.Issues) + len(b.DocumentationChanges)
}

// HasPreviousContext reports whether any prior report was attached.
func (b RepositoryEvidenceBundle) HasPreviousContext() bool {
	return len(b.PreviousReports) > 0
}

// ProjectMetadata is the project identity carried by a project bundle.
type ProjectMetadata struct {
	Key                string
	Name               string
	Description        *string
	Programme          *string
	DocumentationPaths []string
}

// ComponentRepositorySummary condenses a component's linked repository's
// most recent report.
type ComponentRepositorySummary struct {
	RepositorySlug string
	ReportID       string
	WindowStart    time.Time
	WindowEnd      time.Time
	Status         domain.ReportStatus
	Summary        string
	Highlights     []string
	Risks          []string
	NextSteps      []string
	GeneratedAt    time.Time
}

// ComponentEvidence is one project component, optionally joined with its
// linked repository's latest report summary.
type ComponentEvidence struct {
	Key               string
	Name              string
	ComponentType     string
	Lifecycle         string
	Description       *string
	RepositorySlug    *string
	RepositorySummary *ComponentRepositorySummary
	Notes             []string
}

// ComponentDependencyEvidence is one directed edge between two
// components of the same project.
type ComponentDependencyEvidence struct {
	FromComponent string
	ToComponent   string
	Relationship  string
	Kind          string
	Rationale     *string
}

// ProjectEvidenceBundle is the complete evidence for one project's
// status report.
type ProjectEvidenceBundle struct {
	Project         ProjectMetadata
	Components      []ComponentEvidence
	Dependencies    []ComponentDependencyEvidence
	PreviousReports []PreviousReportSummary
	GeneratedAt     time.Time
}
