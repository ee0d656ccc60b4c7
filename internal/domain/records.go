package domain

import (
	"strings"
	"time"
)

// Estate is a tenant-like scope grouping projects.
type Estate struct {
	ID        string
	Key       string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProjectRecord is the persisted form of a catalogue project.
type ProjectRecord struct {
	ID                 string
	EstateID           string
	Key                string
	Name               string
	Description        *string
	ProgrammeKey       *string
	NoiseJSON          string
	StatusJSON         string
	DocumentationPaths []string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// ComponentRecord is the persisted form of a catalogue component.
type ComponentRecord struct {
	ID           string
	EstateID     string
	ProjectID    string
	Key          string
	Name         string
	Type         string
	Lifecycle    string
	Description  *string
	RepositoryID *string
	Notes        []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ComponentEdgeRecord is a directed edge between two components.
type ComponentEdgeRecord struct {
	ID              string
	FromComponentID string
	ToComponentID   string
	Relationship    string
	Kind            string
	Rationale       *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// RepositoryRecord is the catalogue-side declaration of a source
// repository, identified by owner/name and shared across estates.
type RepositoryRecord struct {
	ID                 string
	Owner              string
	Name               string
	DefaultBranch      string
	DocumentationPaths []string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Slug returns the owner/name identifier used as this record's identity.
func (r RepositoryRecord) Slug() string { return r.Owner + "/" + r.Name }

// CatalogueImportRecordRow is the (estate, commit) idempotency marker.
type CatalogueImportRecordRow struct {
	ID        string
	EstateID  string
	CommitSHA string
	CreatedAt time.Time
}

// SilverRepository is the operational ingestion target mirrored from the
// catalogue by the registry synchroniser.
type SilverRepository struct {
	ID                    string
	Owner                 string
	Name                  string
	DefaultBranch         string
	EstateID              *string
	CatalogueRepositoryID *string
	IngestionEnabled      bool
	DocumentationPaths    []string
	LastSyncedAt          *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// Slug returns the owner/name identifier for this Silver repository.
func (r SilverRepository) Slug() string { return r.Owner + "/" + r.Name }

// EventFact is a unifying fact row produced by ingestion for every
// commit, pull request, issue, or documentation change. Read-only to
// this module's core.
type EventFact struct {
	ID                 string
	SilverRepositoryID string
	OccurredAt         time.Time
}

// Commit is a Silver-layer commit record.
type Commit struct {
	ID                 string
	SilverRepositoryID string
	EventFactID        *string
	SHA                string
	Message            *string
	Author             *string
	CommittedAt        time.Time
}

// PullRequest is a Silver-layer pull request record.
type PullRequest struct {
	ID                 string
	SilverRepositoryID string
	EventFactID        *string
	Number             int
	Title              *string
	Labels             []string
	Author             *string
	State              *string
	CreatedAt          *time.Time
	MergedAt           *time.Time
	ClosedAt           *time.Time
}

// Issue is a Silver-layer issue record.
type Issue struct {
	ID                 string
	SilverRepositoryID string
	EventFactID        *string
	Number             int
	Title              *string
	Labels             []string
	Author             *string
	State              *string
	CreatedAt          *time.Time
	ClosedAt           *time.Time
}

// DocumentationChange is a Silver-layer documentation edit record.
type DocumentationChange struct {
	ID                 string
	SilverRepositoryID string
	EventFactID        *string
	Path               string
	OccurredAt         time.Time
	Author             *string
}

// ReportScope enumerates the granularity a Report was generated at.
type ReportScope string

const (
	ReportScopeRepository ReportScope = "repository"
	ReportScopeProject    ReportScope = "project"
	ReportScopeEstate     ReportScope = "estate"
)

// ReportStatus enumerates the machine-summary status values.
type ReportStatus string

const (
	ReportStatusOnTrack ReportStatus = "on_track"
	ReportStatusAtRisk  ReportStatus = "at_risk"
	ReportStatusBlocked ReportStatus = "blocked"
	ReportStatusUnknown ReportStatus = "unknown"
)

// ParseReportStatus parses a status string case-insensitively, mapping
// anything unrecognised (including empty) to ReportStatusUnknown.
func ParseReportStatus(s string) ReportStatus {
	switch status := ReportStatus(strings.ToLower(s)); status {
	case ReportStatusOnTrack, ReportStatusAtRisk, ReportStatusBlocked:
		return status
	default:
		return ReportStatusUnknown
	}
}

// MachineSummary is the structured record a status model produces and a
// Report persists.
type MachineSummary struct {
	Status     ReportStatus `json:"status"`
	Summary    string       `json:"summary"`
	Highlights []string     `json:"highlights"`
	Risks      []string     `json:"risks"`
	NextSteps  []string     `json:"next_steps"`
}

// Report is a persisted status report at repository, project, or estate
// scope.
type Report struct {
	ID               string
	Scope            ReportScope
	RepositoryID     *string
	ProjectKey       *string
	EstateID         *string
	WindowStart      time.Time
	WindowEnd        time.Time
	GeneratedAt      time.Time
	ModelIdentifier  string
	HumanText        *string
	MachineSummary   MachineSummary
	LatencyMS        *int64
	PromptTokens     *int64
	CompletionTokens *int64
	TotalTokens      *int64
}

// ReportCoverageRow maps a Report to one EventFact it was built from.
type ReportCoverageRow struct {
	ReportID    string
	EventFactID string
}

// ReportReviewState enumerates the lifecycle of a human-review marker.
type ReportReviewState string

const (
	ReportReviewPending   ReportReviewState = "pending"
	ReportReviewResolved  ReportReviewState = "resolved"
	ReportReviewDismissed ReportReviewState = "dismissed"
)

// ReportReview flags a reporting window whose report could not be
// validated after retries.
type ReportReview struct {
	ID           string
	RepositoryID string
	WindowStart  time.Time
	WindowEnd    time.Time
	State        ReportReviewState
	AttemptCount int
	Issues       []ReportValidationIssue
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
