package reporting

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"ghillie/internal/domain"
	"ghillie/internal/repository"
	"ghillie/internal/service/evidence"
)

// ReportingWindow is the half-open time interval [Start, End) a report
// covers.
type ReportingWindow struct {
	Start time.Time
	End   time.Time
}

// Service orchestrates repository status report generation: window
// computation, evidence assembly, status-model invocation with
// validate-and-retry, persistence, and optional Markdown sink output.
type Service struct {
	db          *sql.DB
	evidenceSvc *evidence.Service
	statusModel StatusModel
	reports     domain.ReportRepository
	sink        ReportSink
	config      Config
	logger      *slog.Logger
}

// New constructs a reporting Service. sink may be nil to disable
// Markdown output.
func New(db *sql.DB, evidenceSvc *evidence.Service, statusModel StatusModel, sink ReportSink, config Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		db:          db,
		evidenceSvc: evidenceSvc,
		statusModel: statusModel,
		reports:     repository.NewReportRepo(db),
		sink:        sink,
		config:      config,
		logger:      logger,
	}
}

// ComputeNextWindow computes the next reporting window for a repository.
// The window starts where the previous report ended, or config.WindowDays
// before asOf when no prior report exists, and always ends at asOf.
func (s *Service) ComputeNextWindow(ctx context.Context, repositoryID string, asOf *time.Time) (ReportingWindow, error) {
	windowEnd := time.Now().UTC()
	if asOf != nil {
		windowEnd = *asOf
	}

	last, err := s.reports.GetLatestByRepository(ctx, repositoryID)
	if err != nil {
		return ReportingWindow{}, fmt.Errorf("fetch last report: %w", err)
	}

	var windowStart time.Time
	if last != nil {
		// Guard against a backdated asOf producing an inverted window.
		windowStart = last.WindowEnd
		if windowEnd.Before(windowStart) {
			windowStart = windowEnd
		}
	} else {
		windowStart = windowEnd.Add(-time.Duration(s.config.WindowDays) * 24 * time.Hour)
	}

	return ReportingWindow{Start: windowStart, End: windowEnd}, nil
}

// GenerateReport generates a repository report for [windowStart, windowEnd).
// If bundle is nil, one is built from the evidence service.
func (s *Service) GenerateReport(ctx context.Context, repositoryID string, windowStart, windowEnd time.Time, bundle *evidence.RepositoryEvidenceBundle) (*domain.Report, error) {
	if !windowEnd.After(windowStart) {
		return nil, domain.ErrValidation(fmt.Sprintf(
			"window_end must be after window_start, got start=%s end=%s",
			windowStart.Format(time.RFC3339), windowEnd.Format(time.RFC3339)))
	}

	if bundle == nil {
		built, err := s.evidenceSvc.BuildBundle(ctx, repositoryID, windowStart, windowEnd)
		if err != nil {
			return nil, fmt.Errorf("build evidence bundle: %w", err)
		}
		bundle = built
	}

	maxAttempts := s.config.ValidationMaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var (
		accepted     StatusResult
		metrics      *InvocationMetrics
		latencyMS    int64
		lastIssues   []domain.ReportValidationIssue
		attemptCount int
		valid        bool
	)

	for attemptCount = 1; attemptCount <= maxAttempts; attemptCount++ {
		started := time.Now()
		result, err := s.statusModel.SummarizeRepository(ctx, bundle)
		latencyMS = time.Since(started).Milliseconds()
		if err != nil {
			lastIssues = []domain.ReportValidationIssue{{Field: "status_model", Message: err.Error()}}
			continue
		}

		issues := validateStatusResult(result)
		if len(issues) == 0 {
			accepted = result
			valid = true
			if mp, ok := s.statusModel.(metricsProvider); ok {
				metrics = mp.LastInvocationMetrics()
			}
			break
		}
		lastIssues = issues
	}

	if !valid {
		reviewID, err := s.recordReportReview(ctx, repositoryID, windowStart, windowEnd, attemptCount-1, lastIssues)
		if err != nil {
			return nil, fmt.Errorf("record report review: %w", err)
		}
		return nil, domain.ErrReportValidation(reviewID, lastIssues)
	}

	report := domain.Report{
		ID:              domain.NewID(),
		Scope:           domain.ReportScopeRepository,
		RepositoryID:    &repositoryID,
		WindowStart:     windowStart,
		WindowEnd:       windowEnd,
		GeneratedAt:     time.Now().UTC(),
		ModelIdentifier: modelIdentifierFor(s.statusModel),
		HumanText:       &accepted.Summary,
		MachineSummary: domain.MachineSummary{
			Status:     accepted.Status,
			Summary:    accepted.Summary,
			Highlights: accepted.Highlights,
			Risks:      accepted.Risks,
			NextSteps:  accepted.NextSteps,
		},
		LatencyMS: &latencyMS,
	}
	if metrics != nil {
		report.PromptTokens = metrics.PromptTokens
		report.CompletionTokens = metrics.CompletionTokens
		report.TotalTokens = metrics.TotalTokens
	}

	if err := repository.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := repository.NewReportRepo(s.db).WithTx(tx).Create(ctx, report); err != nil {
			return fmt.Errorf("create report: %w", err)
		}
		if len(bundle.EventFactIDs) > 0 {
			coverage := make([]domain.ReportCoverageRow, 0, len(bundle.EventFactIDs))
			for _, id := range bundle.EventFactIDs {
				coverage = append(coverage, domain.ReportCoverageRow{ReportID: report.ID, EventFactID: id})
			}
			if err := repository.NewReportCoverageRepo(s.db).WithTx(tx).CreateMany(ctx, coverage); err != nil {
				return fmt.Errorf("create report coverage: %w", err)
			}
		}
		return nil
	}); err != nil {
		return nil, err
	}

	s.writeToSink(ctx, report, bundle.Repository)

	return &report, nil
}

func (s *Service) recordReportReview(ctx context.Context, repositoryID string, windowStart, windowEnd time.Time, attemptCount int, issues []domain.ReportValidationIssue) (string, error) {
	var reviewID string
	err := repository.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		reviews := repository.NewReportReviewRepo(s.db).WithTx(tx)
		existing, err := reviews.GetPending(ctx, repositoryID, windowStart, windowEnd)
		if err != nil {
			return fmt.Errorf("fetch pending report review: %w", err)
		}
		review := domain.ReportReview{
			ID:           domain.NewID(),
			RepositoryID: repositoryID,
			WindowStart:  windowStart,
			WindowEnd:    windowEnd,
			State:        domain.ReportReviewPending,
			AttemptCount: attemptCount,
			Issues:       issues,
		}
		if existing != nil {
			review.ID = existing.ID
		}
		if err := reviews.Upsert(ctx, review); err != nil {
			return fmt.Errorf("upsert report review: %w", err)
		}
		reviewID = review.ID
		return nil
	})
	return reviewID, err
}

// writeToSink renders and writes the Markdown report outside the
// persistence transaction; a sink failure is logged, never returned,
// since the report is already durable.
func (s *Service) writeToSink(ctx context.Context, report domain.Report, repo evidence.RepositoryMetadata) {
	if s.sink == nil {
		return
	}
	markdown := RenderReportMarkdown(report, repo.Owner, repo.Name)
	metadata := ReportMetadata{
		Owner:     repo.Owner,
		Name:      repo.Name,
		ReportID:  report.ID,
		WindowEnd: report.WindowEnd.Format("2006-01-02"),
	}
	if err := s.sink.WriteReport(ctx, markdown, metadata); err != nil {
		s.logger.Warn("report sink write failed", "repository", repo.Slug(), "report_id", report.ID, "error", err)
	}
}

// RunForRepository computes the next window and generates a report,
// returning nil without writing anything if the window has no events.
func (s *Service) RunForRepository(ctx context.Context, repositoryID string, asOf *time.Time) (*domain.Report, error) {
	window, err := s.ComputeNextWindow(ctx, repositoryID, asOf)
	if err != nil {
		return nil, err
	}

	bundle, err := s.evidenceSvc.BuildBundle(ctx, repositoryID, window.Start, window.End)
	if err != nil {
		return nil, fmt.Errorf("build evidence bundle: %w", err)
	}
	if bundle.TotalEventCount() == 0 {
		return nil, nil
	}

	return s.GenerateReport(ctx, repositoryID, window.Start, window.End, bundle)
}

// validateStatusResult checks a StatusResult's basic well-formedness:
// summary non-empty, status a valid ReportStatus, and every highlight /
// risk / next-step a non-empty string.
func validateStatusResult(result StatusResult) []domain.ReportValidationIssue {
	var issues []domain.ReportValidationIssue
	if result.Summary == "" {
		issues = append(issues, domain.ReportValidationIssue{Field: "summary", Message: "must be non-empty"})
	}
	switch result.Status {
	case domain.ReportStatusOnTrack, domain.ReportStatusAtRisk, domain.ReportStatusBlocked, domain.ReportStatusUnknown:
	default:
		issues = append(issues, domain.ReportValidationIssue{Field: "status", Message: fmt.Sprintf("not a valid report status: %q", result.Status)})
	}
	issues = append(issues, validateNonEmptyStrings("highlights", result.Highlights)...)
	issues = append(issues, validateNonEmptyStrings("risks", result.Risks)...)
	issues = append(issues, validateNonEmptyStrings("next_steps", result.NextSteps)...)
	return issues
}

func validateNonEmptyStrings(field string, items []string) []domain.ReportValidationIssue {
	var issues []domain.ReportValidationIssue
	for i, item := range items {
		if item == "" {
			issues = append(issues, domain.ReportValidationIssue{
				Field:   fmt.Sprintf("%s[%d]", field, i),
				Message: "must be non-empty",
			})
		}
	}
	return issues
}
