// Package domain defines the core value objects, identifiers, and error
// taxonomy shared by the catalogue importer, registry synchroniser, and
// reporting orchestrator.
package domain

import "fmt"

// ValidationError carries the complete list of issues found while
// validating a catalogue document or a reporting operation's
// arguments. Always carries at least one issue.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 1 {
		return e.Issues[0]
	}
	return fmt.Sprintf("%d validation issues: %s", len(e.Issues), e.Issues[0])
}

// ErrValidation builds a ValidationError from one or more issue strings.
func ErrValidation(issues ...string) *ValidationError {
	return &ValidationError{Issues: issues}
}

// RepositoryNotFoundError is raised by registry ingestion toggles when the
// requested owner/name slug has no matching Silver Repository row.
type RepositoryNotFoundError struct {
	Slug string
}

func (e *RepositoryNotFoundError) Error() string {
	return fmt.Sprintf("repository %q not found", e.Slug)
}

// ErrRepositoryNotFound builds a RepositoryNotFoundError for slug.
func ErrRepositoryNotFound(slug string) *RepositoryNotFoundError {
	return &RepositoryNotFoundError{Slug: slug}
}

// NegativePaginationError is raised by list operations when limit or
// offset is negative.
type NegativePaginationError struct {
	Limit  int
	Offset int
}

func (e *NegativePaginationError) Error() string {
	return fmt.Sprintf("limit and offset must be non-negative, got limit=%d offset=%d", e.Limit, e.Offset)
}

// ErrNegativePagination builds a NegativePaginationError for the given
// limit/offset pair.
func ErrNegativePagination(limit, offset int) *NegativePaginationError {
	return &NegativePaginationError{Limit: limit, Offset: offset}
}

// RegistrySyncError carries the estate key and reason for a failed
// registry synchronisation.
type RegistrySyncError struct {
	EstateKey string
	Reason    string
}

func (e *RegistrySyncError) Error() string {
	return fmt.Sprintf("registry sync failed for estate %q: %s", e.EstateKey, e.Reason)
}

// ErrRegistrySync builds a RegistrySyncError.
func ErrRegistrySync(estateKey, format string, args ...any) *RegistrySyncError {
	return &RegistrySyncError{EstateKey: estateKey, Reason: fmt.Sprintf(format, args...)}
}

// EvidenceError is raised by the evidence assemblers when a repository or
// project cannot be found.
type EvidenceError struct {
	Message string
}

func (e *EvidenceError) Error() string { return e.Message }

// ErrEvidence builds an EvidenceError with a formatted message.
func ErrEvidence(format string, args ...any) *EvidenceError {
	return &EvidenceError{Message: fmt.Sprintf(format, args...)}
}

// ReportValidationIssue records one invalid aspect of a status model's
// result during a single attempt of the validate-and-retry loop.
type ReportValidationIssue struct {
	Field   string
	Message string
}

func (i ReportValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", i.Field, i.Message)
}

// ReportValidationError is raised once the reporting orchestrator's
// validate-and-retry loop is exhausted without producing a valid
// StatusResult. It carries the issues from the last attempt and the id of
// the ReportReview marker recording the failure for human review.
type ReportValidationError struct {
	Issues   []ReportValidationIssue
	ReviewID string
}

func (e *ReportValidationError) Error() string {
	return fmt.Sprintf("report validation failed after exhausting retries (review=%s): %d issue(s)", e.ReviewID, len(e.Issues))
}

// ErrReportValidation builds a ReportValidationError.
func ErrReportValidation(reviewID string, issues []ReportValidationIssue) *ReportValidationError {
	return &ReportValidationError{Issues: issues, ReviewID: reviewID}
}

// EstateReportError is raised by the estate-wide reporting driver,
// wrapping every individual repository failure so that one bad repository
// does not abort the others.
type EstateReportError struct {
	Failures []error
}

func (e *EstateReportError) Error() string {
	return fmt.Sprintf("%d of the estate's repositories failed to report", len(e.Failures))
}

// ErrEstateReport builds an EstateReportError from the collected failures.
func ErrEstateReport(failures []error) *EstateReportError {
	return &EstateReportError{Failures: failures}
}

// RawEventTransformError is raised by ingestion transformers (out of
// scope for this module; declared only because the Silver schema
// contracts on it as a documented external failure mode).
type RawEventTransformError struct {
	Message string
}

func (e *RawEventTransformError) Error() string { return e.Message }
