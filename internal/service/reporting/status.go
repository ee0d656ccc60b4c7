package reporting

import (
	"context"
	"fmt"
	"strings"

	"ghillie/internal/domain"
	"ghillie/internal/service/evidence"
)

// StatusResult is the structured output a status model produces from a
// repository evidence bundle.
type StatusResult struct {
	Summary    string
	Status     domain.ReportStatus
	Highlights []string
	Risks      []string
	NextSteps  []string
}

// InvocationMetrics carries token accounting for a single status-model
// invocation, read from the model's optional side channel.
type InvocationMetrics struct {
	PromptTokens     *int64
	CompletionTokens *int64
	TotalTokens      *int64
}

// StatusModel is the pluggable capability that turns an evidence bundle
// into a StatusResult.
type StatusModel interface {
	SummarizeRepository(ctx context.Context, bundle *evidence.RepositoryEvidenceBundle) (StatusResult, error)
}

// metricsProvider is implemented by status models that expose token
// accounting for their most recent invocation.
type metricsProvider interface {
	LastInvocationMetrics() *InvocationMetrics
}

// modelIdentifier is implemented by status models that carry an explicit
// identifier distinct from their Go type name.
type modelIdentifier interface {
	ModelID() string
}

// modelIdentifierFor returns the model's declared ModelID if it exposes
// one, otherwise a lowercased class-style name derived from its Go type.
func modelIdentifierFor(model StatusModel) string {
	if m, ok := model.(modelIdentifier); ok {
		return m.ModelID()
	}
	name := fmt.Sprintf("%T", model)
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		name = name[idx+1:]
	}
	return strings.ToLower(strings.TrimPrefix(name, "*"))
}

// MockStatusModel is a deterministic, test-friendly StatusModel that
// always returns the same configured result.
type MockStatusModel struct {
	Result StatusResult
}

// NewMockStatusModel builds a MockStatusModel returning an always-valid,
// generic "on track" summary.
func NewMockStatusModel() *MockStatusModel {
	return &MockStatusModel{
		Result: StatusResult{
			Summary:    "Repository activity reviewed; no material concerns found.",
			Status:     domain.ReportStatusOnTrack,
			Highlights: []string{"Routine activity observed in the reporting window."},
		},
	}
}

func (m *MockStatusModel) SummarizeRepository(_ context.Context, bundle *evidence.RepositoryEvidenceBundle) (StatusResult, error) {
	if m.Result.Summary != "" {
		return m.Result, nil
	}
	return StatusResult{
		Summary:    "Reviewed " + bundle.Repository.Slug() + " with no material findings.",
		Status:     domain.ReportStatusOnTrack,
		Highlights: nil,
	}, nil
}

func (m *MockStatusModel) ModelID() string { return "mock-v1" }
