package reporting

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"ghillie/internal/domain"
)

// MetricsSnapshot aggregates reporting cost and latency metrics over an
// operator-defined period.
type MetricsSnapshot struct {
	PeriodStart           time.Time
	PeriodEnd             time.Time
	TotalReports          int
	ReportsWithMetrics    int
	AvgLatencyMS          *float64
	P95LatencyMS          *float64
	TotalPromptTokens     int64
	TotalCompletionTokens int64
	TotalTokens           int64
}

// MetricsRepository is the narrow read port the metrics service needs
// from the Gold layer: per-report latency/token rows for a scope and
// period.
type MetricsRepository interface {
	ListMetricsRows(ctx context.Context, estateID *string, periodStart, periodEnd time.Time) ([]domain.Report, error)
}

// MetricsService queries reporting cost and latency metrics from
// Gold-layer reports.
type MetricsService struct {
	repo MetricsRepository
}

// NewMetricsService builds a MetricsService over repo.
func NewMetricsService(repo MetricsRepository) *MetricsService {
	return &MetricsService{repo: repo}
}

// GetMetricsForPeriod aggregates metrics for every repository-scope
// report in [periodStart, periodEnd).
func (s *MetricsService) GetMetricsForPeriod(ctx context.Context, periodStart, periodEnd time.Time) (MetricsSnapshot, error) {
	rows, err := s.repo.ListMetricsRows(ctx, nil, periodStart, periodEnd)
	if err != nil {
		return MetricsSnapshot{}, fmt.Errorf("list reporting metrics: %w", err)
	}
	return snapshotFromRows(periodStart, periodEnd, rows), nil
}

// GetMetricsForEstate aggregates metrics for one estate's repositories.
func (s *MetricsService) GetMetricsForEstate(ctx context.Context, estateID string, periodStart, periodEnd time.Time) (MetricsSnapshot, error) {
	rows, err := s.repo.ListMetricsRows(ctx, &estateID, periodStart, periodEnd)
	if err != nil {
		return MetricsSnapshot{}, fmt.Errorf("list reporting metrics for estate: %w", err)
	}
	return snapshotFromRows(periodStart, periodEnd, rows), nil
}

func snapshotFromRows(periodStart, periodEnd time.Time, rows []domain.Report) MetricsSnapshot {
	snap := MetricsSnapshot{
		PeriodStart:  periodStart,
		PeriodEnd:    periodEnd,
		TotalReports: len(rows),
	}

	var latencies []int64
	for _, r := range rows {
		if r.LatencyMS != nil || r.PromptTokens != nil || r.CompletionTokens != nil || r.TotalTokens != nil {
			snap.ReportsWithMetrics++
		}
		if r.LatencyMS != nil {
			latencies = append(latencies, *r.LatencyMS)
		}
		if r.PromptTokens != nil {
			snap.TotalPromptTokens += *r.PromptTokens
		}
		if r.CompletionTokens != nil {
			snap.TotalCompletionTokens += *r.CompletionTokens
		}
		if r.TotalTokens != nil {
			snap.TotalTokens += *r.TotalTokens
		}
	}

	if len(latencies) > 0 {
		var sum int64
		for _, l := range latencies {
			sum += l
		}
		avg := float64(sum) / float64(len(latencies))
		snap.AvgLatencyMS = &avg
		snap.P95LatencyMS = computeP95(latencies)
	}

	return snap
}

// computeP95 returns the nearest-rank p95 latency from integer
// millisecond values.
func computeP95(latenciesMS []int64) *float64 {
	if len(latenciesMS) == 0 {
		return nil
	}
	ordered := append([]int64(nil), latenciesMS...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i] < ordered[j] })
	index := int(math.Ceil(0.95*float64(len(ordered)))) - 1
	if index < 0 {
		index = 0
	}
	v := float64(ordered[index])
	return &v
}
