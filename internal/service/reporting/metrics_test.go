package reporting

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ghillie/internal/domain"
)

type fakeMetricsRepository struct {
	rows []domain.Report
}

func (f *fakeMetricsRepository) ListMetricsRows(_ context.Context, _ *string, _, _ time.Time) ([]domain.Report, error) {
	return f.rows, nil
}

func int64p(v int64) *int64 { return &v }

func TestComputeP95NearestRank(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   []int64
		want float64
	}{
		{"single value", []int64{100}, 100},
		{"ten ascending values, p95 is the 10th (last)", []int64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 10},
		{"twenty ascending values, p95 is the 19th", []int64{
			1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20,
		}, 19},
		{"unsorted input is sorted first", []int64{5, 1, 4, 2, 3}, 5},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := computeP95(tt.in)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestComputeP95EmptyReturnsNil(t *testing.T) {
	t.Parallel()

	assert.Nil(t, computeP95(nil))
}

func TestSnapshotFromRowsAggregatesLatencyAndTokens(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 1, 8, 0, 0, 0, 0, time.UTC)

	rows := []domain.Report{
		{LatencyMS: int64p(100), PromptTokens: int64p(10), CompletionTokens: int64p(20), TotalTokens: int64p(30)},
		{LatencyMS: int64p(200), PromptTokens: int64p(5), CompletionTokens: int64p(5), TotalTokens: int64p(10)},
		{}, // a report with no recorded metrics at all
	}

	snap := snapshotFromRows(start, end, rows)

	assert.Equal(t, 3, snap.TotalReports)
	assert.Equal(t, 2, snap.ReportsWithMetrics)
	require.NotNil(t, snap.AvgLatencyMS)
	assert.Equal(t, 150.0, *snap.AvgLatencyMS)
	require.NotNil(t, snap.P95LatencyMS)
	assert.Equal(t, int64(15), snap.TotalPromptTokens)
	assert.Equal(t, int64(25), snap.TotalCompletionTokens)
	assert.Equal(t, int64(40), snap.TotalTokens)
}

func TestMetricsServiceGetMetricsForPeriod(t *testing.T) {
	t.Parallel()

	repo := &fakeMetricsRepository{rows: []domain.Report{
		{LatencyMS: int64p(50)},
	}}
	svc := NewMetricsService(repo)

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 1, 8, 0, 0, 0, 0, time.UTC)

	snap, err := svc.GetMetricsForPeriod(context.Background(), start, end)

	require.NoError(t, err)
	assert.Equal(t, 1, snap.TotalReports)
	assert.Equal(t, start, snap.PeriodStart)
	assert.Equal(t, end, snap.PeriodEnd)
}
