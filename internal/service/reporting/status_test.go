package reporting

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ghillie/internal/domain"
	"ghillie/internal/service/evidence"
)

func TestModelIdentifierForUsesModelIDWhenAvailable(t *testing.T) {
	t.Parallel()

	model := NewMockStatusModel()

	assert.Equal(t, "mock-v1", modelIdentifierFor(model))
}

type anonymousStatusModel struct{}

func (anonymousStatusModel) SummarizeRepository(context.Context, *evidence.RepositoryEvidenceBundle) (StatusResult, error) {
	return StatusResult{}, nil
}

func TestModelIdentifierForDerivesNameWhenNoModelID(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "anonymousstatusmodel", modelIdentifierFor(anonymousStatusModel{}))
}

func TestMockStatusModelReturnsConfiguredResultByDefault(t *testing.T) {
	t.Parallel()

	model := NewMockStatusModel()

	result, err := model.SummarizeRepository(context.Background(), &evidence.RepositoryEvidenceBundle{})

	require.NoError(t, err)
	assert.Equal(t, domain.ReportStatusOnTrack, result.Status)
	assert.NotEmpty(t, result.Summary)
}

func TestMockStatusModelFallsBackToBundleWhenResultSummaryIsEmpty(t *testing.T) {
	t.Parallel()

	model := &MockStatusModel{}
	bundle := &evidence.RepositoryEvidenceBundle{
		Repository: evidence.RepositoryMetadata{Owner: "acme", Name: "checkout-api"},
	}

	result, err := model.SummarizeRepository(context.Background(), bundle)

	require.NoError(t, err)
	assert.Contains(t, result.Summary, "acme/checkout-api")
}
