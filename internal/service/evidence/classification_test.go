package evidence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyByLabelsPrefersBugOverFeature(t *testing.T) {
	t.Parallel()

	cfg := DefaultClassificationConfig()

	wt, ok := ClassifyByLabels([]string{"feature", "bug"}, cfg)

	assert.True(t, ok)
	assert.Equal(t, WorkTypeBug, wt)
}

func TestClassifyByLabelsIsCaseAndWhitespaceInsensitive(t *testing.T) {
	t.Parallel()

	cfg := DefaultClassificationConfig()

	wt, ok := ClassifyByLabels([]string{"  BUG  "}, cfg)

	assert.True(t, ok)
	assert.Equal(t, WorkTypeBug, wt)
}

func TestClassifyByLabelsReturnsFalseWhenNoneMatch(t *testing.T) {
	t.Parallel()

	cfg := DefaultClassificationConfig()

	_, ok := ClassifyByLabels([]string{"question"}, cfg)

	assert.False(t, ok)
}

func TestClassifyByTitlePrefixOrdering(t *testing.T) {
	t.Parallel()

	cfg := DefaultClassificationConfig()

	tests := []struct {
		name  string
		title string
		want  WorkType
	}{
		{"conventional fix prefix", "fix: null pointer on checkout", WorkTypeBug},
		{"ci prefix outranks bug word", "ci: fix flaky pipeline", WorkTypeChore},
		{"feat prefix", "feat: add apple pay", WorkTypeFeature},
		{"refactor prefix", "refactor: extract payment gateway client", WorkTypeRefactor},
		{"add verb", "add retry budget to webhook dispatcher", WorkTypeFeature},
		{"dependency bump", "bump lodash to 4.17.21", WorkTypeChore},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			title := tt.title
			wt, ok := ClassifyByTitle(&title, cfg)
			assert.True(t, ok)
			assert.Equal(t, tt.want, wt)
		})
	}
}

func TestClassifyByTitleNilReturnsFalse(t *testing.T) {
	t.Parallel()

	cfg := DefaultClassificationConfig()

	_, ok := ClassifyByTitle(nil, cfg)

	assert.False(t, ok)
}

func TestMatchesBugWordIsStandaloneOnly(t *testing.T) {
	t.Parallel()

	cfg := DefaultClassificationConfig()

	standalone := "fixes crash on empty cart"
	hyphenated := "prefix-fixture change"

	wtStandalone, okStandalone := ClassifyByTitle(&standalone, cfg)
	_, okHyphenated := ClassifyByTitle(&hyphenated, cfg)

	assert.True(t, okStandalone)
	assert.Equal(t, WorkTypeBug, wtStandalone)
	assert.False(t, okHyphenated)
}

func TestClassifyPullRequestFallsBackFromLabelsToTitle(t *testing.T) {
	t.Parallel()

	cfg := DefaultClassificationConfig()
	title := "refactor: simplify retry loop"

	wt := ClassifyPullRequest(nil, &title, cfg)

	assert.Equal(t, WorkTypeRefactor, wt)
}

func TestClassifyPullRequestUnknownWhenNothingMatches(t *testing.T) {
	t.Parallel()

	cfg := DefaultClassificationConfig()
	title := "quarterly planning notes"

	wt := ClassifyPullRequest(nil, &title, cfg)

	assert.Equal(t, WorkTypeUnknown, wt)
}

func TestIsMergeCommit(t *testing.T) {
	t.Parallel()

	merge := "Merge pull request #42 from acme/feature-x"
	plain := "add retry budget"

	assert.True(t, IsMergeCommit(&merge))
	assert.False(t, IsMergeCommit(&plain))
	assert.False(t, IsMergeCommit(nil))
}
