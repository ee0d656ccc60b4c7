package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRootCmdRegistersSubcommands(t *testing.T) {
	t.Parallel()

	root := newRootCmd()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}

	assert.ElementsMatch(t, []string{"migrate", "import", "sync", "report", "serve"}, names)
}

func TestParseAsOf(t *testing.T) {
	t.Parallel()

	t.Run("empty returns nil", func(t *testing.T) {
		t.Parallel()
		got, err := parseAsOf("")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("valid RFC3339 is parsed and normalised to UTC", func(t *testing.T) {
		t.Parallel()
		got, err := parseAsOf("2026-01-15T10:00:00-05:00")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, time.UTC, got.Location())
		assert.Equal(t, 15, got.Hour())
	})

	t.Run("malformed timestamp errors", func(t *testing.T) {
		t.Parallel()
		_, err := parseAsOf("not-a-date")
		assert.Error(t, err)
	})
}
