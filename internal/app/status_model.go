package app

import (
	"ghillie/internal/config"
	"ghillie/internal/service/reporting"
)

// NewStatusModel builds the status model the reporting service invokes
// for each report. reporting.StatusModel is the seam a real
// summarisation backend plugs into; until one is wired in, every
// environment runs the deterministic mock so the orchestrator,
// validation loop, and Markdown rendering are exercised end to end.
func NewStatusModel(_ *config.Config) reporting.StatusModel {
	return reporting.NewMockStatusModel()
}
