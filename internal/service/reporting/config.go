package reporting

// Config controls reporting window computation, validation retries, and
// Markdown sink output. Environment loading lives in internal/config, which is the single
// source of truth for process configuration; callers build a Config from
// a loaded *config.Config when constructing a reporting Service.
type Config struct {
	// WindowDays is the default window size in days when a repository
	// has no previous report. Default 7.
	WindowDays int
	// ReportSinkPath, when non-empty, enables the filesystem Markdown
	// sink rooted at this directory.
	ReportSinkPath string
	// ValidationMaxAttempts bounds status-model invocations per report:
	// the first attempt always happens, retries are
	// ValidationMaxAttempts-1. Default 2.
	ValidationMaxAttempts int
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{WindowDays: 7, ValidationMaxAttempts: 2}
}
