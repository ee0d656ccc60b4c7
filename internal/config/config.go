// Package config handles application configuration and environment loading.
package config

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Config holds runtime configuration for the catalogue importer, registry
// synchroniser, and reporting orchestrator.
type Config struct {
	DBPath string // path to the SQLite database file (control plane)
	Env    string // environment: "development" (default) or "production"

	LogLevel string // log level: debug, info, warn, error (default "info")

	// ReportingWindowDays is the default window length, in days, used by
	// computeNextWindow when a repository has no previous report.
	ReportingWindowDays int

	// ReportSinkPath, when set, enables the filesystem report sink rooted
	// at this directory.
	ReportSinkPath string

	// ValidationMaxAttempts bounds the reporting orchestrator's
	// validate-and-retry loop (first attempt plus retries).
	ValidationMaxAttempts int

	// EstateFanoutLimit bounds concurrent runForRepository invocations
	// when the orchestrator is driven at estate granularity.
	EstateFanoutLimit int

	// AllowStubBroker is a development-only flag permitting the process
	// to run without a real message broker behind the ingestion pipeline.
	AllowStubBroker bool

	// Warnings collects non-fatal warnings generated during config
	// loading. Logged by the caller once the logger is initialised.
	Warnings []string
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsProduction returns true when the process is running in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// LoadFromEnv loads configuration from environment variables, applying the
// defaults named in the external interface contract and collecting
// non-fatal warnings for insecure or unusual combinations.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		DBPath:          os.Getenv("GHILLIE_DB_PATH"),
		Env:             os.Getenv("GHILLIE_ENV"),
		LogLevel:        os.Getenv("GHILLIE_LOG_LEVEL"),
		ReportSinkPath:  os.Getenv("GHILLIE_REPORT_SINK_PATH"),
		AllowStubBroker: parseBoolEnvDefault("GHILLIE_ALLOW_STUB_BROKER", false),
	}

	windowDays, err := parsePositiveIntEnvDefault("GHILLIE_REPORTING_WINDOW_DAYS", 7)
	if err != nil {
		return nil, err
	}
	cfg.ReportingWindowDays = windowDays

	maxAttempts, err := parsePositiveIntEnvDefault("GHILLIE_VALIDATION_MAX_ATTEMPTS", 2)
	if err != nil {
		return nil, err
	}
	cfg.ValidationMaxAttempts = maxAttempts

	fanout, err := parsePositiveIntEnvDefault("GHILLIE_ESTATE_FANOUT_LIMIT", 10)
	if err != nil {
		return nil, err
	}
	cfg.EstateFanoutLimit = fanout

	if cfg.DBPath == "" {
		cfg.DBPath = "ghillie.sqlite"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Env == "" {
		cfg.Env = "development"
	}

	if cfg.ReportSinkPath == "" {
		cfg.Warnings = append(cfg.Warnings, "GHILLIE_REPORT_SINK_PATH not set — rendered reports will not be written to disk")
	}

	if cfg.IsProduction() && cfg.AllowStubBroker {
		return nil, fmt.Errorf("GHILLIE_ALLOW_STUB_BROKER must not be set in production (GHILLIE_ENV=production)")
	}

	return cfg, nil
}

func parseBoolEnvDefault(key string, defaultVal bool) bool {
	v := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	if v == "" {
		return defaultVal
	}
	if v == "0" || v == "false" || v == "no" || v == "off" {
		return false
	}
	if v == "1" || v == "true" || v == "yes" || v == "on" {
		return true
	}
	return defaultVal
}

func parsePositiveIntEnvDefault(key string, defaultVal int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: must be a positive integer, got %q", key, v)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s: must be a positive integer, got %d", key, n)
	}
	return n, nil
}

// LoadDotEnv reads a .env file and sets any variables not already in the
// environment. Lines must be in KEY=VALUE format. Comments (#) and blank
// lines are skipped.
func LoadDotEnv(path string) error {
	f, err := os.Open(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		if os.IsNotExist(err) {
			return nil // .env not found is not an error
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		value = stripQuotes(value)
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("setenv %s: %w", key, err)
			}
		}
	}
	return scanner.Err()
}

// stripQuotes removes surrounding double or single quotes from a value.
// Only strips if both the first and last characters are matching quotes.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
