// Package app composes the catalogue, registry, evidence, and reporting
// services into ready-to-use bundles, caching expensive resources (the
// SQLite connection pool and the services built on top of it) behind a
// lock so repeated CLI invocations and scheduled jobs within the same
// process reuse them instead of reopening the database.
package app

import (
	"database/sql"
	"fmt"
	"log/slog"
	"sync"

	"ghillie/internal/config"
	"ghillie/internal/db"
	"ghillie/internal/service/catalogue"
	"ghillie/internal/service/evidence"
	"ghillie/internal/service/registry"
	"ghillie/internal/service/reporting"
)

// Services bundles every service built on top of one database pool.
type Services struct {
	DB *sql.DB

	Catalogue       *catalogue.Importer
	Registry        *registry.Service
	Evidence        *evidence.Service
	ProjectEvidence *evidence.ProjectService
	Reporting       *reporting.Service
	Metrics         *reporting.MetricsService
	EstateDriver    *reporting.EstateDriver
}

// App owns the process configuration, logger, and the lazily-built,
// cached Services for each database path it has been asked to serve.
// A process normally has exactly one database path (cfg.DBPath), but
// the cache is keyed by path so tests and multi-tenant callers can ask
// for more than one without re-running migrations or re-opening pools
// they've already built.
type App struct {
	Config *config.Config
	Logger *slog.Logger

	mu       sync.Mutex
	dbCache  map[string]*sql.DB
	svcCache map[string]*Services
}

// New builds an App from an already-loaded configuration. Nothing is
// opened until the first call to Services or DB.
func New(cfg *config.Config, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	return &App{
		Config:   cfg,
		Logger:   logger,
		dbCache:  make(map[string]*sql.DB),
		svcCache: make(map[string]*Services),
	}
}

// dbLocked returns the cached write-mode pool for path, opening and
// migrating it on first use. Callers must hold a.mu.
func (a *App) dbLocked(path string) (*sql.DB, error) {
	if pool, ok := a.dbCache[path]; ok {
		return pool, nil
	}
	pool, err := db.OpenSQLite(path, "write", 0)
	if err != nil {
		return nil, fmt.Errorf("open database %q: %w", path, err)
	}
	if err := db.RunMigrations(pool); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("migrate database %q: %w", path, err)
	}
	a.dbCache[path] = pool
	return pool, nil
}

// DB returns the cached connection pool for the configured database
// path, opening and migrating it on first use.
func (a *App) DB() (*sql.DB, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dbLocked(a.Config.DBPath)
}

// Services returns the cached service bundle for the configured
// database path, constructing it (and the underlying pool) on first
// use.
func (a *App) Services() (*Services, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if svc, ok := a.svcCache[a.Config.DBPath]; ok {
		return svc, nil
	}

	pool, err := a.dbLocked(a.Config.DBPath)
	if err != nil {
		return nil, err
	}

	svc := a.buildServices(pool)
	a.svcCache[a.Config.DBPath] = svc
	return svc, nil
}

// buildServices wires every service against one pool. It never fails:
// construction is pure composition, the fallible part (opening and
// migrating the pool) already happened.
func (a *App) buildServices(pool *sql.DB) *Services {
	evidenceSvc := evidence.New(
		repositorySilverRepos(pool),
		repositorySilverEvents(pool),
		repositoryReports(pool),
		repositoryReportCoverage(pool),
	)

	reportingConfig := reporting.Config{
		WindowDays:            a.Config.ReportingWindowDays,
		ReportSinkPath:        a.Config.ReportSinkPath,
		ValidationMaxAttempts: a.Config.ValidationMaxAttempts,
	}

	var sink reporting.ReportSink
	if a.Config.ReportSinkPath != "" {
		sink = reporting.NewFilesystemReportSink(a.Config.ReportSinkPath)
	}

	reportingSvc := reporting.New(pool, evidenceSvc, NewStatusModel(a.Config), sink, reportingConfig, a.Logger)
	reportsRepo := repositoryReports(pool)

	return &Services{
		DB:              pool,
		Catalogue:       catalogue.New(pool),
		Registry:        registry.New(pool),
		Evidence:        evidenceSvc,
		ProjectEvidence: evidence.NewProjectService(repositoryProjects(pool), repositoryComponents(pool), repositoryComponentEdges(pool), repositorySilverRepos(pool), reportsRepo),
		Reporting:       reportingSvc,
		Metrics:         reporting.NewMetricsService(reportsRepo),
		EstateDriver:    reporting.NewEstateDriver(reportingSvc, repositorySilverRepos(pool), a.Logger).WithConcurrency(a.Config.EstateFanoutLimit),
	}
}

// Close closes every cached pool. Intended for graceful shutdown and
// tests; safe to call once.
func (a *App) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var firstErr error
	for path, pool := range a.dbCache {
		if err := pool.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close database %q: %w", path, err)
		}
	}
	a.dbCache = make(map[string]*sql.DB)
	a.svcCache = make(map[string]*Services)
	return firstErr
}
