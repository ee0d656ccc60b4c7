package reporting

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"ghillie/internal/domain"
)

// DefaultEstateConcurrency bounds concurrent per-repository report
// generation during an estate-wide run, protecting the database
// connection pool.
const DefaultEstateConcurrency = 10

// EstateDriver runs the reporting orchestrator across every
// ingestion-enabled repository in an estate, concurrently and with
// bounded parallelism, aggregating individual failures rather than
// aborting the whole run.
type EstateDriver struct {
	service     *Service
	silverRepos domain.SilverRepositoryRepository
	concurrency int
	logger      *slog.Logger
}

// NewEstateDriver builds an EstateDriver with the default concurrency.
func NewEstateDriver(service *Service, silverRepos domain.SilverRepositoryRepository, logger *slog.Logger) *EstateDriver {
	if logger == nil {
		logger = slog.Default()
	}
	return &EstateDriver{
		service:     service,
		silverRepos: silverRepos,
		concurrency: DefaultEstateConcurrency,
		logger:      logger,
	}
}

// WithConcurrency overrides the default fan-out bound.
func (d *EstateDriver) WithConcurrency(n int) *EstateDriver {
	if n > 0 {
		d.concurrency = n
	}
	return d
}

// RunForEstate generates reports for every active repository in
// estateID. System-level cancellation propagates immediately; individual
// repository failures are collected into an EstateReportError so one bad
// repository never aborts the others.
func (d *EstateDriver) RunForEstate(ctx context.Context, estateID string, asOf *time.Time) ([]*domain.Report, error) {
	repos, err := d.silverRepos.ListActiveByEstate(ctx, estateID)
	if err != nil {
		return nil, err
	}
	if len(repos) == 0 {
		return nil, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)

	results := make([]*domain.Report, len(repos))
	var (
		mu       sync.Mutex
		failures []error
	)

	for i := range repos {
		i := i
		repoID := repos[i].ID
		g.Go(func() error {
			report, runErr := d.service.RunForRepository(gctx, repoID, asOf)
			if runErr != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				mu.Lock()
				failures = append(failures, runErr)
				mu.Unlock()
				d.logger.Warn("repository report generation failed", "repository_id", repoID, "error", runErr)
				return nil
			}
			results[i] = report
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if len(failures) > 0 {
		return results, domain.ErrEstateReport(failures)
	}
	return results, nil
}

// Scheduler drives estate-wide reporting runs on a cron schedule.
type Scheduler struct {
	cron     *cron.Cron
	driver   *EstateDriver
	estateID string
	logger   *slog.Logger
}

// NewScheduler builds a Scheduler that runs driver.RunForEstate(estateID)
// on schedule.
func NewScheduler(driver *EstateDriver, estateID string, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{cron: cron.New(), driver: driver, estateID: estateID, logger: logger}
}

// Start registers spec (standard 5-field cron) and starts the scheduler.
func (s *Scheduler) Start(spec string) error {
	_, err := s.cron.AddFunc(spec, func() {
		ctx := context.Background()
		if _, err := s.driver.RunForEstate(ctx, s.estateID, nil); err != nil {
			s.logger.Warn("scheduled estate report run failed", "estate_id", s.estateID, "error", err)
		}
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("reporting scheduler started", "estate_id", s.estateID, "schedule", spec)
	return nil
}

// Stop gracefully stops the cron scheduler, waiting for any in-flight run.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("reporting scheduler stopped", "estate_id", s.estateID)
}
