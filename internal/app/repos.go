package app

import (
	"database/sql"

	"ghillie/internal/domain"
	"ghillie/internal/repository"
)

// Thin constructors so buildServices reads as "one repository per
// concern" instead of repeating the repository package name at every
// call site.

func repositorySilverRepos(pool *sql.DB) domain.SilverRepositoryRepository {
	return repository.NewSilverRepositoryRepo(pool)
}

func repositorySilverEvents(pool *sql.DB) domain.SilverEventsRepository {
	return repository.NewSilverEventsRepo(pool)
}

func repositoryReports(pool *sql.DB) *repository.ReportRepo {
	return repository.NewReportRepo(pool)
}

func repositoryReportCoverage(pool *sql.DB) domain.ReportCoverageRepository {
	return repository.NewReportCoverageRepo(pool)
}

func repositoryProjects(pool *sql.DB) domain.ProjectRepository {
	return repository.NewProjectRepo(pool)
}

func repositoryComponents(pool *sql.DB) domain.ComponentRepository {
	return repository.NewComponentRepo(pool)
}

func repositoryComponentEdges(pool *sql.DB) domain.ComponentEdgeRepository {
	return repository.NewComponentEdgeRepo(pool)
}
