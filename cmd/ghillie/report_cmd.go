package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"ghillie/internal/domain"
)

func newReportCmd(dbPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate repository or estate status reports",
	}
	cmd.AddCommand(newReportRepoCmd(dbPath), newReportEstateCmd(dbPath))
	return cmd
}

func parseAsOf(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("--as-of must be RFC3339, got %q: %w", raw, err)
	}
	t = t.UTC()
	return &t, nil
}

func newReportRepoCmd(dbPath *string) *cobra.Command {
	var asOf string

	cmd := &cobra.Command{
		Use:   "repo <owner/name>",
		Short: "Generate a status report for one repository's next window",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			slug := args[0]

			asOfTime, err := parseAsOf(asOf)
			if err != nil {
				return err
			}

			a, err := bootstrap(*dbPath)
			if err != nil {
				return err
			}
			defer a.Close() //nolint:errcheck

			services, err := a.Services()
			if err != nil {
				return err
			}

			repo, err := services.Registry.GetRepositoryBySlug(cmd.Context(), slug)
			if err != nil {
				return err
			}
			if repo == nil {
				return fmt.Errorf("no repository registered for slug %q", slug)
			}

			report, err := services.Reporting.RunForRepository(cmd.Context(), repo.ID, asOfTime)
			if err != nil {
				return err
			}
			if report == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "no events in window for %s; report skipped\n", slug)
				return nil
			}

			fmt.Fprintf(cmd.OutOrStdout(), "report %s generated for %s: status=%s window=[%s, %s)\n",
				report.ID, slug, report.MachineSummary.Status,
				report.WindowStart.Format(time.RFC3339), report.WindowEnd.Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().StringVar(&asOf, "as-of", "", "RFC3339 timestamp to treat as \"now\" (defaults to the current time)")
	return cmd
}

func newReportEstateCmd(dbPath *string) *cobra.Command {
	var asOf string

	cmd := &cobra.Command{
		Use:   "estate <estate-key>",
		Short: "Generate status reports for every active repository in an estate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			estateKey := args[0]

			asOfTime, err := parseAsOf(asOf)
			if err != nil {
				return err
			}

			a, err := bootstrap(*dbPath)
			if err != nil {
				return err
			}
			defer a.Close() //nolint:errcheck

			services, err := a.Services()
			if err != nil {
				return err
			}

			estateID, err := services.Registry.EstateIDForKey(cmd.Context(), estateKey)
			if err != nil {
				return err
			}

			reports, runErr := services.EstateDriver.RunForEstate(cmd.Context(), estateID, asOfTime)
			generated := 0
			for _, r := range reports {
				if r != nil {
					generated++
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "estate %s: %d of %d active repositories produced a report\n",
				estateKey, generated, len(reports))

			if runErr != nil {
				var estateErr *domain.EstateReportError
				if errors.As(runErr, &estateErr) {
					for _, failure := range estateErr.Failures {
						fmt.Fprintf(cmd.ErrOrStderr(), "  failure: %v\n", failure)
					}
				}
				return runErr
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&asOf, "as-of", "", "RFC3339 timestamp to treat as \"now\" (defaults to the current time)")
	return cmd
}
