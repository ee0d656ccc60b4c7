package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"ghillie/internal/catalogue"
)

func newImportCmd(dbPath *string) *cobra.Command {
	var commitSHA string

	cmd := &cobra.Command{
		Use:   "import <estate-key> <estate-name> <catalogue.yaml>",
		Short: "Reconcile an estate catalogue document into the relational schema",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			estateKey, estateName, path := args[0], args[1], args[2]

			raw, err := os.ReadFile(path) //nolint:gosec // operator-supplied path
			if err != nil {
				return fmt.Errorf("read catalogue file: %w", err)
			}

			var cat catalogue.Catalogue
			if err := yaml.Unmarshal(raw, &cat); err != nil {
				return fmt.Errorf("parse catalogue yaml: %w", err)
			}
			cat.ApplyDefaults()

			a, err := bootstrap(*dbPath)
			if err != nil {
				return err
			}
			defer a.Close() //nolint:errcheck

			services, err := a.Services()
			if err != nil {
				return err
			}

			result, err := services.Catalogue.Import(cmd.Context(), estateKey, estateName, cat, commitSHA)
			if err != nil {
				return err
			}

			if result.Skipped {
				fmt.Fprintf(cmd.OutOrStdout(), "import skipped: commit %s already applied for estate %s\n", commitSHA, estateKey)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(),
				"import complete for estate %s: projects +%d ~%d -%d, components +%d ~%d -%d, repositories +%d ~%d -%d, edges +%d ~%d -%d\n",
				estateKey,
				result.ProjectsCreated, result.ProjectsUpdated, result.ProjectsDeleted,
				result.ComponentsCreated, result.ComponentsUpdated, result.ComponentsDeleted,
				result.RepositoriesCreated, result.RepositoriesUpdated, result.RepositoriesDeleted,
				result.EdgesCreated, result.EdgesUpdated, result.EdgesDeleted)
			return nil
		},
	}

	cmd.Flags().StringVar(&commitSHA, "commit", "", "catalogue repo commit SHA, for idempotency")
	return cmd
}
