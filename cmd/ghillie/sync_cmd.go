package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSyncCmd(dbPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "sync <estate-key>",
		Short: "Project catalogue repositories into the registry's Silver layer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			estateKey := args[0]

			a, err := bootstrap(*dbPath)
			if err != nil {
				return err
			}
			defer a.Close() //nolint:errcheck

			services, err := a.Services()
			if err != nil {
				return err
			}

			result, err := services.Registry.SyncFromCatalogue(cmd.Context(), estateKey)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "sync complete for estate %s: created %d, updated %d, deactivated %d\n",
				result.EstateKey, result.RepositoriesCreated, result.RepositoriesUpdated, result.RepositoriesDeactivated)
			return nil
		},
	}
}
