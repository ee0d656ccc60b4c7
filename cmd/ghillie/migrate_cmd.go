package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMigrateCmd(dbPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := bootstrap(*dbPath)
			if err != nil {
				return err
			}
			defer a.Close() //nolint:errcheck

			// Opening the pool already runs migrations (internal/app.dbLocked).
			if _, err := a.DB(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}
