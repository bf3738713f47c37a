package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"malt-scraper/internal/profiles"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the embedded database migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if cfg.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL environment variable is required")
		}

		pool, err := profiles.Connect(cmd.Context(), cfg.Database)
		if err != nil {
			return err
		}
		defer pool.Close()

		applied, err := profiles.Migrate(cmd.Context(), pool)
		if err != nil {
			return err
		}

		t := newTable(cmd.OutOrStdout())
		t.AppendHeader(table.Row{"#", "Migration"})
		for i, name := range applied {
			t.AppendRow(table.Row{i + 1, name})
		}
		t.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
