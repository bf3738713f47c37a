package main

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"malt-scraper/internal/logging"
	"malt-scraper/internal/profiles"
	"malt-scraper/pkg/models"
)

var (
	listStatus string
	listLimit  int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored profiles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		status := models.ProfileStatus(listStatus)
		if status != "" && !status.Valid() {
			return fmt.Errorf("unknown status %q", listStatus)
		}

		st, err := openStore(cmd.Context(), cfg, logging.GetGlobalLogger())
		if err != nil {
			return err
		}
		defer st.Close()

		service := profiles.NewService(st.repo, nil, st.locker, logging.GetGlobalLogger())
		list, err := service.ListProfiles(cmd.Context(), status, listLimit)
		if err != nil {
			return err
		}

		renderProfiles(cmd.OutOrStdout(), list)
		return nil
	},
}

func init() {
	listCmd.Flags().StringVar(&listStatus, "status", "", "Only list profiles with this status")
	listCmd.Flags().IntVar(&listLimit, "limit", 50, "Maximum number of profiles")
	rootCmd.AddCommand(listCmd)
}

func renderProfiles(w io.Writer, list []*models.Profile) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Profile", "Status", "Full name", "Title", "Updated"})
	for _, p := range list {
		var name, title string
		if p.Record != nil {
			name, title = p.Record.FullName, p.Record.Title
		}
		t.AppendRow(table.Row{p.ProfileID, p.Status, name, title, p.UpdatedAt.Format("2006-01-02 15:04")})
	}
	t.AppendFooter(table.Row{"", "", "", "Total", len(list)})
	t.Render()
}
