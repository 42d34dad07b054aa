package main

import (
	"os"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var listLimit int

var casesCmd = &cobra.Command{
	Use:   "cases",
	Short: "Lists the most recently fetched cases in storage.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		defer a.close()

		records, err := a.repo.ListCases(cmd.Context(), listLimit)
		if err != nil {
			return err
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Case", "Title", "Status", "Next hearing", "Fetched"})
		for _, r := range records {
			t.AppendRow(table.Row{r.Query().Key(), r.CaseTitle, r.Status, r.HearingDate, r.FetchedAt.Local().Format(time.DateTime)})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Lists recent searches across all channels.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		defer a.close()

		entries, err := a.repo.RecentSearches(cmd.Context(), listLimit)
		if err != nil {
			return err
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"When", "Channel", "Case", "Success", "Mock", "Message"})
		for _, e := range entries {
			t.AppendRow(table.Row{
				e.SearchedAt.Local().Format(time.DateTime),
				e.Channel,
				e.Query.Key(),
				strconv.FormatBool(e.Success),
				strconv.FormatBool(e.Mock),
				e.Message,
			})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{casesCmd, historyCmd} {
		c.Flags().IntVarP(&listLimit, "limit", "n", 20, "maximum number of rows")
		rootCmd.AddCommand(c)
	}
}
