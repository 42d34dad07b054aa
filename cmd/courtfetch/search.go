package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"courtfetch/internal/domain"
	"courtfetch/internal/scraper"
)

var (
	searchCaptcha string
	searchJSON    bool
)

var searchCmd = &cobra.Command{
	Use:   "search TYPE NUMBER YEAR",
	Short: "Searches one case and prints the result.",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := domain.ValidateQuery(args[0], args[1], args[2], time.Now())
		if err != nil {
			return err
		}

		a, err := loadApp()
		if err != nil {
			return err
		}
		defer a.close()

		out := a.service.SearchCaseFor(cmd.Context(), scraper.Caller{Channel: domain.ChannelCLI}, q, searchCaptcha)
		if searchJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		}

		switch out.Kind {
		case domain.OutcomeCaptchaRequired:
			fmt.Println(out.Message)
			fmt.Println("Open this image in a browser, then rerun with --captcha <text>:")
			fmt.Println(out.Captcha.Image)
		case domain.OutcomeSuccess:
			renderRecord(out.Record, out.Mock)
		default:
			return errors.New(out.Message)
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().StringVar(&searchCaptcha, "captcha", "", "solved CAPTCHA text")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "print the raw outcome as JSON")
	rootCmd.AddCommand(searchCmd)
}

func renderRecord(r *domain.CaseRecord, mock bool) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	if mock {
		t.SetTitle("Sample data (live scraping unavailable)")
	}
	t.AppendHeader(table.Row{"Field", "Value"})
	for _, f := range domain.DisplayFields(*r) {
		t.AppendRow(table.Row{f.Label, f.Value})
	}
	for _, d := range r.DocumentLinks {
		t.AppendRow(table.Row{fmt.Sprintf("Document (%s)", d.Type), d.Title + "\n" + d.URL})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}
