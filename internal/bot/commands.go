package bot

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"courtfetch/internal/domain"
)

var timeNow = time.Now

const usageText = "Usage: /case TYPE NUMBER YEAR [captcha]\nExample: /case CWP 123 2023\nSend /types for the list of case types."

const welcomeText = "Welcome! I look up case status on the Delhi High Court website.\n\n" + usageText

// caseCommand is a parsed /case message.
type caseCommand struct {
	Query   domain.SearchQuery
	Captcha string
}

// parseCaseCommand parses "/case TYPE NUMBER YEAR [captcha]". The command may carry a
// bot mention ("/case@courtbot"). Validation problems come back as a *domain.ValidationError.
func parseCaseCommand(text string, now time.Time) (caseCommand, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return caseCommand{}, errors.New("Empty command")
	}
	name, _, _ := strings.Cut(fields[0], "@")
	if name != "/case" {
		return caseCommand{}, fmt.Errorf("Unknown command %s", fields[0])
	}
	args := fields[1:]
	if len(args) < 3 || len(args) > 4 {
		return caseCommand{}, errors.New("Expected case type, case number and filing year")
	}

	q, err := domain.ValidateQuery(args[0], args[1], args[2], now)
	if err != nil {
		return caseCommand{}, err
	}
	cmd := caseCommand{Query: q}
	if len(args) == 4 {
		cmd.Captcha = args[3]
	}
	return cmd, nil
}

func caseTypesText() string {
	var sb strings.Builder
	sb.WriteString("Supported case types:\n")
	for _, ct := range domain.CaseTypes {
		fmt.Fprintf(&sb, "%s - %s\n", ct.Code, ct.Name)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// formatOutcome renders a successful outcome as plain text.
func formatOutcome(out domain.Outcome) string {
	var sb strings.Builder
	if out.Mock {
		sb.WriteString("[Sample data: live scraping is unavailable]\n\n")
	}
	for _, f := range domain.DisplayFields(*out.Record) {
		fmt.Fprintf(&sb, "%s: %s\n", f.Label, f.Value)
	}
	if docs := out.Record.DocumentLinks; len(docs) > 0 {
		sb.WriteString("\nDocuments:\n")
		for _, d := range docs {
			fmt.Fprintf(&sb, "- %s (%s)\n  %s\n", d.Title, d.Type, d.URL)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}
