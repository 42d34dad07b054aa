package parser

import (
	"regexp"

	"courtfetch/internal/textutil"
)

type fieldPatterns struct {
	field    Field
	patterns []*regexp.Regexp
}

// textPatterns is the low-confidence fallback used when no table label matched.
// Each pattern captures the value in group 1.
var textPatterns = []fieldPatterns{
	{FieldPetitioner, compile(
		`petitioner[:\s]*(.+?)(?:\n|vs?\.|respondent)`,
		`appellant[:\s]*(.+?)(?:\n|vs?\.|respondent)`,
	)},
	{FieldRespondent, compile(
		`respondent[:\s]*(.+?)(?:\n|petitioner|appellant)`,
		`vs?\.\s*(.+?)(?:\n|court|judge)`,
	)},
	{FieldFilingDate, compile(
		`filing\s+date[:\s]*(\d{1,2}[-/]\d{1,2}[-/]\d{4})`,
		`filed\s+on[:\s]*(\d{1,2}[-/]\d{1,2}[-/]\d{4})`,
	)},
	{FieldHearingDate, compile(
		`next\s+hearing[:\s]*(\d{1,2}[-/]\d{1,2}[-/]\d{4})`,
		`next\s+date[:\s]*(\d{1,2}[-/]\d{1,2}[-/]\d{4})`,
	)},
	{FieldStatus, compile(
		`status[:\s]*(.+?)(?:\n|date|court)`,
		`stage[:\s]*(.+?)(?:\n|date|court)`,
	)},
	{FieldJudge, compile(
		`(?:hon'?ble\s+)?justice\s+(.+?)(?:\n|court|date)`,
		`before[:\s]*(?:hon'?ble\s+)?(.+?)(?:\n|court|date)`,
	)},
}

func compile(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, e := range exprs {
		out = append(out, regexp.MustCompile(`(?ism)`+e))
	}
	return out
}

// ExtractPatterns runs the text patterns over the page text. Fields already in
// have are never returned, so the result can be merged without overwriting.
func ExtractPatterns(text string, have map[Field]bool) map[Field]string {
	found := make(map[Field]string)
	for _, fp := range textPatterns {
		if have[fp.field] {
			continue
		}
		for _, re := range fp.patterns {
			m := re.FindStringSubmatch(text)
			if len(m) < 2 {
				continue
			}
			if v := textutil.Normalize(m[1]); v != "" {
				found[fp.field] = v
				break
			}
		}
	}
	return found
}
