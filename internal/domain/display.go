package domain

import (
	"strconv"

	"courtfetch/internal/textutil"
)

// DisplayField is one labelled value shown to users.
type DisplayField struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// DisplayFields renders the populated fields of a record in presentation order.
func DisplayFields(r CaseRecord) []DisplayField {
	pairs := []struct {
		label string
		value string
	}{
		{"Case Title", r.CaseTitle},
		{"Case Number", r.CaseNumber},
		{"Case Type", r.CaseType},
		{"Filing Year", yearString(r.FilingYear)},
		{"Filing Date", r.FilingDate},
		{"Next Hearing Date", r.HearingDate},
		{"Case Status", r.Status},
		{"Petitioner", r.Petitioner},
		{"Respondent", r.Respondent},
		{"Judge", r.Judge},
		{"Court", r.CourtName},
		{"Act/Section", r.Act},
		{"Current Stage", r.Stage},
	}

	fields := make([]DisplayField, 0, len(pairs))
	for _, p := range pairs {
		v := textutil.Normalize(p.value)
		if v == "" {
			continue
		}
		fields = append(fields, DisplayField{Label: p.label, Value: v})
	}
	return fields
}

func yearString(y int) string {
	if y == 0 {
		return ""
	}
	return strconv.Itoa(y)
}
