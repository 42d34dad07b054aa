package parser

import (
	"strings"

	"courtfetch/internal/domain"
	"courtfetch/internal/textutil"
)

// Field names a semantic case field that extraction can populate.
type Field string

const (
	FieldPetitioner  Field = "petitioner"
	FieldRespondent  Field = "respondent"
	FieldFilingDate  Field = "filing_date"
	FieldHearingDate Field = "hearing_date"
	FieldStatus      Field = "status"
	FieldJudge       Field = "judge"
	FieldCaseTitle   Field = "case_title"
)

type labelRule struct {
	field Field
	terms []string
}

// labelRules are tried in order; the first rule whose term occurs in the label wins.
// A "Court Name" label lands on judge via the court term. Known and left alone.
var labelRules = []labelRule{
	{FieldPetitioner, []string{"petitioner", "appellant", "plaintiff"}},
	{FieldRespondent, []string{"respondent", "defendant"}},
	{FieldFilingDate, []string{"filing", "filed", "registration"}},
	{FieldHearingDate, []string{"next", "hearing", "date"}},
	{FieldStatus, []string{"status", "stage"}},
	{FieldJudge, []string{"judge", "justice", "court"}},
	{FieldCaseTitle, []string{"title", "case"}},
}

// MapLabeledPair classifies a table label. ok is false when no rule matches.
func MapLabeledPair(label, value string) (field Field, mapped string, ok bool) {
	lower := strings.ToLower(label)
	for _, rule := range labelRules {
		if textutil.ContainsAny(lower, rule.terms...) {
			return rule.field, value, true
		}
	}
	return "", "", false
}

// fieldSet accumulates extracted values; the first non-empty value for a field sticks.
type fieldSet map[Field]string

func (s fieldSet) setIfEmpty(f Field, v string) {
	if v == "" || s[f] != "" {
		return
	}
	s[f] = v
}

func (s fieldSet) present() map[Field]bool {
	have := make(map[Field]bool, len(s))
	for f, v := range s {
		if v != "" {
			have[f] = true
		}
	}
	return have
}

func (s fieldSet) applyTo(r *domain.CaseRecord) {
	r.Petitioner = s[FieldPetitioner]
	r.Respondent = s[FieldRespondent]
	r.FilingDate = s[FieldFilingDate]
	r.HearingDate = s[FieldHearingDate]
	r.Status = s[FieldStatus]
	r.Judge = s[FieldJudge]
	r.CaseTitle = s[FieldCaseTitle]
}
