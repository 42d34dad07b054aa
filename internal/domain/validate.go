package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// CaseType is one entry of the court's case type catalogue.
type CaseType struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// CaseTypes lists the case types the search form offers, in display order.
var CaseTypes = []CaseType{
	{"CWP", "Civil Writ Petition"},
	{"CRL", "Criminal Writ Petition"},
	{"FAO", "First Appeal from Order"},
	{"MAC", "Motor Accident Claims"},
	{"CS", "Civil Suit"},
	{"CM", "Civil Miscellaneous"},
	{"CRM", "Criminal Miscellaneous"},
	{"SA", "Second Appeal"},
	{"RFA", "Regular First Appeal"},
	{"CRL.A", "Criminal Appeal"},
	{"BAIL", "Bail Application"},
	{"ARB", "Arbitration Petition"},
}

// LookupCaseType finds a case type by code, ignoring case.
func LookupCaseType(code string) (CaseType, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, ct := range CaseTypes {
		if ct.Code == code {
			return ct, true
		}
	}
	return CaseType{}, false
}

const (
	MinFilingYear    = 1950
	maxCaseNumberLen = 50
)

var (
	caseNumberSeparators = regexp.MustCompile(`[/\-\s]`)
	caseNumberChars      = regexp.MustCompile(`^[A-Za-z0-9]+$`)
)

// ValidationError collects every problem found with a search request.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Problems, "; ")
}

// ValidateQuery checks raw search input and builds a SearchQuery from it.
// All problems are reported together in a *ValidationError.
func ValidateQuery(caseType, caseNumber, filingYear string, now time.Time) (SearchQuery, error) {
	var problems []string

	caseType = strings.TrimSpace(caseType)
	caseNumber = strings.TrimSpace(caseNumber)
	filingYear = strings.TrimSpace(filingYear)

	ct, known := LookupCaseType(caseType)
	switch {
	case caseType == "":
		problems = append(problems, "Case type is required")
	case !known:
		problems = append(problems, fmt.Sprintf("Unknown case type %q", caseType))
	}

	if caseNumber == "" {
		problems = append(problems, "Case number is required")
	} else {
		if len(caseNumber) > maxCaseNumberLen {
			problems = append(problems, fmt.Sprintf("Case number must be between 1 and %d characters", maxCaseNumberLen))
		}
		if !caseNumberChars.MatchString(caseNumberSeparators.ReplaceAllString(caseNumber, "")) {
			problems = append(problems, "Case number contains invalid characters")
		}
	}

	maxYear := now.Year() + 1
	year := 0
	if filingYear == "" {
		problems = append(problems, "Filing year is required")
	} else if y, err := strconv.Atoi(filingYear); err != nil {
		problems = append(problems, "Filing year must be a valid number")
	} else if y < MinFilingYear || y > maxYear {
		problems = append(problems, fmt.Sprintf("Filing year must be between %d and %d", MinFilingYear, maxYear))
	} else {
		year = y
	}

	if len(problems) > 0 {
		return SearchQuery{}, &ValidationError{Problems: problems}
	}
	return SearchQuery{CaseType: ct.Code, CaseNumber: caseNumber, FilingYear: year}, nil
}
