package scraper

import (
	"fmt"
	"regexp"
	"strings"
)

// Selector matches page elements by CSS and, optionally, by their visible text.
type Selector struct {
	CSS string

	// Text is a case-insensitive regular expression the element text must match. Empty matches all.
	Text string

	re *regexp.Regexp
}

// ParseSelector reads the "css" or "css::text-regex" form used in configuration.
func ParseSelector(s string) (Selector, error) {
	css, text, _ := strings.Cut(strings.TrimSpace(s), "::")
	sel := Selector{CSS: strings.TrimSpace(css), Text: strings.TrimSpace(text)}
	if sel.CSS == "" {
		return Selector{}, fmt.Errorf("selector %q has no css part", s)
	}
	if sel.Text != "" {
		re, err := regexp.Compile("(?i)" + sel.Text)
		if err != nil {
			return Selector{}, fmt.Errorf("selector %q has an invalid text pattern: %w", s, err)
		}
		sel.re = re
	}
	return sel, nil
}

func mustSelector(s string) Selector {
	sel, err := ParseSelector(s)
	if err != nil {
		panic(err)
	}
	return sel
}

func selectors(specs ...string) []Selector {
	out := make([]Selector, 0, len(specs))
	for _, s := range specs {
		out = append(out, mustSelector(s))
	}
	return out
}

// MatchesText reports whether text satisfies the selector's text pattern.
func (s Selector) MatchesText(text string) bool {
	if s.Text == "" {
		return true
	}
	re := s.re
	if re == nil {
		var err error
		if re, err = regexp.Compile("(?i)" + s.Text); err != nil {
			return false
		}
	}
	return re.MatchString(text)
}

func (s Selector) String() string {
	if s.Text == "" {
		return s.CSS
	}
	return s.CSS + "::" + s.Text
}

// SelectorSet holds the candidate selectors for each control of the search page.
// Candidates are tried in order; the first visible match wins.
type SelectorSet struct {
	Form           []Selector
	CaseType       []Selector
	CaseNumber     []Selector
	FilingYear     []Selector
	CaptchaImage   []Selector
	CaptchaInput   []Selector
	Submit         []Selector
	CaseStatusLink []Selector

	// TextInputs and FallbackSubmit drive the degraded strategy used when no form is found.
	TextInputs     []Selector
	FallbackSubmit []Selector
}

// DefaultSelectors returns the selectors known to work against the Delhi High Court site.
func DefaultSelectors() SelectorSet {
	return SelectorSet{
		Form: selectors(
			`form[name="form1"]`,
			`form[method="post"], form[method="POST"]`,
			`form`,
			`table form`,
		),
		CaseType: selectors(
			`select[name*="case"], select[name*="Case"], select[name*="TYPE"]`,
			`select::\b(CWP|CRL)\b`,
			`select`,
		),
		CaseNumber: selectors(
			`input[name*="case"], input[name*="Case"], input[name*="NUMBER"]`,
			`input[type="text"]:not([name*="captcha"]):not([name*="Captcha"])`,
			`input[placeholder*="Case"], input[placeholder*="Number"]`,
		),
		FilingYear: selectors(
			`input[name*="year"], input[name*="Year"], input[name*="YEAR"]`,
			`select[name*="year"], select[name*="Year"]`,
			`input[placeholder*="Year"]`,
		),
		CaptchaImage: selectors(
			`img[src*="captcha"], img[src*="Captcha"], img[src*="CAPTCHA"]`,
			`img[alt*="captcha"], img[alt*="Captcha"]`,
			`img[name*="captcha"], img[id*="captcha"]`,
		),
		CaptchaInput: selectors(
			`input[name*="captcha"], input[name*="Captcha"], input[name*="CAPTCHA"]`,
			`input[placeholder*="captcha"], input[placeholder*="Captcha"]`,
		),
		Submit: selectors(
			`input[type="submit"], button[type="submit"]`,
			`input[value*="Search"], input[value*="search"]`,
			`button::search`,
			`input[name*="submit"], input[name*="Submit"]`,
		),
		CaseStatusLink: selectors(
			`a::case\s+status`,
			`a[href*="case_status"]`,
		),
		TextInputs:     selectors(`input[type="text"]`),
		FallbackSubmit: selectors(`input[type="submit"], button`),
	}
}

// Override replaces the candidate lists named in overrides. Keys are the snake_case
// control names (form, case_type, case_number, filing_year, captcha_image,
// captcha_input, submit, case_status_link, text_inputs, fallback_submit).
func (s *SelectorSet) Override(overrides map[string][]string) error {
	targets := map[string]*[]Selector{
		"form":             &s.Form,
		"case_type":        &s.CaseType,
		"case_number":      &s.CaseNumber,
		"filing_year":      &s.FilingYear,
		"captcha_image":    &s.CaptchaImage,
		"captcha_input":    &s.CaptchaInput,
		"submit":           &s.Submit,
		"case_status_link": &s.CaseStatusLink,
		"text_inputs":      &s.TextInputs,
		"fallback_submit":  &s.FallbackSubmit,
	}
	for key, specs := range overrides {
		target, ok := targets[strings.ToLower(key)]
		if !ok {
			return fmt.Errorf("unknown selector group %q", key)
		}
		if len(specs) == 0 {
			continue
		}
		parsed := make([]Selector, 0, len(specs))
		for _, spec := range specs {
			sel, err := ParseSelector(spec)
			if err != nil {
				return fmt.Errorf("selector group %q: %w", key, err)
			}
			parsed = append(parsed, sel)
		}
		*target = parsed
	}
	return nil
}
