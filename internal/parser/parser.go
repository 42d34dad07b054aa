package parser

import (
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"courtfetch/internal/domain"
	"courtfetch/internal/textutil"
)

// DefaultCourtName is used when the parser is built without one.
const DefaultCourtName = "Delhi High Court"

// noResultPhrases mark a results page that found nothing. Matched against lower-cased text.
var noResultPhrases = []string{
	"no records found", "no record found", "record not found",
	"case not found", "no case found", "no data found",
	"no result", "not available", "does not exist",
}

// NotFoundError reports a results page that says the case does not exist.
type NotFoundError struct {
	Query  domain.SearchQuery
	Phrase string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("No case found with number %s/%s/%d", e.Query.CaseType, e.Query.CaseNumber, e.Query.FilingYear)
}

// Parser turns a results page into a CaseRecord.
type Parser struct {
	courtName string
	log       logrus.FieldLogger
	now       func() time.Time
}

// NewParser creates a parser that stamps records with courtName.
func NewParser(courtName string, logger logrus.FieldLogger) *Parser {
	if courtName == "" {
		courtName = DefaultCourtName
	}
	return &Parser{
		courtName: courtName,
		log:       logger.WithField("component", "parser"),
		now:       time.Now,
	}
}

// Parse extracts a case record from markup fetched from pageURL.
// It returns a *NotFoundError when the page says there is no such case.
func (p *Parser) Parse(markup, pageURL string, q domain.SearchQuery) (*domain.CaseRecord, error) {
	log := p.log.WithField("case", q.Key())

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("failed to parse results page: %w", err)
	}

	text := VisibleText(doc.Nodes...)
	lower := strings.ToLower(text)
	for _, phrase := range noResultPhrases {
		if strings.Contains(lower, phrase) {
			log.WithField("phrase", phrase).Info("Results page reports no matching case")
			return nil, &NotFoundError{Query: q, Phrase: phrase}
		}
	}

	record := &domain.CaseRecord{
		CaseType:   q.CaseType,
		CaseNumber: q.CaseNumber,
		FilingYear: q.FilingYear,
		CourtName:  p.courtName,
		FetchedAt:  p.now(),
	}

	// --- Labeled table cells ---
	fields := extractLabeledPairs(doc)
	labeled := len(fields)

	// --- Text patterns for whatever is still missing ---
	for f, v := range ExtractPatterns(text, fields.present()) {
		fields.setIfEmpty(f, v)
	}
	fields.applyTo(record)

	// --- Documents ---
	if links := ExtractDocuments(doc, pageURL); len(links) > 0 {
		record.DocumentLinks = links
	}

	if record.CaseTitle == "" {
		record.CaseTitle = domain.SynthesizeTitle(record.Petitioner, record.Respondent, q)
	}

	log.WithFields(logrus.Fields{
		"labeled_fields": labeled,
		"total_fields":   len(fields),
		"documents":      len(record.DocumentLinks),
	}).Info("Parsed case details")
	return record, nil
}

// extractLabeledPairs maps the first two cells of every table row. Earlier rows win.
func extractLabeledPairs(doc *goquery.Document) fieldSet {
	fields := make(fieldSet)
	doc.Find("table tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.ChildrenFiltered("td, th")
		if cells.Length() < 2 {
			return
		}
		label := textutil.Normalize(cells.Eq(0).Text())
		value := textutil.Normalize(cells.Eq(1).Text())
		if label == "" || len(value) <= 1 {
			return
		}
		if f, v, ok := MapLabeledPair(label, value); ok {
			fields.setIfEmpty(f, v)
		}
	})
	return fields
}
