package domain

import (
	"fmt"
	"time"
)

// DocumentType classifies a document link found on a case page.
type DocumentType string

const (
	DocumentOrder    DocumentType = "order"
	DocumentJudgment DocumentType = "judgment"
	DocumentNotice   DocumentType = "notice"
	DocumentGeneric  DocumentType = "document"
)

// DocumentLink is a link to an order, judgment or other document attached to a case.
type DocumentLink struct {
	// Title is the visible anchor text; never empty.
	Title string `json:"title"`

	// URL is absolute, resolved against the page it was found on.
	URL string `json:"url"`

	Type DocumentType `json:"type"`
}

// MaxDocumentLinks caps the number of links attached to a record.
const MaxDocumentLinks = 5

// SearchQuery identifies a case on the court website.
// (CaseType, CaseNumber, FilingYear) is the natural key for a stored case.
type SearchQuery struct {
	CaseType   string `json:"case_type"`
	CaseNumber string `json:"case_number"`
	FilingYear int    `json:"filing_year"`
}

// Key renders the identity tuple as TYPE/NUMBER/YEAR.
func (q SearchQuery) Key() string {
	return fmt.Sprintf("%s/%s/%d", q.CaseType, q.CaseNumber, q.FilingYear)
}

// CaseRecord is the result extracted for one case query.
// A record is built once per search and not modified afterwards.
type CaseRecord struct {
	CaseType   string `json:"case_type"`
	CaseNumber string `json:"case_number"`
	FilingYear int    `json:"filing_year"`

	// CaseTitle is synthesized from the parties when the page has none.
	CaseTitle   string `json:"case_title"`
	Petitioner  string `json:"petitioner,omitempty"`
	Respondent  string `json:"respondent,omitempty"`
	FilingDate  string `json:"filing_date,omitempty"`
	HearingDate string `json:"hearing_date,omitempty"`
	Status      string `json:"status,omitempty"`
	Judge       string `json:"judge,omitempty"`
	CourtName   string `json:"court_name,omitempty"`
	Act         string `json:"act,omitempty"`
	Stage       string `json:"stage,omitempty"`

	// DocumentLinks keeps discovery order and holds at most MaxDocumentLinks entries.
	DocumentLinks []DocumentLink `json:"document_links,omitempty"`

	FetchedAt time.Time `json:"fetched_at"`
}

// Query returns the identity tuple of the record.
func (r CaseRecord) Query() SearchQuery {
	return SearchQuery{CaseType: r.CaseType, CaseNumber: r.CaseNumber, FilingYear: r.FilingYear}
}

// SynthesizeTitle builds "<petitioner> vs <respondent> (<type> <number>/<year>)",
// substituting placeholders for missing parties.
func SynthesizeTitle(petitioner, respondent string, q SearchQuery) string {
	if petitioner == "" {
		petitioner = "Petitioner"
	}
	if respondent == "" {
		respondent = "Respondent"
	}
	return fmt.Sprintf("%s vs %s (%s %s/%d)", petitioner, respondent, q.CaseType, q.CaseNumber, q.FilingYear)
}

// CaptchaChallenge is returned when the search form shows a CAPTCHA and no solved
// text was supplied. The caller re-invokes the search with the same query and the text.
type CaptchaChallenge struct {
	// Image is a data URI: data:image/png;base64,<bytes>.
	Image string      `json:"captcha_image"`
	Query SearchQuery `json:"query"`
}

// RawResponse is an audit entry holding the markup a record was parsed from.
type RawResponse struct {
	ID         string      `json:"id"`
	Query      SearchQuery `json:"query"`
	Markup     string      `json:"markup"`
	Parsed     CaseRecord  `json:"parsed"`
	ReceivedAt time.Time   `json:"received_at"`
}

// Channel names the front end a search came through.
type Channel string

const (
	ChannelWeb Channel = "web"
	ChannelAPI Channel = "api"
	ChannelBot Channel = "bot"
	ChannelCLI Channel = "cli"
)

// SearchLog records one search attempt.
type SearchLog struct {
	ID         string      `json:"id"`
	Query      SearchQuery `json:"query"`
	Channel    Channel     `json:"channel"`
	Success    bool        `json:"success"`
	Mock       bool        `json:"mock"`
	Message    string      `json:"message,omitempty"`
	ClientIP   string      `json:"client_ip,omitempty"`
	UserAgent  string      `json:"user_agent,omitempty"`
	SearchedAt time.Time   `json:"searched_at"`
}
