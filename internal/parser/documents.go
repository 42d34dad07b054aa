package parser

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"courtfetch/internal/domain"
	"courtfetch/internal/textutil"
)

var documentTerms = []string{"order", "judgment", "judgement", "document"}

// ExtractDocuments collects links that look like case documents, in page order,
// resolved against baseURL and capped at domain.MaxDocumentLinks. Targets are not fetched.
func ExtractDocuments(doc *goquery.Document, baseURL string) []domain.DocumentLink {
	base, err := url.Parse(baseURL)
	if err != nil {
		base = &url.URL{}
	}

	var links []domain.DocumentLink
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href := strings.TrimSpace(a.AttrOr("href", ""))
		if href == "" {
			return true
		}
		title := textutil.Normalize(a.Text())
		if title == "" || !isDocumentLink(href, title) {
			return true
		}
		ref, err := url.Parse(href)
		if err != nil {
			return true
		}
		links = append(links, domain.DocumentLink{
			Title: title,
			URL:   base.ResolveReference(ref).String(),
			Type:  ClassifyDocument(title),
		})
		return len(links) < domain.MaxDocumentLinks
	})
	return links
}

func isDocumentLink(href, text string) bool {
	lowerText := strings.ToLower(text)
	return strings.Contains(strings.ToLower(href), ".pdf") ||
		strings.Contains(lowerText, "pdf") ||
		textutil.ContainsAny(lowerText, documentTerms...)
}

// ClassifyDocument infers the document type from a link title. First match wins.
func ClassifyDocument(title string) domain.DocumentType {
	lower := strings.ToLower(title)
	switch {
	case strings.Contains(lower, "order"):
		return domain.DocumentOrder
	case textutil.ContainsAny(lower, "judgment", "judgement"):
		return domain.DocumentJudgment
	case strings.Contains(lower, "notice"):
		return domain.DocumentNotice
	default:
		return domain.DocumentGeneric
	}
}
