package scraper

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Page is the slice of a browser tab the form submitter needs.
type Page interface {
	// Navigate loads url and waits for the page to settle.
	Navigate(ctx context.Context, url string) error

	// Query returns every element matching css in document order. It does not wait.
	Query(css string) ([]Element, error)

	// WaitSettled waits for a navigation or in-page update triggered by the last action.
	WaitSettled(ctx context.Context) error

	URL() string
	HTML() (string, error)
}

// Element is a single node on a Page.
type Element interface {
	Visible() (bool, error)
	Text() (string, error)
	TagName() (string, error)
	Attribute(name string) (value string, ok bool, err error)

	// Fill replaces the element's value with text.
	Fill(text string) error
	SelectByValue(value string) error
	SelectByLabel(label string) error
	Click() error
}

// firstVisible probes candidates in order and returns the first visible element
// whose text satisfies its selector. Probe errors count as a miss.
func firstVisible(page Page, candidates []Selector, log logrus.FieldLogger) (Element, Selector, bool) {
	for _, sel := range candidates {
		elements, err := page.Query(sel.CSS)
		if err != nil {
			log.WithError(err).WithField("selector", sel.String()).Debug("Selector probe failed")
			continue
		}
		for _, el := range elements {
			if ok, err := matches(el, sel); err != nil {
				log.WithError(err).WithField("selector", sel.String()).Debug("Element check failed")
			} else if ok {
				return el, sel, true
			}
		}
	}
	return nil, Selector{}, false
}

// allVisible returns every visible element matching any candidate, in candidate then document order.
func allVisible(page Page, candidates []Selector, log logrus.FieldLogger) []Element {
	var out []Element
	for _, sel := range candidates {
		elements, err := page.Query(sel.CSS)
		if err != nil {
			log.WithError(err).WithField("selector", sel.String()).Debug("Selector probe failed")
			continue
		}
		for _, el := range elements {
			if ok, _ := matches(el, sel); ok {
				out = append(out, el)
			}
		}
	}
	return out
}

func matches(el Element, sel Selector) (bool, error) {
	visible, err := el.Visible()
	if err != nil || !visible {
		return false, err
	}
	if sel.Text == "" {
		return true, nil
	}
	text, err := el.Text()
	if err != nil {
		return false, err
	}
	return sel.MatchesText(text), nil
}
