package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// fakeSite serves static pages to fakePage. Submitting a form calls onSubmit
// with the filled values and loads the URL it returns.
type fakeSite struct {
	pages    map[string]string
	down     map[string]bool
	onSubmit func(form map[string]string) string
	opened   int
}

func (s *fakeSite) Open(context.Context) (Session, error) {
	s.opened++
	return &fakeSession{page: s.newPage()}, nil
}

func (s *fakeSite) newPage() *fakePage {
	return &fakePage{site: s, form: map[string]string{}}
}

type fakeSession struct {
	page   *fakePage
	closed bool
}

func (s *fakeSession) Page() Page   { return s.page }
func (s *fakeSession) Close() error { s.closed = true; return nil }

type fakePage struct {
	site    *fakeSite
	url     string
	markup  string
	doc     *goquery.Document
	form    map[string]string
	visited []string
	settled int
}

func (p *fakePage) Navigate(_ context.Context, target string) error {
	p.visited = append(p.visited, target)
	if p.site.down[target] {
		return fmt.Errorf("net::ERR_CONNECTION_REFUSED at %s", target)
	}
	markup, ok := p.site.pages[target]
	if !ok {
		return fmt.Errorf("no page at %s", target)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return err
	}
	p.url, p.markup, p.doc = target, markup, doc
	return nil
}

func (p *fakePage) Query(css string) ([]Element, error) {
	if p.doc == nil {
		return nil, errors.New("no document loaded")
	}
	found := p.doc.Find(css)
	out := make([]Element, 0, found.Length())
	found.Each(func(_ int, s *goquery.Selection) {
		out = append(out, &fakeElement{page: p, sel: s})
	})
	return out, nil
}

func (p *fakePage) WaitSettled(context.Context) error {
	p.settled++
	return nil
}

func (p *fakePage) URL() string { return p.url }

func (p *fakePage) HTML() (string, error) { return p.markup, nil }

type fakeElement struct {
	page *fakePage
	sel  *goquery.Selection
}

func (e *fakeElement) Visible() (bool, error) {
	if _, hidden := e.sel.Attr("hidden"); hidden {
		return false, nil
	}
	if t, _ := e.sel.Attr("type"); t == "hidden" {
		return false, nil
	}
	style := strings.ReplaceAll(e.sel.AttrOr("style", ""), " ", "")
	return !strings.Contains(style, "display:none"), nil
}

func (e *fakeElement) Text() (string, error) { return e.sel.Text(), nil }

func (e *fakeElement) TagName() (string, error) { return goquery.NodeName(e.sel), nil }

func (e *fakeElement) Attribute(name string) (string, bool, error) {
	v, ok := e.sel.Attr(name)
	return v, ok, nil
}

func (e *fakeElement) name() string {
	if n := e.sel.AttrOr("name", ""); n != "" {
		return n
	}
	return e.sel.AttrOr("id", "")
}

func (e *fakeElement) Fill(text string) error {
	if _, disabled := e.sel.Attr("disabled"); disabled {
		return errors.New("element is disabled")
	}
	e.page.form[e.name()] = text
	return nil
}

func (e *fakeElement) SelectByValue(value string) error {
	if e.sel.Find(fmt.Sprintf(`option[value="%s"]`, value)).Length() == 0 {
		return fmt.Errorf("no option with value %q", value)
	}
	e.page.form[e.name()] = value
	return nil
}

func (e *fakeElement) SelectByLabel(label string) error {
	var picked string
	e.sel.Find("option").EachWithBreak(func(_ int, o *goquery.Selection) bool {
		if strings.Contains(o.Text(), label) {
			picked = o.AttrOr("value", o.Text())
			return false
		}
		return true
	})
	if picked == "" {
		return fmt.Errorf("no option labelled %q", label)
	}
	e.page.form[e.name()] = picked
	return nil
}

func (e *fakeElement) Click() error {
	if goquery.NodeName(e.sel) == "a" {
		base, _ := url.Parse(e.page.url)
		ref, err := url.Parse(e.sel.AttrOr("href", ""))
		if err != nil {
			return err
		}
		return e.page.Navigate(context.Background(), base.ResolveReference(ref).String())
	}
	if e.page.site.onSubmit == nil {
		return errors.New("nothing happens on submit")
	}
	return e.page.Navigate(context.Background(), e.page.site.onSubmit(e.page.form))
}
