package scraper

import (
	"context"
	"errors"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"courtfetch/internal/domain"
)

// Pause is a randomized wait between Min and Max.
type Pause struct {
	Min, Max time.Duration
}

// Pacing spaces out browser actions so the site sees human-like timing.
type Pacing struct {
	Step        Pause
	AfterSubmit Pause
}

// DefaultPacing waits 1-2s between steps and 2-3s after submitting.
func DefaultPacing() Pacing {
	return Pacing{
		Step:        Pause{Min: time.Second, Max: 2 * time.Second},
		AfterSubmit: Pause{Min: 2 * time.Second, Max: 3 * time.Second},
	}
}

func (p Pause) wait(ctx context.Context) error {
	d := p.Min
	if p.Max > p.Min {
		d += time.Duration(rand.Int63n(int64(p.Max - p.Min)))
	}
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Submission is what the submitter leaves behind: either the results page or a CAPTCHA challenge.
type Submission struct {
	Markup  string
	URL     string
	Captcha *domain.CaptchaChallenge
}

// Submitter drives the court's search form on a Page.
type Submitter struct {
	searchURL string
	baseURL   string
	selectors SelectorSet
	images    ImageFetcher
	pacing    Pacing
	log       logrus.FieldLogger
}

// NewSubmitter creates a submitter for the search page at searchURL on the site rooted at baseURL.
func NewSubmitter(searchURL, baseURL string, selectors SelectorSet, images ImageFetcher, pacing Pacing, logger logrus.FieldLogger) *Submitter {
	return &Submitter{
		searchURL: searchURL,
		baseURL:   baseURL,
		selectors: selectors,
		images:    images,
		pacing:    pacing,
		log:       logger.WithField("component", "submitter"),
	}
}

// Submit runs the search for q. A solved captchaText is typed into the CAPTCHA
// field when one is shown; without it a CAPTCHA page ends the run with a challenge.
// Every failure is returned as an *AutomationFault.
func (s *Submitter) Submit(ctx context.Context, page Page, q domain.SearchQuery, captchaText string) (*Submission, error) {
	log := s.log.WithFields(logrus.Fields{
		"case_type":   q.CaseType,
		"case_number": q.CaseNumber,
		"filing_year": q.FilingYear,
	})

	// --- Navigation ---
	if err := s.navigate(ctx, page, log); err != nil {
		return nil, err
	}

	// --- Form ---
	if _, sel, ok := firstVisible(page, s.selectors.Form, log); ok {
		log.WithField("selector", sel.String()).Debug("Search form located")
	} else {
		log.Warn("Could not find search form, trying text inputs directly")
		return s.submitDegraded(ctx, page, q, log)
	}

	s.fillFields(page, q, log)
	if err := s.pacing.Step.wait(ctx); err != nil {
		return nil, fault(StageFill, err)
	}

	// --- CAPTCHA ---
	if img, _, ok := firstVisible(page, s.selectors.CaptchaImage, log); ok {
		if captchaText == "" {
			src, _, err := img.Attribute("src")
			if err != nil {
				return nil, fault(StageCaptcha, err)
			}
			image, err := captchaDataURI(ctx, s.images, src, page.URL())
			if err != nil {
				return nil, fault(StageCaptcha, err)
			}
			log.Info("CAPTCHA required, returning challenge")
			return &Submission{Captcha: &domain.CaptchaChallenge{Image: image, Query: q}}, nil
		}

		if input, _, ok := firstVisible(page, s.selectors.CaptchaInput, log); !ok {
			log.Warn("CAPTCHA shown but no input field found")
		} else if err := input.Fill(captchaText); err != nil {
			return nil, fault(StageCaptcha, err)
		} else {
			log.Debug("CAPTCHA text entered")
		}
	}

	// --- Submit ---
	button, _, ok := firstVisible(page, s.selectors.Submit, log)
	if !ok {
		return nil, fault(StageSubmit, errors.New("no visible submit control"))
	}
	return s.clickAndCollect(ctx, page, button, log)
}

// navigate opens the search page, falling back once to the site root and its case status link.
func (s *Submitter) navigate(ctx context.Context, page Page, log logrus.FieldLogger) error {
	err := page.Navigate(ctx, s.searchURL)
	if err == nil {
		log.WithField("url", s.searchURL).Debug("Search page loaded")
		return s.stepPause(ctx, StageNavigate)
	}
	if ctx.Err() != nil {
		return fault(StageNavigate, ctx.Err())
	}

	log.WithError(err).Warn("Search page unreachable, falling back to site root")
	if err := page.Navigate(ctx, s.baseURL); err != nil {
		return fault(StageNavigate, err)
	}

	link, _, ok := firstVisible(page, s.selectors.CaseStatusLink, log)
	if !ok {
		log.Warn("No case status link on site root, continuing on landing page")
		return s.stepPause(ctx, StageNavigate)
	}
	if err := link.Click(); err != nil {
		log.WithError(err).Warn("Failed to follow case status link")
	} else if err := page.WaitSettled(ctx); err != nil {
		log.WithError(err).Warn("Case status page did not settle")
	}
	return s.stepPause(ctx, StageNavigate)
}

// fillFields sets case type, number and year. A missing control is skipped, and so is
// a control that rejects its value; the site validates on submit.
func (s *Submitter) fillFields(page Page, q domain.SearchQuery, log logrus.FieldLogger) {
	year := strconv.Itoa(q.FilingYear)

	if el, _, ok := firstVisible(page, s.selectors.CaseType, log); ok {
		if err := el.SelectByValue(q.CaseType); err != nil {
			if err := el.SelectByLabel(q.CaseType); err != nil {
				log.WithError(err).Warn("Could not select case type")
			}
		}
	} else {
		log.Warn("Case type control not found")
	}

	if el, _, ok := firstVisible(page, s.selectors.CaseNumber, log); ok {
		if err := el.Fill(q.CaseNumber); err != nil {
			log.WithError(err).Warn("Could not fill case number")
		}
	} else {
		log.Warn("Case number control not found")
	}

	if el, _, ok := firstVisible(page, s.selectors.FilingYear, log); ok {
		var err error
		if tag, _ := el.TagName(); strings.EqualFold(tag, "select") {
			err = el.SelectByValue(year)
		} else {
			err = el.Fill(year)
		}
		if err != nil {
			log.WithError(err).Warn("Could not set filing year")
		}
	} else {
		log.Warn("Filing year control not found")
	}
}

// submitDegraded fills the first two visible text inputs with number and year and submits.
func (s *Submitter) submitDegraded(ctx context.Context, page Page, q domain.SearchQuery, log logrus.FieldLogger) (*Submission, error) {
	inputs := allVisible(page, s.selectors.TextInputs, log)
	if len(inputs) < 2 {
		return nil, fault(StageForm, ErrFormNotFound)
	}
	if err := inputs[0].Fill(q.CaseNumber); err != nil {
		return nil, fault(StageFill, err)
	}
	if err := inputs[1].Fill(strconv.Itoa(q.FilingYear)); err != nil {
		return nil, fault(StageFill, err)
	}

	button, _, ok := firstVisible(page, s.selectors.FallbackSubmit, log)
	if !ok {
		return nil, fault(StageSubmit, ErrFormNotFound)
	}
	return s.clickAndCollect(ctx, page, button, log)
}

func (s *Submitter) clickAndCollect(ctx context.Context, page Page, button Element, log logrus.FieldLogger) (*Submission, error) {
	if err := button.Click(); err != nil {
		return nil, fault(StageSubmit, err)
	}
	if err := page.WaitSettled(ctx); err != nil {
		return nil, fault(StageResults, err)
	}
	if err := s.pacing.AfterSubmit.wait(ctx); err != nil {
		return nil, fault(StageResults, err)
	}

	markup, err := page.HTML()
	if err != nil {
		return nil, fault(StageResults, err)
	}
	url := page.URL()
	log.WithField("url", url).Info("Search submitted, results page loaded")
	return &Submission{Markup: markup, URL: url}, nil
}

func (s *Submitter) stepPause(ctx context.Context, stage Stage) error {
	if err := s.pacing.Step.wait(ctx); err != nil {
		return fault(stage, err)
	}
	return nil
}
