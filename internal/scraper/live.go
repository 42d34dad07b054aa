package scraper

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"courtfetch/internal/domain"
	"courtfetch/internal/parser"
)

// SuccessMessage is attached to live outcomes.
const SuccessMessage = "Case details retrieved successfully"

// ResultParser turns a results page into a record.
type ResultParser interface {
	Parse(markup, pageURL string, q domain.SearchQuery) (*domain.CaseRecord, error)
}

// LiveBackend searches the court website with a real browser, one session per call.
type LiveBackend struct {
	browser   BrowserFactory
	submitter *Submitter
	parser    ResultParser
	log       logrus.FieldLogger
}

func NewLiveBackend(browser BrowserFactory, submitter *Submitter, p ResultParser, logger logrus.FieldLogger) *LiveBackend {
	return &LiveBackend{
		browser:   browser,
		submitter: submitter,
		parser:    p,
		log:       logger.WithField("component", "live_backend"),
	}
}

func (b *LiveBackend) Name() string { return string(ModeLive) }

func (b *LiveBackend) Search(ctx context.Context, q domain.SearchQuery, captchaText string) (domain.Outcome, error) {
	log := b.log.WithField("case", q.Key())
	log.Info("Starting live search")

	session, err := b.browser.Open(ctx)
	if err != nil {
		return domain.Outcome{}, fault(StageLaunch, err)
	}
	defer func() {
		if closeErr := session.Close(); closeErr != nil {
			log.WithError(closeErr).Warn("Error closing browser session")
		}
	}()

	sub, err := b.submitter.Submit(ctx, session.Page(), q, captchaText)
	if err != nil {
		return domain.Outcome{}, err
	}
	if sub.Captcha != nil {
		return domain.CaptchaNeeded(sub.Captcha), nil
	}

	record, err := b.parser.Parse(sub.Markup, sub.URL, q)
	var notFound *parser.NotFoundError
	switch {
	case errors.As(err, &notFound):
		return domain.Failed(notFound.Error()), nil
	case err != nil:
		return domain.Outcome{}, fault(StageResults, err)
	}
	return domain.Succeeded(record, sub.Markup, SuccessMessage), nil
}
