package scraper

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"courtfetch/internal/domain"
	"courtfetch/internal/parser"
)

// Store is the persistence the Service writes to. Write failures are logged, never returned.
type Store interface {
	SaveCase(ctx context.Context, record domain.CaseRecord) error
	SaveRawResponse(ctx context.Context, raw domain.RawResponse) error
	LogSearch(ctx context.Context, entry domain.SearchLog) error
}

// Options configures NewService.
type Options struct {
	Mode        Mode
	BrowserBin  string
	Headless    bool
	PageTimeout time.Duration
	MockDelay   time.Duration
	Pacing      Pacing
	UserAgent   string
	BaseURL     string
	SearchURL   string
	CourtName   string
	Selectors   SelectorSet
}

// Caller describes who asked for a search, for the search log.
type Caller struct {
	Channel   domain.Channel
	ClientIP  string
	UserAgent string
}

// Service is the single entry point for case searches. Live faults end here:
// they are logged and answered with mock data.
type Service struct {
	backend Backend
	mock    *MockBackend
	store   Store
	log     logrus.FieldLogger
	now     func() time.Time
	newID   func() string
}

// NewService picks the backend for opts.Mode. Auto mode goes live only when a browser binary is found.
func NewService(opts Options, store Store, logger logrus.FieldLogger) (*Service, error) {
	log := logger.WithField("component", "scraper_service")
	mock := NewMockBackend(opts.MockDelay, opts.CourtName, logger)

	bin, found := FindBrowser(opts.BrowserBin)
	var backend Backend
	switch opts.Mode {
	case ModeMock:
		backend = mock
	case ModeLive, ModeAuto, "":
		if !found {
			if opts.Mode == ModeLive {
				return nil, fmt.Errorf("live mode requested: %w", ErrBrowserUnavailable)
			}
			log.Warn("No Chromium binary found, searches will return mock data")
			backend = mock
			break
		}
		browser := NewRodBrowser(bin, opts.Headless, opts.PageTimeout, opts.UserAgent, logger)
		images := NewRestyImageFetcher(opts.UserAgent, opts.PageTimeout)
		submitter := NewSubmitter(opts.SearchURL, opts.BaseURL, opts.Selectors, images, opts.Pacing, logger)
		backend = NewLiveBackend(browser, submitter, parser.NewParser(opts.CourtName, logger), logger)
		log.WithField("browser", bin).Info("Live scraping enabled")
	default:
		return nil, fmt.Errorf("unknown scraper mode %q", opts.Mode)
	}

	return NewServiceWithBackend(backend, mock, store, logger), nil
}

// NewServiceWithBackend wires a Service around an already built backend.
func NewServiceWithBackend(backend Backend, mock *MockBackend, store Store, logger logrus.FieldLogger) *Service {
	return &Service{
		backend: backend,
		mock:    mock,
		store:   store,
		log:     logger.WithField("component", "scraper_service"),
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Backend reports which backend answers searches.
func (s *Service) Backend() string { return s.backend.Name() }

// SearchCase runs one search. It never fails: faults become mock outcomes and
// "not found" becomes a Failure outcome.
func (s *Service) SearchCase(ctx context.Context, q domain.SearchQuery, captchaText string) domain.Outcome {
	log := s.log.WithFields(logrus.Fields{
		"case_type":   q.CaseType,
		"case_number": q.CaseNumber,
		"filing_year": q.FilingYear,
		"backend":     s.backend.Name(),
	})

	out, err := s.run(ctx, s.backend, q, captchaText)
	if err != nil && s.backend != Backend(s.mock) {
		entry := log.WithError(err)
		var af *AutomationFault
		if errors.As(err, &af) {
			entry = entry.WithField("stage", af.Stage)
		}
		entry.Error("Live search failed, falling back to mock data")
		out, err = s.run(ctx, s.mock, q, captchaText)
	}
	if err != nil {
		log.WithError(err).Error("Search failed")
		return domain.Failed(fmt.Sprintf("Search failed: %v", err))
	}

	if out.IsSuccess() && out.Record != nil {
		s.persist(ctx, out, log)
	}
	log.WithFields(logrus.Fields{"kind": out.Kind, "mock": out.Mock}).Info("Search finished")
	return out
}

// SearchCaseFor runs SearchCase and records the attempt in the search log.
func (s *Service) SearchCaseFor(ctx context.Context, caller Caller, q domain.SearchQuery, captchaText string) domain.Outcome {
	out := s.SearchCase(ctx, q, captchaText)

	entry := domain.SearchLog{
		ID:         s.newID(),
		Query:      q,
		Channel:    caller.Channel,
		Success:    out.IsSuccess(),
		Mock:       out.Mock,
		Message:    out.Message,
		ClientIP:   caller.ClientIP,
		UserAgent:  caller.UserAgent,
		SearchedAt: s.now(),
	}
	if err := s.store.LogSearch(ctx, entry); err != nil {
		s.log.WithError(err).WithField("case", q.Key()).Warn("Failed to record search log")
	}
	return out
}

// run calls b and turns a panic into an AutomationFault.
func (s *Service) run(ctx context.Context, b Backend, q domain.SearchQuery, captchaText string) (out domain.Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.log.WithField("stack", string(debug.Stack())).Error("Recovered panic in search backend")
			err = fault(StagePanic, fmt.Errorf("%v", r))
		}
	}()
	return b.Search(ctx, q, captchaText)
}

func (s *Service) persist(ctx context.Context, out domain.Outcome, log logrus.FieldLogger) {
	record := *out.Record
	if !out.Mock && out.Markup() != "" {
		raw := domain.RawResponse{
			ID:         s.newID(),
			Query:      record.Query(),
			Markup:     out.Markup(),
			Parsed:     record,
			ReceivedAt: s.now(),
		}
		if err := s.store.SaveRawResponse(ctx, raw); err != nil {
			log.WithError(err).Warn("Failed to save raw response")
		}
	}
	if err := s.store.SaveCase(ctx, record); err != nil {
		log.WithError(err).Warn("Failed to save case record")
	}
}
