package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"courtfetch/internal/domain"
)

// MockMessage is attached to every mock outcome.
const MockMessage = "Case details retrieved successfully (MOCK DATA - install Chromium for live scraping)"

// MockBackend answers every query with a clearly marked placeholder record.
type MockBackend struct {
	delay     time.Duration
	courtName string
	log       logrus.FieldLogger
	now       func() time.Time
}

// NewMockBackend creates a mock backend that waits delay before answering.
func NewMockBackend(delay time.Duration, courtName string, logger logrus.FieldLogger) *MockBackend {
	return &MockBackend{
		delay:     delay,
		courtName: courtName,
		log:       logger.WithField("component", "mock_backend"),
		now:       time.Now,
	}
}

func (m *MockBackend) Name() string { return string(ModeMock) }

func (m *MockBackend) Search(ctx context.Context, q domain.SearchQuery, _ string) (domain.Outcome, error) {
	m.log.WithField("case", q.Key()).Warn("Using mock data, install Chromium for live scraping")

	if m.delay > 0 {
		t := time.NewTimer(m.delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return domain.Outcome{}, ctx.Err()
		case <-t.C:
		}
	}
	return domain.MockSucceeded(m.Record(q), MockMessage), nil
}

// Record builds the placeholder record for q.
func (m *MockBackend) Record(q domain.SearchQuery) *domain.CaseRecord {
	ref := fmt.Sprintf("%s %s/%d", q.CaseType, q.CaseNumber, q.FilingYear)
	return &domain.CaseRecord{
		CaseType:    q.CaseType,
		CaseNumber:  q.CaseNumber,
		FilingYear:  q.FilingYear,
		CaseTitle:   ref + " - Sample Case vs State of Delhi (MOCK DATA)",
		Petitioner:  "Sample Petitioner Name",
		Respondent:  "State of Delhi & Others",
		FilingDate:  "15/01/2023",
		HearingDate: "25/12/2025",
		Status:      "Pending (MOCK)",
		Judge:       "Hon'ble Justice Sample Singh",
		CourtName:   m.courtName,
		Act:         "Article 226 of Constitution of India",
		Stage:       "Arguments",
		DocumentLinks: []domain.DocumentLink{{
			Title: "Order dated 15/01/2023 - " + ref + " (MOCK)",
			URL:   "https://example.com/mock-order.pdf",
			Type:  domain.DocumentOrder,
		}},
		FetchedAt: m.now(),
	}
}
