package scraper

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"courtfetch/internal/domain"
	"courtfetch/internal/parser"
)

// memStore records what the Service persists.
type memStore struct {
	mu       sync.Mutex
	cases    []domain.CaseRecord
	raws     []domain.RawResponse
	searches []domain.SearchLog
	err      error
}

func (m *memStore) SaveCase(_ context.Context, r domain.CaseRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cases = append(m.cases, r)
	return m.err
}

func (m *memStore) SaveRawResponse(_ context.Context, r domain.RawResponse) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.raws = append(m.raws, r)
	return m.err
}

func (m *memStore) LogSearch(_ context.Context, e domain.SearchLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searches = append(m.searches, e)
	return m.err
}

type stubBackend struct {
	out   domain.Outcome
	err   error
	panic string
	calls int
}

func (b *stubBackend) Name() string { return "stub" }

func (b *stubBackend) Search(context.Context, domain.SearchQuery, string) (domain.Outcome, error) {
	b.calls++
	if b.panic != "" {
		panic(b.panic)
	}
	return b.out, b.err
}

func newTestService(backend Backend, store Store) *Service {
	mock := NewMockBackend(0, "Delhi High Court", testLogger())
	if backend == nil {
		backend = mock
	}
	return NewServiceWithBackend(backend, mock, store, testLogger())
}

func assertMockOutcome(t *testing.T, out domain.Outcome) {
	t.Helper()
	require.True(t, out.IsSuccess())
	require.NotNil(t, out.Record)
	assert.True(t, out.Mock)
	assert.Contains(t, out.Record.CaseTitle, "CWP 123/2023")
	assert.Contains(t, out.Record.Status, "MOCK")
	assert.Contains(t, out.Message, "MOCK DATA")
}

func TestService_MockMode(t *testing.T) {
	store := &memStore{}
	svc, err := NewService(Options{Mode: ModeMock, CourtName: "Delhi High Court"}, store, testLogger())
	require.NoError(t, err)
	assert.Equal(t, "mock", svc.Backend())

	out := svc.SearchCase(context.Background(), query, "")
	assertMockOutcome(t, out)
	assert.Equal(t, "Delhi High Court", out.Record.CourtName)
	require.Len(t, out.Record.DocumentLinks, 1)
	assert.Equal(t, domain.DocumentOrder, out.Record.DocumentLinks[0].Type)

	require.Len(t, store.cases, 1)
	assert.Equal(t, query, store.cases[0].Query())
	assert.Empty(t, store.raws, "mock data has no raw markup")
}

func TestService_UnavailableBrowserFallsBackToMock(t *testing.T) {
	store := &memStore{}
	live := &stubBackend{err: fault(StageLaunch, ErrBrowserUnavailable)}
	svc := newTestService(live, store)

	out := svc.SearchCase(context.Background(), query, "")
	assertMockOutcome(t, out)
	assert.Equal(t, 1, live.calls)
	assert.Len(t, store.cases, 1)
	assert.Empty(t, store.raws)
}

func TestService_PanicFallsBackToMock(t *testing.T) {
	live := &stubBackend{panic: "element detached"}
	svc := newTestService(live, &memStore{})

	out := svc.SearchCase(context.Background(), query, "")
	assertMockOutcome(t, out)
}

func TestService_LiveSuccessPersistsRawAndRecord(t *testing.T) {
	store := &memStore{}
	record := &domain.CaseRecord{CaseType: "CWP", CaseNumber: "123", FilingYear: 2023, CaseTitle: "A vs B"}
	live := &stubBackend{out: domain.Succeeded(record, "<html>results</html>", SuccessMessage)}
	svc := newTestService(live, store)
	svc.newID = func() string { return "raw-1" }
	svc.now = func() time.Time { return time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC) }

	out := svc.SearchCase(context.Background(), query, "")
	require.True(t, out.IsSuccess())
	assert.False(t, out.Mock)
	assert.Equal(t, SuccessMessage, out.Message)

	require.Len(t, store.raws, 1)
	assert.Equal(t, "raw-1", store.raws[0].ID)
	assert.Equal(t, "<html>results</html>", store.raws[0].Markup)
	assert.Equal(t, query, store.raws[0].Query)
	assert.Equal(t, "A vs B", store.raws[0].Parsed.CaseTitle)
	require.Len(t, store.cases, 1)
	assert.Equal(t, "A vs B", store.cases[0].CaseTitle)
}

func TestService_NotFoundDoesNotFallBack(t *testing.T) {
	store := &memStore{}
	msg := (&parser.NotFoundError{Query: query}).Error()
	live := &stubBackend{out: domain.Failed(msg)}
	svc := newTestService(live, store)

	out := svc.SearchCase(context.Background(), query, "")
	assert.Equal(t, domain.OutcomeFailure, out.Kind)
	assert.Equal(t, "No case found with number CWP/123/2023", out.Message)
	assert.Empty(t, store.cases)
	assert.Empty(t, store.raws)
}

func TestService_CaptchaIsNotPersisted(t *testing.T) {
	store := &memStore{}
	live := &stubBackend{out: domain.CaptchaNeeded(&domain.CaptchaChallenge{Image: "data:image/png;base64,QQ==", Query: query})}
	svc := newTestService(live, store)

	out := svc.SearchCase(context.Background(), query, "")
	require.True(t, out.IsCaptchaRequired())
	assert.Equal(t, query, out.Captcha.Query)
	assert.Empty(t, store.cases)
}

func TestService_StoreErrorsAreSwallowed(t *testing.T) {
	store := &memStore{err: errors.New("disk full")}
	svc := newTestService(nil, store)

	out := svc.SearchCaseFor(context.Background(), Caller{Channel: domain.ChannelCLI}, query, "")
	assertMockOutcome(t, out)
}

func TestService_SearchCaseForLogsSearch(t *testing.T) {
	store := &memStore{}
	svc := newTestService(nil, store)
	svc.newID = func() string { return "log-1" }

	caller := Caller{Channel: domain.ChannelAPI, ClientIP: "10.0.0.1", UserAgent: "curl/8"}
	out := svc.SearchCaseFor(context.Background(), caller, query, "")
	assertMockOutcome(t, out)

	require.Len(t, store.searches, 1)
	entry := store.searches[0]
	assert.Equal(t, "log-1", entry.ID)
	assert.Equal(t, query, entry.Query)
	assert.Equal(t, domain.ChannelAPI, entry.Channel)
	assert.True(t, entry.Success)
	assert.True(t, entry.Mock)
	assert.Equal(t, "10.0.0.1", entry.ClientIP)
	assert.Equal(t, "curl/8", entry.UserAgent)
}

func TestService_CanceledMockSearchFails(t *testing.T) {
	mock := NewMockBackend(time.Hour, "Delhi High Court", testLogger())
	svc := NewServiceWithBackend(mock, mock, &memStore{}, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := svc.SearchCase(ctx, query, "")
	assert.Equal(t, domain.OutcomeFailure, out.Kind)
}

func TestNewService_RejectsUnknownMode(t *testing.T) {
	_, err := NewService(Options{Mode: "turbo"}, &memStore{}, testLogger())
	assert.Error(t, err)
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"": ModeAuto, "AUTO": ModeAuto, " live ": ModeLive, "mock": ModeMock} {
		got, err := ParseMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseMode("turbo")
	assert.Error(t, err)
}

func TestLiveBackend_EndToEndWithFakeBrowser(t *testing.T) {
	var submitted map[string]string
	site := &fakeSite{
		pages:    map[string]string{searchURL: searchFormWithCaptcha, resultsURL: resultsPage},
		onSubmit: submitCapture(&submitted),
	}
	live := NewLiveBackend(site, newTestSubmitter(nil), parser.NewParser("Delhi High Court", testLogger()), testLogger())
	store := &memStore{}
	svc := newTestService(live, store)

	first := svc.SearchCase(context.Background(), query, "")
	require.True(t, first.IsCaptchaRequired())
	assert.NotEmpty(t, first.Captcha.Image)
	assert.Equal(t, query, first.Captcha.Query)

	second := svc.SearchCase(context.Background(), first.Captcha.Query, "ABCD")
	require.True(t, second.IsSuccess())
	assert.False(t, second.Mock)
	assert.Equal(t, "John Doe", second.Record.Petitioner)
	assert.Equal(t, "John Doe vs State (CWP 123/2023)", second.Record.CaseTitle)
	assert.Equal(t, "ABCD", submitted["captcha_code"])
	assert.Equal(t, 2, site.opened, "each call opens a fresh session")

	require.Len(t, store.raws, 1)
	assert.Equal(t, resultsPage, store.raws[0].Markup)
	require.Len(t, store.cases, 1)
}

func TestLiveBackend_NotFoundPage(t *testing.T) {
	site := &fakeSite{
		pages: map[string]string{
			searchURL:  searchForm,
			resultsURL: `<html><body><p>No records found</p></body></html>`,
		},
		onSubmit: func(map[string]string) string { return resultsURL },
	}
	live := NewLiveBackend(site, newTestSubmitter(nil), parser.NewParser("", testLogger()), testLogger())

	out, err := live.Search(context.Background(), query, "")
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeFailure, out.Kind)
	assert.Equal(t, "No case found with number CWP/123/2023", out.Message)
}
