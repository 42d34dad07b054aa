package storage

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"courtfetch/internal/domain"
)

var baseTime = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

func sampleRecord(number string, fetched time.Time) domain.CaseRecord {
	return domain.CaseRecord{
		CaseType:   "CWP",
		CaseNumber: number,
		FilingYear: 2023,
		CaseTitle:  fmt.Sprintf("Petitioner %s vs State", number),
		Petitioner: "Petitioner " + number,
		Respondent: "State",
		Status:     "Pending",
		CourtName:  "Delhi High Court",
		DocumentLinks: []domain.DocumentLink{
			{Title: "Order", URL: "https://site/order.pdf", Type: domain.DocumentOrder},
		},
		FetchedAt: fetched,
	}
}

// runRepositoryContract exercises the behaviour every Repository must share.
func runRepositoryContract(t *testing.T, newRepo func(t *testing.T) Repository) {
	t.Run("SaveAndGetCase", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		record := sampleRecord("123", baseTime)
		require.NoError(t, repo.SaveCase(ctx, record))

		got, err := repo.GetCase(ctx, record.Query())
		require.NoError(t, err)
		assert.Equal(t, record, *got)

		_, err = repo.GetCase(ctx, domain.SearchQuery{CaseType: "CWP", CaseNumber: "999", FilingYear: 2023})
		assert.True(t, errors.Is(err, ErrNotFound), "missing case should be ErrNotFound, got %v", err)
	})

	t.Run("SaveCaseUpsertsByIdentity", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		first := sampleRecord("123", baseTime)
		require.NoError(t, repo.SaveCase(ctx, first))

		updated := first
		updated.Status = "Disposed"
		updated.FetchedAt = baseTime.Add(time.Hour)
		require.NoError(t, repo.SaveCase(ctx, updated))

		all, err := repo.ListCases(ctx, 0)
		require.NoError(t, err)
		require.Len(t, all, 1, "same identity must not create a second record")
		assert.Equal(t, "Disposed", all[0].Status)
	})

	t.Run("ListCasesNewestFirst", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		require.NoError(t, repo.SaveCase(ctx, sampleRecord("1", baseTime)))
		require.NoError(t, repo.SaveCase(ctx, sampleRecord("2", baseTime.Add(2*time.Hour))))
		require.NoError(t, repo.SaveCase(ctx, sampleRecord("3", baseTime.Add(time.Hour))))

		all, err := repo.ListCases(ctx, 0)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, []string{"2", "3", "1"}, []string{all[0].CaseNumber, all[1].CaseNumber, all[2].CaseNumber})

		limited, err := repo.ListCases(ctx, 2)
		require.NoError(t, err)
		require.Len(t, limited, 2)
		assert.Equal(t, "2", limited[0].CaseNumber)
	})

	t.Run("RawResponsesAreAppendOnly", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		record := sampleRecord("123", baseTime)
		other := sampleRecord("1234", baseTime)
		for i, r := range []domain.CaseRecord{record, record, other} {
			raw := domain.RawResponse{
				ID:         fmt.Sprintf("raw-%d", i),
				Query:      r.Query(),
				Markup:     fmt.Sprintf("<html>%d</html>", i),
				Parsed:     r,
				ReceivedAt: baseTime.Add(time.Duration(i) * time.Minute),
			}
			require.NoError(t, repo.SaveRawResponse(ctx, raw))
		}

		raws, err := repo.ListRawResponses(ctx, record.Query())
		require.NoError(t, err)
		require.Len(t, raws, 2, "entries of a different case number must not leak in")
		assert.Equal(t, "raw-1", raws[0].ID, "newest first")
		assert.Equal(t, "raw-0", raws[1].ID)
		assert.Equal(t, "<html>1</html>", raws[0].Markup)
		assert.Equal(t, record, raws[0].Parsed)
		assert.Equal(t, baseTime.Add(time.Minute), raws[0].ReceivedAt)

		none, err := repo.ListRawResponses(ctx, domain.SearchQuery{CaseType: "CRL", CaseNumber: "1", FilingYear: 2020})
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("SearchLog", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		for i := 0; i < 3; i++ {
			entry := domain.SearchLog{
				ID:         fmt.Sprintf("log-%d", i),
				Query:      domain.SearchQuery{CaseType: "CWP", CaseNumber: fmt.Sprint(i), FilingYear: 2023},
				Channel:    domain.ChannelWeb,
				Success:    i != 1,
				Mock:       i == 2,
				Message:    "done",
				ClientIP:   "127.0.0.1",
				UserAgent:  "test",
				SearchedAt: baseTime.Add(time.Duration(i) * time.Second),
			}
			require.NoError(t, repo.LogSearch(ctx, entry))
		}

		recent, err := repo.RecentSearches(ctx, 2)
		require.NoError(t, err)
		require.Len(t, recent, 2)
		assert.Equal(t, "log-2", recent[0].ID)
		assert.Equal(t, "log-1", recent[1].ID)
		assert.True(t, recent[0].Mock)
		assert.False(t, recent[1].Success)
		assert.Equal(t, domain.ChannelWeb, recent[0].Channel)
		assert.Equal(t, baseTime.Add(2*time.Second), recent[0].SearchedAt)

		all, err := repo.RecentSearches(ctx, 0)
		require.NoError(t, err)
		assert.Len(t, all, 3)
	})
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open("postgres", t.TempDir(), testLogger())
	assert.Error(t, err)
}
