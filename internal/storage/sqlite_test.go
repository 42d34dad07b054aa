package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSQLite(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "court_data.db"), testLogger())
	require.NoError(t, err, "Failed to create test SQLite repository")
	t.Cleanup(func() {
		assert.NoError(t, repo.Close())
	})
	return repo
}

func TestSQLiteRepository_Contract(t *testing.T) {
	runRepositoryContract(t, func(t *testing.T) Repository {
		return setupSQLite(t)
	})
}

func TestSQLiteRepository_InMemory(t *testing.T) {
	repo, err := NewSQLiteRepository(":memory:", testLogger())
	require.NoError(t, err)
	defer repo.Close()

	record := sampleRecord("77", baseTime)
	require.NoError(t, repo.SaveCase(context.Background(), record))

	got, err := repo.GetCase(context.Background(), record.Query())
	require.NoError(t, err)
	assert.Equal(t, "Petitioner 77 vs State", got.CaseTitle)
}

func TestSQLiteRepository_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "court_data.db")
	ctx := context.Background()

	repo, err := NewSQLiteRepository(path, testLogger())
	require.NoError(t, err)
	require.NoError(t, repo.SaveCase(ctx, sampleRecord("1", baseTime)))
	require.NoError(t, repo.Close())

	reopened, err := Open(DriverSQLite, path, testLogger())
	require.NoError(t, err)
	defer reopened.Close()

	all, err := reopened.ListCases(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "1", all[0].CaseNumber)
}
