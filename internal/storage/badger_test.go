package storage

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// setupTestDB creates a temporary BadgerDB instance for testing.
// It returns the repository instance and a cleanup function.
func setupTestDB(t *testing.T) (*BadgerRepository, func()) {
	t.Helper()

	// t.TempDir() removes the directory once the test and its subtests complete
	repo, err := NewBadgerRepository(t.TempDir(), testLogger())
	require.NoError(t, err, "Failed to create test BadgerDB repository")

	cleanup := func() {
		assert.NoError(t, repo.Close(), "Failed to close test BadgerDB repository")
	}
	return repo, cleanup
}

func TestBadgerRepository_Contract(t *testing.T) {
	runRepositoryContract(t, func(t *testing.T) Repository {
		repo, cleanup := setupTestDB(t)
		t.Cleanup(cleanup)
		return repo
	})
}

// TestBadgerRepository_SimilarKeysStayApart checks that prefix scans do not
// mix case types that share a prefix, like CRL and CRL.A.
func TestBadgerRepository_SimilarKeysStayApart(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	crl := sampleRecord("5", baseTime)
	crl.CaseType = "CRL"
	crlA := sampleRecord("5", baseTime)
	crlA.CaseType = "CRL.A"

	require.NoError(t, repo.SaveCase(ctx, crl))
	require.NoError(t, repo.SaveCase(ctx, crlA))

	got, err := repo.GetCase(ctx, crl.Query())
	require.NoError(t, err)
	assert.Equal(t, "CRL", got.CaseType)

	all, err := repo.ListCases(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestOpen_Badger(t *testing.T) {
	repo, err := Open(DriverBadger, t.TempDir(), testLogger())
	require.NoError(t, err)
	assert.IsType(t, &BadgerRepository{}, repo)
	assert.NoError(t, repo.Close())
}
