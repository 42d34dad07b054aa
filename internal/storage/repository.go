package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"courtfetch/internal/domain"
)

// ErrNotFound is returned when a requested case is not stored.
var ErrNotFound = errors.New("not found")

// Repository defines the interface for data storage operations.
// Both the embedded key-value store and the SQLite store implement it,
// so the rest of the application never depends on a storage engine.
type Repository interface {
	// SaveCase stores a case record. A record with the same case type, number
	// and filing year replaces the existing one.
	SaveCase(ctx context.Context, record domain.CaseRecord) error

	// SaveRawResponse appends an audit entry with the markup a record was parsed from.
	SaveRawResponse(ctx context.Context, raw domain.RawResponse) error

	// GetCase returns the stored record for q or ErrNotFound.
	GetCase(ctx context.Context, q domain.SearchQuery) (*domain.CaseRecord, error)

	// ListCases returns stored records, most recently fetched first. limit <= 0 means all.
	ListCases(ctx context.Context, limit int) ([]domain.CaseRecord, error)

	// ListRawResponses returns the audit entries for q, newest first.
	ListRawResponses(ctx context.Context, q domain.SearchQuery) ([]domain.RawResponse, error)

	// LogSearch appends an entry to the search log.
	LogSearch(ctx context.Context, entry domain.SearchLog) error

	// RecentSearches returns the newest search log entries. limit <= 0 means all.
	RecentSearches(ctx context.Context, limit int) ([]domain.SearchLog, error)

	// Close gracefully shuts down the repository connection.
	Close() error
}

// Driver names a storage engine.
const (
	DriverBadger = "badger"
	DriverSQLite = "sqlite"
)

// Open creates the repository for driver. path is a directory for badger and a file for sqlite.
func Open(driver, path string, logger logrus.FieldLogger) (Repository, error) {
	switch driver {
	case DriverBadger, "":
		repo, err := NewBadgerRepository(path, logger)
		if err != nil {
			return nil, err
		}
		return repo, nil
	case DriverSQLite:
		repo, err := NewSQLiteRepository(path, logger)
		if err != nil {
			return nil, err
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q (want %s or %s)", driver, DriverBadger, DriverSQLite)
	}
}
