package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"

	"courtfetch/internal/domain"
)

// BadgerRepository implements the Repository interface using BadgerDB.
type BadgerRepository struct {
	db  *badger.DB
	log logrus.FieldLogger
}

// NewBadgerRepository creates and initializes a new BadgerDB repository.
// It opens the database at the specified path.
func NewBadgerRepository(dbPath string, logger logrus.FieldLogger) (*BadgerRepository, error) {
	opts := badger.DefaultOptions(dbPath)
	// Route Badger's internal logging through logrus
	opts.Logger = &badgerLogger{logger.WithField("component", "badgerdb")}

	db, err := badger.Open(opts)
	if err != nil {
		logger.WithError(err).Error("Failed to open BadgerDB")
		return nil, fmt.Errorf("failed to open badger db at %s: %w", dbPath, err)
	}
	logger.Info("BadgerDB opened successfully at path: ", dbPath)

	return &BadgerRepository{
		db:  db,
		log: logger.WithField("component", "repository"),
	}, nil
}

// Close closes the BadgerDB database connection.
func (r *BadgerRepository) Close() error {
	r.log.Info("Closing BadgerDB...")
	err := r.db.Close()
	if err != nil {
		r.log.WithError(err).Error("Error closing BadgerDB")
		return err
	}
	r.log.Info("BadgerDB closed.")
	return nil
}

// --- Keys ---

// caseKey identifies the single stored record for a query.
// Format: case:{type}:{number}:{year}
func caseKey(q domain.SearchQuery) []byte {
	return []byte(fmt.Sprintf("case:%s:%s:%d", q.CaseType, q.CaseNumber, q.FilingYear))
}

var casePrefix = []byte("case:")

// rawPrefix scans all audit entries for a query.
// Format: raw:{type}:{number}:{year}:
func rawPrefix(q domain.SearchQuery) []byte {
	return []byte(fmt.Sprintf("raw:%s:%s:%d:", q.CaseType, q.CaseNumber, q.FilingYear))
}

// rawKey orders audit entries by time within a query. The zero-padded
// timestamp keeps lexical and chronological order the same.
func rawKey(raw domain.RawResponse) []byte {
	return append(rawPrefix(raw.Query), []byte(fmt.Sprintf("%020d:%s", raw.ReceivedAt.UnixNano(), raw.ID))...)
}

var searchPrefix = []byte("search:")

// searchKey orders log entries by time.
// Format: search:{unixnano}:{id}
func searchKey(entry domain.SearchLog) []byte {
	return []byte(fmt.Sprintf("search:%020d:%s", entry.SearchedAt.UnixNano(), entry.ID))
}

func (r *BadgerRepository) put(key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(key, data))
	})
}

// --- Cases ---

// SaveCase stores or replaces a case record.
func (r *BadgerRepository) SaveCase(ctx context.Context, record domain.CaseRecord) error {
	log := r.log.WithField("case", record.Query().Key())

	if record.FetchedAt.IsZero() {
		record.FetchedAt = time.Now()
	}
	if err := r.put(caseKey(record.Query()), record); err != nil {
		log.WithError(err).Error("Failed to save case to BadgerDB")
		return fmt.Errorf("failed to save case: %w", err)
	}

	log.Debug("Case saved successfully")
	return nil
}

// GetCase retrieves the stored record for a query.
func (r *BadgerRepository) GetCase(ctx context.Context, q domain.SearchQuery) (*domain.CaseRecord, error) {
	var record domain.CaseRecord
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(caseKey(q))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		r.log.WithError(err).WithField("case", q.Key()).Error("Failed to read case from BadgerDB")
		return nil, fmt.Errorf("failed to get case %s: %w", q.Key(), err)
	}
	return &record, nil
}

// ListCases retrieves stored cases, most recently fetched first.
func (r *BadgerRepository) ListCases(ctx context.Context, limit int) ([]domain.CaseRecord, error) {
	var records []domain.CaseRecord
	err := scanPrefix(r.db, casePrefix, false, 0, func(val []byte) error {
		var record domain.CaseRecord
		if err := json.Unmarshal(val, &record); err != nil {
			return err
		}
		records = append(records, record)
		return nil
	})
	if err != nil {
		r.log.WithError(err).Error("Failed to list cases from BadgerDB")
		return nil, fmt.Errorf("failed to list cases: %w", err)
	}

	// Case keys are ordered by identity, so sort by fetch time here
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].FetchedAt.After(records[j].FetchedAt)
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// --- Raw responses ---

// SaveRawResponse appends an audit entry.
func (r *BadgerRepository) SaveRawResponse(ctx context.Context, raw domain.RawResponse) error {
	if raw.ReceivedAt.IsZero() {
		raw.ReceivedAt = time.Now()
	}
	if err := r.put(rawKey(raw), raw); err != nil {
		r.log.WithError(err).WithField("case", raw.Query.Key()).Error("Failed to save raw response to BadgerDB")
		return fmt.Errorf("failed to save raw response: %w", err)
	}
	return nil
}

// ListRawResponses retrieves the audit entries for a query, newest first.
func (r *BadgerRepository) ListRawResponses(ctx context.Context, q domain.SearchQuery) ([]domain.RawResponse, error) {
	var raws []domain.RawResponse
	err := scanPrefix(r.db, rawPrefix(q), true, 0, func(val []byte) error {
		var raw domain.RawResponse
		if err := json.Unmarshal(val, &raw); err != nil {
			return err
		}
		raws = append(raws, raw)
		return nil
	})
	if err != nil {
		r.log.WithError(err).WithField("case", q.Key()).Error("Failed to list raw responses from BadgerDB")
		return nil, fmt.Errorf("failed to list raw responses for %s: %w", q.Key(), err)
	}
	return raws, nil
}

// --- Search log ---

// LogSearch appends a search log entry.
func (r *BadgerRepository) LogSearch(ctx context.Context, entry domain.SearchLog) error {
	if entry.SearchedAt.IsZero() {
		entry.SearchedAt = time.Now()
	}
	if err := r.put(searchKey(entry), entry); err != nil {
		r.log.WithError(err).Error("Failed to save search log to BadgerDB")
		return fmt.Errorf("failed to log search: %w", err)
	}
	return nil
}

// RecentSearches retrieves the newest search log entries.
func (r *BadgerRepository) RecentSearches(ctx context.Context, limit int) ([]domain.SearchLog, error) {
	var entries []domain.SearchLog
	err := scanPrefix(r.db, searchPrefix, true, limit, func(val []byte) error {
		var entry domain.SearchLog
		if err := json.Unmarshal(val, &entry); err != nil {
			return err
		}
		entries = append(entries, entry)
		return nil
	})
	if err != nil {
		r.log.WithError(err).Error("Failed to list searches from BadgerDB")
		return nil, fmt.Errorf("failed to list searches: %w", err)
	}
	return entries, nil
}

// scanPrefix calls fn with every value under prefix. reverse walks from the
// highest key down; limit > 0 stops after that many values.
func scanPrefix(db *badger.DB, prefix []byte, reverse bool, limit int, fn func(val []byte) error) error {
	return db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = reverse
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		seek := prefix
		if reverse {
			// Seek lands on the last key <= seek, so start past every key with this prefix
			seek = append(append([]byte{}, prefix...), 0xFF)
		}

		n := 0
		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			err := item.Value(func(val []byte) error {
				if err := fn(val); err != nil {
					return fmt.Errorf("failed to decode value for key %s: %w", string(item.Key()), err)
				}
				return nil
			})
			if err != nil {
				return err
			}
			n++
			if limit > 0 && n >= limit {
				break
			}
		}
		return nil
	})
}

// --- BadgerDB Internal Logger ---

// badgerLogger adapts logrus.FieldLogger to Badger's logger interface.
type badgerLogger struct {
	logger logrus.FieldLogger
}

func (l *badgerLogger) Errorf(f string, v ...interface{}) {
	l.logger.Errorf(f, v...)
}
func (l *badgerLogger) Warningf(f string, v ...interface{}) {
	l.logger.Warningf(f, v...)
}
func (l *badgerLogger) Infof(f string, v ...interface{}) {
	l.logger.Infof(f, v...)
}
func (l *badgerLogger) Debugf(f string, v ...interface{}) {
	l.logger.Debugf(f, v...)
}
