package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"courtfetch/internal/domain"
)

//go:embed schema.sql
var schema string

// SQLiteRepository implements the Repository interface on a single SQLite file.
type SQLiteRepository struct {
	db  *sql.DB
	log logrus.FieldLogger
}

// NewSQLiteRepository opens (and creates, if needed) the database at dbPath and applies the schema.
// ":memory:" gives a throwaway database.
func NewSQLiteRepository(dbPath string, logger logrus.FieldLogger) (*SQLiteRepository, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory for %s: %w", dbPath, err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db at %s: %w", dbPath, err)
	}
	// One connection serializes writers and keeps ":memory:" a single database
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		logger.WithError(err).Error("Failed to apply SQLite schema")
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	logger.Info("SQLite database opened successfully at path: ", dbPath)

	return &SQLiteRepository{
		db:  db,
		log: logger.WithField("component", "repository"),
	}, nil
}

// Close closes the database.
func (r *SQLiteRepository) Close() error {
	r.log.Info("Closing SQLite database...")
	if err := r.db.Close(); err != nil {
		r.log.WithError(err).Error("Error closing SQLite database")
		return err
	}
	return nil
}

func (r *SQLiteRepository) SaveCase(ctx context.Context, record domain.CaseRecord) error {
	if record.FetchedAt.IsZero() {
		record.FetchedAt = time.Now()
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal case: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO cases (
			case_type, case_number, filing_year, case_title, petitioner, respondent,
			filing_date, hearing_date, status, judge, court_name, case_data, fetched_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (case_type, case_number, filing_year) DO UPDATE SET
			case_title = excluded.case_title,
			petitioner = excluded.petitioner,
			respondent = excluded.respondent,
			filing_date = excluded.filing_date,
			hearing_date = excluded.hearing_date,
			status = excluded.status,
			judge = excluded.judge,
			court_name = excluded.court_name,
			case_data = excluded.case_data,
			fetched_at = excluded.fetched_at,
			updated_at = CURRENT_TIMESTAMP`,
		record.CaseType, record.CaseNumber, record.FilingYear, record.CaseTitle,
		record.Petitioner, record.Respondent, record.FilingDate, record.HearingDate,
		record.Status, record.Judge, record.CourtName, string(data), record.FetchedAt.UnixNano(),
	)
	if err != nil {
		r.log.WithError(err).WithField("case", record.Query().Key()).Error("Failed to save case to SQLite")
		return fmt.Errorf("failed to save case: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetCase(ctx context.Context, q domain.SearchQuery) (*domain.CaseRecord, error) {
	var data string
	err := r.db.QueryRowContext(ctx,
		`SELECT case_data FROM cases WHERE case_type = ? AND case_number = ? AND filing_year = ?`,
		q.CaseType, q.CaseNumber, q.FilingYear,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get case %s: %w", q.Key(), err)
	}

	var record domain.CaseRecord
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		return nil, fmt.Errorf("failed to decode case %s: %w", q.Key(), err)
	}
	return &record, nil
}

func (r *SQLiteRepository) ListCases(ctx context.Context, limit int) ([]domain.CaseRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT case_data FROM cases ORDER BY fetched_at DESC, id DESC LIMIT ?`, sqlLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list cases: %w", err)
	}
	defer rows.Close()

	var records []domain.CaseRecord
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan case: %w", err)
		}
		var record domain.CaseRecord
		if err := json.Unmarshal([]byte(data), &record); err != nil {
			return nil, fmt.Errorf("failed to decode case: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (r *SQLiteRepository) SaveRawResponse(ctx context.Context, raw domain.RawResponse) error {
	if raw.ReceivedAt.IsZero() {
		raw.ReceivedAt = time.Now()
	}
	parsed, err := json.Marshal(raw.Parsed)
	if err != nil {
		return fmt.Errorf("failed to marshal parsed record: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO raw_responses (id, case_type, case_number, filing_year, html_content, parsed_data, response_timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		raw.ID, raw.Query.CaseType, raw.Query.CaseNumber, raw.Query.FilingYear,
		raw.Markup, string(parsed), raw.ReceivedAt.UnixNano(),
	)
	if err != nil {
		r.log.WithError(err).WithField("case", raw.Query.Key()).Error("Failed to save raw response to SQLite")
		return fmt.Errorf("failed to save raw response: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListRawResponses(ctx context.Context, q domain.SearchQuery) ([]domain.RawResponse, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, html_content, parsed_data, response_timestamp FROM raw_responses
		WHERE case_type = ? AND case_number = ? AND filing_year = ?
		ORDER BY response_timestamp DESC`,
		q.CaseType, q.CaseNumber, q.FilingYear,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list raw responses for %s: %w", q.Key(), err)
	}
	defer rows.Close()

	var raws []domain.RawResponse
	for rows.Next() {
		var (
			raw    = domain.RawResponse{Query: q}
			parsed string
			ts     int64
		)
		if err := rows.Scan(&raw.ID, &raw.Markup, &parsed, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan raw response: %w", err)
		}
		if err := json.Unmarshal([]byte(parsed), &raw.Parsed); err != nil {
			return nil, fmt.Errorf("failed to decode parsed record: %w", err)
		}
		raw.ReceivedAt = time.Unix(0, ts).UTC()
		raws = append(raws, raw)
	}
	return raws, rows.Err()
}

func (r *SQLiteRepository) LogSearch(ctx context.Context, entry domain.SearchLog) error {
	if entry.SearchedAt.IsZero() {
		entry.SearchedAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO search_logs (
			id, case_type, case_number, filing_year, channel, success, mock,
			message, ip_address, user_agent, search_timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Query.CaseType, entry.Query.CaseNumber, entry.Query.FilingYear,
		string(entry.Channel), entry.Success, entry.Mock, entry.Message,
		entry.ClientIP, entry.UserAgent, entry.SearchedAt.UnixNano(),
	)
	if err != nil {
		r.log.WithError(err).Error("Failed to save search log to SQLite")
		return fmt.Errorf("failed to log search: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) RecentSearches(ctx context.Context, limit int) ([]domain.SearchLog, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, case_type, case_number, filing_year, channel, success, mock,
			message, ip_address, user_agent, search_timestamp
		FROM search_logs ORDER BY search_timestamp DESC LIMIT ?`, sqlLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list searches: %w", err)
	}
	defer rows.Close()

	var entries []domain.SearchLog
	for rows.Next() {
		var (
			e       domain.SearchLog
			channel string
			ts      int64
		)
		err := rows.Scan(&e.ID, &e.Query.CaseType, &e.Query.CaseNumber, &e.Query.FilingYear,
			&channel, &e.Success, &e.Mock, &e.Message, &e.ClientIP, &e.UserAgent, &ts)
		if err != nil {
			return nil, fmt.Errorf("failed to scan search log: %w", err)
		}
		e.Channel = domain.Channel(channel)
		e.SearchedAt = time.Unix(0, ts).UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// sqlLimit maps "no limit" to SQLite's LIMIT -1.
func sqlLimit(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}
