package db

import (
	"context"
	"database/sql"
	"fmt"

	// Registers the "sqlite" database/sql driver.
	_ "modernc.org/sqlite"

	"github.com/Mikexdrop/Dorsu-Alumni-Tracer-sub000/internal/types"
)

// MemoryDSN opens a private in-memory SQLite database.
const MemoryDSN = ":memory:"

// SQLite is a file-backed survey store for single-machine deployments and tests.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens the SQLite database at path. The schema is not created;
// run the SQLite migrator first.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if path == "" {
		path = MemoryDSN
	}
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// Each connection to :memory: is a separate database, and SQLite
	// serialises writers anyway.
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}
	return &SQLite{db: sqlDB}, nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Surveys returns the responses matching filter in insertion order.
func (s *SQLite) Surveys(ctx context.Context, filter types.Filter) ([]SurveyRow, error) {
	query, args := sqliteDialect.selectSurveys(filter)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query surveys: %w", err)
	}
	defer rows.Close()

	var out []SurveyRow
	for rows.Next() {
		r, err := scanSurvey(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan survey: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate surveys: %w", err)
	}
	return out, nil
}

// CountSurveys returns the unfiltered number of responses.
func (s *SQLite) CountSurveys(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, countSurveys).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count surveys: %w", err)
	}
	return n, nil
}

// InsertSurvey stores a response and returns its ID.
func (s *SQLite) InsertSurvey(ctx context.Context, row SurveyRow) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, sqliteDialect.insertSurvey(), insertArgs(row)...).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert survey: %w", err)
	}
	return id, nil
}

// Aggregates tallies the responses matching filter.
func (s *SQLite) Aggregates(ctx context.Context, filter types.Filter) (types.AggregatesPayload, error) {
	return aggregate(ctx, s, filter)
}

// Snapshot implements aggregates.SnapshotProvider.
func (s *SQLite) Snapshot(ctx context.Context, filter types.Filter) (types.AggregateSnapshot, error) {
	payload, err := s.Aggregates(ctx, filter)
	if err != nil {
		return types.AggregateSnapshot{}, err
	}
	return payload.Snapshot(filter), nil
}
