// Package db stores alumni survey responses in PostgreSQL or SQLite and
// tallies them into aggregate snapshots.
package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Mikexdrop/Dorsu-Alumni-Tracer-sub000/internal/types"
)

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// Surveys returns the responses matching filter in insertion order.
func (db *DB) Surveys(ctx context.Context, filter types.Filter) ([]SurveyRow, error) {
	query, args := postgresDialect.selectSurveys(filter)
	rows, err := db.pool.Query(ctx, query, args...)
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
func (db *DB) CountSurveys(ctx context.Context) (int, error) {
	var n int
	if err := db.pool.QueryRow(ctx, countSurveys).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count surveys: %w", err)
	}
	return n, nil
}

// InsertSurvey stores a response and returns its ID.
func (db *DB) InsertSurvey(ctx context.Context, row SurveyRow) (int64, error) {
	var id int64
	err := db.pool.QueryRow(ctx, postgresDialect.insertSurvey(), insertArgs(row)...).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert survey: %w", err)
	}
	return id, nil
}

// Aggregates tallies the responses matching filter.
func (db *DB) Aggregates(ctx context.Context, filter types.Filter) (types.AggregatesPayload, error) {
	return aggregate(ctx, db, filter)
}

// Snapshot implements aggregates.SnapshotProvider.
func (db *DB) Snapshot(ctx context.Context, filter types.Filter) (types.AggregateSnapshot, error) {
	payload, err := db.Aggregates(ctx, filter)
	if err != nil {
		return types.AggregateSnapshot{}, err
	}
	return payload.Snapshot(filter), nil
}

// surveyStore is the read side shared by the PostgreSQL and SQLite stores.
type surveyStore interface {
	Surveys(ctx context.Context, filter types.Filter) ([]SurveyRow, error)
	CountSurveys(ctx context.Context) (int, error)
}

func aggregate(ctx context.Context, s surveyStore, filter types.Filter) (types.AggregatesPayload, error) {
	rows, err := s.Surveys(ctx, filter)
	if err != nil {
		return types.AggregatesPayload{}, err
	}
	total, err := s.CountSurveys(ctx)
	if err != nil {
		return types.AggregatesPayload{}, err
	}
	return Tally(rows, total), nil
}
