package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SQLSourceRepository tracks fetch outcomes per feed source
type SQLSourceRepository struct {
	db *DB
}

// NewSourceRepository creates a new source status repository
func NewSourceRepository(db *DB) *SQLSourceRepository {
	return &SQLSourceRepository{db: db}
}

// RecordFetch stores the outcome of one fetch attempt for a source.
// A nil fetchErr marks the attempt successful and clears the last error.
func (r *SQLSourceRepository) RecordFetch(ctx context.Context, name, feedURL string, fetchedAt time.Time, added int, fetchErr error) error {
	fetched := fetchedAt.UTC().Unix()
	now := time.Now().UTC().Unix()

	var err error
	if fetchErr == nil {
		_, err = r.db.ExecContext(ctx, `
			INSERT INTO feed_sources (name, feed_url, last_fetched_at, last_success_at, last_error, items_added, updated_at)
			VALUES (?, ?, ?, ?, '', ?, ?)
			ON CONFLICT (name) DO UPDATE SET
				feed_url = excluded.feed_url,
				last_fetched_at = excluded.last_fetched_at,
				last_success_at = excluded.last_success_at,
				last_error = '',
				items_added = feed_sources.items_added + excluded.items_added,
				updated_at = excluded.updated_at
		`, name, feedURL, fetched, fetched, added, now)
	} else {
		_, err = r.db.ExecContext(ctx, `
			INSERT INTO feed_sources (name, feed_url, last_fetched_at, last_error, items_added, updated_at)
			VALUES (?, ?, ?, ?, 0, ?)
			ON CONFLICT (name) DO UPDATE SET
				feed_url = excluded.feed_url,
				last_fetched_at = excluded.last_fetched_at,
				last_error = excluded.last_error,
				updated_at = excluded.updated_at
		`, name, feedURL, fetched, fetchErr.Error(), now)
	}

	if err != nil {
		return fmt.Errorf("failed to record fetch for source %s: %w", name, err)
	}

	return nil
}

// GetStatus retrieves the fetch status of a source, or nil if it was never fetched
func (r *SQLSourceRepository) GetStatus(ctx context.Context, name string) (*SourceStatus, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT name, feed_url, last_fetched_at, last_success_at, last_error, items_added, updated_at
		FROM feed_sources
		WHERE name = ?
	`, name)

	status, err := scanSourceStatus(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get source status: %w", err)
	}

	return &status, nil
}

// ListStatuses returns the fetch status of every source seen so far, ordered by name
func (r *SQLSourceRepository) ListStatuses(ctx context.Context) ([]SourceStatus, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT name, feed_url, last_fetched_at, last_success_at, last_error, items_added, updated_at
		FROM feed_sources
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list source statuses: %w", err)
	}
	defer rows.Close()

	var statuses []SourceStatus
	for rows.Next() {
		status, err := scanSourceStatus(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan source status row: %w", err)
		}
		statuses = append(statuses, status)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating source status rows: %w", err)
	}

	return statuses, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSourceStatus(row rowScanner) (SourceStatus, error) {
	var status SourceStatus
	var lastFetched, lastSuccess sql.NullInt64
	var updatedAt int64

	err := row.Scan(&status.Name, &status.FeedURL, &lastFetched, &lastSuccess,
		&status.LastError, &status.ItemsAdded, &updatedAt)
	if err != nil {
		return SourceStatus{}, err
	}

	status.LastFetchedAt = unixPtr(lastFetched)
	status.LastSuccessAt = unixPtr(lastSuccess)
	status.UpdatedAt = time.Unix(updatedAt, 0).UTC()

	return status, nil
}

func unixPtr(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.Unix(v.Int64, 0).UTC()
	return &t
}
