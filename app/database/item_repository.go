package database

import (
	"cmp"
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lysyi3m/feedsink/app/logsink"
)

const storeComponent = "store"

// SQLItemRepository handles database operations for feed items
type SQLItemRepository struct {
	db   *DB
	sink *logsink.Sink
}

// NewItemRepository creates a new item repository
func NewItemRepository(db *DB, sink *logsink.Sink) *SQLItemRepository {
	return &SQLItemRepository{db: db, sink: sink}
}

// HasSchema reports whether the items table exists
func (r *SQLItemRepository) HasSchema(ctx context.Context) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM sqlite_master
		WHERE type = 'table' AND name = 'feed_items'
	`).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check items schema: %w", err)
	}
	return count > 0, nil
}

// EnsureSchema creates the items table and its indexes when absent.
// Safe to call repeatedly.
func (r *SQLItemRepository) EnsureSchema(ctx context.Context) error {
	exists, err := r.HasSchema(ctx)
	if err != nil {
		r.sink.Writef(storeComponent, "schema check failed: %v", err)
		return err
	}
	if exists {
		r.sink.Write(storeComponent, "items table present")
		return nil
	}

	ddl, err := itemsSchemaDDL()
	if err != nil {
		return err
	}

	if _, err := r.db.ExecContext(ctx, ddl); err != nil {
		r.sink.Writef(storeComponent, "failed to create items table: %v", err)
		return fmt.Errorf("failed to create items table: %w", err)
	}

	r.sink.Write(storeComponent, "items table created")
	return nil
}

// Insert stores a new item and returns its identifier.
// ErrAlreadyExists is returned when (link, source_name) is already stored.
func (r *SQLItemRepository) Insert(ctx context.Context, item Item) (uint64, error) {
	item.Title = cmp.Or(strings.TrimSpace(item.Title), UntitledPlaceholder)
	item.Link = strings.TrimSpace(item.Link)

	if err := validateItem(item); err != nil {
		return 0, err
	}

	now := time.Now().UTC().Unix()

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO feed_items (
			category, title, link, description, publish_date,
			source_name, source_url, logo_url, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (link, source_name) DO NOTHING
	`, item.Category, item.Title, item.Link, item.Description, item.PublishDate,
		item.SourceName, item.SourceURL, item.LogoURL, now, now)
	if err != nil {
		return 0, fmt.Errorf("failed to insert item: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read insert result: %w", err)
	}
	if affected == 0 {
		return 0, ErrAlreadyExists
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read inserted item id: %w", err)
	}

	return uint64(id), nil
}

// DeleteOlderThan removes items published strictly before cutoff (seconds since epoch)
func (r *SQLItemRepository) DeleteOlderThan(ctx context.Context, cutoff int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM feed_items WHERE publish_date < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired items: %w", err)
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read delete result: %w", err)
	}

	return deleted, nil
}

// Query returns items newest first
func (r *SQLItemRepository) Query(ctx context.Context, filter ItemFilter, limit, offset int) ([]Item, error) {
	if limit <= 0 || limit > MaxQueryLimit || offset < 0 {
		return nil, fmt.Errorf("%w: limit=%d offset=%d", ErrInvalidQuery, limit, offset)
	}

	where, args := filterClause(filter)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, category, title, link, description, publish_date,
		       source_name, source_url, logo_url, created_at, updated_at
		FROM feed_items`+where+`
		ORDER BY publish_date DESC, id DESC
		LIMIT ? OFFSET ?
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	items := make([]Item, 0, min(limit, 64))
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating item rows: %w", err)
	}

	return items, nil
}

// Count returns the number of items matching filter
func (r *SQLItemRepository) Count(ctx context.Context, filter ItemFilter) (int, error) {
	where, args := filterClause(filter)

	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM feed_items"+where, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count items: %w", err)
	}
	return count, nil
}

func filterClause(filter ItemFilter) (string, []any) {
	if filter.Category == "" {
		return "", nil
	}
	return " WHERE category = ?", []any{filter.Category}
}

func scanItem(rows *sql.Rows) (Item, error) {
	var item Item
	var id int64
	var createdAt, updatedAt int64

	err := rows.Scan(
		&id, &item.Category, &item.Title, &item.Link, &item.Description, &item.PublishDate,
		&item.SourceName, &item.SourceURL, &item.LogoURL, &createdAt, &updatedAt,
	)
	if err != nil {
		return Item{}, fmt.Errorf("failed to scan item row: %w", err)
	}

	item.ID = uint64(id)
	item.CreatedAt = time.Unix(createdAt, 0).UTC()
	item.UpdatedAt = time.Unix(updatedAt, 0).UTC()

	return item, nil
}

func validateItem(item Item) error {
	if item.Link == "" {
		return fmt.Errorf("%w: link is required", ErrInvalidItem)
	}
	if strings.TrimSpace(item.SourceName) == "" {
		return fmt.Errorf("%w: source name is required", ErrInvalidItem)
	}

	maxLengths := []struct {
		field string
		value string
		max   int
	}{
		{"category", item.Category, MaxCategoryLength},
		{"link", item.Link, MaxURLLength},
		{"source URL", item.SourceURL, MaxURLLength},
		{"logo URL", item.LogoURL, MaxURLLength},
	}

	for _, f := range maxLengths {
		if len([]rune(f.value)) > f.max {
			return fmt.Errorf("%w: %s exceeds %d characters", ErrInvalidItem, f.field, f.max)
		}
	}

	return nil
}
