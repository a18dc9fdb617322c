package database

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrAlreadyExists is returned by Insert when an item with the same
	// (link, source_name) pair is already stored. Callers treat it as a skip.
	ErrAlreadyExists = errors.New("item already exists")
	ErrInvalidItem   = errors.New("invalid item")
	ErrInvalidQuery  = errors.New("invalid query parameters")
	ErrSchemaMissing = errors.New("items table is missing")
)

const UntitledPlaceholder = "(untitled)"

const (
	MaxCategoryLength = 100
	MaxURLLength      = 500

	// MaxQueryLimit bounds a single Query page
	MaxQueryLimit = 1000
)

type ItemRepository interface {
	EnsureSchema(ctx context.Context) error
	HasSchema(ctx context.Context) (bool, error)

	Insert(ctx context.Context, item Item) (uint64, error)
	DeleteOlderThan(ctx context.Context, cutoff int64) (int64, error)

	Query(ctx context.Context, filter ItemFilter, limit, offset int) ([]Item, error)
	Count(ctx context.Context, filter ItemFilter) (int, error)
}

type SourceRepository interface {
	RecordFetch(ctx context.Context, name, feedURL string, fetchedAt time.Time, added int, fetchErr error) error
	GetStatus(ctx context.Context, name string) (*SourceStatus, error)
	ListStatuses(ctx context.Context) ([]SourceStatus, error)
}

var (
	_ ItemRepository   = (*SQLItemRepository)(nil)
	_ SourceRepository = (*SQLSourceRepository)(nil)
)
