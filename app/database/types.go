package database

import (
	"time"
)

// Item represents a stored feed item
type Item struct {
	ID          uint64
	Category    string
	Title       string
	Link        string
	Description string
	PublishDate int64 // seconds since epoch
	SourceName  string
	SourceURL   string
	LogoURL     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PublishedAt returns the publish date as a time.Time in the local zone
func (i Item) PublishedAt() time.Time {
	return time.Unix(i.PublishDate, 0).In(time.Local)
}

// SourceStatus is the last known fetch outcome of a feed source
type SourceStatus struct {
	Name          string
	FeedURL       string
	LastFetchedAt *time.Time
	LastSuccessAt *time.Time
	LastError     string
	ItemsAdded    int64
	UpdatedAt     time.Time
}

// ItemFilter narrows item reads; empty fields match everything
type ItemFilter struct {
	Category string
}
