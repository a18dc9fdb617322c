package feed

import (
	"time"
)

// Feed processing types

// Entry is a single normalized feed entry
type Entry struct {
	Title       string
	Link        string
	Description string
	Published   time.Time
}

// Document is a parsed feed with its entries ordered newest first
type Document struct {
	Title   string
	Link    string
	entries []Entry
}

func NewDocument(title, link string, entries []Entry) *Document {
	return &Document{Title: title, Link: link, entries: entries}
}

// Len returns the number of entries in the document
func (d *Document) Len() int {
	if d == nil {
		return 0
	}
	return len(d.entries)
}

// Items returns a copy of at most limit entries starting at offset.
// Out of range windows yield an empty slice.
func (d *Document) Items(offset, limit int) []Entry {
	if d == nil || offset < 0 || limit <= 0 || offset >= len(d.entries) {
		return []Entry{}
	}

	end := offset + min(limit, len(d.entries)-offset)
	window := make([]Entry, end-offset)
	copy(window, d.entries[offset:end])
	return window
}

// Configuration types

type Source struct {
	ID       string // Derived from filename (without .yml extension)
	Name     string `yaml:"name"`
	URL      string `yaml:"url"`
	FeedURL  string `yaml:"feed_url"`
	Category string `yaml:"category"`
	LogoURL  string `yaml:"logo_url"`
	Enabled  *bool  `yaml:"enabled"`
}

// IsEnabled reports whether the source takes part in ingestion; sources are enabled unless disabled explicitly
func (s *Source) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}
