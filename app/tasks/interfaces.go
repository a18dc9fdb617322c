package tasks

import (
	"context"

	"github.com/lysyi3m/feedsink/app/feed"
)

// SourceProvider supplies the configured feed sources ordered by name
type SourceProvider interface {
	GetEnabledSources() []*feed.Source
}

type FeedFetcher interface {
	Fetch(ctx context.Context, url string, opts feed.Options) (*feed.Document, error)
}

type EntryNormalizer interface {
	Entries(entries []feed.Entry) []feed.Entry
}

// IngestionRunner is the trigger surface used by the HTTP API.
// Example usage:
//
//	scheduler := NewScheduler(sources, fetcher, normalizer, itemRepo, sourceRepo, sink, settings)
//	scheduler.ScheduleRecurring(30 * time.Minute)
//	defer scheduler.CancelSchedule()
//	stats, err := scheduler.RunIngestion(ctx, TriggerManual)
type IngestionRunner interface {
	RunIngestion(ctx context.Context, trigger Trigger) (RunStats, error)
	LastRun() (RunStats, bool)
	Health() Health
}

var (
	_ IngestionRunner = (*Scheduler)(nil)
	_ SourceProvider  = (*feed.SourceCache)(nil)
	_ FeedFetcher     = (*feed.Fetcher)(nil)
	_ EntryNormalizer = (*feed.Normalizer)(nil)
)
