package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/feedsink/app/database"
	"github.com/lysyi3m/feedsink/app/feed"
	"github.com/lysyi3m/feedsink/app/logsink"
)

const ingestComponent = "ingest"

type Settings struct {
	FetchTimeout time.Duration
	InsecureTLS  bool
	FetchWindow  int
	Retention    time.Duration
}

type ingestDeps struct {
	sources    SourceProvider
	fetcher    FeedFetcher
	normalizer EntryNormalizer
	itemRepo   database.ItemRepository
	sourceRepo database.SourceRepository
	sink       *logsink.Sink
	settings   Settings
	now        func() time.Time
}

// IngestTask is one pass over every eligible source followed by the retention sweep
type IngestTask struct {
	Task
	deps  *ingestDeps
	stats RunStats
}

func newIngestTask(trigger Trigger, deps *ingestDeps) *IngestTask {
	task := NewTask(TaskTypeIngest, trigger)
	return &IngestTask{
		Task: task,
		deps: deps,
		stats: RunStats{
			ID:      task.ID,
			Trigger: trigger,
		},
	}
}

func (t *IngestTask) Stats() RunStats {
	return t.stats
}

func (t *IngestTask) Execute(ctx context.Context) error {
	t.Start()
	t.stats.StartedAt = t.StartedAt.UTC()
	defer func() { t.stats.Duration = t.GetDuration() }()

	t.deps.sink.Writef(ingestComponent, "run %s started (%s)", t.ID, t.Trigger)

	if err := t.ensureSchema(ctx); err != nil {
		t.stats.Aborted = errors.Is(err, database.ErrSchemaMissing)
		t.stats.Error = err.Error()
		t.deps.sink.Writef(ingestComponent, "run %s aborted: %v", t.ID, err)
		slog.Error("Ingestion aborted", "id", t.ID, "error", err)
		return err
	}

	sources := t.deps.sources.GetEnabledSources()
	eligible := make([]*feed.Source, 0, len(sources))
	for _, source := range sources {
		if source.FeedURL == "" {
			t.deps.sink.Writef(ingestComponent, "source %q skipped: no feed URL", source.Name)
			continue
		}
		eligible = append(eligible, source)
	}

	t.stats.SourcesTotal = len(sources)
	t.stats.SourcesEligible = len(eligible)
	t.deps.sink.Writef(ingestComponent, "sources: %d configured, %d with feed URL", len(sources), len(eligible))

	for _, source := range eligible {
		if err := ctx.Err(); err != nil {
			t.stats.Error = err.Error()
			t.deps.sink.Writef(ingestComponent, "run %s interrupted: %v", t.ID, err)
			return err
		}
		t.processSource(ctx, source)
	}

	if err := t.sweep(ctx); err != nil {
		t.stats.Error = err.Error()
		return err
	}

	t.deps.sink.Writef(ingestComponent, "run %s finished in %s", t.ID, t.GetDuration())

	slog.Info("Task completed",
		"type", string(t.Type),
		"id", t.ID,
		"trigger", string(t.Trigger),
		"duration", t.GetDuration(),
		"sources", t.stats.SourcesEligible,
		"failed", t.stats.SourcesFailed,
		"new", t.stats.Inserted,
		"duplicates", t.stats.Duplicates,
		"swept", t.stats.Swept)

	return nil
}

func (t *IngestTask) ensureSchema(ctx context.Context) error {
	exists, err := t.deps.itemRepo.HasSchema(ctx)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	t.deps.sink.Write(ingestComponent, "items table missing, attempting to create it")
	if err := t.deps.itemRepo.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("%w: %w", database.ErrSchemaMissing, err)
	}

	exists, err = t.deps.itemRepo.HasSchema(ctx)
	if err != nil {
		return err
	}
	if !exists {
		return database.ErrSchemaMissing
	}

	return nil
}

func (t *IngestTask) processSource(ctx context.Context, source *feed.Source) {
	fetchedAt := t.deps.now().UTC()

	doc, err := t.deps.fetcher.Fetch(ctx, source.FeedURL, feed.Options{
		Timeout:            t.deps.settings.FetchTimeout,
		InsecureSkipVerify: t.deps.settings.InsecureTLS,
	})
	if err != nil {
		t.stats.SourcesFailed++
		t.deps.sink.Writef(ingestComponent, "source %q fetch failed: %v", source.Name, err)
		slog.Warn("Failed to fetch feed", "source", source.Name, "kind", string(feed.KindOf(err)), "error", err)
		t.recordFetch(ctx, source, fetchedAt, 0, err)
		return
	}

	window := doc.Items(0, t.deps.settings.FetchWindow)
	entries := t.deps.normalizer.Entries(window)
	t.stats.Dropped += len(window) - len(entries)

	added := 0
	for _, entry := range entries {
		item := database.Item{
			Category:    source.Category,
			Title:       entry.Title,
			Link:        entry.Link,
			Description: entry.Description,
			PublishDate: entry.Published.Unix(),
			SourceName:  source.Name,
			SourceURL:   source.URL,
			LogoURL:     source.LogoURL,
		}

		_, err := t.deps.itemRepo.Insert(ctx, item)
		switch {
		case err == nil:
			added++
		case errors.Is(err, database.ErrAlreadyExists):
			t.stats.Duplicates++
			t.deps.sink.Writef(ingestComponent, "source %q: already stored %s", source.Name, item.Link)
		default:
			t.stats.PersistFailed++
			t.deps.sink.Writef(ingestComponent, "source %q: failed to store %s: %v", source.Name, item.Link, err)
			slog.Error("Failed to store item", "source", source.Name, "link", item.Link, "error", err)
		}
	}

	t.stats.Inserted += added
	t.stats.SourcesSucceeded++
	t.deps.sink.Writef(ingestComponent, "source %q: %d entries, %d new", source.Name, len(entries), added)
	t.recordFetch(ctx, source, fetchedAt, added, nil)
}

func (t *IngestTask) recordFetch(ctx context.Context, source *feed.Source, fetchedAt time.Time, added int, fetchErr error) {
	if t.deps.sourceRepo == nil {
		return
	}
	if err := t.deps.sourceRepo.RecordFetch(ctx, source.Name, source.FeedURL, fetchedAt, added, fetchErr); err != nil {
		slog.Warn("Failed to record source status", "source", source.Name, "error", err)
	}
}

func (t *IngestTask) sweep(ctx context.Context) error {
	cutoff := t.deps.now().Add(-t.deps.settings.Retention).Unix()

	deleted, err := t.deps.itemRepo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		t.deps.sink.Writef(ingestComponent, "retention sweep failed: %v", err)
		slog.Error("Retention sweep failed", "error", err)
		return fmt.Errorf("retention sweep failed: %w", err)
	}

	t.stats.Swept = deleted
	t.deps.sink.Writef(ingestComponent, "retention sweep removed %d items", deleted)
	return nil
}
