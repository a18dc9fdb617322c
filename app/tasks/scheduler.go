package tasks

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/lysyi3m/feedsink/app/database"
	"github.com/lysyi3m/feedsink/app/logsink"
)

var ErrAlreadyScheduled = errors.New("ingestion is already scheduled")

type HealthStatus string

const (
	HealthHealthy   HealthStatus = "healthy"
	HealthDegraded  HealthStatus = "degraded"
	HealthUnhealthy HealthStatus = "unhealthy"
)

type Health struct {
	Status     HealthStatus `json:"status"`
	Scheduled  bool         `json:"scheduled"`
	Running    bool         `json:"running"`
	Runs       int          `json:"runs"`
	FailedRuns int          `json:"failed_runs"`
	Inserted   int          `json:"inserted"`
	LastRun    *RunStats    `json:"last_run,omitempty"`
}

type Scheduler struct {
	deps *ingestDeps

	// runMu allows a single ingestion run at a time
	runMu sync.Mutex

	mu         sync.RWMutex
	running    bool
	lastRun    *RunStats
	runs       int
	failedRuns int
	inserted   int
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}

func NewScheduler(sources SourceProvider, fetcher FeedFetcher, normalizer EntryNormalizer,
	itemRepo database.ItemRepository, sourceRepo database.SourceRepository,
	sink *logsink.Sink, settings Settings) *Scheduler {
	return &Scheduler{
		deps: &ingestDeps{
			sources:    sources,
			fetcher:    fetcher,
			normalizer: normalizer,
			itemRepo:   itemRepo,
			sourceRepo: sourceRepo,
			sink:       sink,
			settings:   settings,
			now:        time.Now,
		},
	}
}

// RunIngestion executes one ingestion run, waiting for any run already in progress
func (s *Scheduler) RunIngestion(ctx context.Context, trigger Trigger) (RunStats, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	s.setRunning(true)
	defer s.setRunning(false)

	task := newIngestTask(trigger, s.deps)
	err := task.Execute(ctx)
	stats := task.Stats()

	// Interrupted runs say nothing about source or store health
	if isCancellation(err) {
		return stats, err
	}

	s.mu.Lock()
	s.lastRun = &stats
	s.runs++
	s.inserted += stats.Inserted
	if err != nil {
		s.failedRuns++
	}
	s.mu.Unlock()

	return stats, err
}

// ScheduleRecurring starts a run immediately and then every interval until CancelSchedule is called
func (s *Scheduler) ScheduleRecurring(interval time.Duration) error {
	if interval <= 0 {
		return errors.New("interval must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return ErrAlreadyScheduled
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		s.runScheduled(ctx)

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.runScheduled(ctx)
			}
		}
	}()

	slog.Debug("Ingestion scheduled", "interval", interval)
	return nil
}

// CancelSchedule stops the recurring timer and waits for an in-flight scheduled run to return
func (s *Scheduler) CancelSchedule() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	s.wg.Wait()
	slog.Debug("Ingestion schedule cancelled")
}

func (s *Scheduler) IsScheduled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cancel != nil
}

func (s *Scheduler) LastRun() (RunStats, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.lastRun == nil {
		return RunStats{}, false
	}
	return *s.lastRun, true
}

// Health grades the most recent run: aborted or all sources failing is unhealthy,
// any failing source is degraded.
func (s *Scheduler) Health() Health {
	s.mu.RLock()
	defer s.mu.RUnlock()

	health := Health{
		Status:     HealthHealthy,
		Scheduled:  s.cancel != nil,
		Running:    s.running,
		Runs:       s.runs,
		FailedRuns: s.failedRuns,
		Inserted:   s.inserted,
	}

	if s.lastRun == nil {
		return health
	}

	last := *s.lastRun
	health.LastRun = &last

	switch {
	case last.Aborted || last.Error != "":
		health.Status = HealthUnhealthy
	case last.SourcesEligible > 0 && last.SourcesFailed == last.SourcesEligible:
		health.Status = HealthUnhealthy
	case last.SourcesFailed > 0 || last.PersistFailed > 0:
		health.Status = HealthDegraded
	}

	return health
}

func (s *Scheduler) runScheduled(ctx context.Context) {
	if _, err := s.RunIngestion(ctx, TriggerScheduled); err != nil && !isCancellation(err) {
		slog.Error("Scheduled ingestion failed", "error", err)
	}
}

func (s *Scheduler) setRunning(running bool) {
	s.mu.Lock()
	s.running = running
	s.mu.Unlock()
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
