package tasks

import (
	"time"

	"github.com/google/uuid"
)

type TaskType string

const (
	TaskTypeIngest TaskType = "ingest"
)

// Trigger identifies what started an ingestion run
type Trigger string

const (
	TriggerScheduled Trigger = "scheduled"
	TriggerManual    Trigger = "manual"
)

type Task struct {
	ID        string
	Type      TaskType
	Trigger   Trigger
	StartedAt *time.Time
}

func (t *Task) GetID() string {
	return t.ID
}

func (t *Task) GetType() TaskType {
	return t.Type
}

func (t *Task) Start() {
	now := time.Now()
	t.StartedAt = &now
}

func (t *Task) GetDuration() time.Duration {
	if t.StartedAt == nil {
		return 0
	}
	return time.Since(*t.StartedAt)
}

func NewTask(taskType TaskType, trigger Trigger) Task {
	return Task{
		ID:      uuid.NewString(),
		Type:    taskType,
		Trigger: trigger,
	}
}

// RunStats summarizes a single ingestion run
type RunStats struct {
	ID               string        `json:"id"`
	Trigger          Trigger       `json:"trigger"`
	StartedAt        time.Time     `json:"started_at"`
	Duration         time.Duration `json:"duration"`
	SourcesTotal     int           `json:"sources_total"`
	SourcesEligible  int           `json:"sources_eligible"`
	SourcesSucceeded int           `json:"sources_succeeded"`
	SourcesFailed    int           `json:"sources_failed"`
	Inserted         int           `json:"inserted"`
	Duplicates       int           `json:"duplicates"`
	Dropped          int           `json:"dropped"`
	PersistFailed    int           `json:"persist_failed"`
	Swept            int64         `json:"swept"`
	Aborted          bool          `json:"aborted"`
	Error            string        `json:"error,omitempty"`
}
