// Package repo defines the three capability contracts spec §9 calls for
// (TaskDefinitionRepository, JobRepository, ScheduleRepository) and their
// SQLite-backed implementations, grounded on
// jholhewres-goclaw/pkg/goclaw/scheduler/sqlite_storage.go's
// manual-scan-over-database/sql shape.
//
// Repositories are coded against *sql.DB directly rather than any
// sqlite3-specific type, so a different database/sql driver could replace
// mattn/go-sqlite3 without touching this package (see DESIGN.md).
package repo

import (
	"context"
	"time"

	"github.com/myyrakle/batchman/internal/model"
)

// TaskDefinitionFilter narrows GET /task-definitions per spec §6.
type TaskDefinitionFilter struct {
	TaskDefinitionID *int64
	Name             *string
	ContainsName     *string
	IsLatestOnly     bool
	PageNumber       int
	PageSize         int
}

// JobFilter narrows GET /jobs per spec §6.
type JobFilter struct {
	JobID        *int64
	Status       *model.JobStatus
	ContainsName *string
	PageNumber   int
	PageSize     int
}

// ScheduleFilter narrows GET /schedules per spec §6.
type ScheduleFilter struct {
	ScheduleID   *int64
	Name         *string
	ContainsName *string
	Enabled      *bool
}

// TaskDefinitionRepository is the capability contract for task-definition
// persistence (spec §9).
type TaskDefinitionRepository interface {
	// Create inserts a new version of task.Name: version = 1 + the current
	// max version for that name (0 if none exists), flips any existing
	// is_latest=true row for the same name to false, and inserts the new
	// row with is_latest=true — all within one transaction (spec §3
	// invariant, testable property #3).
	Create(ctx context.Context, task *model.TaskDefinition) (int64, error)
	Get(ctx context.Context, id int64) (*model.TaskDefinition, error)
	// GetLatest returns the is_latest=true row for name, if any.
	GetLatest(ctx context.Context, name string) (*model.TaskDefinition, error)
	Update(ctx context.Context, id int64, patch TaskDefinitionPatch) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter TaskDefinitionFilter) ([]*model.TaskDefinition, int64, error)
}

// TaskDefinitionPatch carries the optional PATCH fields from spec §6; a nil
// field leaves the column unchanged.
type TaskDefinitionPatch struct {
	Description *string
	Image       *string
	Command     *[]string
	Args        *string
	Env         *string
	MemoryLimitMB **int
	CPUShares     **int
	Enabled       *bool
}

// JobRepository is the capability contract for job persistence (spec §9).
// Update enforces model.CanTransition so a job never regresses out of a
// terminal state (spec §8 property #1), rejecting the write with
// apierr.ErrJobAlreadyFinished/ErrJobAlreadyFailed as appropriate.
type JobRepository interface {
	Create(ctx context.Context, job *model.Job) (int64, error)
	Get(ctx context.Context, id int64) (*model.Job, error)
	Update(ctx context.Context, id int64, patch JobPatch) error
	ListByStatus(ctx context.Context, status model.JobStatus, limit int) ([]*model.Job, error)
	List(ctx context.Context, filter JobFilter) ([]*model.Job, int64, error)
}

// JobPatch carries the optional job mutation fields used by JobService and
// the background loops; a nil field leaves the column unchanged. Status, if
// set, is checked against model.CanTransition(current, *Status).
type JobPatch struct {
	Status       *model.JobStatus
	StartedAt    **time.Time
	FinishedAt   **time.Time
	ContainerID  **string
	ExitCode     **int
	ErrorMessage **string
	LogExpired   *bool
}

// ScheduleRepository is the capability contract for schedule persistence
// (spec §9).
type ScheduleRepository interface {
	Create(ctx context.Context, sched *model.Schedule) (int64, error)
	Get(ctx context.Context, id int64) (*model.Schedule, error)
	Update(ctx context.Context, id int64, patch SchedulePatch) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter ScheduleFilter) ([]*model.Schedule, error)
	// ListAll is used by SchedulerLoop to rebuild its working set; it
	// ignores pagination/filtering entirely.
	ListAll(ctx context.Context) ([]*model.Schedule, error)
}

// SchedulePatch carries the optional PATCH fields from spec §6; a nil field
// leaves the column unchanged.
type SchedulePatch struct {
	Name                  *string
	JobName               *string
	CronExpression        *string
	TaskDefinitionID      *int64
	Command               *string
	Timezone              *string
	TimezoneOffsetMinutes *int
	Enabled               *bool
	LastTriggeredAt       **time.Time
}
