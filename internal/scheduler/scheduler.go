// Package scheduler implements SchedulerLoop (spec §4.7): maintains an
// in-memory working set of (Schedule, parsed CronExpression) pairs, reloads
// it on CDC events, and submits jobs for schedules whose cron matches the
// current (optionally timezone-shifted) minute.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/myyrakle/batchman/internal/cdc"
	"github.com/myyrakle/batchman/internal/cronspec"
	"github.com/myyrakle/batchman/internal/model"
	"github.com/myyrakle/batchman/internal/repo"
	"github.com/myyrakle/batchman/internal/service"
)

// entry pairs a persisted Schedule with its parsed cron expression, the
// "working set" element of spec §3/§4.7.
type entry struct {
	schedule *model.Schedule
	expr     cronspec.Expression
}

// Loop is the SchedulerLoop worker (implements worker.Worker).
type Loop struct {
	schedules *service.ScheduleService
	jobs      *service.JobService
	repo      repo.ScheduleRepository
	bus       *cdc.Bus

	tickInterval  time.Duration
	emptyInterval time.Duration
	logger        *slog.Logger

	workingSet []entry

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// New constructs a SchedulerLoop. tickInterval is the default-1s per-minute
// evaluation cadence; emptyInterval is the default-5s sleep when the working
// set is empty (spec §4.7).
func New(schedules *service.ScheduleService, jobs *service.JobService, scheduleRepo repo.ScheduleRepository, bus *cdc.Bus, tickInterval, emptyInterval time.Duration, logger *slog.Logger) *Loop {
	return &Loop{
		schedules:     schedules,
		jobs:          jobs,
		repo:          scheduleRepo,
		bus:           bus,
		tickInterval:  tickInterval,
		emptyInterval: emptyInterval,
		logger:        logger.With(slog.String("component", "SchedulerLoop")),
		done:          make(chan struct{}),
	}
}

// Name implements worker.Worker.
func (l *Loop) Name() string { return "scheduler" }

// Start implements worker.Worker. The working set is loaded from the
// repository before the goroutine is spawned so the first tick already has
// a populated set (spec §4.7 "On startup, loads all schedules").
func (l *Loop) Start(ctx context.Context) error {
	l.reload(ctx)

	loopCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	go l.run(loopCtx)
	return nil
}

// Stop implements worker.Worker.
func (l *Loop) Stop(ctx context.Context) error {
	l.once.Do(func() {
		if l.cancel != nil {
			l.cancel()
		}
	})
	select {
	case <-l.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

func (l *Loop) run(ctx context.Context) {
	defer close(l.done)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		sleep := l.tick(ctx)

		select {
		case <-time.After(sleep):
		case <-ctx.Done():
			return
		}
	}
}

// tick runs one iteration of spec §4.7's protocol and returns how long to
// sleep before the next one.
func (l *Loop) tick(ctx context.Context) time.Duration {
	if l.bus.TryDrain() {
		l.reload(ctx)
	}

	if len(l.workingSet) == 0 {
		return l.emptyInterval
	}

	now := time.Now().UTC()
	for _, e := range l.workingSet {
		l.evaluate(ctx, e, now)
	}
	return l.tickInterval
}

// evaluate implements is_time_to_trigger + the submit/stamp step of spec
// §4.7 step 4-5.
func (l *Loop) evaluate(ctx context.Context, e entry, now time.Time) {
	sched := e.schedule
	if !sched.Enabled {
		return
	}

	localNow := cronspec.ShiftForOffset(now, sched.TimezoneOffsetMinutes)
	if !e.expr.Matches(localNow) {
		return
	}
	if sched.LastTriggeredAt != nil && cronspec.SameMinute(*sched.LastTriggeredAt, localNow) {
		return
	}

	if _, err := l.jobs.SubmitJob(ctx, sched.TaskDefinitionID, sched.JobName, nil); err != nil {
		l.logger.Error("submit job from schedule failed", slog.Int64("schedule_id", sched.ID), slog.Any("error", err))
		return
	}

	if err := l.schedules.MarkTriggered(ctx, sched.ID, localNow); err != nil {
		l.logger.Error("mark schedule triggered failed", slog.Int64("schedule_id", sched.ID), slog.Any("error", err))
		return
	}
	sched.LastTriggeredAt = &localNow
}

// reload rebuilds the working set from the repository, silently dropping
// rows whose cron expression fails to parse (spec §4.7 "On startup...
// parse-failed rows are silently dropped").
func (l *Loop) reload(ctx context.Context) {
	rows, err := l.repo.ListAll(ctx)
	if err != nil {
		l.logger.Error("reload working set failed", slog.Any("error", err))
		return
	}

	next := make([]entry, 0, len(rows))
	for _, row := range rows {
		expr, err := cronspec.Parse(row.CronExpression)
		if err != nil {
			l.logger.Warn("dropping schedule with unparseable cron expression",
				slog.Int64("schedule_id", row.ID), slog.String("cron_expression", row.CronExpression))
			continue
		}
		next = append(next, entry{schedule: row, expr: expr})
	}
	l.workingSet = next
}
