// Package tracker implements TrackerLoop (spec §4.6): polls Running jobs and
// reconciles them against the container runtime's reported state.
package tracker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/myyrakle/batchman/internal/model"
	"github.com/myyrakle/batchman/internal/service"
)

// Loop is the TrackerLoop worker (implements worker.Worker).
type Loop struct {
	jobs *service.JobService

	activeInterval time.Duration
	idleInterval   time.Duration
	logger         *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// New constructs a TrackerLoop. activeInterval is the default-2s sleep
// between successful iterations; idleInterval is the default-10s backoff on
// an empty result or a repository error (spec §4.6).
func New(jobs *service.JobService, activeInterval, idleInterval time.Duration, logger *slog.Logger) *Loop {
	return &Loop{
		jobs:           jobs,
		activeInterval: activeInterval,
		idleInterval:   idleInterval,
		logger:         logger.With(slog.String("component", "TrackerLoop")),
		done:           make(chan struct{}),
	}
}

// Name implements worker.Worker.
func (l *Loop) Name() string { return "tracker" }

// Start implements worker.Worker.
func (l *Loop) Start(ctx context.Context) error {
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

		sleep := l.idleInterval
		if l.tick(ctx) {
			sleep = l.activeInterval
		}

		select {
		case <-time.After(sleep):
		case <-ctx.Done():
			return
		}
	}
}

// tick runs one iteration of spec §4.6's protocol, returning true if
// everything went smoothly (non-empty result, no errors) so the caller
// sleeps the shorter activeInterval.
func (l *Loop) tick(ctx context.Context) bool {
	jobs, err := l.jobs.ListRunningJobs(ctx)
	if err != nil {
		l.logger.Error("list running jobs failed", slog.Any("error", err))
		return false
	}
	if len(jobs) == 0 {
		return false
	}

	ok := true
	for _, job := range jobs {
		if !l.trackOne(ctx, job) {
			ok = false
		}
	}
	return ok
}

func (l *Loop) trackOne(ctx context.Context, job *model.Job) bool {
	if err := l.jobs.TrackRunningJob(ctx, job); err != nil {
		l.logger.Error("track running job failed", slog.Int64("job_id", job.ID), slog.Any("error", err))
		if markErr := l.jobs.MarkFailed(ctx, job.ID, err.Error()); markErr != nil {
			l.logger.Error("mark job failed after track error", slog.Int64("job_id", job.ID), slog.Any("error", markErr))
		}
		return false
	}
	return true
}
