// Package runner implements RunnerLoop (spec §4.5): drains Pending jobs and
// hands each to JobService.RunPendingJob, marking failures Failed rather
// than aborting the loop.
package runner

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/myyrakle/batchman/internal/model"
	"github.com/myyrakle/batchman/internal/service"
)

// Loop is the RunnerLoop worker (implements worker.Worker).
type Loop struct {
	jobs *service.JobService

	batchSize    int
	idleInterval time.Duration
	logger       *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// New constructs a RunnerLoop. batchSize is the default-5 N of spec §4.5;
// idleInterval is the default-10s backoff on empty result or query error.
func New(jobs *service.JobService, batchSize int, idleInterval time.Duration, logger *slog.Logger) *Loop {
	return &Loop{
		jobs:         jobs,
		batchSize:    batchSize,
		idleInterval: idleInterval,
		logger:       logger.With(slog.String("component", "RunnerLoop")),
		done:         make(chan struct{}),
	}
}

// Name implements worker.Worker.
func (l *Loop) Name() string { return "runner" }

// Start implements worker.Worker: non-blocking, spawns the loop goroutine.
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

		if l.tick(ctx) {
			select {
			case <-time.After(l.idleInterval):
			case <-ctx.Done():
				return
			}
		}
	}
}

// tick runs one iteration of spec §4.5's protocol. It returns true if the
// caller should back off (empty result or a repository error fetching the
// batch).
func (l *Loop) tick(ctx context.Context) bool {
	jobs, err := l.jobs.ListPendingJobs(ctx, l.batchSize)
	if err != nil {
		l.logger.Error("list pending jobs failed", slog.Any("error", err))
		return true
	}
	if len(jobs) == 0 {
		return true
	}

	for _, job := range jobs {
		l.runOne(ctx, job)
	}
	return false
}

func (l *Loop) runOne(ctx context.Context, job *model.Job) {
	if err := l.jobs.RunPendingJob(ctx, job); err != nil {
		l.logger.Error("run pending job failed", slog.Int64("job_id", job.ID), slog.Any("error", err))
		if markErr := l.jobs.MarkFailed(ctx, job.ID, err.Error()); markErr != nil {
			l.logger.Error("mark job failed after run error", slog.Int64("job_id", job.ID), slog.Any("error", markErr))
		}
	}
}
