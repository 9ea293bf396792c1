package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
)

// ErrManagerAlreadyRunning indicates an attempt to register a worker after
// the manager has started.
var ErrManagerAlreadyRunning = errors.New("worker: cannot register worker after manager has started")

// ErrCriticalWorkerFailed indicates a critical worker's Start panicked or
// returned an error, and the manager is initiating shutdown of the rest.
var ErrCriticalWorkerFailed = errors.New("worker: critical worker failed, initiating shutdown")

type registration struct {
	w        Worker
	critical bool
}

// Manager starts and stops a fixed set of Workers together. When a critical
// worker's Start panics or returns an error, it cancels the rest and reports
// the failure through Failed(). A worker whose goroutine exits after a
// successful Start is not detected.
type Manager struct {
	logger *slog.Logger

	mu    sync.Mutex
	regs  []registration
	start bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
	failed chan error
	once   sync.Once
}

// NewManager creates a Manager logging through logger.
func NewManager(logger *slog.Logger) *Manager {
	return &Manager{
		logger: logger.With(slog.String("component", "worker.Manager")),
		failed: make(chan error, 1),
	}
}

// Register adds a worker to be started by Start. critical marks the worker
// as essential: if its Start call panics or returns an error, the manager
// cancels every other worker's context and reports the failure on Failed().
func (m *Manager) Register(w Worker, critical bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.start {
		return ErrManagerAlreadyRunning
	}
	m.regs = append(m.regs, registration{w: w, critical: critical})
	return nil
}

// Start launches every registered worker. Workers are started in
// registration order; Start itself returns once every worker's Start call
// has returned (each worker's own Start is non-blocking, per the Worker
// contract), or at the first Start that fails, leaving later workers
// unstarted.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.start {
		m.mu.Unlock()
		return nil
	}
	m.start = true
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	regs := append([]registration(nil), m.regs...)
	m.mu.Unlock()

	for _, reg := range regs {
		if err := m.startOne(runCtx, reg); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) startOne(ctx context.Context, reg registration) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("worker %q panicked during start: %v\n%s", reg.w.Name(), r, debug.Stack())
		}
		if err != nil {
			m.logger.Error("worker failed to start", slog.String("worker", reg.w.Name()), slog.Any("error", err))
			if reg.critical {
				m.reportFailure(fmt.Errorf("%w: %s: %v", ErrCriticalWorkerFailed, reg.w.Name(), err))
			}
		}
	}()

	m.logger.Info("starting worker", slog.String("worker", reg.w.Name()))
	return reg.w.Start(ctx)
}

// reportFailure cancels every worker's context and records err for Failed()
// to deliver. Only the first failure is recorded.
func (m *Manager) reportFailure(err error) {
	m.once.Do(func() {
		m.logger.Error("critical worker failed, shutting down", slog.Any("error", err))
		m.failed <- err
		if m.cancel != nil {
			m.cancel()
		}
	})
}

// Failed returns a channel that receives the first critical-worker failure.
// Run loops (cmd/batchmand) select on this alongside OS signals to decide
// when to begin shutdown.
func (m *Manager) Failed() <-chan error {
	return m.failed
}

// Stop signals every worker to shut down and waits for Stop to return (or
// ctx to expire) for each, in reverse registration order.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	regs := append([]registration(nil), m.regs...)
	if m.cancel != nil {
		m.cancel()
	}
	m.mu.Unlock()

	var errs []error
	for i := len(regs) - 1; i >= 0; i-- {
		w := regs[i].w
		m.logger.Info("stopping worker", slog.String("worker", w.Name()))
		if err := w.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", w.Name(), err))
		}
	}
	return errors.Join(errs...)
}
