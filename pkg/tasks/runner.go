// Package tasks runs background work detached from the request that
// submitted it. Submission is explicit and failures are logged independently;
// they never surface to the submitting request.
package tasks

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Runner executes submitted tasks on detached goroutines with bounded
// concurrency. A task receives its own context: the submitting request's
// deadline must not cancel background work.
type Runner struct {
	sem     chan struct{}
	wg      sync.WaitGroup
	timeout time.Duration
	logger  *zap.Logger
}

// Config configures the task runner.
type Config struct {
	MaxConcurrent int           // maximum tasks in flight (default: 8)
	TaskTimeout   time.Duration // per-task deadline (default: 2 minutes)
}

// NewRunner creates a new background task runner.
func NewRunner(cfg Config, logger *zap.Logger) *Runner {
	if cfg.MaxConcurrent < 1 {
		cfg.MaxConcurrent = 8
	}
	if cfg.TaskTimeout == 0 {
		cfg.TaskTimeout = 2 * time.Minute
	}
	return &Runner{
		sem:     make(chan struct{}, cfg.MaxConcurrent),
		timeout: cfg.TaskTimeout,
		logger:  logger.Named("tasks"),
	}
}

// Submit schedules fn to run in the background. The name identifies the task
// in logs. Submit never blocks the caller beyond semaphore acquisition inside
// the spawned goroutine, and a task failure is logged, not returned.
func (r *Runner) Submit(name string, fn func(ctx context.Context) error) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		r.sem <- struct{}{}
		defer func() { <-r.sem }()

		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()

		start := time.Now()
		if err := fn(ctx); err != nil {
			r.logger.Error("Background task failed",
				zap.String("task", name),
				zap.Duration("elapsed", time.Since(start)),
				zap.Error(err))
			return
		}

		r.logger.Debug("Background task completed",
			zap.String("task", name),
			zap.Duration("elapsed", time.Since(start)))
	}()
}

// Wait blocks until all submitted tasks have finished. Used on shutdown and
// in tests.
func (r *Runner) Wait() {
	r.wg.Wait()
}
