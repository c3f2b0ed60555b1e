// Package scheduler runs a job periodically without letting runs overlap,
// neither inside the process nor across replicas sharing the lock store.
package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"dispatchbot/pkg/logger"
	"dispatchbot/pkg/metrics"
	"dispatchbot/storage"
)

var ErrAlreadyRunning = errors.New("previous run is still active")

// Job returns the number of items it processed.
type Job func(ctx context.Context) (int, error)

type Runner struct {
	name     string
	interval time.Duration
	lockTTL  time.Duration
	job      Job
	locker   storage.ILocker
	log      logger.ILogger

	running atomic.Bool
}

// New builds a runner; locker may be nil for single-process deployments.
func New(name string, interval time.Duration, job Job, locker storage.ILocker, log logger.ILogger) *Runner {
	return &Runner{
		name:     name,
		interval: interval,
		// The lock outlives a stuck run by a bounded amount only.
		lockTTL: 2 * interval,
		job:     job,
		locker:  locker,
		log:     log,
	}
}

// RunOnce executes the job if no other run holds the guard.
func (r *Runner) RunOnce(ctx context.Context) (int, error) {
	runID := uuid.NewString()
	log := r.log.With(logger.String("job", r.name), logger.String("run_id", runID))

	if !r.running.CompareAndSwap(false, true) {
		log.Warning("skipping run, previous one still active")
		metrics.SweepRuns.WithLabelValues("skipped").Inc()
		return 0, ErrAlreadyRunning
	}
	defer r.running.Store(false)

	if r.locker != nil {
		unlock, ok, err := r.locker.TryLock(ctx, r.name, r.lockTTL)
		if err != nil {
			metrics.SweepRuns.WithLabelValues("error").Inc()
			return 0, err
		}
		if !ok {
			log.Warning("skipping run, lock held elsewhere")
			metrics.SweepRuns.WithLabelValues("skipped").Inc()
			return 0, ErrAlreadyRunning
		}
		defer unlock()
	}

	start := time.Now()
	n, err := r.job(ctx)
	if err != nil {
		log.Error("job failed", logger.Int("processed", n), logger.Error(err))
		metrics.SweepRuns.WithLabelValues("error").Inc()
		return n, err
	}

	log.Info("job finished", logger.Int("processed", n), logger.Duration("took", time.Since(start)))
	metrics.SweepRuns.WithLabelValues("ok").Inc()
	return n, nil
}

// Run ticks until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.log.Info("scheduler started", logger.String("job", r.name), logger.Duration("interval", r.interval))
	for {
		select {
		case <-ctx.Done():
			r.log.Info("scheduler stopped", logger.String("job", r.name))
			return
		case <-ticker.C:
			_, _ = r.RunOnce(ctx)
		}
	}
}
