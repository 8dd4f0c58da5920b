// Package schedule runs the bot on a cron schedule.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/deusflow/trovebot/internal/logger"
)

const DefaultLockKey = "trovebot:lock:invocation"

// Job is one scheduled invocation.
type Job func(ctx context.Context) error

type Options struct {
	Spec    string
	Job     Job
	Locker  Locker
	LockKey string
	LockTTL time.Duration
	Timeout time.Duration // per invocation, zero means none
	Logger  *slog.Logger
}

type Scheduler struct {
	cron    *cron.Cron
	base    context.Context
	spec    string
	job     Job
	locker  Locker
	lockKey string
	lockTTL time.Duration
	timeout time.Duration
	log     *slog.Logger
}

func New(opts Options) *Scheduler {
	s := &Scheduler{
		spec:    opts.Spec,
		job:     opts.Job,
		locker:  opts.Locker,
		lockKey: opts.LockKey,
		lockTTL: opts.LockTTL,
		timeout: opts.Timeout,
		log:     logger.OrDefault(opts.Logger),
	}
	if s.locker == nil {
		s.locker = NopLocker{}
	}
	if s.lockKey == "" {
		s.lockKey = DefaultLockKey
	}
	if s.lockTTL <= 0 {
		s.lockTTL = 10 * time.Minute
	}
	// A tick that is still running makes the next one a no-op locally; the
	// Locker covers other replicas.
	s.cron = cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	return s
}

// Start registers the job and starts the cron loop. Each tick runs under ctx,
// so cancelling it aborts an in-flight invocation. An invalid spec is an
// error.
func (s *Scheduler) Start(ctx context.Context) error {
	s.base = ctx
	if _, err := s.cron.AddFunc(s.spec, s.tick); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", s.spec, err)
	}
	s.cron.Start()
	s.log.Info("scheduler started", "schedule", s.spec, "timeout", s.timeout)
	return nil
}

func (s *Scheduler) tick() {
	if s.base.Err() != nil {
		return
	}
	s.RunNow(s.base)
}

// Stop stops the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

// RunNow runs one locked, time-bounded invocation. It reports whether the job
// ran.
func (s *Scheduler) RunNow(ctx context.Context) bool {
	ok, err := s.locker.Acquire(ctx, s.lockKey, s.lockTTL)
	if err != nil {
		s.log.Error("failed to take invocation lock, skipping tick", "error", err)
		return false
	}
	if !ok {
		s.log.Info("another instance holds the invocation lock, skipping tick")
		return false
	}
	defer func() {
		if err := s.locker.Release(context.Background(), s.lockKey); err != nil {
			s.log.Warn("failed to release invocation lock", "error", err)
		}
	}()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	if err := s.job(ctx); err != nil {
		s.log.Error("scheduled invocation failed", "error", err)
	}
	return true
}
