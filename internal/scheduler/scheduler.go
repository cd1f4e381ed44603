// Package scheduler runs a single job on a cron schedule and on demand,
// never more than one execution at a time.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ErrRunInProgress is returned by RunNow while another execution is active.
var ErrRunInProgress = errors.New("run already in progress")

// Job is the scheduled unit of work.
type Job func(ctx context.Context) error

// specParser accepts specs with a leading seconds field and descriptors like @every.
var specParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ValidateSpec reports whether spec is a schedule the scheduler accepts.
func ValidateSpec(spec string) error {
	if _, err := specParser.Parse(spec); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return nil
}

// Scheduler runs one job on a cron schedule and on demand, never concurrently.
type Scheduler struct {
	cron    *cron.Cron
	job     Job
	logger  *zap.Logger
	baseCtx context.Context
	running atomic.Bool
}

// New creates a scheduler for job. Scheduled executions receive baseCtx.
func New(job Job, logger *zap.Logger, baseCtx context.Context) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	return &Scheduler{
		cron:    cron.New(cron.WithParser(specParser)),
		job:     job,
		logger:  logger,
		baseCtx: baseCtx,
	}
}

// Schedule registers the job under spec. Overlapping ticks are skipped.
func (s *Scheduler) Schedule(spec string) (cron.EntryID, error) {
	return s.cron.AddFunc(spec, func() {
		if err := s.RunNow(s.baseCtx); err != nil {
			if errors.Is(err, ErrRunInProgress) {
				s.logger.Info("scheduled run skipped, previous run still active")
				return
			}
			s.logger.Warn("scheduled run failed", zap.Error(err))
		}
	})
}

// RunNow executes the job synchronously unless it is already running.
func (s *Scheduler) RunNow(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrRunInProgress
	}
	defer s.running.Store(false)
	return s.job(ctx)
}

// Running reports whether an execution is active.
func (s *Scheduler) Running() bool {
	return s.running.Load()
}

// Start begins firing scheduled ticks in the background.
func (s *Scheduler) Start() {
	s.logger.Info("scheduler started")
	s.cron.Start()
}

// Stop halts scheduling and waits for a running scheduled job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}
