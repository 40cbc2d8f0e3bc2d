// Package scheduler drives the email pipeline on a recurring interval and
// exposes start/stop/update controls plus a manual trigger.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"SheetMailer/internal/metrics"
	"SheetMailer/internal/models"
	"SheetMailer/internal/pipeline"
)

// Runner is the part of the pipeline the scheduler drives.
type Runner interface {
	Run(ctx context.Context) (*models.RunSummary, error)
	ValidateConfiguration(ctx context.Context) []string
	Status(ctx context.Context) pipeline.ProcessingStatus
}

type Options struct {
	// RunOnStart fires one run RunOnStartDelay after Start.
	RunOnStart      bool
	RunOnStartDelay time.Duration

	Location *time.Location
	Now      func() time.Time
}

type State struct {
	Active          bool               `json:"active"`
	IntervalMinutes int                `json:"interval_minutes"`
	Schedule        string             `json:"schedule,omitempty"`
	NextRun         *time.Time         `json:"next_run,omitempty"`
	LastRunAt       *time.Time         `json:"last_run_at,omitempty"`
	LastRun         *models.RunSummary `json:"last_run,omitempty"`
	LastError       string             `json:"last_error,omitempty"`
}

// Scheduler owns at most one cron trigger. Control calls are serialized;
// an interval change on an active scheduler replaces the trigger while
// holding the lock, so two triggers never coexist.
type Scheduler struct {
	ctx    context.Context
	runner Runner
	log    *zap.Logger
	opts   Options

	mu        sync.Mutex
	cron      *cron.Cron
	startup   *time.Timer
	interval  int
	nextRun   *time.Time
	lastRunAt *time.Time
	lastRun   *models.RunSummary
	lastErr   string
}

// New returns an inactive scheduler. ctx is the parent of every triggered
// run; interval is reported by Interval until the first Start.
func New(ctx context.Context, runner Runner, logger *zap.Logger, interval int, opts Options) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if interval < 1 {
		interval = 60
	}

	return &Scheduler{
		ctx:      ctx,
		runner:   runner,
		log:      logger.Named("scheduler"),
		opts:     opts,
		interval: interval,
	}
}

// Start registers the recurring trigger. It returns false when the
// scheduler is already active or the interval is invalid.
func (s *Scheduler) Start(minutes int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		s.log.Warn("scheduler already active", zap.Int("interval_minutes", s.interval))
		return false
	}
	if minutes < 1 {
		s.log.Warn("invalid scheduler interval", zap.Int("interval_minutes", minutes))
		return false
	}

	return s.startLocked(minutes, s.opts.RunOnStart)
}

// Stop removes the trigger. A run already in flight is not interrupted.
func (s *Scheduler) Stop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron == nil {
		s.log.Warn("scheduler is not active")
		return false
	}

	s.stopLocked()
	s.log.Info("scheduler stopped")
	return true
}

// UpdateInterval records the interval for the next Start, or restarts the
// trigger with it when active.
func (s *Scheduler) UpdateInterval(minutes int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if minutes < 1 {
		s.log.Warn("invalid scheduler interval", zap.Int("interval_minutes", minutes))
		return false
	}

	if s.cron == nil {
		s.interval = minutes
		s.log.Info("scheduler interval updated", zap.Int("interval_minutes", minutes))
		return true
	}

	s.stopLocked()
	return s.startLocked(minutes, false)
}

func (s *Scheduler) startLocked(minutes int, runNow bool) bool {
	spec := CronSpec(minutes)

	c := cron.New(
		cron.WithLocation(s.opts.Location),
		cron.WithLogger(cronLogger{log: s.log.Sugar()}),
		cron.WithChain(cron.SkipIfStillRunning(cronLogger{log: s.log.Sugar()})),
	)
	if _, err := c.AddFunc(spec, func() { s.execute(s.ctx, "schedule") }); err != nil {
		s.log.Error("invalid cron schedule", zap.String("spec", spec), zap.Error(err))
		return false
	}
	c.Start()

	s.cron = c
	s.interval = minutes
	next := s.opts.Now().Add(time.Duration(minutes) * time.Minute)
	s.nextRun = &next

	if runNow {
		s.startup = time.AfterFunc(s.opts.RunOnStartDelay, func() { s.execute(s.ctx, "startup") })
	}

	s.log.Info("scheduler started",
		zap.Int("interval_minutes", minutes),
		zap.String("spec", spec),
		zap.Time("next_run", next),
	)
	return true
}

func (s *Scheduler) stopLocked() context.Context {
	done := s.cron.Stop()
	if s.startup != nil {
		s.startup.Stop()
		s.startup = nil
	}
	s.cron = nil
	s.nextRun = nil
	return done
}

func (s *Scheduler) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cron != nil
}

func (s *Scheduler) Interval() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

// NextRun is the estimated time of the next trigger, nil when inactive.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.nextRun == nil {
		return nil
	}
	next := *s.nextRun
	return &next
}

func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		Active:          s.cron != nil,
		IntervalMinutes: s.interval,
		NextRun:         s.nextRun,
		LastRunAt:       s.lastRunAt,
		LastRun:         s.lastRun,
		LastError:       s.lastErr,
	}
	if st.Active {
		st.Schedule = CronSpec(s.interval)
	}
	return st
}

// TriggerNow runs the guarded job immediately, outside the schedule.
func (s *Scheduler) TriggerNow(ctx context.Context) (*models.RunSummary, error) {
	return s.execute(ctx, "manual")
}

// Shutdown stops the trigger and waits for an in-flight scheduled run, or
// for ctx to expire.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if s.cron == nil {
		s.mu.Unlock()
		return nil
	}
	done := s.stopLocked()
	s.mu.Unlock()

	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// execute is the guarded job body shared by the trigger, the startup run
// and TriggerNow.
func (s *Scheduler) execute(ctx context.Context, trigger string) (*models.RunSummary, error) {
	log := s.log.With(zap.String("trigger", trigger))

	if s.runner.Status(ctx).Processing {
		metrics.SchedulerSkips.WithLabelValues("in_progress").Inc()
		log.Warn("email run already in progress, skipping")
		return nil, pipeline.ErrConcurrentRun
	}

	if issues := s.runner.ValidateConfiguration(ctx); len(issues) > 0 {
		metrics.SchedulerSkips.WithLabelValues("invalid_config").Inc()
		log.Warn("configuration is not ready, skipping", zap.Strings("issues", issues))
		err := &pipeline.ConfigurationError{Issues: issues}
		s.record(nil, err)
		return nil, err
	}

	summary, err := s.runner.Run(ctx)
	switch {
	case errors.Is(err, pipeline.ErrConcurrentRun):
		metrics.SchedulerSkips.WithLabelValues("in_progress").Inc()
		log.Warn("email run already in progress, skipping")
		return nil, err
	case err != nil:
		log.Error("email run failed", zap.Error(err))
	default:
		log.Info("email run completed",
			zap.Int("sent", summary.Sent),
			zap.Int("failed", summary.Failed),
			zap.Int("total", summary.Total),
		)
	}

	s.record(summary, err)
	return summary, err
}

func (s *Scheduler) record(summary *models.RunSummary, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.opts.Now()
	s.lastRunAt = &now
	s.lastRun = summary
	s.lastErr = ""
	if err != nil {
		s.lastErr = err.Error()
	}

	if s.cron != nil {
		next := now.Add(time.Duration(s.interval) * time.Minute)
		s.nextRun = &next
	}
}
