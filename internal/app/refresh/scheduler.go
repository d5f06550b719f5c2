package refresh

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"instancecat/internal/domain"
	"instancecat/internal/infra/telemetry"
)

// Refresher runs a single refresh cycle.
type Refresher interface {
	Refresh(ctx context.Context, source domain.DataSource) (domain.RefreshResult, error)
}

// Intervals are the waits after a successful and a failed cycle.
type Intervals struct {
	Success time.Duration
	Retry   time.Duration
}

// DefaultIntervals wait one week after success and one hour after failure.
func DefaultIntervals() Intervals {
	return Intervals{
		Success: time.Duration(domain.DefaultSuccessIntervalSeconds) * time.Second,
		Retry:   time.Duration(domain.DefaultRetryIntervalSeconds) * time.Second,
	}
}

// For returns how long to sleep in state. Idle does not sleep.
func (i Intervals) For(state domain.SchedulerState) time.Duration {
	switch state {
	case domain.SchedulerSuccessWait:
		return i.Success
	case domain.SchedulerRetryWait:
		return i.Retry
	default:
		return 0
	}
}

// NextState maps the outcome of a cycle to the following wait state.
func NextState(err error) domain.SchedulerState {
	if err != nil {
		return domain.SchedulerRetryWait
	}
	return domain.SchedulerSuccessWait
}

// SchedulerOptions configures a Scheduler.
type SchedulerOptions struct {
	Intervals Intervals
	// After defaults to time.After.
	After   func(time.Duration) <-chan time.Time
	Now     func() time.Time
	Metrics domain.Metrics
	Health  *telemetry.HealthTracker
	Logger  *zap.Logger
}

// Scheduler drives the refresh loop. Cycles never overlap, so store writes
// are totally ordered.
type Scheduler struct {
	refresher Refresher
	source    domain.DataSource
	intervals Intervals
	after     func(time.Duration) <-chan time.Time
	now       func() time.Time
	metrics   domain.Metrics
	health    *telemetry.HealthTracker
	logger    *zap.Logger
	trigger   chan struct{}

	mu     sync.Mutex
	status domain.SchedulerStatus
}

func NewScheduler(refresher Refresher, source domain.DataSource, opts SchedulerOptions) *Scheduler {
	intervals := opts.Intervals
	defaults := DefaultIntervals()
	if intervals.Success <= 0 {
		intervals.Success = defaults.Success
	}
	if intervals.Retry <= 0 {
		intervals.Retry = defaults.Retry
	}
	after := opts.After
	if after == nil {
		after = time.After
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = telemetry.NewNoopMetrics()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		refresher: refresher,
		source:    source,
		intervals: intervals,
		after:     after,
		now:       now,
		metrics:   metrics,
		health:    opts.Health,
		logger:    logger.Named("scheduler"),
		trigger:   make(chan struct{}, 1),
		status:    domain.SchedulerStatus{State: domain.SchedulerIdle},
	}
}

// Trigger cuts the current wait short. Triggers received while a cycle is
// running collapse into one extra cycle.
func (s *Scheduler) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// Status returns a copy of the current loop state.
func (s *Scheduler) Status() domain.SchedulerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Run refreshes immediately and then forever, waiting the success or retry
// interval between cycles. Errors never stop the loop; it returns nil once
// ctx is done and abandons an in-flight cycle.
func (s *Scheduler) Run(ctx context.Context) error {
	var beat *telemetry.Heartbeat
	if s.health != nil {
		beat = s.health.Register("refresh_scheduler", 2*s.intervals.Success)
		defer beat.Stop()
	}
	s.metrics.SetSchedulerState(domain.SchedulerIdle)
	s.logger.Info("refresh scheduler started",
		zap.Duration("success_interval", s.intervals.Success),
		zap.Duration("retry_interval", s.intervals.Retry),
	)

	for {
		result, err := s.refresher.Refresh(ctx, s.source)
		if ctx.Err() != nil {
			s.logger.Info("refresh scheduler stopped")
			return nil
		}

		state := NextState(err)
		wait := s.intervals.For(state)
		s.record(state, result, err, wait)
		if beat != nil {
			if err != nil {
				beat.Degrade(err.Error())
			} else {
				beat.Beat()
			}
		}

		select {
		case <-ctx.Done():
			s.logger.Info("refresh scheduler stopped")
			return nil
		case <-s.after(wait):
		case <-s.trigger:
			s.logger.Info("refresh triggered before interval elapsed")
		}
	}
}

func (s *Scheduler) record(state domain.SchedulerState, result domain.RefreshResult, err error, wait time.Duration) {
	now := s.now()
	next := now.Add(wait)

	s.mu.Lock()
	s.status.State = state
	s.status.Cycles++
	s.status.LastResult = result
	s.status.LastRunAt = now
	s.status.NextRunAt = next
	s.status.LastError = ""
	if err != nil {
		s.status.LastError = err.Error()
	}
	s.mu.Unlock()

	s.metrics.SetSchedulerState(state)
	fields := []zap.Field{
		telemetry.CycleIDField(result.CycleID),
		telemetry.StateField(string(state)),
		telemetry.NextRunField(next),
	}
	if err != nil {
		s.logger.Warn("refresh cycle failed, retrying",
			append(fields, telemetry.StageField(domain.OpFrom(err)), zap.Error(err))...)
		return
	}
	s.logger.Info("refresh cycle finished",
		append(fields, zap.String("outcome", string(result.Outcome)), zap.Int(telemetry.FieldRecords, result.Count()))...)
}
