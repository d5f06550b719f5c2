package refresh

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"instancecat/internal/domain"
	"instancecat/internal/infra/telemetry"
)

func TestNextState(t *testing.T) {
	assert.Equal(t, domain.SchedulerSuccessWait, NextState(nil))
	assert.Equal(t, domain.SchedulerRetryWait, NextState(errBoom))
}

func TestIntervalsFor(t *testing.T) {
	intervals := DefaultIntervals()
	assert.Equal(t, 7*24*time.Hour, intervals.For(domain.SchedulerSuccessWait))
	assert.Equal(t, time.Hour, intervals.For(domain.SchedulerRetryWait))
	assert.Zero(t, intervals.For(domain.SchedulerIdle))
}

// fakeClock hands out one channel per requested wait and records durations.
type fakeClock struct {
	mu       sync.Mutex
	waits    []time.Duration
	channels []chan time.Time
	requests chan time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{requests: make(chan time.Duration, 16)}
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	c.mu.Lock()
	c.waits = append(c.waits, d)
	c.channels = append(c.channels, ch)
	c.mu.Unlock()
	c.requests <- d
	return ch
}

// fire releases the most recent wait.
func (c *fakeClock) fire() {
	c.mu.Lock()
	ch := c.channels[len(c.channels)-1]
	c.mu.Unlock()
	ch <- time.Now()
}

func (c *fakeClock) nextWait(t *testing.T) time.Duration {
	t.Helper()
	select {
	case d := <-c.requests:
		return d
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not start waiting")
		return 0
	}
}

type scriptedRefresher struct {
	results  []error
	calls    atomic.Int32
	inFlight atomic.Int32
	overlap  atomic.Bool
}

func (r *scriptedRefresher) Refresh(_ context.Context, _ domain.DataSource) (domain.RefreshResult, error) {
	if r.inFlight.Add(1) > 1 {
		r.overlap.Store(true)
	}
	defer r.inFlight.Add(-1)
	n := int(r.calls.Add(1)) - 1
	var err error
	if n < len(r.results) {
		err = r.results[n]
	}
	if err != nil {
		return domain.RefreshResult{Outcome: domain.OutcomeFailed}, domain.Wrap(domain.CodeUnavailable, "refresh.read_source", err)
	}
	return domain.RefreshResult{Outcome: domain.OutcomeApplied, Applied: 1}, nil
}

func startScheduler(t *testing.T, refresher Refresher, clock *fakeClock, health *telemetry.HealthTracker) (*Scheduler, context.CancelFunc, <-chan error) {
	t.Helper()
	scheduler := NewScheduler(refresher, &fakeSource{docs: []string{"{}"}}, SchedulerOptions{
		Intervals: Intervals{Success: 7 * 24 * time.Hour, Retry: time.Hour},
		After:     clock.After,
		Health:    health,
	})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- scheduler.Run(ctx) }()
	return scheduler, cancel, done
}

func stop(t *testing.T, cancel context.CancelFunc, done <-chan error) {
	t.Helper()
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestScheduler_RetryThenSuccessIntervals(t *testing.T) {
	clock := newFakeClock()
	refresher := &scriptedRefresher{results: []error{errBoom, errBoom, nil}}
	scheduler, cancel, done := startScheduler(t, refresher, clock, nil)

	assert.Equal(t, time.Hour, clock.nextWait(t))
	status := scheduler.Status()
	assert.Equal(t, domain.SchedulerRetryWait, status.State)
	assert.Contains(t, status.LastError, "boom")

	clock.fire()
	assert.Equal(t, time.Hour, clock.nextWait(t))

	clock.fire()
	assert.Equal(t, 7*24*time.Hour, clock.nextWait(t))
	status = scheduler.Status()
	assert.Equal(t, domain.SchedulerSuccessWait, status.State)
	assert.Empty(t, status.LastError)
	assert.Equal(t, 3, status.Cycles)
	assert.Equal(t, 1, status.LastResult.Count())

	stop(t, cancel, done)
	assert.Equal(t, int32(3), refresher.calls.Load())
	assert.False(t, refresher.overlap.Load())
}

func TestScheduler_SuccessThenFailure(t *testing.T) {
	clock := newFakeClock()
	refresher := &scriptedRefresher{results: []error{nil, errBoom}}
	_, cancel, done := startScheduler(t, refresher, clock, nil)

	assert.Equal(t, 7*24*time.Hour, clock.nextWait(t))
	clock.fire()
	assert.Equal(t, time.Hour, clock.nextWait(t))

	stop(t, cancel, done)
}

func TestScheduler_TriggerCutsWaitShort(t *testing.T) {
	clock := newFakeClock()
	refresher := &scriptedRefresher{}
	scheduler, cancel, done := startScheduler(t, refresher, clock, nil)

	assert.Equal(t, 7*24*time.Hour, clock.nextWait(t))
	scheduler.Trigger()
	assert.Equal(t, 7*24*time.Hour, clock.nextWait(t))
	assert.Equal(t, int32(2), refresher.calls.Load())

	stop(t, cancel, done)
}

func TestScheduler_HealthFollowsOutcome(t *testing.T) {
	clock := newFakeClock()
	health := telemetry.NewHealthTracker()
	refresher := &scriptedRefresher{results: []error{errBoom, nil}}
	_, cancel, done := startScheduler(t, refresher, clock, health)

	clock.nextWait(t)
	assert.Equal(t, telemetry.HealthStatusDegraded, health.Report().Status)

	clock.fire()
	clock.nextWait(t)
	assert.Equal(t, telemetry.HealthStatusOK, health.Report().Status)

	stop(t, cancel, done)
	require.Empty(t, health.Report().Checks)
}

func TestScheduler_StopsWhileRefreshing(t *testing.T) {
	release := make(chan struct{})
	refresher := refresherFunc(func(ctx context.Context, _ domain.DataSource) (domain.RefreshResult, error) {
		close(release)
		<-ctx.Done()
		return domain.RefreshResult{}, ctx.Err()
	})
	scheduler := NewScheduler(refresher, &fakeSource{docs: []string{"{}"}}, SchedulerOptions{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- scheduler.Run(ctx) }()

	<-release
	stop(t, cancel, done)
	assert.Equal(t, domain.SchedulerIdle, scheduler.Status().State)
}

type refresherFunc func(ctx context.Context, source domain.DataSource) (domain.RefreshResult, error)

func (f refresherFunc) Refresh(ctx context.Context, source domain.DataSource) (domain.RefreshResult, error) {
	return f(ctx, source)
}

func TestScheduler_TriggersCoalesce(t *testing.T) {
	scheduler := NewScheduler(&scriptedRefresher{}, &fakeSource{docs: []string{"{}"}}, SchedulerOptions{})
	for i := 0; i < 3; i++ {
		scheduler.Trigger()
	}
	assert.Len(t, scheduler.trigger, 1)
}
