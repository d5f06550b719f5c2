package telemetry

import (
	"sort"
	"sync"
	"time"
)

const (
	HealthStatusOK       = "ok"
	HealthStatusStarting = "starting"
	HealthStatusDegraded = "degraded"
	HealthStatusStale    = "stale"
)

// HealthTracker aggregates heartbeats of background loops into one report.
type HealthTracker struct {
	mu    sync.Mutex
	beats map[string]*Heartbeat
	now   func() time.Time
}

// HealthReport is served on /healthz.
type HealthReport struct {
	Status string        `json:"status"`
	Checks []HealthCheck `json:"checks,omitempty"`
}

// HealthCheck is the state of one registered heartbeat.
type HealthCheck struct {
	Name     string    `json:"name"`
	Status   string    `json:"status"`
	Detail   string    `json:"detail,omitempty"`
	LastBeat time.Time `json:"lastBeat,omitempty"`
}

func NewHealthTracker() *HealthTracker {
	return &HealthTracker{
		beats: make(map[string]*Heartbeat),
		now:   time.Now,
	}
}

// Register adds a heartbeat that turns stale when not beaten within staleAfter.
// A non-positive staleAfter never goes stale. Registering an existing name
// replaces it.
func (h *HealthTracker) Register(name string, staleAfter time.Duration) *Heartbeat {
	beat := &Heartbeat{name: name, staleAfter: staleAfter, tracker: h}
	h.mu.Lock()
	h.beats[name] = beat
	h.mu.Unlock()
	return beat
}

func (h *HealthTracker) Report() HealthReport {
	h.mu.Lock()
	beats := make([]*Heartbeat, 0, len(h.beats))
	for _, beat := range h.beats {
		beats = append(beats, beat)
	}
	h.mu.Unlock()

	sort.Slice(beats, func(i, j int) bool { return beats[i].name < beats[j].name })

	now := h.now()
	report := HealthReport{Status: HealthStatusOK, Checks: make([]HealthCheck, 0, len(beats))}
	for _, beat := range beats {
		check := beat.check(now)
		report.Checks = append(report.Checks, check)
		report.Status = worse(report.Status, check.Status)
	}
	return report
}

func (h *HealthTracker) unregister(beat *Heartbeat) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.beats[beat.name] == beat {
		delete(h.beats, beat.name)
	}
}

func worse(current, candidate string) string {
	rank := func(status string) int {
		switch status {
		case HealthStatusOK:
			return 0
		case HealthStatusStarting:
			return 1
		default:
			return 2
		}
	}
	if rank(candidate) > rank(current) {
		if candidate == HealthStatusStale {
			return HealthStatusDegraded
		}
		return candidate
	}
	return current
}

// Heartbeat is the handle a loop uses to report liveness.
type Heartbeat struct {
	name       string
	staleAfter time.Duration
	tracker    *HealthTracker

	mu       sync.Mutex
	lastBeat time.Time
	degraded string
}

// Beat marks the loop healthy.
func (b *Heartbeat) Beat() {
	b.mu.Lock()
	b.lastBeat = b.tracker.now()
	b.degraded = ""
	b.mu.Unlock()
}

// Degrade marks the loop alive but failing.
func (b *Heartbeat) Degrade(reason string) {
	if reason == "" {
		reason = HealthStatusDegraded
	}
	b.mu.Lock()
	b.lastBeat = b.tracker.now()
	b.degraded = reason
	b.mu.Unlock()
}

// Stop removes the heartbeat from the tracker.
func (b *Heartbeat) Stop() {
	b.tracker.unregister(b)
}

func (b *Heartbeat) check(now time.Time) HealthCheck {
	b.mu.Lock()
	defer b.mu.Unlock()
	check := HealthCheck{Name: b.name, Status: HealthStatusOK, LastBeat: b.lastBeat}
	switch {
	case b.lastBeat.IsZero():
		check.Status = HealthStatusStarting
	case b.degraded != "":
		check.Status = HealthStatusDegraded
		check.Detail = b.degraded
	case b.staleAfter > 0 && now.Sub(b.lastBeat) > b.staleAfter:
		check.Status = HealthStatusStale
	}
	return check
}
