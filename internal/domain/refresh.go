package domain

import "time"

// RefreshOutcome labels how a refresh cycle ended.
type RefreshOutcome string

const (
	// OutcomeApplied indicates a new catalog version was written to the store.
	OutcomeApplied RefreshOutcome = "applied"
	// OutcomeSkipped indicates the catalog version matched the last applied one.
	OutcomeSkipped RefreshOutcome = "skipped"
	// OutcomeFailed indicates the cycle failed at some stage.
	OutcomeFailed RefreshOutcome = "failed"
)

// RefreshResult reports one refresh cycle.
type RefreshResult struct {
	CycleID  string
	Source   string
	Version  string
	Outcome  RefreshOutcome
	Applied  int
	// Digest is a content hash of the applied records.
	Digest   string
	Store    ReplaceStats
	Parse    ParseStats
	Duration time.Duration
}

// Count returns the number of applied records, zero when the cycle was skipped.
func (r RefreshResult) Count() int {
	if r.Outcome != OutcomeApplied {
		return 0
	}
	return r.Applied
}

// ParseStats describes what the parser kept and dropped.
type ParseStats struct {
	Entries        int
	Kept           int
	NotLinux       int
	MissingName    int
	InvalidMemory  int
	InvalidVCPU    int
	Duplicates     int
	MalformedEntry int
}

// Discarded returns the number of entries dropped for any reason.
func (s ParseStats) Discarded() int {
	return s.NotLinux + s.MissingName + s.InvalidMemory + s.InvalidVCPU + s.Duplicates + s.MalformedEntry
}

// SchedulerState is the state of the refresh loop.
type SchedulerState string

const (
	// SchedulerIdle is the state before the first cycle finished.
	SchedulerIdle SchedulerState = "idle"
	// SchedulerSuccessWait follows a successful cycle and waits the long interval.
	SchedulerSuccessWait SchedulerState = "success_wait"
	// SchedulerRetryWait follows a failed cycle and waits the short interval.
	SchedulerRetryWait SchedulerState = "retry_wait"
)

// SchedulerStatus is a point-in-time view of the refresh loop.
type SchedulerStatus struct {
	State      SchedulerState
	Cycles     int
	LastResult RefreshResult
	LastError  string
	LastRunAt  time.Time
	NextRunAt  time.Time
}
