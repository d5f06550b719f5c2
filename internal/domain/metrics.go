package domain

import "time"

// Metrics records refresh and catalog telemetry.
type Metrics interface {
	ObserveRefresh(outcome RefreshOutcome, duration time.Duration)
	ObserveReplace(stats ReplaceStats)
	SetCatalogRecords(count int)
	SetSchedulerState(state SchedulerState)
}
