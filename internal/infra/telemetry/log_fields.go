package telemetry

import (
	"time"

	"go.uber.org/zap"
)

const (
	FieldEvent      = "event"
	FieldCycleID    = "cycle_id"
	FieldSource     = "source"
	FieldVersion    = "version"
	FieldStage      = "stage"
	FieldRecords    = "records"
	FieldDeleted    = "deleted"
	FieldState      = "state"
	FieldDurationMs = "duration_ms"
	FieldNextRun    = "next_run"
	FieldComponent  = "component"
)

const (
	ComponentDaemon = "daemon"
	ComponentCLI    = "cli"
)

const (
	EventRefreshStart   = "refresh_start"
	EventRefreshApplied = "refresh_applied"
	EventRefreshSkipped = "refresh_skipped"
	EventRefreshFailure = "refresh_failure"
	EventSourceChanged  = "source_changed"
)

// Refresh stages, used as the stage field and as error ops.
const (
	StageReadSource  = "read_source"
	StageParse       = "parse"
	StageUpdateStore = "update_store"
)

func EventField(event string) zap.Field {
	return zap.String(FieldEvent, event)
}

func CycleIDField(cycleID string) zap.Field {
	return zap.String(FieldCycleID, cycleID)
}

func SourceField(source string) zap.Field {
	return zap.String(FieldSource, source)
}

func VersionField(version string) zap.Field {
	return zap.String(FieldVersion, version)
}

func StageField(stage string) zap.Field {
	return zap.String(FieldStage, stage)
}

func StateField(state string) zap.Field {
	return zap.String(FieldState, state)
}

func DurationField(duration time.Duration) zap.Field {
	return zap.Int64(FieldDurationMs, duration.Milliseconds())
}

func NextRunField(at time.Time) zap.Field {
	return zap.Time(FieldNextRun, at)
}
