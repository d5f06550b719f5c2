package telemetry

import (
	"time"

	"instancecat/internal/domain"
)

type NoopMetrics struct{}

func NewNoopMetrics() *NoopMetrics {
	return &NoopMetrics{}
}

func (n *NoopMetrics) ObserveRefresh(_ domain.RefreshOutcome, _ time.Duration) {}

func (n *NoopMetrics) ObserveReplace(_ domain.ReplaceStats) {}

func (n *NoopMetrics) SetCatalogRecords(_ int) {}

func (n *NoopMetrics) SetSchedulerState(_ domain.SchedulerState) {}

var _ domain.Metrics = (*NoopMetrics)(nil)
