package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"instancecat/internal/domain"
)

var schedulerStates = []domain.SchedulerState{
	domain.SchedulerIdle,
	domain.SchedulerSuccessWait,
	domain.SchedulerRetryWait,
}

type PrometheusMetrics struct {
	refreshDuration *prometheus.HistogramVec
	refreshTotal    *prometheus.CounterVec
	catalogRecords  prometheus.Gauge
	recordsApplied  prometheus.Counter
	recordsDeleted  prometheus.Counter
	schedulerState  *prometheus.GaugeVec
}

func NewPrometheusMetrics(registerer prometheus.Registerer) *PrometheusMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registerer)

	return &PrometheusMetrics{
		refreshDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "instancecat_refresh_duration_seconds",
				Help:    "Duration of catalog refresh cycles in seconds",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
			[]string{"outcome"},
		),
		refreshTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "instancecat_refresh_total",
				Help: "Total number of catalog refresh cycles",
			},
			[]string{"outcome"},
		),
		catalogRecords: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "instancecat_catalog_records",
				Help: "Number of instance types in the catalog store",
			},
		),
		recordsApplied: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "instancecat_records_applied_total",
				Help: "Total number of instance type records written to the store",
			},
		),
		recordsDeleted: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "instancecat_records_deleted_total",
				Help: "Total number of instance type records removed from the store",
			},
		),
		schedulerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "instancecat_scheduler_state",
				Help: "Current refresh scheduler state (1 for the active state)",
			},
			[]string{"state"},
		),
	}
}

func (p *PrometheusMetrics) ObserveRefresh(outcome domain.RefreshOutcome, duration time.Duration) {
	p.refreshDuration.WithLabelValues(string(outcome)).Observe(duration.Seconds())
	p.refreshTotal.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusMetrics) ObserveReplace(stats domain.ReplaceStats) {
	p.recordsApplied.Add(float64(stats.Upserted))
	p.recordsDeleted.Add(float64(stats.Deleted))
	p.catalogRecords.Set(float64(stats.Total))
}

func (p *PrometheusMetrics) SetCatalogRecords(count int) {
	p.catalogRecords.Set(float64(count))
}

func (p *PrometheusMetrics) SetSchedulerState(state domain.SchedulerState) {
	for _, candidate := range schedulerStates {
		value := 0.0
		if candidate == state {
			value = 1
		}
		p.schedulerState.WithLabelValues(string(candidate)).Set(value)
	}
}

var _ domain.Metrics = (*PrometheusMetrics)(nil)
