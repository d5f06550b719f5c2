package app

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"instancecat/internal/app/catalog"
	"instancecat/internal/app/config"
	"instancecat/internal/app/refresh"
	"instancecat/internal/domain"
	"instancecat/internal/infra/datasource"
	"instancecat/internal/infra/pricing"
	"instancecat/internal/infra/store"
	"instancecat/internal/infra/telemetry"
	"instancecat/internal/infra/watch"
)

func NewMetricsRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	registry.MustRegister(prometheus.NewGoCollector())
	return registry
}

func NewMetrics(registry *prometheus.Registry) domain.Metrics {
	return telemetry.NewPrometheusMetrics(registry)
}

func NewHealthTracker() *telemetry.HealthTracker {
	return telemetry.NewHealthTracker()
}

// NewStore opens the catalog database. The cleanup closes it.
func NewStore(cfg config.Config, logger *zap.Logger) (*store.Store, func(), error) {
	st, err := store.Open(cfg.Store.File(), logger)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := st.Close(); err != nil {
			logger.Warn("close catalog store", zap.Error(err))
		}
	}
	return st, cleanup, nil
}

func NewDataSource(ctx context.Context, cfg config.Config) (domain.DataSource, error) {
	return datasource.New(ctx, cfg.Source.DataSource())
}

func NewParser(logger *zap.Logger) *pricing.Parser {
	return pricing.NewParser(logger)
}

func NewUpdater(writer domain.CatalogWriter, parser *pricing.Parser, metrics domain.Metrics, logger *zap.Logger) *refresh.Updater {
	return refresh.NewUpdater(writer, refresh.UpdaterOptions{
		Parser:  parser,
		Metrics: metrics,
		Logger:  logger,
	})
}

func NewScheduler(
	refresher refresh.Refresher,
	source domain.DataSource,
	cfg config.Config,
	metrics domain.Metrics,
	health *telemetry.HealthTracker,
	logger *zap.Logger,
) *refresh.Scheduler {
	return refresh.NewScheduler(refresher, source, refresh.SchedulerOptions{
		Intervals: refresh.Intervals{
			Success: cfg.Refresh.SuccessInterval,
			Retry:   cfg.Refresh.RetryInterval,
		},
		Metrics: metrics,
		Health:  health,
		Logger:  logger,
	})
}

func NewCatalogService(reader domain.CatalogReader, logger *zap.Logger) *catalog.Service {
	return catalog.NewService(reader, logger)
}

// NewSourceWatcher returns nil unless watching is enabled for a file source.
func NewSourceWatcher(cfg config.Config, scheduler *refresh.Scheduler, logger *zap.Logger) *watch.FileWatcher {
	if !cfg.Source.Watch || cfg.Source.Kind != domain.SourceKindFile {
		return nil
	}
	return watch.NewFileWatcher(watch.Options{
		Path:   cfg.Source.Path,
		Notify: scheduler.Trigger,
		Logger: logger,
	})
}
