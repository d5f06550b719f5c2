package app

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"instancecat/internal/app/catalog"
	"instancecat/internal/app/config"
	"instancecat/internal/app/refresh"
	"instancecat/internal/domain"
	"instancecat/internal/infra/store"
	"instancecat/internal/infra/telemetry"
	"instancecat/internal/infra/watch"
)

// Application wires the daemon runtime and dependencies.
type Application struct {
	ctx    context.Context
	config config.Config

	logger    *zap.Logger
	registry  *prometheus.Registry
	metrics   domain.Metrics
	health    *telemetry.HealthTracker
	store     *store.Store
	source    domain.DataSource
	updater   *refresh.Updater
	scheduler *refresh.Scheduler
	catalog   *catalog.Service
	watcher   *watch.FileWatcher
}

// ApplicationOptions captures dependencies and settings for Application.
type ApplicationOptions struct {
	Context   context.Context
	Config    config.Config
	Logger    *zap.Logger
	Registry  *prometheus.Registry
	Metrics   domain.Metrics
	Health    *telemetry.HealthTracker
	Store     *store.Store
	Source    domain.DataSource
	Updater   *refresh.Updater
	Scheduler *refresh.Scheduler
	Catalog   *catalog.Service
	Watcher   *watch.FileWatcher
}

// NewApplication constructs the daemon runtime.
func NewApplication(opts ApplicationOptions) *Application {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Application{
		ctx:       ctx,
		config:    opts.Config,
		logger:    logger,
		registry:  opts.Registry,
		metrics:   opts.Metrics,
		health:    opts.Health,
		store:     opts.Store,
		source:    opts.Source,
		updater:   opts.Updater,
		scheduler: opts.Scheduler,
		catalog:   opts.Catalog,
		watcher:   opts.Watcher,
	}
}

// Run starts the refresh loop, the observability endpoints and the optional
// file watcher, and blocks until the context is cancelled or the
// observability server fails to start.
func (a *Application) Run() error {
	a.logger.Info("configuration loaded",
		zap.String("version", Version),
		telemetry.SourceField(a.source.Name()),
		zap.String("store", a.store.Path()),
		zap.Duration("success_interval", a.config.Refresh.SuccessInterval),
		zap.Duration("retry_interval", a.config.Refresh.RetryInterval),
	)
	a.publishCatalogSize(a.ctx)

	group, ctx := errgroup.WithContext(a.ctx)
	group.Go(func() error {
		return telemetry.StartHTTPServer(ctx, telemetry.HTTPServerOptions{
			Addr:          a.config.Observability.ListenAddress,
			EnableMetrics: a.config.Observability.Metrics,
			EnableHealthz: a.config.Observability.Healthz,
			Health:        a.health,
			Registry:      a.registry,
		}, a.logger)
	})
	if a.watcher != nil {
		group.Go(func() error {
			if err := a.watcher.Run(ctx); err != nil {
				a.logger.Warn("source watcher stopped", zap.Error(err))
			}
			return nil
		})
	}
	group.Go(func() error {
		return a.scheduler.Run(ctx)
	})
	return group.Wait()
}

// RefreshOnce runs a single cycle outside the scheduler.
func (a *Application) RefreshOnce(ctx context.Context) (domain.RefreshResult, error) {
	return a.updater.Refresh(ctx, a.source)
}

// Catalog returns the read path over the store.
func (a *Application) Catalog() *catalog.Service {
	return a.catalog
}

// SchedulerStatus returns the refresh loop state.
func (a *Application) SchedulerStatus() domain.SchedulerStatus {
	return a.scheduler.Status()
}

// publishCatalogSize seeds the record gauge from what is already on disk, so
// it is accurate before the first cycle.
func (a *Application) publishCatalogSize(ctx context.Context) {
	count, err := a.store.Count(ctx)
	if err != nil {
		a.logger.Warn("count catalog records", zap.Error(err))
		return
	}
	a.metrics.SetCatalogRecords(count)
	a.logger.Info("catalog store opened", zap.Int(telemetry.FieldRecords, count))
}
