//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"

	"instancecat/internal/app/refresh"
	"instancecat/internal/domain"
	"instancecat/internal/infra/store"
)

var CoreInfraSet = wire.NewSet(
	NewLogging,
	NewLogger,
	NewMetricsRegistry,
	NewMetrics,
	NewHealthTracker,
)

var CatalogStoreSet = wire.NewSet(
	NewStore,
	wire.Bind(new(domain.CatalogReader), new(*store.Store)),
	wire.Bind(new(domain.CatalogWriter), new(*store.Store)),
)

var RefreshSet = wire.NewSet(
	NewDataSource,
	NewParser,
	NewUpdater,
	wire.Bind(new(refresh.Refresher), new(*refresh.Updater)),
	NewScheduler,
	NewSourceWatcher,
)

var AppSet = wire.NewSet(
	CoreInfraSet,
	CatalogStoreSet,
	RefreshSet,
	NewCatalogService,
	wire.Struct(new(ApplicationOptions), "*"),
	NewApplication,
)
