//go:build wireinject
// +build wireinject

package di

import (
	wire "github.com/google/wire"

	"fbd/internal"
	"fbd/internal/baseline"
	"fbd/internal/controllers"
	"fbd/internal/providers"
	"fbd/internal/structures"
)

func InitApp(cfg *structures.CliFlags) (*internal.App, error) {

	wire.Build(
		providers.NewConfigProvider,
		providers.NewLogProvider,
		providers.NewMetricsProvider,
		providers.NewInstrumentedCacheProvider,
		providers.NewLedgerProvider,
		providers.NewEncryptionProvider,

		baseline.NewZstdCompressor,
		baseline.NewStore,
		baseline.NewEngine,
		baseline.NewScheduler,
		controllers.NewApiController,
		controllers.NewDebugController,
		controllers.NewHealthController,
		internal.InitRoutes,
		internal.NewApp,
	)

	return nil, nil
}
