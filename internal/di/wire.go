//go:build wireinject
// +build wireinject

package di

import (
	"BiasEngine/pkg/config"
	"BiasEngine/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideLogQueue,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideCacheService,

		// Repositories
		ProvideScoreArchive,
		ProvideScorePublisher,
		ProvideSnapshotStore,

		// Engine
		ProvideRegistry,
		ProvideEngine,
		ProvideOrchestrator,

		// Ingestion
		ProvideRecordCollector,
		ProvideKafkaRecordsHandler,

		// HTTP
		ProvideHTTPHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
