//go:build wireinject
// +build wireinject

package di

import (
	"sigmapips/pkg/config"
	"sigmapips/pkg/server"

	"github.com/google/wire"
)

// InitializeApp builds the full application graph from configuration.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideRedisClient,
		ProvideCache,
		ProvideQueue,
		ProvideQueueService,
		ProvideDB,
		ProvidePreferenceStore,
		ProvideClickHouseClient,
		ProvideAuditLog,
		ProvideMetrics,
		ProvideBot,
		ProvideDeliveryChannel,
		ProvideSentimentAnalyzer,
		ProvideChartRenderer,
		ProvideEconomicCalendar,
		ProvideMatcher,
		ProvidePreferences,
		ProvidePipeline,
		ProvideBotInteractor,
		ProvideSignalJob,
		ProvideKafkaConsumer,
		ProvideKafkaSignalHandler,
		ProvideHTTPHandler,
		ProvideApp,
	)
	return nil, nil
}
