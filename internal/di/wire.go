//go:build wireinject
// +build wireinject

package di

import (
	"TickerBot/internal/usecase"
	"TickerBot/pkg/config"
	"TickerBot/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideDatabase,
		ProvideCache,
		ProvideCandlePublisher,
		ProvideMarketData,
		ProvideNotifierHub,
		ProvideRefreshConfig,

		// Repositories
		ProvideCandleRepository,
		ProvideSettingRepository,

		// Use cases
		ProvideRefreshUseCase,
		ProvideCronJobs,
		ProvideLogsUseCase,
		usecase.NewSettingsUseCase,
		usecase.NewCandlesUseCase,

		// Transport
		ProvideScheduler,
		ProvideHandler,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
