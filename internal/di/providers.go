package di

import (
	"fmt"

	"TickerBot/internal/domain/repository"
	"TickerBot/internal/handler/api"
	internalrepo "TickerBot/internal/repository"
	"TickerBot/internal/service/notifier"
	"TickerBot/internal/service/yahoo"
	"TickerBot/internal/usecase"
	"TickerBot/pkg/cache"
	"TickerBot/pkg/config"
	xhttp "TickerBot/pkg/http"
	pkgkafka "TickerBot/pkg/kafka"
	applogger "TickerBot/pkg/logger"
	"TickerBot/pkg/metrics"
	"TickerBot/pkg/scheduler"
	"TickerBot/pkg/server"
	"TickerBot/pkg/sqlite"

	gormlogger "gorm.io/gorm/logger"
)

// ProvideLogger creates the file logger with daily rotation.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		Output:      cfg.LogPath(),
		MaxSizeMB:   cfg.Log.MaxSizeMB,
		MaxAgeDays:  cfg.Log.MaxAgeDays,
		RotateDaily: true,
		Console:     cfg.Log.Console,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideDatabase opens SQLite and applies migrations.
func ProvideDatabase(cfg *config.Config) (*sqlite.Client, error) {
	level := gormlogger.Silent
	if cfg.Database.LogQueries {
		level = gormlogger.Info
	}
	client, err := sqlite.NewClient(
		sqlite.WithPath(cfg.Database.Path),
		sqlite.WithBusyTimeout(cfg.Database.BusyTimeout),
		sqlite.WithLogLevel(level),
		sqlite.WithSlowThreshold(cfg.Database.SlowQuery),
		sqlite.WithMigrations(cfg.Database.Migrate),
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite client: %w", err)
	}
	return client, nil
}

// ProvideCache creates the read cache; nil when the backend is "none".
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	newRedis := func() (*cache.RedisCache, error) {
		rc, err := cache.NewRedisCache(
			cache.WithRedisHost(cfg.Cache.Redis.Host),
			cache.WithRedisPort(cfg.Cache.Redis.Port),
			cache.WithRedisPassword(cfg.Cache.Redis.Password),
			cache.WithRedisDB(cfg.Cache.Redis.DB),
			cache.WithRedisPrefix(cfg.Cache.Redis.Prefix),
			cache.WithRedisPool(cfg.Cache.Redis.PoolSize, cfg.Cache.Redis.MinIdleConns, cfg.Cache.Redis.PoolTimeout),
		)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		return rc, nil
	}

	switch cfg.Cache.Backend {
	case "memory":
		return cache.NewMemoryCache(
			cache.WithMemoryMaxSize(cfg.Cache.MaxSize),
			cache.WithMemoryCleanup(cfg.Cache.CleanupInterval),
		), nil
	case "redis":
		rc, err := newRedis()
		if err != nil {
			return nil, err
		}
		return rc, nil
	case "layered":
		rc, err := newRedis()
		if err != nil {
			return nil, err
		}
		return cache.NewLayeredCache(rc,
			cache.WithLayeredMemorySize(cfg.Cache.MaxSize),
			cache.WithLayeredMemoryTTL(cfg.Cache.TTL),
		), nil
	default:
		return nil, nil
	}
}

// ProvideCandlePublisher publishes stored candles to Kafka when enabled.
func ProvideCandlePublisher(cfg *config.Config) (repository.CandlePublisher, error) {
	if !cfg.Kafka.Enabled {
		return internalrepo.NoopCandlePublisher{}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithDelivery(cfg.Kafka.RequiredAcks, cfg.Kafka.MaxAttempts, cfg.Kafka.Async),
		pkgkafka.WithBatching(cfg.Kafka.BatchSize, cfg.Kafka.BatchBytes, cfg.Kafka.BatchTimeout),
		pkgkafka.WithTimeouts(cfg.Kafka.WriteTimeout, cfg.Kafka.WriteTimeout),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return internalrepo.NewKafkaCandlePublisher(producer, cfg.Kafka.Topic), nil
}

// ProvideCandleRepository wraps the SQLite store with the read cache if any.
func ProvideCandleRepository(db *sqlite.Client, c cache.Service, cfg *config.Config, l *applogger.Logger) repository.CandleRepository {
	store := internalrepo.NewSQLiteCandleRepository(db.DB())
	if c == nil {
		return store
	}
	return internalrepo.NewCachedCandleRepository(store, c, cfg.Cache.TTL, l)
}

// ProvideSettingRepository creates the settings store.
func ProvideSettingRepository(db *sqlite.Client) repository.SettingRepository {
	return internalrepo.NewSQLiteSettingRepository(db.DB())
}

// ProvideMarketData creates the chart API client.
func ProvideMarketData(cfg *config.Config) repository.MarketData {
	return yahoo.New(
		yahoo.WithBaseURL(cfg.Provider.BaseURL),
		yahoo.WithUserAgent(cfg.Provider.UserAgent),
		yahoo.WithHTTPClient(xhttp.NewClient(xhttp.WithTimeout(cfg.Provider.Timeout))),
	)
}

// ProvideNotifierHub creates the chat channels and, when alerts are enabled,
// routes aggregated error logs to Telegram.
func ProvideNotifierHub(cfg *config.Config, m repository.Metrics, l *applogger.Logger) *notifier.Hub {
	client := xhttp.NewClient(xhttp.WithTimeout(cfg.Notifier.Timeout))
	tg := cfg.Notifier.Telegram
	dc := cfg.Notifier.Discord

	hub := notifier.NewHub(cfg.Notifier.Timeout, m, l,
		notifier.NewTelegram(tg.BaseURL, tg.Token, tg.ChatID, tg.RateLimit, tg.Burst, client, l),
		notifier.NewDiscord(dc.WebhookURL, dc.RateLimit, dc.Burst, client, l),
	)

	if cfg.Alerts.Enabled {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   cfg.Alerts.FlushInterval,
			CountThreshold: cfg.Alerts.CountThreshold,
			Topic:          "alerts",
			Publisher:      notifier.NewAlertPublisher(hub, notifier.ChannelTelegram, cfg.App.Name),
		})
	}
	return hub
}

// ProvideRefreshConfig reads the refresh ticker file. A missing or broken
// file is logged and leaves the ticker list empty.
func ProvideRefreshConfig(cfg *config.Config, l *applogger.Logger) *config.Refresh {
	r, err := config.LoadRefresh(cfg.App.ConfigurationFile)
	if err != nil {
		l.Error("refresh tickers unavailable", applogger.Error(err))
	}
	return r
}

// ProvideRefreshUseCase creates the refresh workflow.
func ProvideRefreshUseCase(
	provider repository.MarketData,
	candles repository.CandleRepository,
	publisher repository.CandlePublisher,
	m repository.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.RefreshUseCase {
	return usecase.NewRefreshUseCase(provider, candles, publisher, m, l, cfg.Provider.KeepLast)
}

// ProvideCronJobs creates the periodic jobs over the configured tickers.
func ProvideCronJobs(
	r *config.Refresh,
	refresh *usecase.RefreshUseCase,
	settings repository.SettingRepository,
	hub *notifier.Hub,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.CronJobs {
	return usecase.NewCronJobs(r.Tickers(), refresh, settings, hub, m, l)
}

// ProvideLogsUseCase serves the live log file and its daily backups.
func ProvideLogsUseCase(cfg *config.Config) *usecase.LogsUseCase {
	return usecase.NewLogsUseCase(cfg.LogPath())
}

// ProvideScheduler creates the cron scheduler.
func ProvideScheduler(l *applogger.Logger) *scheduler.Scheduler {
	return scheduler.New(l)
}

// ProvideHandler creates the HTTP API handler.
func ProvideHandler(
	cfg *config.Config,
	settings *usecase.SettingsUseCase,
	candles *usecase.CandlesUseCase,
	refresh *usecase.RefreshUseCase,
	cron *usecase.CronJobs,
	logs *usecase.LogsUseCase,
	hub *notifier.Hub,
	l *applogger.Logger,
) *api.Handler {
	info := api.AppInfo{
		Name:        cfg.App.Name,
		Version:     cfg.App.Version,
		EnabledCron: cfg.App.EnabledCron,
	}
	return api.NewHandler(info, settings, candles, refresh, cron, logs, hub, l)
}

// ProvideHTTPServer creates the echo server.
func ProvideHTTPServer(cfg *config.Config, h *api.Handler, l *applogger.Logger) *xhttp.Server {
	return xhttp.NewServer(h,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(cfg.Server.CORS, cfg.Server.CORSOrigins...),
		xhttp.WithLogger(l),
		xhttp.WithMetrics(cfg.Server.Metrics, cfg.Server.SlowRequest),
	)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	httpServer *xhttp.Server,
	sched *scheduler.Scheduler,
	cron *usecase.CronJobs,
	publisher repository.CandlePublisher,
	c cache.Service,
	db *sqlite.Client,
) *server.App {
	return server.New(cfg, l, httpServer, sched, cron, publisher, c, db)
}
