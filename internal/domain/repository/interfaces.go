package repository

import (
	"context"
	"time"

	"TickerBot/internal/domain/models"
)

type CandleRepository interface {
	// Upsert inserts or updates candles keyed by (ticker, interval, date) in one transaction.
	Upsert(ctx context.Context, candles []models.Candle) ([]models.Candle, error)
	GetAll(ctx context.Context, filter models.CandleFilter) ([]models.Candle, error)
}

type SettingRepository interface {
	All(ctx context.Context) (map[string]string, error)
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) (bool, error)
}

// FetchRequest describes one vendor query. A zero End means now.
type FetchRequest struct {
	Ticker   string
	Start    time.Time
	End      time.Time
	Interval string
}

type MarketData interface {
	Fetch(ctx context.Context, req FetchRequest) ([]models.Bar, error)
}

type CandlePublisher interface {
	PublishCandles(ctx context.Context, candles []models.Candle) error
	Close() error
}

type Metrics interface {
	RecordRefresh(interval, result string)
	RecordCandlesUpserted(ticker, interval string, n int)
	RecordLastClose(ticker, interval string, price float64)
	RecordProviderLatency(interval string, seconds float64)
	RecordNotification(channel, outcome string)
	RecordCronRun(job, result string)
}
