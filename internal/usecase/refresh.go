package usecase

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"TickerBot/internal/domain/models"
	domrepo "TickerBot/internal/domain/repository"
	applogger "TickerBot/pkg/logger"
	xutil "TickerBot/pkg/util"
)

// DefaultKeepLast is how many trailing bars each refresh writes.
const DefaultKeepLast = 10

// RefreshUseCase pulls recent bars for one ticker and upserts the tail.
type RefreshUseCase struct {
	provider  domrepo.MarketData
	candles   domrepo.CandleRepository
	publisher domrepo.CandlePublisher
	metrics   domrepo.Metrics
	l         *applogger.Logger
	keepLast  int
	now       func() time.Time
}

func NewRefreshUseCase(
	provider domrepo.MarketData,
	candles domrepo.CandleRepository,
	publisher domrepo.CandlePublisher,
	metrics domrepo.Metrics,
	l *applogger.Logger,
	keepLast int,
) *RefreshUseCase {
	if keepLast <= 0 {
		keepLast = DefaultKeepLast
	}
	return &RefreshUseCase{
		provider:  provider,
		candles:   candles,
		publisher: publisher,
		metrics:   metrics,
		l:         l,
		keepLast:  keepLast,
		now:       time.Now,
	}
}

// WithClock replaces the clock, for tests.
func (uc *RefreshUseCase) WithClock(now func() time.Time) *RefreshUseCase {
	uc.now = now
	return uc
}

type RefreshResult struct {
	Ticker           string          `json:"ticker"`
	Interval         string          `json:"interval"`
	ProviderInterval string          `json:"provider_interval"`
	Fetched          []models.Bar    `json:"fetched"`
	Stored           []models.Candle `json:"stored"`
}

// Refresh fetches ticker over the lookback window of interval and upserts the
// last bars under the canonical interval code. Stored is newest first.
func (uc *RefreshUseCase) Refresh(ctx context.Context, ticker, interval string) (*RefreshResult, error) {
	ticker = strings.TrimSpace(ticker)
	if ticker == "" {
		return nil, errors.New("refresh: ticker is required")
	}

	providerInterval, err := domrepo.ToProviderFormat(interval)
	if err != nil {
		uc.metrics.RecordRefresh(interval, "invalid")
		return nil, err
	}

	now := uc.now()
	start := xutil.StartOfDay(now.Add(-domrepo.LookbackWindow(providerInterval)))

	began := time.Now()
	bars, err := uc.provider.Fetch(ctx, domrepo.FetchRequest{
		Ticker:   ticker,
		Start:    start,
		End:      now,
		Interval: providerInterval,
	})
	uc.metrics.RecordProviderLatency(providerInterval, time.Since(began).Seconds())
	if err != nil {
		uc.metrics.RecordRefresh(providerInterval, "error")
		return nil, err
	}

	result := &RefreshResult{
		Ticker:           ticker,
		ProviderInterval: providerInterval,
		Fetched:          bars,
		Stored:           []models.Candle{},
	}
	if result.Fetched == nil {
		result.Fetched = []models.Bar{}
	}

	if len(bars) == 0 {
		uc.metrics.RecordRefresh(providerInterval, "empty")
		uc.l.Info("refresh: no data",
			applogger.String("ticker", ticker),
			applogger.String("interval", providerInterval),
		)
		return result, nil
	}

	canonical, err := domrepo.NormalizeInterval(providerInterval)
	if err != nil {
		uc.metrics.RecordRefresh(providerInterval, "invalid")
		return nil, err
	}
	result.Interval = canonical.String()

	tail := bars
	if len(tail) > uc.keepLast {
		tail = tail[len(tail)-uc.keepLast:]
	}

	batch := make([]models.Candle, 0, len(tail))
	for _, b := range tail {
		batch = append(batch, models.Candle{
			Ticker:   ticker,
			Interval: result.Interval,
			Date:     xutil.TruncateToMinute(b.Date),
			Open:     b.Open.String(),
			High:     b.High.String(),
			Low:      b.Low.String(),
			Close:    b.Close.String(),
		})
	}

	stored, err := uc.candles.Upsert(ctx, batch)
	if err != nil {
		uc.metrics.RecordRefresh(providerInterval, "error")
		return nil, err
	}

	uc.metrics.RecordRefresh(providerInterval, "ok")
	uc.metrics.RecordCandlesUpserted(ticker, result.Interval, len(stored))
	uc.metrics.RecordLastClose(ticker, result.Interval, tail[len(tail)-1].Close.InexactFloat64())

	if err := uc.publisher.PublishCandles(ctx, stored); err != nil {
		uc.l.Warn("refresh: publish candles failed",
			applogger.String("ticker", ticker),
			applogger.Error(err),
		)
	}

	sorted := append([]models.Candle(nil), stored...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.After(sorted[j].Date) })
	result.Stored = sorted

	uc.l.Info("refresh: candles stored",
		applogger.String("ticker", ticker),
		applogger.String("interval", result.Interval),
		applogger.Int("fetched", len(bars)),
		applogger.Int("stored", len(stored)),
	)
	return result, nil
}
