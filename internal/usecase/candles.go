package usecase

import (
	"context"
	"errors"
	"strings"

	"TickerBot/internal/domain/models"
	domrepo "TickerBot/internal/domain/repository"
)

// CandlesUseCase reads stored candles.
type CandlesUseCase struct {
	store domrepo.CandleRepository
}

func NewCandlesUseCase(store domrepo.CandleRepository) *CandlesUseCase {
	return &CandlesUseCase{store: store}
}

type GetCandlesResult struct {
	Ticker   string          `json:"ticker"`
	Interval string          `json:"interval"`
	Count    int             `json:"count"`
	Candles  []models.Candle `json:"candles"`
}

// GetCandles normalizes interval and returns the stored candles of ticker in
// ascending date order. An empty interval returns every interval.
func (uc *CandlesUseCase) GetCandles(ctx context.Context, ticker, interval string) (*GetCandlesResult, error) {
	ticker = strings.TrimSpace(ticker)
	if ticker == "" {
		return nil, errors.New("ticker is required")
	}

	filter := models.CandleFilter{Ticker: ticker}
	if strings.TrimSpace(interval) != "" {
		iv, err := domrepo.NormalizeInterval(interval)
		if err != nil {
			return nil, err
		}
		filter.Interval = iv.String()
	}

	candles, err := uc.store.GetAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	if candles == nil {
		candles = []models.Candle{}
	}

	return &GetCandlesResult{
		Ticker:   ticker,
		Interval: filter.Interval,
		Count:    len(candles),
		Candles:  candles,
	}, nil
}
