package repository

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"TickerBot/internal/domain/models"
	"TickerBot/internal/domain/repository"
	"TickerBot/pkg/cache"
	applogger "TickerBot/pkg/logger"
)

const candleCachePrefix = "ohlc"

// CachedCandleRepository serves GetAll from a cache and drops every cached
// read after a successful upsert.
//
// Keys carry a generation that Upsert bumps after the store write, so a read
// that overlaps an upsert can only fill a key no later reader will use.
type CachedCandleRepository struct {
	next   repository.CandleRepository
	cache  cache.Service
	ttl    time.Duration
	logger *applogger.Logger
	gen    atomic.Uint64
}

func NewCachedCandleRepository(next repository.CandleRepository, c cache.Service, ttl time.Duration, l *applogger.Logger) *CachedCandleRepository {
	return &CachedCandleRepository{next: next, cache: c, ttl: ttl, logger: l}
}

var _ repository.CandleRepository = (*CachedCandleRepository)(nil)

func (r *CachedCandleRepository) Upsert(ctx context.Context, candles []models.Candle) ([]models.Candle, error) {
	out, err := r.next.Upsert(ctx, candles)
	if err != nil {
		return nil, err
	}
	if len(candles) > 0 {
		r.gen.Add(1)
		if err := r.cache.DeleteByPattern(ctx, cache.BuildPattern(candleCachePrefix)); err != nil {
			r.logger.Warn("candle cache invalidation failed", applogger.Error(err))
		}
	}
	return out, nil
}

func (r *CachedCandleRepository) GetAll(ctx context.Context, filter models.CandleFilter) ([]models.Candle, error) {
	key := cache.GenerateKeyWithParams(candleCachePrefix, r.gen.Load(), filter.Ticker, filter.Interval)

	var cached []models.Candle
	err := r.cache.Get(ctx, key, &cached)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		r.logger.Warn("candle cache read failed", applogger.String("key", key), applogger.Error(err))
	}

	candles, err := r.next.GetAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	if err := r.cache.Set(ctx, key, candles, r.ttl); err != nil {
		r.logger.Warn("candle cache write failed", applogger.String("key", key), applogger.Error(err))
	}
	return candles, nil
}
