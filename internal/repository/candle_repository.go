package repository

import (
	"context"
	"fmt"

	"TickerBot/internal/domain/models"
	"TickerBot/internal/domain/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SQLiteCandleRepository implements CandleRepository on the ohlc table.
type SQLiteCandleRepository struct {
	db *gorm.DB
}

// NewSQLiteCandleRepository creates the candle store.
func NewSQLiteCandleRepository(db *gorm.DB) *SQLiteCandleRepository {
	return &SQLiteCandleRepository{db: db}
}

var _ repository.CandleRepository = (*SQLiteCandleRepository)(nil)

func (r *SQLiteCandleRepository) Upsert(ctx context.Context, candles []models.Candle) ([]models.Candle, error) {
	if len(candles) == 0 {
		return candles, nil
	}

	// The row id is never part of the conflict key.
	rows := make([]models.Candle, len(candles))
	for i, c := range candles {
		c.ID = 0
		rows[i] = c
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "ticker"}, {Name: "interval"}, {Name: "date"}},
			DoUpdates: clause.AssignmentColumns([]string{"open", "high", "low", "close"}),
		}).Create(&rows).Error
	})
	if err != nil {
		return nil, fmt.Errorf("upsert candles: %w", err)
	}
	return rows, nil
}

func (r *SQLiteCandleRepository) GetAll(ctx context.Context, filter models.CandleFilter) ([]models.Candle, error) {
	q := r.db.WithContext(ctx).Model(&models.Candle{})
	if filter.Ticker != "" {
		q = q.Where("ticker = ?", filter.Ticker)
	}
	if filter.Interval != "" {
		q = q.Where(`"interval" = ?`, filter.Interval)
	}

	var candles []models.Candle
	if err := q.Order(`"date" ASC`).Order("id ASC").Find(&candles).Error; err != nil {
		return nil, fmt.Errorf("get candles: %w", err)
	}
	return candles, nil
}

// Count returns the number of stored candles.
func (r *SQLiteCandleRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Candle{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count candles: %w", err)
	}
	return n, nil
}
