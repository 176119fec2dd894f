package repository

import (
	"context"
	"errors"
	"fmt"

	"TickerBot/internal/domain/models"
	"TickerBot/internal/domain/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SQLiteSettingRepository implements SettingRepository on the settings table.
type SQLiteSettingRepository struct {
	db *gorm.DB
}

func NewSQLiteSettingRepository(db *gorm.DB) *SQLiteSettingRepository {
	return &SQLiteSettingRepository{db: db}
}

var _ repository.SettingRepository = (*SQLiteSettingRepository)(nil)

func (r *SQLiteSettingRepository) All(ctx context.Context) (map[string]string, error) {
	var rows []models.Setting
	if err := r.db.WithContext(ctx).Order(`"key" ASC`).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}

	out := make(map[string]string, len(rows))
	for _, s := range rows {
		out[s.Key] = s.Value
	}
	return out, nil
}

func (r *SQLiteSettingRepository) Get(ctx context.Context, key string) (string, error) {
	var s models.Setting
	err := r.db.WithContext(ctx).Where(`"key" = ?`, key).Take(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("setting %q: %w", key, repository.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("get setting %q: %w", key, err)
	}
	return s.Value, nil
}

func (r *SQLiteSettingRepository) Set(ctx context.Context, key, value string) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&models.Setting{Key: key, Value: value}).Error
	if err != nil {
		return fmt.Errorf("set setting %q: %w", key, err)
	}
	return nil
}

func (r *SQLiteSettingRepository) Delete(ctx context.Context, key string) (bool, error) {
	res := r.db.WithContext(ctx).Where(`"key" = ?`, key).Delete(&models.Setting{})
	if res.Error != nil {
		return false, fmt.Errorf("delete setting %q: %w", key, res.Error)
	}
	return res.RowsAffected > 0, nil
}
