package usecase

import (
	"context"
	"strings"
	"time"

	domrepo "TickerBot/internal/domain/repository"
	xutil "TickerBot/pkg/util"
)

// SettingsUseCase exposes the key-value settings store.
type SettingsUseCase struct {
	repo domrepo.SettingRepository
}

func NewSettingsUseCase(repo domrepo.SettingRepository) *SettingsUseCase {
	return &SettingsUseCase{repo: repo}
}

func (uc *SettingsUseCase) All(ctx context.Context) (map[string]string, error) {
	return uc.repo.All(ctx)
}

// Get returns domrepo.ErrNotFound when key is absent.
func (uc *SettingsUseCase) Get(ctx context.Context, key string) (string, error) {
	return uc.repo.Get(ctx, strings.TrimSpace(key))
}

func (uc *SettingsUseCase) Set(ctx context.Context, key, value string) error {
	return uc.repo.Set(ctx, strings.TrimSpace(key), value)
}

// Delete reports whether the key existed.
func (uc *SettingsUseCase) Delete(ctx context.Context, key string) (bool, error) {
	return uc.repo.Delete(ctx, strings.TrimSpace(key))
}

// LastRun parses a timestamp written by a cron job.
func (uc *SettingsUseCase) LastRun(ctx context.Context, key string) (time.Time, error) {
	v, err := uc.repo.Get(ctx, key)
	if err != nil {
		return time.Time{}, err
	}
	return xutil.ParseTimestamp(v)
}
