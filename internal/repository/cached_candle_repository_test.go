package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"TickerBot/internal/domain/models"
	"TickerBot/pkg/cache"
	applogger "TickerBot/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockCandleRepo struct {
	mock.Mock
}

func (m *mockCandleRepo) Upsert(ctx context.Context, candles []models.Candle) ([]models.Candle, error) {
	args := m.Called(ctx, candles)
	out, _ := args.Get(0).([]models.Candle)
	return out, args.Error(1)
}

func (m *mockCandleRepo) GetAll(ctx context.Context, filter models.CandleFilter) ([]models.Candle, error) {
	args := m.Called(ctx, filter)
	out, _ := args.Get(0).([]models.Candle)
	return out, args.Error(1)
}

func newCachedRepo(t *testing.T, next *mockCandleRepo) *CachedCandleRepository {
	mc := cache.NewMemoryCache()
	t.Cleanup(func() { _ = mc.Close() })
	return NewCachedCandleRepository(next, mc, time.Minute, applogger.Nop())
}

func TestCachedGetAllHitsStoreOnce(t *testing.T) {
	ctx := context.Background()
	next := &mockCandleRepo{}
	filter := models.CandleFilter{Ticker: "BTC-USD", Interval: "h1"}
	stored := []models.Candle{candleAt("BTC-USD", "h1", base, "100")}
	next.On("GetAll", ctx, filter).Return(stored, nil).Once()

	repo := newCachedRepo(t, next)

	for i := 0; i < 3; i++ {
		got, err := repo.GetAll(ctx, filter)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "100", got[0].Close)
		assert.True(t, base.Equal(got[0].Date))
	}
	next.AssertExpectations(t)
}

func TestCachedUpsertInvalidatesReads(t *testing.T) {
	ctx := context.Background()
	next := &mockCandleRepo{}
	filter := models.CandleFilter{Ticker: "BTC-USD"}
	batch := []models.Candle{candleAt("BTC-USD", "h1", base, "101")}

	next.On("GetAll", ctx, filter).Return([]models.Candle{candleAt("BTC-USD", "h1", base, "100")}, nil).Once()
	next.On("Upsert", ctx, batch).Return(batch, nil).Once()
	next.On("GetAll", ctx, filter).Return(batch, nil).Once()

	repo := newCachedRepo(t, next)

	first, err := repo.GetAll(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, "100", first[0].Close)

	_, err = repo.Upsert(ctx, batch)
	require.NoError(t, err)

	second, err := repo.GetAll(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, "101", second[0].Close)
	next.AssertExpectations(t)
}

func TestCachedUpsertErrorPropagates(t *testing.T) {
	ctx := context.Background()
	next := &mockCandleRepo{}
	boom := errors.New("disk full")
	batch := []models.Candle{candleAt("AAPL", "d1", base, "1")}
	next.On("Upsert", ctx, batch).Return(nil, boom)

	_, err := newCachedRepo(t, next).Upsert(ctx, batch)
	assert.ErrorIs(t, err, boom)
}

func TestCachedGetAllOverlappingUpsertDoesNotPinOldRows(t *testing.T) {
	ctx := context.Background()
	next := &mockCandleRepo{}
	filter := models.CandleFilter{Ticker: "BTC-USD", Interval: "h1"}
	old := []models.Candle{candleAt("BTC-USD", "h1", base, "1")}
	fresh := []models.Candle{candleAt("BTC-USD", "h1", base, "2")}

	entered := make(chan struct{})
	release := make(chan struct{})
	next.On("GetAll", ctx, filter).
		Run(func(mock.Arguments) {
			close(entered)
			<-release
		}).
		Return(old, nil).Once()
	next.On("Upsert", ctx, fresh).Return(fresh, nil).Once()
	next.On("GetAll", ctx, filter).Return(fresh, nil).Once()

	repo := newCachedRepo(t, next)

	done := make(chan []models.Candle)
	go func() {
		got, _ := repo.GetAll(ctx, filter)
		done <- got
	}()

	<-entered
	_, err := repo.Upsert(ctx, fresh)
	require.NoError(t, err)
	close(release)

	slow := <-done
	require.Len(t, slow, 1)
	assert.Equal(t, "1", slow[0].Close)

	got, err := repo.GetAll(ctx, filter)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "2", got[0].Close)
	next.AssertExpectations(t)
}
