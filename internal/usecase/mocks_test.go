package usecase

import (
	"context"
	"sync"

	"TickerBot/internal/domain/models"
	domrepo "TickerBot/internal/domain/repository"
	"TickerBot/pkg/metrics"

	"github.com/stretchr/testify/mock"
)

type mockProvider struct{ mock.Mock }

func (m *mockProvider) Fetch(ctx context.Context, req domrepo.FetchRequest) ([]models.Bar, error) {
	args := m.Called(ctx, req)
	out, _ := args.Get(0).([]models.Bar)
	return out, args.Error(1)
}

type mockCandles struct{ mock.Mock }

func (m *mockCandles) Upsert(ctx context.Context, candles []models.Candle) ([]models.Candle, error) {
	args := m.Called(ctx, candles)
	if fn, ok := args.Get(0).(func(context.Context, []models.Candle) []models.Candle); ok {
		return fn(ctx, candles), args.Error(1)
	}
	out, _ := args.Get(0).([]models.Candle)
	return out, args.Error(1)
}

func (m *mockCandles) GetAll(ctx context.Context, filter models.CandleFilter) ([]models.Candle, error) {
	args := m.Called(ctx, filter)
	out, _ := args.Get(0).([]models.Candle)
	return out, args.Error(1)
}

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) PublishCandles(ctx context.Context, candles []models.Candle) error {
	return m.Called(ctx, candles).Error(0)
}

func (m *mockPublisher) Close() error { return nil }

type mockRefresher struct{ mock.Mock }

func (m *mockRefresher) Refresh(ctx context.Context, ticker, interval string) (*RefreshResult, error) {
	args := m.Called(ctx, ticker, interval)
	out, _ := args.Get(0).(*RefreshResult)
	return out, args.Error(1)
}

type memSettings struct {
	mu sync.Mutex
	m  map[string]string
}

func newMemSettings() *memSettings { return &memSettings{m: map[string]string{}} }

func (s *memSettings) All(context.Context) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.m))
	for k, v := range s.m {
		out[k] = v
	}
	return out, nil
}

func (s *memSettings) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.m[key]
	if !ok {
		return "", domrepo.ErrNotFound
	}
	return v, nil
}

func (s *memSettings) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = value
	return nil
}

func (s *memSettings) Delete(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.m[key]
	delete(s.m, key)
	return ok, nil
}

type sentMessage struct {
	channel string
	text    string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (n *recordingNotifier) Go(channel, text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentMessage{channel, text})
}

var nopMetrics domrepo.Metrics = metrics.Nop{}
