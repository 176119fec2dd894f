package repository

import (
	"context"

	"TickerBot/internal/domain/models"
	"TickerBot/internal/domain/repository"
	pkgkafka "TickerBot/pkg/kafka"
)

const candleEventType = "candle.upserted"

// KafkaCandlePublisher emits one message per upserted candle, keyed by ticker.
type KafkaCandlePublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaCandlePublisher creates Kafka publisher.
func NewKafkaCandlePublisher(producer *pkgkafka.Producer, topic string) repository.CandlePublisher {
	return &KafkaCandlePublisher{producer: producer, topic: topic}
}

func (p *KafkaCandlePublisher) PublishCandles(ctx context.Context, candles []models.Candle) error {
	if len(candles) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(candles))
	for i, c := range candles {
		msgs[i] = pkgkafka.Message{
			Key:   []byte(c.Ticker),
			Value: candleEvent(c),
			Headers: map[string]string{
				"event":    candleEventType,
				"interval": c.Interval,
			},
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaCandlePublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

func candleEvent(c models.Candle) map[string]interface{} {
	return map[string]interface{}{
		"ticker":   c.Ticker,
		"interval": c.Interval,
		"date":     c.Date.UTC().Unix(),
		"open":     c.Open,
		"high":     c.High,
		"low":      c.Low,
		"close":    c.Close,
	}
}

// NoopCandlePublisher drops candle events when Kafka is disabled.
type NoopCandlePublisher struct{}

func (NoopCandlePublisher) PublishCandles(context.Context, []models.Candle) error { return nil }

func (NoopCandlePublisher) Close() error { return nil }
