package notifier

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	drepo "TickerBot/internal/domain/repository"
	applogger "TickerBot/pkg/logger"
)

const DefaultTimeout = 10 * time.Second

// Hub dispatches messages to the configured channels.
type Hub struct {
	channels map[string]Channel
	timeout  time.Duration
	metrics  drepo.Metrics
	l        *applogger.Logger
	wg       sync.WaitGroup
}

// NewHub builds a hub over channels. A zero timeout uses DefaultTimeout.
func NewHub(timeout time.Duration, m drepo.Metrics, l *applogger.Logger, channels ...Channel) *Hub {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	h := &Hub{
		channels: make(map[string]Channel, len(channels)),
		timeout:  timeout,
		metrics:  m,
		l:        l,
	}
	for _, c := range channels {
		h.channels[c.Name()] = c
	}
	return h
}

// Channels returns the registered channel names in sorted order.
func (h *Hub) Channels() []string {
	names := make([]string, 0, len(h.channels))
	for name := range h.channels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Send delivers text on channel and waits for the outcome.
func (h *Hub) Send(ctx context.Context, channel, text string) Outcome {
	c, ok := h.channels[channel]
	if !ok {
		h.l.Warn("notifier: unknown channel", applogger.String("channel", channel))
		return OutcomeSkipped
	}

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	out := c.Send(ctx, text)
	h.metrics.RecordNotification(channel, string(out))
	return out
}

// Go delivers text on channel in the background. The outcome is discarded
// and a panicking channel is logged instead of crashing the process.
func (h *Hub) Go(channel, text string) {
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				h.l.Error("notifier: delivery panicked",
					applogger.String("channel", channel),
					applogger.String("panic", fmt.Sprint(r)),
				)
				h.metrics.RecordNotification(channel, string(OutcomeFailed))
			}
		}()
		h.Send(context.Background(), channel, text)
	}()
}

// Broadcast calls Go for every channel.
func (h *Hub) Broadcast(text string) {
	for _, name := range h.Channels() {
		h.Go(name, text)
	}
}

// Wait blocks until background deliveries finish. Shutdown does not call it.
func (h *Hub) Wait() {
	h.wg.Wait()
}
