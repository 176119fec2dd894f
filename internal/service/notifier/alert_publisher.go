package notifier

import (
	"context"
	"fmt"
	"strings"

	applogger "TickerBot/pkg/logger"
)

const maxAlertEntries = 10

// AlertPublisher pushes aggregated error logs to a chat channel.
type AlertPublisher struct {
	hub     *Hub
	channel string
	app     string
}

// NewAlertPublisher returns a logger.Publisher that sends to channel.
func NewAlertPublisher(hub *Hub, channel, app string) *AlertPublisher {
	return &AlertPublisher{hub: hub, channel: channel, app: app}
}

var _ applogger.Publisher = (*AlertPublisher)(nil)

func (p *AlertPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	entries, ok := payload.([]applogger.AggregatedLogEntry)
	if !ok {
		return fmt.Errorf("alert publisher: unexpected payload %T", payload)
	}
	if len(entries) == 0 {
		return nil
	}
	if out := p.hub.Send(ctx, p.channel, FormatAlert(p.app, topic, entries)); out == OutcomeFailed {
		return fmt.Errorf("alert publisher: %s delivery failed", p.channel)
	}
	return nil
}

// FormatAlert renders aggregated entries as one chat message.
func FormatAlert(app, topic string, entries []applogger.AggregatedLogEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s* %s: %d distinct errors\n", app, topic, len(entries))
	for i, e := range entries {
		if i == maxAlertEntries {
			fmt.Fprintf(&b, "... and %d more\n", len(entries)-maxAlertEntries)
			break
		}
		fmt.Fprintf(&b, "- [%s] %s (x%d) %s\n", e.Level, e.Message, e.Count, e.Caller)
	}
	return b.String()
}
