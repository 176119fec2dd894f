package logger

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// Publisher receives batches of aggregated error logs.
type Publisher interface {
	PublishMessage(ctx context.Context, topic string, payload interface{}) error
}

type CollectionConfig struct {
	TimeInterval   time.Duration // flush period, 30s when unset
	CountThreshold int           // distinct entries that force an early flush; 0 disables
	Topic          string
	Publisher      Publisher
}

// AggregatedLogEntry is one distinct warn/error line and how often it was seen.
type AggregatedLogEntry struct {
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields"`
	Caller    string                 `json:"caller"`
	Count     int                    `json:"count"`
	FirstSeen time.Time              `json:"first_seen"`
	LastSeen  time.Time              `json:"last_seen"`
}

const (
	publishTimeout = 30 * time.Second
	pendingBatches = 4
)

// LogCollector folds repeated log lines together and hands them to the
// publisher from a single goroutine, so logging never waits on delivery.
type LogCollector struct {
	cfg CollectionConfig

	mu      sync.Mutex
	pending map[string]*AggregatedLogEntry

	batches   chan []AggregatedLogEntry
	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

func NewLogCollector(config *CollectionConfig) *LogCollector {
	cfg := *config
	if cfg.TimeInterval <= 0 {
		cfg.TimeInterval = 30 * time.Second
	}

	c := &LogCollector{
		cfg:     cfg,
		pending: make(map[string]*AggregatedLogEntry),
		batches: make(chan []AggregatedLogEntry, pendingBatches),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go c.run()
	return c
}

func (c *LogCollector) AddLog(level, message string, fields map[string]interface{}, caller string) {
	now := time.Now()
	key := entryKey(level, message, fields, caller)

	c.mu.Lock()
	if e, ok := c.pending[key]; ok {
		e.Count++
		e.LastSeen = now
	} else {
		c.pending[key] = &AggregatedLogEntry{
			Level:     level,
			Message:   message,
			Fields:    fields,
			Caller:    caller,
			Count:     1,
			FirstSeen: now,
			LastSeen:  now,
		}
	}
	var batch []AggregatedLogEntry
	if c.cfg.CountThreshold > 0 && len(c.pending) >= c.cfg.CountThreshold {
		batch = c.drainLocked()
	}
	c.mu.Unlock()

	if batch == nil {
		return
	}
	select {
	case c.batches <- batch:
	default:
		fmt.Fprintf(os.Stderr, "log collector: dropped %d aggregated entries, publisher is behind\n", len(batch))
	}
}

// Close publishes whatever is pending and stops the flush loop.
func (c *LogCollector) Close() {
	c.closeOnce.Do(func() { close(c.stop) })
	<-c.done
}

func (c *LogCollector) run() {
	defer close(c.done)

	ticker := time.NewTicker(c.cfg.TimeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.publish(c.drain())
		case b := <-c.batches:
			c.publish(b)
		case <-c.stop:
			for {
				select {
				case b := <-c.batches:
					c.publish(b)
				default:
					c.publish(c.drain())
					return
				}
			}
		}
	}
}

func (c *LogCollector) drain() []AggregatedLogEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.drainLocked()
}

func (c *LogCollector) drainLocked() []AggregatedLogEntry {
	if len(c.pending) == 0 {
		return nil
	}
	out := make([]AggregatedLogEntry, 0, len(c.pending))
	for _, e := range c.pending {
		out = append(out, *e)
	}
	c.pending = make(map[string]*AggregatedLogEntry)

	sort.Slice(out, func(i, j int) bool { return out[i].FirstSeen.Before(out[j].FirstSeen) })
	return out
}

func (c *LogCollector) publish(batch []AggregatedLogEntry) {
	if len(batch) == 0 || c.cfg.Publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	// The logger cannot log its own publish failures.
	if err := c.cfg.Publisher.PublishMessage(ctx, c.cfg.Topic, batch); err != nil {
		fmt.Fprintf(os.Stderr, "publish aggregated logs: %v\n", err)
	}
}

// entryKey identifies a log line by level, caller, message and sorted fields.
func entryKey(level, message string, fields map[string]interface{}, caller string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(level)
	b.WriteByte('|')
	b.WriteString(caller)
	b.WriteByte('|')
	b.WriteString(message)
	for _, k := range keys {
		fmt.Fprintf(&b, "|%s=%v", k, fields[k])
	}
	return b.String()
}
