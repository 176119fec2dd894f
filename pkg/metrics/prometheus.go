package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	refreshTotal    *prometheus.CounterVec
	candlesUpserted *prometheus.CounterVec
	lastClose       *prometheus.GaugeVec
	providerLatency *prometheus.HistogramVec
	notifications   *prometheus.CounterVec
	cronRuns        *prometheus.CounterVec
}

// New creates a recorder registered on the default registry.
func New() *Recorder {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates a recorder on reg; tests pass a fresh registry.
func NewWithRegisterer(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		refreshTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tickerbot_refresh_total",
				Help: "Refresh workflow runs by interval and result",
			},
			[]string{"interval", "result"},
		),
		candlesUpserted: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tickerbot_candles_upserted_total",
				Help: "Candles written to the store",
			},
			[]string{"ticker", "interval"},
		),
		lastClose: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tickerbot_last_close",
				Help: "Close of the newest stored candle",
			},
			[]string{"ticker", "interval"},
		),
		providerLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tickerbot_provider_fetch_seconds",
				Help:    "Market data fetch latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"interval"},
		),
		notifications: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tickerbot_notifications_total",
				Help: "Notification attempts by channel and outcome",
			},
			[]string{"channel", "outcome"},
		),
		cronRuns: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tickerbot_cron_runs_total",
				Help: "Scheduled job runs by job and result",
			},
			[]string{"job", "result"},
		),
	}
}

func (r *Recorder) RecordRefresh(interval, result string) {
	r.refreshTotal.WithLabelValues(interval, result).Inc()
}

func (r *Recorder) RecordCandlesUpserted(ticker, interval string, n int) {
	r.candlesUpserted.WithLabelValues(ticker, interval).Add(float64(n))
}

func (r *Recorder) RecordLastClose(ticker, interval string, price float64) {
	r.lastClose.WithLabelValues(ticker, interval).Set(price)
}

func (r *Recorder) RecordProviderLatency(interval string, seconds float64) {
	r.providerLatency.WithLabelValues(interval).Observe(seconds)
}

func (r *Recorder) RecordNotification(channel, outcome string) {
	r.notifications.WithLabelValues(channel, outcome).Inc()
}

func (r *Recorder) RecordCronRun(job, result string) {
	r.cronRuns.WithLabelValues(job, result).Inc()
}

// Nop discards all measurements.
type Nop struct{}

func (Nop) RecordRefresh(string, string)              {}
func (Nop) RecordCandlesUpserted(string, string, int) {}
func (Nop) RecordLastClose(string, string, float64)   {}
func (Nop) RecordProviderLatency(string, float64)     {}
func (Nop) RecordNotification(string, string)         {}
func (Nop) RecordCronRun(string, string)              {}
