package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewWithRegisterer(reg)

	r.RecordRefresh("h1", "ok")
	r.RecordRefresh("h1", "ok")
	r.RecordCandlesUpserted("BTC-USD", "h1", 10)
	r.RecordLastClose("BTC-USD", "h1", 42000.5)
	r.RecordNotification("telegram", "skipped")
	r.RecordCronRun("h1", "error")
	r.RecordProviderLatency("1h", 0.2)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.refreshTotal.WithLabelValues("h1", "ok")))
	assert.Equal(t, 10.0, testutil.ToFloat64(r.candlesUpserted.WithLabelValues("BTC-USD", "h1")))
	assert.Equal(t, 42000.5, testutil.ToFloat64(r.lastClose.WithLabelValues("BTC-USD", "h1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.notifications.WithLabelValues("telegram", "skipped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.cronRuns.WithLabelValues("h1", "error")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.providerLatency))
}
