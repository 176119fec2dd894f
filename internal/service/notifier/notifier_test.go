package notifier

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	pkghttp "TickerBot/pkg/http"
	applogger "TickerBot/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	mu    sync.Mutex
	paths []string
	forms []url.Values
}

func (r *recorded) handler(status int) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		_ = req.ParseForm()
		r.mu.Lock()
		r.paths = append(r.paths, req.URL.Path)
		r.forms = append(r.forms, req.PostForm)
		r.mu.Unlock()
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}
}

type countingMetrics struct {
	mu       sync.Mutex
	outcomes map[string]int
}

func newCountingMetrics() *countingMetrics { return &countingMetrics{outcomes: map[string]int{}} }

func (m *countingMetrics) RecordRefresh(string, string)              {}
func (m *countingMetrics) RecordCandlesUpserted(string, string, int) {}
func (m *countingMetrics) RecordLastClose(string, string, float64)   {}
func (m *countingMetrics) RecordProviderLatency(string, float64)     {}
func (m *countingMetrics) RecordCronRun(string, string)              {}
func (m *countingMetrics) RecordNotification(channel, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes[channel+"/"+outcome]++
}

func (m *countingMetrics) get(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.outcomes[key]
}

func TestTelegramSend(t *testing.T) {
	rec := &recorded{}
	srv := httptest.NewServer(rec.handler(http.StatusOK))
	defer srv.Close()

	tg := NewTelegram(srv.URL, "TOKEN", "42", 0, 0, pkghttp.NewClient(), applogger.Nop())
	assert.Equal(t, OutcomeSent, tg.Send(context.Background(), "hello *bot*"))

	require.Len(t, rec.paths, 1)
	assert.Equal(t, "/botTOKEN/sendMessage", rec.paths[0])
	assert.Equal(t, "42", rec.forms[0].Get("chat_id"))
	assert.Equal(t, "hello *bot*", rec.forms[0].Get("text"))
	assert.Equal(t, "Markdown", rec.forms[0].Get("parse_mode"))
}

func TestTelegramSkips(t *testing.T) {
	ctx := context.Background()
	client := pkghttp.NewClient()

	assert.Equal(t, OutcomeSkipped, NewTelegram("http://unused", "", "42", 0, 0, client, applogger.Nop()).Send(ctx, "x"))
	assert.Equal(t, OutcomeSkipped, NewTelegram("http://unused", "TOKEN", "", 0, 0, client, applogger.Nop()).Send(ctx, "x"))
	assert.Equal(t, OutcomeSkipped, NewTelegram("http://unused", "TOKEN", "42", 0, 0, client, applogger.Nop()).Send(ctx, ""))
}

func TestDiscordSendAndFailure(t *testing.T) {
	rec := &recorded{}
	ok := httptest.NewServer(rec.handler(http.StatusNoContent))
	defer ok.Close()
	bad := httptest.NewServer((&recorded{}).handler(http.StatusBadRequest))
	defer bad.Close()

	client := pkghttp.NewClient()
	assert.Equal(t, OutcomeSent, NewDiscord(ok.URL+"/api/webhooks/1/abc", 0, 0, client, applogger.Nop()).Send(context.Background(), "hi"))
	require.Len(t, rec.forms, 1)
	assert.Equal(t, "hi", rec.forms[0].Get("content"))
	assert.Equal(t, "/api/webhooks/1/abc", rec.paths[0])

	assert.Equal(t, OutcomeFailed, NewDiscord(bad.URL, 0, 0, client, applogger.Nop()).Send(context.Background(), "hi"))
	assert.Equal(t, OutcomeSkipped, NewDiscord("", 0, 0, client, applogger.Nop()).Send(context.Background(), "hi"))
}

func TestNetworkErrorIsFailed(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	d := NewDiscord(addr, 0, 0, pkghttp.NewClient(pkghttp.WithTimeout(time.Second)), applogger.Nop())
	assert.Equal(t, OutcomeFailed, d.Send(context.Background(), "hi"))
}

type panicChannel struct{}

func (panicChannel) Name() string                         { return "panic" }
func (panicChannel) Send(context.Context, string) Outcome { panic("boom") }

func TestHubGoRecoversPanics(t *testing.T) {
	m := newCountingMetrics()
	hub := NewHub(time.Second, m, applogger.Nop(), panicChannel{})

	assert.NotPanics(t, func() {
		hub.Go("panic", "x")
		hub.Wait()
	})
	assert.Equal(t, 1, m.get("panic/failed"))
}

func TestHubBroadcast(t *testing.T) {
	rec := &recorded{}
	srv := httptest.NewServer(rec.handler(http.StatusOK))
	defer srv.Close()

	m := newCountingMetrics()
	client := pkghttp.NewClient()
	hub := NewHub(0, m, applogger.Nop(),
		NewTelegram(srv.URL, "T", "1", 0, 0, client, applogger.Nop()),
		NewDiscord("", 0, 0, client, applogger.Nop()),
	)

	assert.Equal(t, []string{ChannelDiscord, ChannelTelegram}, hub.Channels())
	hub.Broadcast("executed cronjob: h1")
	hub.Wait()

	assert.Equal(t, 1, m.get("telegram/sent"))
	assert.Equal(t, 1, m.get("discord/skipped"))
	assert.Equal(t, OutcomeSkipped, hub.Send(context.Background(), "sms", "x"))
}

func TestAlertPublisher(t *testing.T) {
	rec := &recorded{}
	srv := httptest.NewServer(rec.handler(http.StatusOK))
	defer srv.Close()

	hub := NewHub(0, newCountingMetrics(), applogger.Nop(), NewTelegram(srv.URL, "T", "1", 0, 0, pkghttp.NewClient(), applogger.Nop()))
	pub := NewAlertPublisher(hub, ChannelTelegram, "TickerBot")

	entries := []applogger.AggregatedLogEntry{{Level: "error", Message: "refresh failed", Count: 3, Caller: "/internal/usecase/cronjob.go:10"}}
	require.NoError(t, pub.PublishMessage(context.Background(), "alerts", entries))
	require.Len(t, rec.forms, 1)
	assert.Contains(t, rec.forms[0].Get("text"), "refresh failed (x3)")

	assert.Error(t, pub.PublishMessage(context.Background(), "alerts", "nope"))
}

func TestFormatAlertCapsEntries(t *testing.T) {
	entries := make([]applogger.AggregatedLogEntry, 12)
	for i := range entries {
		entries[i] = applogger.AggregatedLogEntry{Level: "error", Message: "m", Count: 1}
	}
	msg := FormatAlert("app", "alerts", entries)
	assert.Contains(t, msg, "12 distinct errors")
	assert.Contains(t, msg, "... and 2 more")
}
