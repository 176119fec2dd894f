package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"TickerBot/internal/domain/models"
	"TickerBot/internal/repository"
	"TickerBot/internal/service/yahoo"
	"TickerBot/internal/usecase"
	xhttp "TickerBot/pkg/http"
	xlogger "TickerBot/pkg/logger"
	"TickerBot/pkg/metrics"
	"TickerBot/pkg/scheduler"
	"TickerBot/pkg/sqlite"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 3, 10, 12, 34, 56, 0, time.UTC)

type pushed struct {
	mu   sync.Mutex
	msgs []string
}

func (p *pushed) Go(channel, text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, channel+":"+text)
}

type env struct {
	e       *echo.Echo
	pushed  *pushed
	logDir  string
	candles *repository.SQLiteCandleRepository
	cron    *usecase.CronJobs
}

// chart returns n hourly bars ending before testNow.
func chart(n int) string {
	ts := make([]string, n)
	closes := make([]string, n)
	first := testNow.Truncate(time.Hour).Add(-time.Duration(n) * time.Hour)
	for i := 0; i < n; i++ {
		ts[i] = jsonInt(first.Add(time.Duration(i) * time.Hour).Unix())
		closes[i] = "8400" + jsonInt(int64(i)) + ".25"
	}
	col := "[" + strings.Join(closes, ",") + "]"
	return `{"chart":{"result":[{"timestamp":[` + strings.Join(ts, ",") + `],"indicators":{"quote":[{"open":` + col +
		`,"high":` + col + `,"low":` + col + `,"close":` + col + `,"volume":` + col + `}]}}],"error":null}}`
}

func jsonInt(v int64) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func newEnv(t *testing.T, rows int) *env {
	t.Helper()

	vendor := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/NOPE") {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`))
			return
		}
		_, _ = w.Write([]byte(chart(rows)))
	}))
	t.Cleanup(vendor.Close)

	db, err := sqlite.NewClient(sqlite.WithPath(sqlite.MemoryPath))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	logDir := t.TempDir()
	l := xlogger.Nop()
	candles := repository.NewSQLiteCandleRepository(db.DB())
	settings := repository.NewSQLiteSettingRepository(db.DB())
	provider := yahoo.New(yahoo.WithBaseURL(vendor.URL), yahoo.WithClock(func() time.Time { return testNow }))
	refresh := usecase.NewRefreshUseCase(provider, candles, repository.NoopCandlePublisher{}, metrics.Nop{}, l, 10).
		WithClock(func() time.Time { return testNow })
	p := &pushed{}
	cron := usecase.NewCronJobs([]string{"BTC-USD"}, refresh, settings, p, metrics.Nop{}, l)

	h := NewHandler(
		AppInfo{Name: "TemplateBot", Version: "2025.12.17", EnabledCron: false},
		usecase.NewSettingsUseCase(settings),
		usecase.NewCandlesUseCase(candles),
		refresh,
		cron,
		usecase.NewLogsUseCase(filepath.Join(logDir, "development.log")),
		p,
		l,
	)

	e := echo.New()
	h.RegisterRoutes(e)
	return &env{e: e, pushed: p, logDir: logDir, candles: candles, cron: cron}
}

func (v *env) do(method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	v.e.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst))
}

func TestRoot(t *testing.T) {
	v := newEnv(t, 0)
	rec := v.do(http.MethodGet, "/")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	decode(t, rec, &body)
	assert.Equal(t, "TemplateBot", body["app_name"])
	assert.Equal(t, "2025.12.17", body["app_version"])
	assert.Equal(t, false, body["enabled_cron"])

	rec = v.do(http.MethodGet, "/health")
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestSettingsEndpoints(t *testing.T) {
	v := newEnv(t, 0)

	rec := v.do(http.MethodPost, "/settings?key=foo&value=bar")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"key":"foo","value":"bar"}`, rec.Body.String())

	rec = v.do(http.MethodGet, "/settings")
	assert.JSONEq(t, `{"settings":{"foo":"bar"}}`, rec.Body.String())

	rec = v.do(http.MethodGet, "/settings/foo")
	assert.JSONEq(t, `{"key":"foo","value":"bar"}`, rec.Body.String())

	rec = v.do(http.MethodDelete, "/settings/foo")
	assert.JSONEq(t, `{"key":"foo","value":true}`, rec.Body.String())

	rec = v.do(http.MethodGet, "/settings/foo")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = v.do(http.MethodDelete, "/settings/foo")
	assert.JSONEq(t, `{"key":"foo","value":false}`, rec.Body.String())

	rec = v.do(http.MethodPost, "/settings?value=bar")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSaveSettingFromJSONBody(t *testing.T) {
	v := newEnv(t, 0)

	req := httptest.NewRequest(http.MethodPost, "/settings", bytes.NewBufferString(`{"key":"a","value":"1"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	v.e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"key":"a","value":"1"}`, rec.Body.String())
}

func TestOHLCAfterRefresh(t *testing.T) {
	v := newEnv(t, 12)

	rec := v.do(http.MethodGet, "/ohlc/BTC-USD/h1/refresh")
	require.Equal(t, http.StatusOK, rec.Code)
	var fetched []models.Bar
	decode(t, rec, &fetched)
	assert.Len(t, fetched, 12)

	rec = v.do(http.MethodGet, "/ohlc/BTC-USD/1H")
	require.Equal(t, http.StatusOK, rec.Code)
	var stored []models.Candle
	decode(t, rec, &stored)
	require.Len(t, stored, 10)
	for i, c := range stored {
		assert.Equal(t, "h1", c.Interval)
		assert.Equal(t, "BTC-USD", c.Ticker)
		if i > 0 {
			assert.True(t, c.Date.After(stored[i-1].Date))
		}
	}
	assert.Equal(t, "840011.25", stored[9].Close)
}

func TestOHLCRefreshStoredResult(t *testing.T) {
	v := newEnv(t, 3)

	rec := v.do(http.MethodGet, "/ohlc/BTC-USD/60/refresh?result=stored")
	require.Equal(t, http.StatusOK, rec.Code)
	var stored []models.Candle
	decode(t, rec, &stored)
	require.Len(t, stored, 3)
	assert.True(t, stored[0].Date.After(stored[2].Date))
}

func TestOHLCUnknownInterval(t *testing.T) {
	v := newEnv(t, 0)

	rec := v.do(http.MethodGet, "/ohlc/BTC-USD/2h")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body struct {
		Status int               `json:"status"`
		Data   []*xhttp.AppError `json:"data"`
	}
	decode(t, rec, &body)
	assert.Equal(t, http.StatusBadRequest, body.Status)
	require.Len(t, body.Data, 1)
	assert.Equal(t, xhttp.CodeInterval, body.Data[0].Code)
	assert.Equal(t, "interval", body.Data[0].Field)
	assert.Equal(t, "2h", body.Data[0].Params["value"])
	assert.Equal(t, []interface{}{"m5", "m15", "h1", "h4", "d1"}, body.Data[0].Params["options"])

	rec = v.do(http.MethodGet, "/ohlc/BTC-USD/h4/refresh")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOHLCRefreshUnknownTickerIsEmpty(t *testing.T) {
	v := newEnv(t, 0)

	rec := v.do(http.MethodGet, "/ohlc/NOPE/d1/refresh")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestCronjobRunsWhileSchedulingDisabled(t *testing.T) {
	v := newEnv(t, 2)

	n, err := v.cron.Register(scheduler.New(xlogger.Nop()), false)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	rec := v.do(http.MethodGet, "/cronjob/h1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"interval":"h1"}`, rec.Body.String())

	rec = v.do(http.MethodGet, "/settings/cronjob_h1_updated_at")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = v.do(http.MethodGet, "/ohlc/BTC-USD/h1")
	var stored []models.Candle
	decode(t, rec, &stored)
	assert.Len(t, stored, 2)

	rec = v.do(http.MethodGet, "/cronjob/m5")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCronjobCompletesAfterClientDisconnect(t *testing.T) {
	v := newEnv(t, 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/cronjob/h1", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	v.e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = v.do(http.MethodGet, "/ohlc/BTC-USD/h1")
	var stored []models.Candle
	decode(t, rec, &stored)
	assert.Len(t, stored, 3)
}

func TestNotifyEndpoints(t *testing.T) {
	v := newEnv(t, 0)

	rec := v.do(http.MethodGet, "/telegram")
	assert.JSONEq(t, `{"message":"hello from TemplateBot"}`, rec.Body.String())

	rec = v.do(http.MethodGet, "/discord?msg=ping")
	assert.JSONEq(t, `{"message":"ping"}`, rec.Body.String())

	assert.Equal(t, []string{"telegram:hello from TemplateBot", "discord:ping"}, v.pushed.msgs)
}

func TestLogsEndpoint(t *testing.T) {
	v := newEnv(t, 0)

	rec := v.do(http.MethodGet, "/logs")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var b strings.Builder
	for i := 0; i < 30; i++ {
		b.WriteString("entry\n")
	}
	require.NoError(t, os.WriteFile(filepath.Join(v.logDir, "development.log"), []byte(b.String()), 0o644))

	rec = v.do(http.MethodGet, "/logs?lines=5")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 10, strings.Count(rec.Body.String(), "\n"))
	assert.Equal(t, `inline; filename="development.log"`, rec.Header().Get(echo.HeaderContentDisposition))
}
