package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type settingForm struct {
	Key   string `query:"key" form:"key" json:"key" validate:"required"`
	Value string `query:"value" form:"value" json:"value"`
}

type resultForm struct {
	Result string `query:"result" default:"fetched" validate:"oneof=fetched stored"`
}

func TestReadAndValidateRequestBindsQueryOnPost(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/settings?key=foo&value=bar", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	var form settingForm
	assert.Nil(t, ReadAndValidateRequest(c, &form))
	assert.Equal(t, "foo", form.Key)
	assert.Equal(t, "bar", form.Value)
}

func TestReadAndValidateRequestRequired(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/settings", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	errs := ReadAndValidateRequest(c, &settingForm{})
	require.IsType(t, []ValidationError{}, errs)
	ve := errs.([]ValidationError)
	require.Len(t, ve, 1)
	assert.Equal(t, "ERR_REQUIRED", ve[0].Code)
	assert.Equal(t, "Key", ve[0].Field)
}

func TestReadAndValidateRequestDefaults(t *testing.T) {
	e := echo.New()

	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/refresh", nil), httptest.NewRecorder())
	var form resultForm
	assert.Nil(t, ReadAndValidateRequest(c, &form))
	assert.Equal(t, "fetched", form.Result)

	c = e.NewContext(httptest.NewRequest(http.MethodPost, "/refresh?result=bogus", nil), httptest.NewRecorder())
	errs := ReadAndValidateRequest(c, &resultForm{})
	require.NotNil(t, errs)
	assert.Equal(t, "ERR_ONEOF", errs.([]ValidationError)[0].Code)
}

func TestAppErrorResponse(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	err := NotFoundError("setting not found").WithError(errors.New("missing"))
	require.NoError(t, AppErrorResponse(c, err))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, http.StatusNotFound, body.Status)

	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	require.NoError(t, AppErrorResponse(c, errors.New("plain")))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestTextResponse(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/logs", nil), rec)

	require.NoError(t, TextResponse(c, "line\n", "app.log"))
	assert.Equal(t, `inline; filename="app.log"`, rec.Header().Get(echo.HeaderContentDisposition))
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/plain")
	assert.Equal(t, "line\n", rec.Body.String())
}

func TestClientFormBody(t *testing.T) {
	var gotCT, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCT = r.Header.Get(HeaderContentType)
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	var out struct {
		OK bool `json:"ok"`
	}
	err := NewClient().SendAndParse(context.Background(), &RequestOptions{
		Method:  MethodPost,
		URL:     srv.URL,
		Headers: map[string]string{HeaderContentType: ContentTypeForm},
		Body:    map[string]string{"text": "a b"},
	}, &out)
	require.NoError(t, err)
	assert.True(t, out.OK)
	assert.Equal(t, ContentTypeForm, gotCT)
	assert.Equal(t, "text=a+b", gotBody)
}

func TestClientStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	err := NewClient().SendAndParse(context.Background(), &RequestOptions{Method: MethodGet, URL: srv.URL}, nil)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusTooManyRequests, se.StatusCode)
}

func TestClientQueryAndUserAgent(t *testing.T) {
	var gotQuery, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		gotUA = r.Header.Get(HeaderUserAgent)
	}))
	defer srv.Close()

	var buf bytes.Buffer
	err := NewClient(WithUserAgent("tickerbot")).SendAndParse(context.Background(), &RequestOptions{
		Method: MethodGet,
		URL:    srv.URL + "/chart?a=1",
		Query:  url.Values{"b": {"2"}},
	}, &buf)
	require.NoError(t, err)
	assert.Equal(t, "a=1&b=2", gotQuery)
	assert.Equal(t, "tickerbot", gotUA)
}

var pingRoutes = RoutesFunc(func(e *echo.Echo) {
	e.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })
	e.GET("/boom", func(c echo.Context) error { panic("boom") })
})

func TestServerRoutesAndRecovery(t *testing.T) {
	srv := NewServer(pingRoutes, WithGatherer(prometheus.NewRegistry()))

	rec := httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())

	rec = httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServerCORS(t *testing.T) {
	srv := NewServer(pingRoutes,
		WithGatherer(prometheus.NewRegistry()),
		WithCORS(true, "https://dash.example.com"),
	)

	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set(echo.HeaderOrigin, "https://dash.example.com")
	req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodGet)
	rec := httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://dash.example.com", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	assert.Contains(t, rec.Header().Get(echo.HeaderAccessControlAllowMethods), http.MethodPost)
	assert.Equal(t, "600", rec.Header().Get(echo.HeaderAccessControlMaxAge))

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(echo.HeaderOrigin, "https://evil.example.com")
	rec = httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	assert.Equal(t, echo.HeaderOrigin, rec.Header().Get(echo.HeaderVary))
}
