package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"TickerBot/internal/domain/models"
	drepo "TickerBot/internal/domain/repository"
	pkghttp "TickerBot/pkg/http"

	"github.com/shopspring/decimal"
)

const (
	DefaultBaseURL = "https://query1.finance.yahoo.com"

	// chart error code returned for unknown symbols or empty ranges
	codeNotFound = "Not Found"
)

// Client implements MarketData backed by the Yahoo Finance v8 chart API.
type Client struct {
	baseURL   string
	userAgent string
	http      *pkghttp.Client
	now       func() time.Time
}

// Option configures Client.
type Option func(*Client)

// WithBaseURL overrides the API host.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithUserAgent sets the User-Agent header; the API rejects empty agents.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithHTTPClient sets the transport.
func WithHTTPClient(hc *pkghttp.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithClock sets the clock used when a request has no end time.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// New creates a chart API client.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:   DefaultBaseURL,
		userAgent: "Mozilla/5.0",
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = pkghttp.NewClient(pkghttp.WithTimeout(20 * time.Second))
	}
	return c
}

var _ drepo.MarketData = (*Client)(nil)

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartResult struct {
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*json.Number `json:"open"`
			High   []*json.Number `json:"high"`
			Low    []*json.Number `json:"low"`
			Close  []*json.Number `json:"close"`
			Volume []*json.Number `json:"volume"`
		} `json:"quote"`
	} `json:"indicators"`
}

// Fetch returns the bars of req.Ticker between req.Start and req.End in
// ascending date order. An unknown ticker or empty range yields no bars.
func (c *Client) Fetch(ctx context.Context, req drepo.FetchRequest) ([]models.Bar, error) {
	end := req.End
	if end.IsZero() {
		end = c.now()
	}

	q := url.Values{}
	q.Set("period1", strconv.FormatInt(req.Start.Unix(), 10))
	q.Set("period2", strconv.FormatInt(end.Unix(), 10))
	q.Set("interval", req.Interval)
	q.Set("includePrePost", "false")

	resp, err := c.http.SendRequest(ctx, &pkghttp.RequestOptions{
		Method:  pkghttp.MethodGet,
		URL:     fmt.Sprintf("%s/v8/finance/chart/%s", c.baseURL, url.PathEscape(req.Ticker)),
		Query:   q,
		Headers: map[string]string{pkghttp.HeaderUserAgent: c.userAgent},
	})
	if err != nil {
		return nil, c.fail(req, 0, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.fail(req, resp.StatusCode, fmt.Errorf("read body: %w", err))
	}

	var chart chartResponse
	decodeErr := json.Unmarshal(body, &chart)

	if chart.Chart.Error != nil && chart.Chart.Error.Code == codeNotFound {
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.fail(req, resp.StatusCode, &pkghttp.StatusError{StatusCode: resp.StatusCode, Body: truncate(body)})
	}
	if decodeErr != nil {
		return nil, c.fail(req, resp.StatusCode, fmt.Errorf("decode chart: %w", decodeErr))
	}
	if chart.Chart.Error != nil {
		return nil, c.fail(req, resp.StatusCode, fmt.Errorf("%s: %s", chart.Chart.Error.Code, chart.Chart.Error.Description))
	}
	if len(chart.Chart.Result) == 0 {
		return nil, nil
	}

	bars, err := toBars(chart.Chart.Result[0])
	if err != nil {
		return nil, c.fail(req, resp.StatusCode, err)
	}
	return bars, nil
}

func (c *Client) fail(req drepo.FetchRequest, status int, err error) error {
	return &drepo.ProviderError{Ticker: req.Ticker, Interval: req.Interval, StatusCode: status, Err: err}
}

func toBars(r chartResult) ([]models.Bar, error) {
	if len(r.Timestamp) == 0 || len(r.Indicators.Quote) == 0 {
		return nil, nil
	}
	q := r.Indicators.Quote[0]

	bars := make([]models.Bar, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		bar := models.Bar{Date: time.Unix(ts, 0).UTC()}
		complete := true
		for _, f := range []struct {
			col []*json.Number
			dst *decimal.Decimal
		}{
			{q.Open, &bar.Open},
			{q.High, &bar.High},
			{q.Low, &bar.Low},
			{q.Close, &bar.Close},
		} {
			v, ok, err := at(f.col, i)
			if err != nil {
				return nil, err
			}
			if !ok {
				complete = false
				break
			}
			*f.dst = v
		}
		// A bar with any missing price is still forming or was never traded.
		if !complete {
			continue
		}
		var err error
		if bar.Volume, _, err = at(q.Volume, i); err != nil {
			return nil, err
		}
		bars = append(bars, bar)
	}

	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, nil
}

// at returns the i-th value; ok is false for nulls and short columns.
func at(col []*json.Number, i int) (decimal.Decimal, bool, error) {
	if i >= len(col) || col[i] == nil {
		return decimal.Zero, false, nil
	}
	d, err := decimal.NewFromString(col[i].String())
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("parse price %q: %w", col[i].String(), err)
	}
	return d, true, nil
}

func truncate(b []byte) []byte {
	if len(b) > 512 {
		return b[:512]
	}
	return b
}
