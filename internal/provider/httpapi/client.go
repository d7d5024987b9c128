// Package httpapi implements countervalue.Provider against a countervalues
// REST API:
//
//	GET /v2/{granularity}/{from}/{to}?start=..&end=..  {"2024-01-02": 42000.5, ...}
//	GET /v2/latest?pairs=BTC:USD,ETH:EUR               [42000.5, null]
//	GET /v2/tickers                                    ["BTC", "ETH", ...]
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/tidwall/gjson"

	"github.com/ahmethakanbesel/countervalues/internal/countervalue"
)

const (
	defaultBaseURL    = "https://countervalues.live.ledger.com"
	defaultRetries    = 2
	defaultRetryDelay = 500 * time.Millisecond
	chunkDays         = 1000
	userAgent         = "countervalues/1.0"
)

var ErrStatusCode = errors.New("unexpected HTTP status")

// Client fetches rates over HTTP. Transport errors, 429 and 5xx responses
// are retried with a constant backoff.
type Client struct {
	client     *http.Client
	baseURL    string
	retries    uint64
	retryDelay time.Duration
	now        func() time.Time
}

func New(opts ...Option) *Client {
	c := &Client{
		client:     &http.Client{Timeout: 30 * time.Second},
		baseURL:    defaultBaseURL,
		retries:    defaultRetries,
		retryDelay: defaultRetryDelay,
		now:        time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type Option func(*Client)

func WithClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithRetries sets how many times a failed request is retried and the delay
// between attempts.
func WithRetries(n uint64, delay time.Duration) Option {
	return func(c *Client) {
		c.retries = n
		if delay > 0 {
			c.retryDelay = delay
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

var _ countervalue.Provider = (*Client)(nil)

// FetchHistorical fetches rates from pair.StartDate to now. Long daily
// histories are requested in chunks of 1000 days.
func (c *Client) FetchHistorical(ctx context.Context, g countervalue.Granularity, pair countervalue.TrackingPair) (countervalue.RateMap, error) {
	if pair.From == "" || pair.To == "" {
		return nil, fmt.Errorf("pair cannot be empty")
	}

	now := c.now().UTC()
	start := pair.StartDate
	if start.IsZero() {
		start = now
	}

	var ranges []dateRange
	if g == countervalue.Hourly {
		ranges = []dateRange{{From: start.UTC(), To: now}}
	} else {
		ranges = splitDateRange(start.UTC().Truncate(24*time.Hour), now.Truncate(24*time.Hour), chunkDays)
	}

	rates := make(countervalue.RateMap)
	for _, r := range ranges {
		q := url.Values{}
		q.Set("start", formatParam(g, r.From))
		q.Set("end", formatParam(g, r.To))
		u := fmt.Sprintf("%s/v2/%s/%s/%s?%s", c.baseURL, g,
			url.PathEscape(pair.From), url.PathEscape(pair.To), q.Encode())

		body, err := c.get(ctx, u)
		if err != nil {
			return nil, err
		}
		chunk, err := parseRateMap(body)
		if err != nil {
			return nil, fmt.Errorf("parse %s history for %s: %w", g, pair.ID(), err)
		}
		for k, v := range chunk {
			rates[k] = v
		}
	}

	slog.Debug("fetched countervalue history", "granularity", g, "pair", pair.ID(),
		"chunks", len(ranges), "count", len(rates))
	return rates, nil
}

// FetchLatest fetches the latest rate of every pair in a single request.
func (c *Client) FetchLatest(ctx context.Context, pairs []countervalue.TrackingPair) ([]*float64, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	ids := make([]string, len(pairs))
	for i, p := range pairs {
		ids[i] = p.From + ":" + p.To
	}
	q := url.Values{}
	q.Set("pairs", strings.Join(ids, ","))

	body, err := c.get(ctx, c.baseURL+"/v2/latest?"+q.Encode())
	if err != nil {
		return nil, err
	}

	res := gjson.ParseBytes(body)
	if !gjson.ValidBytes(body) || !res.IsArray() {
		return nil, fmt.Errorf("parse latest: expected a JSON array")
	}

	values := res.Array()
	out := make([]*float64, len(pairs))
	for i := range out {
		if i >= len(values) || values[i].Type != gjson.Number {
			continue
		}
		v := values[i].Float()
		out[i] = &v
	}
	return out, nil
}

func (c *Client) FetchMarketcapTickers(ctx context.Context) ([]string, error) {
	body, err := c.get(ctx, c.baseURL+"/v2/tickers")
	if err != nil {
		return nil, err
	}

	res := gjson.ParseBytes(body)
	if !gjson.ValidBytes(body) || !res.IsArray() {
		return nil, fmt.Errorf("parse tickers: expected a JSON array")
	}

	var tickers []string
	for _, v := range res.Array() {
		if v.Type == gjson.String {
			tickers = append(tickers, v.String())
		}
	}
	return tickers, nil
}

func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	b, err := retry.NewConstant(c.retryDelay)
	if err != nil {
		return nil, fmt.Errorf("retry backoff: %w", err)
	}
	b = retry.WithMaxRetries(c.retries, b)

	var body []byte
	err = retry.Do(ctx, b, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Accept", "application/json")

		res, err := c.client.Do(req) //nolint:gosec // URL built from internal config
		if err != nil {
			return retry.RetryableError(fmt.Errorf("make HTTP request: %w", err))
		}
		defer func() { _ = res.Body.Close() }()

		if res.StatusCode != http.StatusOK {
			err := fmt.Errorf("%w: %d for %s", ErrStatusCode, res.StatusCode, req.URL.Path)
			if res.StatusCode == http.StatusTooManyRequests || res.StatusCode >= http.StatusInternalServerError {
				return retry.RetryableError(err)
			}
			return err
		}

		body, err = io.ReadAll(res.Body)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("read body: %w", err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

func parseRateMap(body []byte) (countervalue.RateMap, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("invalid JSON")
	}
	res := gjson.ParseBytes(body)
	if !res.IsObject() {
		return nil, fmt.Errorf("expected a JSON object")
	}

	rates := make(countervalue.RateMap)
	res.ForEach(func(k, v gjson.Result) bool {
		// null marks a date the source has no quote for
		if v.Type == gjson.Number {
			rates[k.String()] = v.Float()
		}
		return true
	})
	return rates, nil
}

func formatParam(g countervalue.Granularity, t time.Time) string {
	if g == countervalue.Hourly {
		return t.UTC().Format(time.RFC3339)
	}
	return countervalue.FormatDay(t)
}
