// Package mock is a deterministic in-process countervalue provider. Its daily
// series has a hole every seven days, which makes gap handling observable.
package mock

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/ahmethakanbesel/countervalues/internal/countervalue"
)

var cryptoPrices = map[string]float64{
	"BTC":  30000,
	"ETH":  2000,
	"LTC":  80,
	"DOGE": 0.08,
	"XTZ":  1,
	"USDC": 1,
}

var fiatRates = map[string]float64{
	"USD": 1,
	"EUR": 0.9,
	"GBP": 0.8,
	"CHF": 0.9,
	"JPY": 150,
	"TRY": 30,
}

type Provider struct {
	now func() time.Time
}

func New(opts ...Option) *Provider {
	p := &Provider{now: time.Now}
	for _, o := range opts {
		o(p)
	}
	return p
}

type Option func(*Provider)

func WithClock(now func() time.Time) Option {
	return func(p *Provider) { p.now = now }
}

var _ countervalue.Provider = (*Provider)(nil)

// Hole reports whether the daily series has no data point on t's day.
func Hole(t time.Time) bool {
	return dayNumber(t)%7 == 3
}

// Rate returns the mock rate of from→to at t, ignoring holes.
func Rate(from, to string, t time.Time) (float64, bool) {
	base, ok := cryptoPrices[from]
	if !ok {
		return 0, false
	}
	fx, ok := fiatRates[to]
	if !ok {
		return 0, false
	}
	wave := 1 + 0.2*math.Sin(float64(dayNumber(t))/15) + 0.01*math.Sin(float64(t.UTC().Hour()))
	return base * fx * wave, true
}

func dayNumber(t time.Time) int64 {
	return t.UTC().Unix() / int64(24*time.Hour/time.Second)
}

func (p *Provider) FetchHistorical(ctx context.Context, g countervalue.Granularity, pair countervalue.TrackingPair) (countervalue.RateMap, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, ok := Rate(pair.From, pair.To, time.Time{}); !ok {
		return nil, fmt.Errorf("mock: no rates for %s", pair.ID())
	}

	now := p.now().UTC()
	start := pair.StartDate
	if start.IsZero() {
		start = now
	}

	rates := make(countervalue.RateMap)
	switch g {
	case countervalue.Hourly:
		for t := start.UTC().Truncate(time.Hour); !t.After(now); t = t.Add(time.Hour) {
			v, _ := Rate(pair.From, pair.To, t)
			rates[countervalue.FormatHour(t)] = v
		}
	default:
		for t := start.UTC().Truncate(24 * time.Hour); !t.After(now); t = t.Add(24 * time.Hour) {
			if Hole(t) {
				continue
			}
			v, _ := Rate(pair.From, pair.To, t)
			rates[countervalue.FormatDay(t)] = v
		}
	}
	return rates, nil
}

func (p *Provider) FetchLatest(ctx context.Context, pairs []countervalue.TrackingPair) ([]*float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	now := p.now()
	out := make([]*float64, len(pairs))
	for i, pair := range pairs {
		if v, ok := Rate(pair.From, pair.To, now); ok {
			out[i] = &v
		}
	}
	return out, nil
}

func (p *Provider) FetchMarketcapTickers(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tickers := make([]string, 0, len(cryptoPrices))
	for t := range cryptoPrices {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)
	return tickers, nil
}
