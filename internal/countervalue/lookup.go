package countervalue

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ahmethakanbesel/countervalues/internal/currency"
)

// Query describes a single conversion. A zero Date asks for the latest rate.
type Query struct {
	Value           float64
	From            currency.Currency
	To              currency.Currency
	Date            time.Time
	DisableRounding bool
}

type DataPoint struct {
	Value float64   `json:"value"`
	Date  time.Time `json:"date"`
}

// Result is a conversion outcome. Known is false when no rate could be
// resolved, which is different from a conversion to zero.
type Result struct {
	Value float64 `json:"value"`
	Known bool    `json:"known"`
}

// LenseRateMap returns the cache of the from→to pair. It reports false when
// either currency has countervalues disabled or the pair was never
// synchronized.
func LenseRateMap(state *State, from, to currency.Currency) (*PairRateCache, bool) {
	if state == nil || from.DisableCountervalue || to.DisableCountervalue {
		return nil, false
	}
	c, ok := state.Cache[PairID(from.Ticker, to.Ticker)]
	if !ok || c == nil {
		return nil, false
	}
	return c, true
}

// LenseRate resolves the rate at date: exact hour, exact day, latest when the
// date is newer than all known data, then the fallback.
func LenseRate(c *PairRateCache, date time.Time) (float64, bool) {
	if c == nil {
		return 0, false
	}
	if date.IsZero() {
		return c.Map.Latest()
	}
	if v, ok := c.Map[FormatHour(date)]; ok {
		return v, true
	}
	dayKey := FormatDay(date)
	if v, ok := c.Map[dayKey]; ok {
		return v, true
	}
	if c.NewestDate != "" && dayKey > c.NewestDate {
		return c.Map.Latest()
	}
	if !c.HasFallback {
		return 0, false
	}
	return c.Fallback, true
}

// Calculate converts q.Value, expressed in q.From's smallest unit, into
// q.To's smallest unit. It reports false when no non-zero rate is known.
func Calculate(state *State, q Query) (float64, bool) {
	c, ok := LenseRateMap(state, q.From, q.To)
	if !ok {
		return 0, false
	}
	rate, ok := LenseRate(c, q.Date)
	if !ok || rate == 0 {
		return 0, false
	}
	return convert(q.Value, rate, currency.MagnitudeShift(q.From, q.To), !q.DisableRounding), true
}

// CalculateMany converts every point with a single pair lookup. Results keep
// the order of points; each one is known or unknown on its own.
func CalculateMany(state *State, points []DataPoint, from, to currency.Currency) []Result {
	out := make([]Result, len(points))
	c, ok := LenseRateMap(state, from, to)
	if !ok {
		return out
	}
	shift := currency.MagnitudeShift(from, to)
	for i, p := range points {
		rate, ok := LenseRate(c, p.Date)
		if !ok || rate == 0 {
			continue
		}
		out[i] = Result{Value: convert(p.Value, rate, shift, true), Known: true}
	}
	return out
}

var half = decimal.New(5, -1)

func convert(value, rate float64, shift int32, round bool) float64 {
	d := decimal.NewFromFloat(value).Mul(decimal.NewFromFloat(rate)).Shift(shift)
	if round {
		// halves round toward +inf: -2.5 becomes -2
		d = d.Add(half).Floor()
	}
	f, _ := d.Float64()
	return f
}
