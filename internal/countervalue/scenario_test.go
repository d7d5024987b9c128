package countervalue_test

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmethakanbesel/countervalues/internal/countervalue"
	"github.com/ahmethakanbesel/countervalues/internal/currency"
	"github.com/ahmethakanbesel/countervalues/internal/provider/mock"
)

var now = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return now }

func newService(opts ...countervalue.Option) *countervalue.Service {
	opts = append([]countervalue.Option{countervalue.WithClock(clock)}, opts...)
	return countervalue.NewService(mock.New(mock.WithClock(clock)), opts...)
}

func currencies(t *testing.T) (bitcoin, dollar, euro currency.Currency) {
	t.Helper()
	reg := currency.DefaultRegistry()
	var err error
	bitcoin, err = reg.Get("bitcoin")
	require.NoError(t, err)
	dollar, err = reg.Get("USD")
	require.NoError(t, err)
	euro, err = reg.Get("EUR")
	require.NoError(t, err)
	return bitcoin, dollar, euro
}

// holeDay returns a day with no mock data point whose previous day has one.
func holeDay(t *testing.T) time.Time {
	t.Helper()
	for d := now.AddDate(0, 0, -100); d.Before(now); d = d.AddDate(0, 0, 1) {
		if mock.Hole(d) && !mock.Hole(d.AddDate(0, 0, -1)) {
			return d
		}
	}
	t.Fatal("no hole in mock data")
	return time.Time{}
}

func btcUSDSettings(autofill bool) countervalue.Settings {
	return countervalue.Settings{
		TrackingPairs: []countervalue.TrackingPair{
			{From: "BTC", To: "USD", StartDate: now.AddDate(0, 0, -200)},
		},
		AutofillGaps: autofill,
	}
}

func TestScenario_NothingToTrack(t *testing.T) {
	bitcoin, dollar, _ := currencies(t)
	state := newService().Load(context.Background(), countervalue.NewState(), countervalue.Settings{AutofillGaps: true})
	require.NotNil(t, state)

	_, ok := countervalue.Calculate(state, countervalue.Query{Value: 100000000, From: bitcoin, To: dollar})
	assert.False(t, ok)
}

func TestScenario_BTCUSDWithoutAutofill(t *testing.T) {
	bitcoin, dollar, euro := currencies(t)
	state := newService().Load(context.Background(), countervalue.NewState(), btcUSDSettings(false))

	_, ok := countervalue.Calculate(state, countervalue.Query{
		Value: 100000000, From: bitcoin, To: dollar, Date: now.AddDate(0, 0, -210),
	})
	assert.False(t, ok, "date before the requested start")

	latest, _ := mock.Rate("BTC", "USD", now)
	got, ok := countervalue.Calculate(state, countervalue.Query{Value: 100000000, From: bitcoin, To: dollar})
	require.True(t, ok)
	assert.InDelta(t, math.Round(latest*100), got, 1)

	got, ok = countervalue.Calculate(state, countervalue.Query{Value: 10000000, From: bitcoin, To: dollar})
	require.True(t, ok)
	assert.InDelta(t, math.Round(latest*10), got, 1)

	_, ok = countervalue.Calculate(state, countervalue.Query{Value: 100000000, From: bitcoin, To: euro})
	assert.False(t, ok, "pair not tracked")

	_, ok = countervalue.Calculate(state, countervalue.Query{
		Value: 100000000, From: bitcoin, To: dollar, Date: holeDay(t),
	})
	assert.False(t, ok, "missing data point")
}

func TestScenario_BTCUSDWithAutofill(t *testing.T) {
	bitcoin, dollar, _ := currencies(t)
	state := newService().Load(context.Background(), countervalue.NewState(), btcUSDSettings(true))

	hole := holeDay(t)
	atHole, ok := countervalue.Calculate(state, countervalue.Query{Value: 100000000, From: bitcoin, To: dollar, Date: hole})
	require.True(t, ok)
	before, ok := countervalue.Calculate(state, countervalue.Query{Value: 100000000, From: bitcoin, To: dollar, Date: hole.AddDate(0, 0, -1)})
	require.True(t, ok)
	assert.Equal(t, before, atHole)

	// older than any data uses the fallback, the oldest known rate
	oldest, ok := countervalue.Calculate(state, countervalue.Query{Value: 100000000, From: bitcoin, To: dollar, Date: now.AddDate(0, 0, -200)})
	require.True(t, ok)
	veryOld, ok := countervalue.Calculate(state, countervalue.Query{Value: 100000000, From: bitcoin, To: dollar, Date: now.AddDate(-3, 0, 0)})
	require.True(t, ok)
	assert.Equal(t, oldest, veryOld)
}

func TestScenario_TargetCountervalueDisabled(t *testing.T) {
	bitcoin, dollar, _ := currencies(t)
	state := newService().Load(context.Background(), countervalue.NewState(), btcUSDSettings(true))

	disabled := dollar
	disabled.DisableCountervalue = true
	_, ok := countervalue.Calculate(state, countervalue.Query{Value: 100000000, From: bitcoin, To: disabled})
	assert.False(t, ok)
	_, ok = countervalue.Calculate(state, countervalue.Query{Value: 100000000, From: bitcoin, To: dollar})
	assert.True(t, ok)
}

func TestScenario_PairUnknownToProvider(t *testing.T) {
	reg := currency.DefaultRegistry()
	dai, err := reg.Get("ethereum/erc20/dai_stablecoin_v2_0")
	require.NoError(t, err)
	_, _, euro := currencies(t)

	state := newService().Load(context.Background(), countervalue.NewState(), countervalue.Settings{
		TrackingPairs: []countervalue.TrackingPair{{From: "DAI", To: "EUR"}},
	})
	_, ok := countervalue.Calculate(state, countervalue.Query{Value: 100000000, From: dai, To: euro})
	assert.False(t, ok)
}

func TestScenario_HourlyLookup(t *testing.T) {
	bitcoin, dollar, _ := currencies(t)
	state := newService(countervalue.WithHourly(true)).Load(context.Background(), countervalue.NewState(), btcUSDSettings(false))

	at := now.Add(-30 * time.Hour).Add(15 * time.Minute)
	rate, _ := mock.Rate("BTC", "USD", at.Truncate(time.Hour))
	got, ok := countervalue.Calculate(state, countervalue.Query{Value: 100000000, From: bitcoin, To: dollar, Date: at, DisableRounding: true})
	require.True(t, ok)
	assert.InDelta(t, rate*100, got, 1e-6)
}

func TestScenario_DerivedTrackingPairs(t *testing.T) {
	bitcoin, dollar, _ := currencies(t)
	accounts := []currency.Account{
		{ID: "btc1", Currency: bitcoin, CreationDate: now.AddDate(0, 0, -40)},
		{ID: "btc2", Currency: bitcoin, CreationDate: now.AddDate(0, 0, -90)},
	}
	settings := countervalue.Settings{
		TrackingPairs: countervalue.InferTrackingPairs(accounts, dollar),
		AutofillGaps:  true,
	}
	state := newService().Load(context.Background(), countervalue.NewState(), settings)

	c, ok := countervalue.LenseRateMap(state, bitcoin, dollar)
	require.True(t, ok)
	assert.LessOrEqual(t, countervalue.FormatDay(now.AddDate(0, 0, -90)), c.OldestDate)
	assert.True(t, state.Stats["BTC-USD"].OldestDateRequested.Equal(now.AddDate(0, 0, -90)))

	points := make([]countervalue.DataPoint, 0, 90)
	for d := now.AddDate(0, 0, -89); !d.After(now); d = d.AddDate(0, 0, 1) {
		points = append(points, countervalue.DataPoint{Value: 100000000, Date: d})
	}
	for i, r := range countervalue.CalculateMany(state, points, bitcoin, dollar) {
		if !r.Known {
			t.Errorf("point %d (%s) unknown with autofill", i, countervalue.FormatDay(points[i].Date))
		}
	}
}
