package countervalue

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// --- fake provider ---
type fakeProvider struct {
	now       time.Time
	failHisto map[string]bool
	latest    map[string]float64
	latestErr error
	delay     time.Duration

	mu          sync.Mutex
	histoCalls  []historicalRequest
	latestCalls int

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func (f *fakeProvider) FetchHistorical(_ context.Context, g Granularity, pair TrackingPair) (RateMap, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		m := f.maxInFlight.Load()
		if n <= m || f.maxInFlight.CompareAndSwap(m, n) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	f.histoCalls = append(f.histoCalls, historicalRequest{granularity: g, pair: pair, key: pair.ID()})
	f.mu.Unlock()

	if f.failHisto[pair.ID()] {
		return nil, errors.New("boom")
	}
	return RateMap{
		g.Format(pair.StartDate): 1,
		g.Format(f.now):          2,
	}, nil
}

func (f *fakeProvider) FetchLatest(_ context.Context, pairs []TrackingPair) ([]*float64, error) {
	f.mu.Lock()
	f.latestCalls++
	f.mu.Unlock()

	if f.latestErr != nil {
		return nil, f.latestErr
	}
	out := make([]*float64, len(pairs))
	for i, p := range pairs {
		if v, ok := f.latest[p.ID()]; ok {
			out[i] = &v
		}
	}
	return out, nil
}

func (f *fakeProvider) FetchMarketcapTickers(context.Context) ([]string, error) {
	return []string{"BTC", "ETH"}, nil
}

func newTestService(p *fakeProvider, opts ...Option) *Service {
	p.now = testNow
	opts = append([]Option{WithClock(func() time.Time { return testNow })}, opts...)
	return NewService(p, opts...)
}

func TestLoad_NothingToTrack(t *testing.T) {
	p := &fakeProvider{}
	s := newTestService(p)

	state := s.Load(context.Background(), nil, Settings{AutofillGaps: true})
	if state == nil {
		t.Fatal("expected a state")
	}
	if _, ok := Calculate(state, Query{Value: 100000000, From: btc, To: usd}); ok {
		t.Error("expected no value")
	}
	if p.latestCalls != 0 || len(p.histoCalls) != 0 {
		t.Errorf("expected no provider calls, got %d latest, %d historical", p.latestCalls, len(p.histoCalls))
	}
}

func TestLoad_MergesHistoryAndLatest(t *testing.T) {
	p := &fakeProvider{latest: map[string]float64{"BTC-USD": 3}}
	s := newTestService(p)

	start := testNow.AddDate(0, 0, -3)
	state := s.Load(context.Background(), NewState(), Settings{
		TrackingPairs: []TrackingPair{{From: "BTC", To: "USD", StartDate: start}},
		AutofillGaps:  true,
	})

	want := RateMap{FormatDay(start): 1, FormatDay(testNow): 2, LatestKey: 3}
	if !reflect.DeepEqual(want, state.Data["BTC-USD"]) {
		t.Errorf("data = %v, want %v", state.Data["BTC-USD"], want)
	}
	c := state.Cache["BTC-USD"]
	if c == nil {
		t.Fatal("expected cache for BTC-USD")
	}
	if c.OldestDate != FormatDay(start) || c.NewestDate != FormatDay(testNow) {
		t.Errorf("bounds = %s..%s", c.OldestDate, c.NewestDate)
	}
	if len(c.Map) != 5 {
		t.Errorf("expected 4 filled days plus latest, got %v", c.Map)
	}
}

func TestLoad_PartialFailureIsolation(t *testing.T) {
	p := &fakeProvider{
		failHisto: map[string]bool{"BTC-USD": true},
		latest:    map[string]float64{"BTC-USD": 30000, "ETH-USD": 2000},
	}
	s := newTestService(p)

	start := testNow.AddDate(0, 0, -5)
	state := s.Load(context.Background(), NewState(), Settings{
		TrackingPairs: []TrackingPair{
			{From: "BTC", To: "USD", StartDate: start},
			{From: "ETH", To: "USD", StartDate: start},
		},
	})

	if _, ok := state.Data["BTC-USD"][FormatDay(start)]; ok {
		t.Error("failed history must not be merged")
	}
	if v, _ := state.Data["BTC-USD"].Latest(); v != 30000 {
		t.Errorf("BTC latest = %v, want 30000", v)
	}
	if state.Data["ETH-USD"][FormatDay(start)] != 1 {
		t.Error("expected ETH history to be merged")
	}
	if _, ok := state.Stats["BTC-USD"]; !ok {
		t.Error("stats are recorded before the fetch result is known")
	}
	if got, ok := Calculate(state, Query{Value: 100000000, From: btc, To: usd}); !ok || got != 3000000 {
		t.Errorf("BTC latest conversion = %v, %v", got, ok)
	}
}

func TestLoad_LatestFailureKeepsHistory(t *testing.T) {
	p := &fakeProvider{latestErr: errors.New("down")}
	s := newTestService(p)

	start := testNow.AddDate(0, 0, -5)
	state := s.Load(context.Background(), NewState(), Settings{
		TrackingPairs: []TrackingPair{{From: "BTC", To: "USD", StartDate: start}},
	})

	if state.Data["BTC-USD"][FormatDay(start)] != 1 {
		t.Error("expected history to be merged")
	}
	if _, ok := state.Data["BTC-USD"].Latest(); ok {
		t.Error("expected no latest")
	}
}

func TestLoad_UnknownLatestKeepsPrevious(t *testing.T) {
	prev := NewState()
	prev.Data["BTC-USD"] = RateMap{LatestKey: 10}

	s := newTestService(&fakeProvider{latest: map[string]float64{}})
	state := s.Load(context.Background(), prev, Settings{
		TrackingPairs: []TrackingPair{{From: "BTC", To: "USD"}},
	})
	if v, _ := state.Data["BTC-USD"].Latest(); v != 10 {
		t.Errorf("latest = %v, want 10", v)
	}
}

func TestLoad_ImmutableUpdate(t *testing.T) {
	untouched := RateMap{"2024-01-01": 80, LatestKey: 90}
	untouchedCache := BuildCache(untouched, false, testNow)
	prevBTC := RateMap{"2024-01-01": 1}

	prev := NewState()
	prev.Data["LTC-USD"] = untouched
	prev.Cache["LTC-USD"] = untouchedCache
	prev.Data["BTC-USD"] = prevBTC

	s := newTestService(&fakeProvider{latest: map[string]float64{"BTC-USD": 5}})
	state := s.Load(context.Background(), prev, Settings{
		TrackingPairs: []TrackingPair{{From: "BTC", To: "USD"}},
	})

	if state == prev {
		t.Fatal("expected a new state")
	}
	if state.Cache["LTC-USD"] != untouchedCache {
		t.Error("untouched cache must keep its identity")
	}
	if reflect.ValueOf(state.Data["LTC-USD"]).Pointer() != reflect.ValueOf(untouched).Pointer() {
		t.Error("untouched rate map must keep its identity")
	}
	if reflect.ValueOf(state.Data["BTC-USD"]).Pointer() == reflect.ValueOf(prevBTC).Pointer() {
		t.Error("touched rate map must be a new map")
	}
	if _, ok := prevBTC[LatestKey]; ok {
		t.Error("previous rate map was modified")
	}
	if _, ok := prev.Cache["BTC-USD"]; ok {
		t.Error("previous cache was modified")
	}
	if v, _ := state.Data["BTC-USD"].Latest(); v != 5 || state.Data["BTC-USD"]["2024-01-01"] != 1 {
		t.Errorf("merged map = %v", state.Data["BTC-USD"])
	}
}

func TestLoad_IncrementalSkipsInSyncHistory(t *testing.T) {
	p := &fakeProvider{latest: map[string]float64{"BTC-USD": 5}}
	s := newTestService(p)
	settings := Settings{TrackingPairs: []TrackingPair{{From: "BTC", To: "USD", StartDate: testNow.AddDate(0, 0, -20)}}}

	first := s.Load(context.Background(), NewState(), settings)
	second := s.Load(context.Background(), first, settings)

	if len(p.histoCalls) != 1 {
		t.Errorf("expected history fetched once, got %d", len(p.histoCalls))
	}
	if p.latestCalls != 2 {
		t.Errorf("expected latest fetched on every load, got %d", p.latestCalls)
	}
	if second.Cache["BTC-USD"] == first.Cache["BTC-USD"] {
		t.Error("latest update must rebuild the cache")
	}
}

func TestLoad_OldestDateRequestedMonotonic(t *testing.T) {
	p := &fakeProvider{}
	s := newTestService(p)

	var state *State
	var prevOldest time.Time
	for i, days := range []int{30, 60, 10, 45, 90, 5} {
		// drop today's key so every load is out of sync
		if state != nil {
			delete(state.Data, "BTC-USD")
		}
		state = s.Load(context.Background(), state, Settings{
			TrackingPairs: []TrackingPair{{From: "BTC", To: "USD", StartDate: testNow.AddDate(0, 0, -days)}},
		})
		oldest := state.Stats["BTC-USD"].OldestDateRequested
		if i > 0 && oldest.After(prevOldest) {
			t.Fatalf("load %d: oldest moved later from %v to %v", i, prevOldest, oldest)
		}
		prevOldest = oldest
	}
	if want := testNow.AddDate(0, 0, -90); !prevOldest.Equal(want) {
		t.Errorf("oldest = %v, want %v", prevOldest, want)
	}
}

func TestLoad_BoundedConcurrency(t *testing.T) {
	p := &fakeProvider{delay: 20 * time.Millisecond}
	s := newTestService(p, WithWorkers(2))

	var pairs []TrackingPair
	for _, from := range []string{"BTC", "ETH", "LTC", "XTZ", "DOGE", "DOT"} {
		pairs = append(pairs, TrackingPair{From: from, To: "USD", StartDate: testNow.AddDate(0, 0, -3)})
	}
	state := s.Load(context.Background(), NewState(), Settings{TrackingPairs: pairs})

	if got := p.maxInFlight.Load(); got > 2 {
		t.Errorf("max in-flight = %d, want <= 2", got)
	}
	if len(state.Data) != len(pairs) {
		t.Errorf("expected %d pairs, got %d", len(pairs), len(state.Data))
	}
}

func TestLoad_HourlyGranularity(t *testing.T) {
	p := &fakeProvider{}
	s := newTestService(p, WithHourly(true))

	state := s.Load(context.Background(), NewState(), Settings{
		TrackingPairs: []TrackingPair{{From: "BTC", To: "USD", StartDate: testNow.AddDate(0, 0, -30)}},
	})

	var granularities []Granularity
	for _, c := range p.histoCalls {
		granularities = append(granularities, c.granularity)
	}
	if len(granularities) != 2 {
		t.Fatalf("expected daily and hourly fetches, got %v", granularities)
	}
	if _, ok := state.Data["BTC-USD"][FormatHour(testNow)]; !ok {
		t.Error("expected hourly key merged")
	}
}

func TestMarketcapTickers(t *testing.T) {
	got, err := newTestService(&fakeProvider{}).MarketcapTickers(context.Background())
	if err != nil || len(got) != 2 {
		t.Fatalf("got %v, %v", got, err)
	}
}
