// Package countervalue keeps a local cache of historical and latest exchange
// rates per (from, to) ticker pair and converts amounts with it.
//
// A State is never modified in place. Service.Load takes a State and returns
// a new one in which only the pairs touched by the synchronization are
// replaced; every other pair keeps its previous map and cache values.
package countervalue

import (
	"sort"
	"time"
)

// LatestKey is the reserved RateMap key holding the most recent known rate.
// It can never collide with a formatted date key.
const LatestKey = "latest"

type Granularity string

const (
	Daily  Granularity = "daily"
	Hourly Granularity = "hourly"
)

// RateMap maps day keys (2006-01-02) and hour keys (2006-01-02T15) to rates,
// plus LatestKey. Lexicographic key order is chronological order.
type RateMap map[string]float64

// Latest returns the "latest" entry.
func (m RateMap) Latest() (float64, bool) {
	v, ok := m[LatestKey]
	return v, ok
}

// TrackingPair is a pair to keep synchronized. A zero StartDate means only the
// latest rate is needed.
type TrackingPair struct {
	From      string    `json:"from" yaml:"from"`
	To        string    `json:"to" yaml:"to"`
	StartDate time.Time `json:"startDate,omitempty" yaml:"startDate,omitempty"`
}

func (p TrackingPair) ID() string { return PairID(p.From, p.To) }

func PairID(from, to string) string { return from + "-" + to }

type Settings struct {
	TrackingPairs []TrackingPair
	AutofillGaps  bool
}

// Stat is the fetch window bookkeeping of a pair.
type Stat struct {
	OldestDateRequested time.Time `json:"oldestDateRequested"`
}

// PairRateCache is the read-optimized form of a pair's RateMap.
type PairRateCache struct {
	Map        RateMap
	OldestDate string
	NewestDate string
	// Fallback is the rate used for dates older than any known data. It is
	// only set when gaps are autofilled.
	Fallback    float64
	HasFallback bool
}

type State struct {
	Data  map[string]RateMap
	Stats map[string]Stat
	Cache map[string]*PairRateCache
}

func NewState() *State {
	return &State{
		Data:  make(map[string]RateMap),
		Stats: make(map[string]Stat),
		Cache: make(map[string]*PairRateCache),
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Retain returns a State holding only the given pairs, plus the sorted ids of
// the pairs it dropped. state is left untouched; when nothing is dropped it is
// returned as is.
func Retain(state *State, pairs []TrackingPair) (*State, []string) {
	keep := make(map[string]bool, len(pairs))
	for _, p := range pairs {
		keep[p.ID()] = true
	}

	dropped := make(map[string]bool)
	for key := range state.Data {
		if !keep[key] {
			dropped[key] = true
		}
	}
	for key := range state.Stats {
		if !keep[key] {
			dropped[key] = true
		}
	}
	for key := range state.Cache {
		if !keep[key] {
			dropped[key] = true
		}
	}
	if len(dropped) == 0 {
		return state, nil
	}

	next := &State{
		Data:  cloneMap(state.Data),
		Stats: cloneMap(state.Stats),
		Cache: cloneMap(state.Cache),
	}
	ids := make([]string, 0, len(dropped))
	for key := range dropped {
		delete(next.Data, key)
		delete(next.Stats, key)
		delete(next.Cache, key)
		ids = append(ids, key)
	}
	sort.Strings(ids)
	return next, ids
}
