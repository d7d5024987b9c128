package countervalue

import "time"

// Snapshot is the serializable part of a State. The cache is left out since it
// is always derived from the rate maps.
type Snapshot struct {
	Rates map[string]RateMap
	Stats map[string]Stat
}

func Export(state *State) Snapshot {
	if state == nil {
		return Snapshot{Rates: map[string]RateMap{}, Stats: map[string]Stat{}}
	}
	return Snapshot{
		Rates: cloneMap(state.Data),
		Stats: cloneMap(state.Stats),
	}
}

// Import rebuilds a State from a snapshot, deriving every pair's cache.
func Import(snap Snapshot, autofill bool, now time.Time) *State {
	s := &State{
		Data:  make(map[string]RateMap, len(snap.Rates)),
		Stats: cloneMap(snap.Stats),
		Cache: make(map[string]*PairRateCache, len(snap.Rates)),
	}
	for key, rates := range snap.Rates {
		s.Data[key] = cloneMap(rates)
		s.Cache[key] = BuildCache(rates, autofill, now)
	}
	return s
}
