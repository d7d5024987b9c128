package countervalue

import (
	"sort"
	"time"
)

// BuildCache derives the PairRateCache of a rate map. With autofill, every
// day from the oldest known key up to now gets an entry, carrying the last
// known rate forward through holes.
func BuildCache(rates RateMap, autofill bool, now time.Time) *PairRateCache {
	m := cloneMap(rates)

	keys := make([]string, 0, len(m))
	for k := range m {
		if k != LatestKey {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	c := &PairRateCache{Map: m}
	if len(keys) > 0 {
		c.OldestDate = keys[0]
		c.NewestDate = keys[len(keys)-1]
	}

	if !autofill {
		return c
	}

	c.HasFallback = true
	if c.OldestDate == "" {
		c.Fallback = m[LatestKey]
		return c
	}

	shifting := m[c.OldestDate]
	c.Fallback = shifting
	if oldest, ok := parseDayPrefix(c.OldestDate); ok {
		for t := oldest; t.Before(now); t = t.Add(day) {
			k := FormatDay(t)
			if v, ok := m[k]; ok {
				shifting = v
			} else {
				m[k] = shifting
			}
		}
	}
	if v, ok := m[LatestKey]; !ok || v == 0 {
		m[LatestKey] = shifting
	}
	return c
}
