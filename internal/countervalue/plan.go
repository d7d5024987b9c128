package countervalue

import "time"

type granularityConfig struct {
	minDateDelta time.Duration
	maxDateDelta time.Duration
}

var granularityConfigs = map[Granularity]granularityConfig{
	Daily: {
		maxDateDelta: 9999 * day,
	},
	// at most a week of hourly rates, the payload gets too large beyond that
	Hourly: {
		maxDateDelta: 7 * day,
	},
}

type historicalRequest struct {
	granularity Granularity
	pair        TrackingPair
	key         string
}

type syncPlan struct {
	historical []historicalRequest
	latest     []TrackingPair
	stats      map[string]Stat
}

// planSync decides which historical series need fetching. The returned stats
// already record the requested windows, before any fetch result is known.
func planSync(prev *State, settings Settings, granularities []Granularity, now time.Time) syncPlan {
	p := syncPlan{
		latest: settings.TrackingPairs,
		stats:  cloneMap(prev.Stats),
	}

	for _, g := range granularities {
		nowKey := g.Format(now)
		cfg := granularityConfigs[g]

		for _, pair := range settings.TrackingPairs {
			start := clampStart(pair.StartDate, now, cfg)
			if g.Format(start) == nowKey {
				continue
			}

			key := pair.ID()
			_, inSync := prev.Data[key][nowKey]
			stat, hasStat := p.stats[key]
			needOlder := hasStat && start.Before(stat.OldestDateRequested)
			// TODO: an otherwise fresh map with holes in the middle is not detected here.
			if inSync && !needOlder {
				continue
			}

			if !hasStat || start.Before(stat.OldestDateRequested) {
				stat.OldestDateRequested = start
			}
			p.stats[key] = stat

			p.historical = append(p.historical, historicalRequest{
				granularity: g,
				pair:        TrackingPair{From: pair.From, To: pair.To, StartDate: start},
				key:         key,
			})
		}
	}

	return p
}

func clampStart(start, now time.Time, cfg granularityConfig) time.Time {
	if start.IsZero() {
		start = now
	}
	if cfg.minDateDelta > 0 {
		if minDate := now.Add(-cfg.minDateDelta); minDate.Before(start) {
			start = minDate
		}
	}
	if cfg.maxDateDelta > 0 {
		if maxDate := now.Add(-cfg.maxDateDelta); start.Before(maxDate) {
			start = maxDate
		}
	}
	return start
}
