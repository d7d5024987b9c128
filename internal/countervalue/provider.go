package countervalue

import "context"

// Provider is the remote source of rates. Implementations own their retry
// policy; the loader never retries a failed call within a synchronization.
type Provider interface {
	// FetchHistorical returns the rates of pair at granularity g from
	// pair.StartDate up to now.
	FetchHistorical(ctx context.Context, g Granularity, pair TrackingPair) (RateMap, error)
	// FetchLatest returns one rate per pair, in order. A nil entry means the
	// rate is unknown.
	FetchLatest(ctx context.Context, pairs []TrackingPair) ([]*float64, error)
	FetchMarketcapTickers(ctx context.Context) ([]string, error)
}
