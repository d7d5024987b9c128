package countervalue

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"
)

// Patch is a partial update of one or more pairs' rate maps.
type Patch map[string]RateMap

type fetchResult struct {
	patch Patch
	err   error
}

// fetch runs the planned historical requests and the latest request
// concurrently. Failed requests produce no patch; their errors are returned
// aggregated for reporting only.
func (s *Service) fetch(ctx context.Context, p syncPlan) ([]Patch, error) {
	var (
		wg     sync.WaitGroup
		latest fetchResult
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		latest = s.fetchLatest(ctx, p.latest)
	}()

	results := s.fetchHistorical(ctx, p.historical)
	wg.Wait()
	results = append(results, latest)

	var ferr *multierror.Error
	patches := make([]Patch, 0, len(results))
	for _, r := range results {
		if r.err != nil {
			ferr = multierror.Append(ferr, r.err)
			continue
		}
		if len(r.patch) > 0 {
			patches = append(patches, r.patch)
		}
	}
	return patches, ferr.ErrorOrNil()
}

func (s *Service) fetchHistorical(ctx context.Context, reqs []historicalRequest) []fetchResult {
	results := make([]fetchResult, len(reqs))

	// A plain group: one failing pair must not cancel the others.
	var g errgroup.Group
	g.SetLimit(s.workers)

	for i, r := range reqs {
		g.Go(func() error {
			rates, err := s.provider.FetchHistorical(ctx, r.granularity, r.pair)
			if err != nil {
				slog.Error("failed to fetch countervalue history",
					"granularity", r.granularity, "pair", r.key,
					"startDate", FormatDay(r.pair.StartDate), "error", err)
				results[i] = fetchResult{err: fmt.Errorf("%s history for %s: %w", r.granularity, r.key, err)}
				return nil
			}
			results[i] = fetchResult{patch: Patch{r.key: rates}}
			return nil
		})
	}

	_ = g.Wait()
	return results
}

func (s *Service) fetchLatest(ctx context.Context, pairs []TrackingPair) fetchResult {
	if len(pairs) == 0 {
		return fetchResult{}
	}

	rates, err := s.provider.FetchLatest(ctx, pairs)
	if err != nil {
		ids := make([]string, len(pairs))
		for i, p := range pairs {
			ids[i] = p.ID()
		}
		slog.Error("failed to fetch latest countervalues", "pairs", strings.Join(ids, ","), "error", err)
		return fetchResult{err: fmt.Errorf("latest for %d pairs: %w", len(pairs), err)}
	}

	patch := make(Patch, len(pairs))
	for i, p := range pairs {
		if i >= len(rates) || rates[i] == nil {
			continue
		}
		patch[p.ID()] = RateMap{LatestKey: *rates[i]}
	}
	return fetchResult{patch: patch}
}
