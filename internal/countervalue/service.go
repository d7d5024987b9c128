package countervalue

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const defaultWorkers = 5

// Service synchronizes States against a Provider.
type Service struct {
	provider Provider
	workers  int
	hourly   bool
	now      func() time.Time
}

func NewService(p Provider, opts ...Option) *Service {
	s := &Service{
		provider: p,
		workers:  defaultWorkers,
		now:      time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

type Option func(*Service)

// WithWorkers caps the number of in-flight historical fetches.
func WithWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithHourly enables the hourly granularity, limited to the last 7 days.
func WithHourly(enabled bool) Option {
	return func(s *Service) { s.hourly = enabled }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func (s *Service) Granularities() []Granularity {
	if s.hourly {
		return []Granularity{Daily, Hourly}
	}
	return []Granularity{Daily}
}

// Now returns the service clock's current time.
func (s *Service) Now() time.Time { return s.now() }

// Load synchronizes state with the provider and returns the new State. It
// never fails: pairs whose fetch failed keep their previous data and are
// retried by the next call. state is left untouched and may be nil.
func (s *Service) Load(ctx context.Context, state *State, settings Settings) *State {
	if state == nil {
		state = NewState()
	}
	syncID := uuid.NewString()
	now := s.now()

	plan := planSync(state, settings, s.Granularities(), now)

	patches, err := s.fetch(ctx, plan)
	if err != nil {
		slog.Warn("countervalues synchronized with failures", "sync", syncID, "error", err)
	}

	data := cloneMap(state.Data)
	touched := mergePatches(data, patches)

	cache := cloneMap(state.Cache)
	for _, key := range touched {
		cache[key] = BuildCache(data[key], settings.AutofillGaps, now)
	}

	slog.Info("countervalues synchronized", "sync", syncID,
		"pairs", len(settings.TrackingPairs), "historical", len(plan.historical), "updated", len(touched))

	return &State{Data: data, Stats: plan.stats, Cache: cache}
}

// MarketcapTickers lists the tickers the provider ranks by market cap.
func (s *Service) MarketcapTickers(ctx context.Context) ([]string, error) {
	return s.provider.FetchMarketcapTickers(ctx)
}
