// Package refresh keeps a countervalue State up to date in the background.
package refresh

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ahmethakanbesel/countervalues/internal/countervalue"
)

// Loader runs one synchronization. *countervalue.Service implements it.
type Loader interface {
	Load(ctx context.Context, state *countervalue.State, settings countervalue.Settings) *countervalue.State
}

// Store persists the raw part of a State.
type Store interface {
	Save(ctx context.Context, snap countervalue.Snapshot) (int64, error)
	DeletePair(ctx context.Context, pair string) error
}

// Refresher runs Loader.Load on a ticker or when notified and publishes the
// resulting State. Readers always see a complete State; the last finished
// run wins.
type Refresher struct {
	loader   Loader
	store    Store
	settings func() countervalue.Settings
	interval time.Duration
	prune    bool
	now      func() time.Time
	notify   chan struct{}

	mu       sync.Mutex // one run at a time
	state    atomic.Pointer[countervalue.State]
	lastSync atomic.Pointer[time.Time]
}

func New(loader Loader, settings func() countervalue.Settings, opts ...Option) *Refresher {
	r := &Refresher{
		loader:   loader,
		settings: settings,
		interval: 5 * time.Minute,
		now:      time.Now,
		notify:   make(chan struct{}, 1),
	}
	for _, o := range opts {
		o(r)
	}
	if r.state.Load() == nil {
		r.state.Store(countervalue.NewState())
	}
	return r
}

type Option func(*Refresher)

func WithStore(s Store) Option {
	return func(r *Refresher) { r.store = s }
}

func WithInterval(d time.Duration) Option {
	return func(r *Refresher) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithPrune drops, from memory and from the store, every pair that is no
// longer among the tracking pairs after a run.
func WithPrune(enabled bool) Option {
	return func(r *Refresher) { r.prune = enabled }
}

// WithClock sets the time source of LastSync; use the loader's clock.
func WithClock(now func() time.Time) Option {
	return func(r *Refresher) { r.now = now }
}

// WithInitialState seeds the refresher, typically with a restored snapshot.
func WithInitialState(s *countervalue.State) Option {
	return func(r *Refresher) {
		if s != nil {
			r.state.Store(s)
		}
	}
}

// State returns the most recently published State. It must not be modified.
func (r *Refresher) State() *countervalue.State {
	return r.state.Load()
}

// LastSync returns when the last run finished, zero if none has.
func (r *Refresher) LastSync() time.Time {
	if t := r.lastSync.Load(); t != nil {
		return *t
	}
	return time.Time{}
}

// Notify asks for a run as soon as possible. Non-blocking.
func (r *Refresher) Notify() {
	select {
	case r.notify <- struct{}{}:
	default:
	}
}

// Run refreshes immediately, then on every tick or notification, until ctx
// is cancelled.
func (r *Refresher) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		if ctx.Err() != nil {
			return
		}
		r.Refresh(ctx)

		select {
		case <-ctx.Done():
			return
		case <-r.notify:
		case <-ticker.C:
		}
	}
}

// Refresh runs one synchronization, publishes its State and persists it.
func (r *Refresher) Refresh(ctx context.Context) *countervalue.State {
	r.mu.Lock()
	defer r.mu.Unlock()

	settings := r.settings()
	next := r.loader.Load(ctx, r.state.Load(), settings)

	var dropped []string
	if r.prune {
		next, dropped = countervalue.Retain(next, settings.TrackingPairs)
		if len(dropped) > 0 {
			slog.Info("refresh: untracked pairs dropped", "pairs", dropped)
		}
	}

	if ctx.Err() != nil {
		// A cancelled run may hold partial results; keep them in memory but
		// leave the stored snapshot alone.
		r.state.Store(next)
		return next
	}
	r.state.Store(next)
	now := r.now()
	r.lastSync.Store(&now)

	if r.store != nil {
		n, err := r.store.Save(ctx, countervalue.Export(next))
		if err != nil {
			slog.Error("refresh: save snapshot", "error", err)
		} else {
			slog.Debug("refresh: snapshot saved", "rows", n)
		}
		for _, pair := range dropped {
			if err := r.store.DeletePair(ctx, pair); err != nil {
				slog.Error("refresh: delete pair", "pair", pair, "error", err)
			}
		}
	}
	return next
}
