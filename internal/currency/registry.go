package currency

import (
	"fmt"
	"sync"
)

// Registry is a read-mostly lookup table of known currencies. It replaces
// process-wide currency tables: build one at startup and pass it around.
type Registry struct {
	mu       sync.RWMutex
	byID     map[string]Currency
	byTicker map[string]Currency
}

func NewRegistry(currencies ...Currency) *Registry {
	r := &Registry{
		byID:     make(map[string]Currency),
		byTicker: make(map[string]Currency),
	}
	for _, c := range currencies {
		r.Register(c)
	}
	return r
}

// Register adds c to the registry. A token whose ticker collides with a
// registered crypto currency gets its countervalue disabled. When several
// currencies share a ticker, the one with countervalue enabled wins the ticker
// index.
func (r *Registry) Register(c Currency) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c.Kind == KindToken {
		if existing, ok := r.byTicker[c.Ticker]; ok && existing.Kind == KindCrypto {
			c.DisableCountervalue = true
		}
	}

	r.byID[c.ID] = c

	existing, ok := r.byTicker[c.Ticker]
	if !ok || (existing.DisableCountervalue && !c.DisableCountervalue) {
		r.byTicker[c.Ticker] = c
	}
}

func (r *Registry) Get(id string) (Currency, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byID[id]
	if !ok {
		return Currency{}, fmt.Errorf("currency not found: %s", id)
	}
	return c, nil
}

func (r *Registry) FindByTicker(ticker string) (Currency, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byTicker[ticker]
	return c, ok
}

// Resolve looks a currency up by id first, then by ticker.
func (r *Registry) Resolve(idOrTicker string) (Currency, error) {
	if c, err := r.Get(idOrTicker); err == nil {
		return c, nil
	}
	if c, ok := r.FindByTicker(idOrTicker); ok {
		return c, nil
	}
	return Currency{}, fmt.Errorf("currency not found: %s", idOrTicker)
}
