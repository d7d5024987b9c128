package server

import (
	"context"
	"net/http"
	"time"

	"github.com/ahmethakanbesel/countervalues/internal/countervalue"
	"github.com/ahmethakanbesel/countervalues/internal/currency"
)

// StateSource publishes the current State and accepts sync requests.
// *refresh.Refresher implements it.
type StateSource interface {
	State() *countervalue.State
	LastSync() time.Time
	Notify()
}

// TickerSource lists the provider's marketcap tickers.
// *countervalue.Service implements it.
type TickerSource interface {
	MarketcapTickers(ctx context.Context) ([]string, error)
}

// NewHandler creates the full HTTP handler with routes and middleware.
// Exported for use in tests (e.g., httptest.NewServer).
func NewHandler(registry *currency.Registry, states StateSource, tickers TickerSource) http.Handler {
	h := &handler{
		registry: registry,
		states:   states,
		tickers:  tickers,
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", h.health)
	mux.HandleFunc("GET /api/v1/pairs", h.listPairs)
	mux.HandleFunc("GET /api/v1/countervalues/{from}/{to}", h.convert)
	mux.HandleFunc("POST /api/v1/countervalues/{from}/{to}/batch", h.convertBatch)
	mux.HandleFunc("POST /api/v1/sync", h.sync)
	mux.HandleFunc("GET /api/v1/tickers", h.listTickers)

	// recovery -> requestID -> logging
	var handler http.Handler = mux
	handler = logging(handler)
	handler = requestID(handler)
	handler = recovery(handler)

	return handler
}
