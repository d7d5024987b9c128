package server

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmethakanbesel/countervalues/internal/countervalue"
	"github.com/ahmethakanbesel/countervalues/internal/currency"
)

// captureLogs routes the default logger into a buffer for the test.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func requestLogLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		if entry["msg"] == "request" {
			return entry
		}
	}
	t.Fatal("no request log line")
	return nil
}

func newLoggedHandler() http.Handler {
	state := countervalue.Import(countervalue.Snapshot{
		Rates: map[string]countervalue.RateMap{"BTC-USD": {countervalue.LatestKey: 65000}},
	}, true, testNow)
	return NewHandler(currency.DefaultRegistry(), &fakeStates{state: state}, &fakeTickers{})
}

func TestLogging_ConversionFields(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		wantKnown bool
		wantPair  string
	}{
		{name: "known rate", path: "/api/v1/countervalues/bitcoin/USD", wantKnown: true, wantPair: "BTC-USD"},
		{name: "unknown rate", path: "/api/v1/countervalues/ETH/EUR", wantKnown: false, wantPair: "ETH-EUR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureLogs(t)

			rec := httptest.NewRecorder()
			newLoggedHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			entry := requestLogLine(t, buf)
			assert.Equal(t, "GET /api/v1/countervalues/{from}/{to}", entry["route"])
			assert.Equal(t, tt.wantPair, entry["pair"])
			assert.Equal(t, tt.wantKnown, entry["known"])
			assert.Equal(t, float64(rec.Code), entry["status"])
			assert.NotEmpty(t, entry["requestID"])
		})
	}
}

func TestLogging_NoPairOutsideConversions(t *testing.T) {
	buf := captureLogs(t)

	rec := httptest.NewRecorder()
	newLoggedHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	entry := requestLogLine(t, buf)
	assert.Equal(t, "GET /health", entry["route"])
	assert.NotContains(t, entry, "pair")
	assert.NotContains(t, entry, "known")
}
