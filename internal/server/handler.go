package server

import (
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/ahmethakanbesel/countervalues/internal/apperror"
	"github.com/ahmethakanbesel/countervalues/internal/countervalue"
	"github.com/ahmethakanbesel/countervalues/internal/currency"
)

type handler struct {
	registry *currency.Registry
	states   StateSource
	tickers  TickerSource
}

type healthResponse struct {
	Status   string     `json:"status"`
	Pairs    int        `json:"pairs"`
	LastSync *time.Time `json:"lastSync,omitempty"`
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{Status: "ok", Pairs: len(h.states.State().Cache)}
	if t := h.states.LastSync(); !t.IsZero() {
		resp.LastSync = &t
	}
	writeJSON(w, http.StatusOK, resp)
}

type pairResponse struct {
	Pair       string   `json:"pair"`
	OldestDate string   `json:"oldestDate,omitempty"`
	NewestDate string   `json:"newestDate,omitempty"`
	Latest     *float64 `json:"latest,omitempty"`
	Rates      int      `json:"rates"`
}

func (h *handler) listPairs(w http.ResponseWriter, _ *http.Request) {
	state := h.states.State()

	keys := make([]string, 0, len(state.Cache))
	for k := range state.Cache {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]pairResponse, 0, len(keys))
	for _, k := range keys {
		c := state.Cache[k]
		p := pairResponse{Pair: k, OldestDate: c.OldestDate, NewestDate: c.NewestDate, Rates: len(c.Map)}
		if v, ok := c.Map.Latest(); ok {
			p.Latest = &v
		}
		pairs = append(pairs, p)
	}
	writeJSON(w, http.StatusOK, pairs)
}

type convertResponse struct {
	From         string     `json:"from"`
	To           string     `json:"to"`
	Value        float64    `json:"value"`
	Date         *time.Time `json:"date,omitempty"`
	Countervalue float64    `json:"countervalue"`
}

func (h *handler) convert(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	date, err := parseDate(q.Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	req := ConvertRequest{
		From:            r.PathValue("from"),
		To:              r.PathValue("to"),
		Date:            date,
		DisableRounding: parseBool(q.Get("raw")),
	}
	v := q.Get("value")
	if v != "" {
		req.Value, err = strconv.ParseFloat(v, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid value")
			return
		}
	}

	from, to, appErr := h.resolvePair(req.From, req.To)
	if appErr != nil {
		writeAppError(w, appErr)
		return
	}
	if v == "" {
		// one whole unit of the source currency
		req.Value = math.Pow10(int(from.Magnitude))
	}
	if appErr := req.Validate(); appErr != nil {
		writeAppError(w, appErr)
		return
	}

	cv, ok := countervalue.Calculate(h.states.State(), countervalue.Query{
		Value:           req.Value,
		From:            from,
		To:              to,
		Date:            req.Date,
		DisableRounding: req.DisableRounding,
	})
	notePair(r, countervalue.PairID(from.Ticker, to.Ticker), &ok)
	if !ok {
		ae := apperror.Newf(apperror.NotFound, "no rate known for %s", countervalue.PairID(from.Ticker, to.Ticker))
		writeAppError(w, ae)
		return
	}

	resp := convertResponse{From: from.Ticker, To: to.Ticker, Value: req.Value, Countervalue: cv}
	if !req.Date.IsZero() {
		resp.Date = &req.Date
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) convertBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.From = r.PathValue("from")
	req.To = r.PathValue("to")

	if appErr := req.Validate(); appErr != nil {
		writeAppError(w, appErr)
		return
	}
	from, to, appErr := h.resolvePair(req.From, req.To)
	if appErr != nil {
		writeAppError(w, appErr)
		return
	}

	notePair(r, countervalue.PairID(from.Ticker, to.Ticker), nil)
	writeJSON(w, http.StatusOK, countervalue.CalculateMany(h.states.State(), req.Points, from, to))
}

func (h *handler) sync(w http.ResponseWriter, _ *http.Request) {
	h.states.Notify()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "scheduled"})
}

func (h *handler) listTickers(w http.ResponseWriter, r *http.Request) {
	tickers, err := h.tickers.MarketcapTickers(r.Context())
	if err != nil {
		ae := apperror.Wrap(apperror.Upstream, "rate provider unavailable", err)
		slog.Error("list tickers", "error", ae, "requestID", RequestID(r.Context()))
		writeAppError(w, ae)
		return
	}
	if tickers == nil {
		tickers = []string{}
	}
	writeJSON(w, http.StatusOK, tickers)
}

func (h *handler) resolvePair(fromID, toID string) (currency.Currency, currency.Currency, *apperror.AppError) {
	from, err := h.registry.Resolve(fromID)
	if err != nil {
		return currency.Currency{}, currency.Currency{}, apperror.Newf(apperror.NotFound, "unknown currency %s", fromID)
	}
	to, err := h.registry.Resolve(toID)
	if err != nil {
		return currency.Currency{}, currency.Currency{}, apperror.Newf(apperror.NotFound, "unknown currency %s", toID)
	}
	return from, to, nil
}
