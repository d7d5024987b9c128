package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

type ctxKey string

const requestIDKey ctxKey = "requestID"

// RequestID returns the id the requestID middleware attached to ctx.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				slog.Error("panic recovered", "error", err, "path", r.URL.Path) //nolint:gosec // path is from incoming request, not user-controlled log format
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// conversionLog collects what a countervalue handler resolved so the request
// log line can carry it.
type conversionLog struct {
	pair  string
	known *bool
}

const conversionLogKey ctxKey = "conversionLog"

// notePair records the pair a request converted with and, when known is not
// nil, whether a rate was found.
func notePair(r *http.Request, pair string, known *bool) {
	if l, ok := r.Context().Value(conversionLogKey).(*conversionLog); ok {
		l.pair = pair
		l.known = known
	}
}

func logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		conv := &conversionLog{}
		r = r.WithContext(context.WithValue(r.Context(), conversionLogKey, conv))
		next.ServeHTTP(sw, r)

		attrs := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"route", r.Pattern,
			"status", sw.status,
			"duration", time.Since(start).String(),
			"requestID", RequestID(r.Context()),
		}
		if conv.pair != "" {
			attrs = append(attrs, "pair", conv.pair)
		}
		if conv.known != nil {
			attrs = append(attrs, "known", *conv.known)
		}
		slog.Info("request", attrs...) //nolint:gosec // structured logging, values are not interpolated into format string
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
