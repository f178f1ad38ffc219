package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/iudanet/ngsiadmin/internal/metrics"
)

// instrumentedTransport логирует и считает каждый запрос к брокеру.
// Токен не логируется.
type instrumentedTransport struct {
	next    http.RoundTripper
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func newInstrumentedTransport(next http.RoundTripper, logger *slog.Logger, m *metrics.Metrics) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return &instrumentedTransport{next: next, logger: logger, metrics: m}
}

// RoundTrip implements http.RoundTripper.
func (t *instrumentedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	resp, err := t.next.RoundTrip(req)

	// Вычисляем длительность
	duration := time.Since(start)

	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	t.metrics.ObserveRequest(req.Method, status, duration)

	if t.logger == nil {
		return resp, err
	}

	if err != nil {
		t.logger.Log(req.Context(), slog.LevelDebug, "HTTP request failed",
			"method", req.Method,
			"path", req.URL.Path,
			"correlator", req.Header.Get(HeaderCorrelator),
			"duration_ms", duration.Milliseconds(),
			"error", err,
		)
		return resp, err
	}

	// Определяем уровень логирования на основе статуса
	logLevel := slog.LevelDebug
	if status >= 500 {
		logLevel = slog.LevelError
	} else if status >= 400 {
		logLevel = slog.LevelWarn
	}

	t.logger.Log(req.Context(), logLevel, "HTTP request",
		"method", req.Method,
		"path", req.URL.Path,
		"query", req.URL.RawQuery,
		"correlator", req.Header.Get(HeaderCorrelator),
		"status", status,
		"duration_ms", duration.Milliseconds(),
	)

	return resp, nil
}
