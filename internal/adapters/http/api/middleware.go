package api

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/okian/signconnect/pkg/metrics"
)

// MetricsMiddleware records request counts, latency and error classes for
// one route. Upgraded streams are counted but their lifetime is not
// observed as request latency.
func MetricsMiddleware(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		status := strconv.Itoa(rec.status)
		metrics.RecordHTTPRequest(endpoint, r.Method, status)
		if rec.status == http.StatusSwitchingProtocols {
			return
		}

		elapsed := float64(time.Since(start).Milliseconds())
		metrics.RecordHTTPRequestDuration(endpoint, r.Method, status, elapsed)

		if class, severity, failed := classify(rec.status); failed {
			metrics.RecordErrorByEndpoint(endpoint, r.Method, class)
			metrics.RecordErrorByType(class, severity)
			metrics.RecordErrorLatency("http", class, elapsed)
		}
	}
}

// classify maps a response status onto the error codes the API emits.
func classify(status int) (class, severity string, failed bool) {
	switch status {
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge:
		return "bad_request", "low", true
	case http.StatusNotFound, http.StatusMethodNotAllowed:
		return "not_found", "low", true
	case http.StatusTooManyRequests:
		return "capacity", "medium", true
	case http.StatusBadGateway:
		return "upstream_error", "medium", true
	case http.StatusServiceUnavailable:
		return "unavailable", "medium", true
	}
	switch {
	case status >= http.StatusInternalServerError:
		return "internal_error", "high", true
	case status >= http.StatusBadRequest:
		return "client_error", "low", true
	}
	return "", "", false
}

// statusRecorder remembers the status written through it.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("write response: %w", err)
	}
	return n, nil
}

// Hijack lets the stream route upgrade to a WebSocket through the recorder.
func (rw *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("%w: response writer does not support hijacking", ErrUpgrade)
	}
	rw.status = http.StatusSwitchingProtocols
	return hj.Hijack()
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (rw *statusRecorder) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
