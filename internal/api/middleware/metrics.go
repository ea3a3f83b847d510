package middleware

import (
	"net/http"
	"sync/atomic"
)

// MetricsCollector counts requests by outcome class.
type MetricsCollector struct {
	requests     atomic.Int64
	clientErrors atomic.Int64
	serverErrors atomic.Int64
	rateLimited  atomic.Int64
}

func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{}
}

// RequestMetrics is a point-in-time copy of the counters.
type RequestMetrics struct {
	Requests     int64 `json:"request_count"`
	ClientErrors int64 `json:"client_error_count"`
	ServerErrors int64 `json:"server_error_count"`
	RateLimited  int64 `json:"rate_limited_count"`
}

func (mc *MetricsCollector) Snapshot() RequestMetrics {
	return RequestMetrics{
		Requests:     mc.requests.Load(),
		ClientErrors: mc.clientErrors.Load(),
		ServerErrors: mc.serverErrors.Load(),
		RateLimited:  mc.rateLimited.Load(),
	}
}

func (mc *MetricsCollector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mc.requests.Add(1)

		rw := newResponseWriter(w)
		next.ServeHTTP(rw, r)

		switch {
		case rw.statusCode == http.StatusTooManyRequests:
			mc.rateLimited.Add(1)
			mc.clientErrors.Add(1)
		case rw.statusCode >= 500:
			mc.serverErrors.Add(1)
		case rw.statusCode >= 400:
			mc.clientErrors.Add(1)
		}
	})
}
