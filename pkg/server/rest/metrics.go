package rest

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	HttpRequestsTotal   *prometheus.CounterVec
	HttpRequestDuration *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HttpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "railnav",
			Name:      "http_requests_total",
			Help:      "number of http requests",
		}, []string{"path", "method", "status"}),
		HttpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "railnav",
			Name:      "http_request_duration_seconds",
			Help:      "http request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"path", "method"}),
	}
	reg.MustRegister(m.HttpRequestsTotal, m.HttpRequestDuration)
	return m
}

// PromeHttpMiddleware records request count and latency per route.
func PromeHttpMiddleware(m *Metrics) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			m.HttpRequestsTotal.WithLabelValues(r.URL.Path, r.Method,
				strconv.Itoa(ww.Status())).Inc()
			m.HttpRequestDuration.WithLabelValues(r.URL.Path, r.Method).
				Observe(time.Since(start).Seconds())
		}
		return http.HandlerFunc(fn)
	}
}
