package middleware

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"crosshttp/pkg/httpx"
)

// Metrics observes request counts and latencies on reg. Pair it with a
// promhttp exposition endpoint on the embedding server. Paths are used
// as label values directly; with exact-match routing the cardinality is
// bounded by the route table.
func Metrics(reg prometheus.Registerer) httpx.Middleware {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "crosshttp_requests_total",
		Help: "Dispatched requests by method, path and flushed status.",
	}, []string{"method", "path", "status"})
	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "crosshttp_request_duration_seconds",
		Help:    "Request dispatch duration, middleware chain included.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})
	reg.MustRegister(requests, durations)

	return func(req *httpx.Request, res *httpx.Response, next httpx.Next) error {
		start := time.Now()
		err := next()
		requests.WithLabelValues(req.Method, req.Path, strconv.Itoa(res.Status())).Inc()
		durations.WithLabelValues(req.Method, req.Path).Observe(time.Since(start).Seconds())
		return err
	}
}
