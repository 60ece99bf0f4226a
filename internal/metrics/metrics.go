package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	QueriesAnswered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kisanmitra_queries_answered_total", Help: "Questions answered, by category and answer source.",
	}, []string{"category", "source"})

	QueriesRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kisanmitra_queries_rejected_total", Help: "Questions rejected because they were blank.",
	})

	RemoteFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kisanmitra_remote_advisor_failures_total", Help: "Remote advisor calls that fell back to the canned answer.",
	})

	RemoteLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "kisanmitra_remote_advisor_latency_seconds",
		Help:    "Latency of remote advisor calls, successful or not.",
		Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64},
	})

	QueryLogWriteErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kisanmitra_query_log_write_errors_total", Help: "Query records that could not be persisted.",
	})

	HTTPRequests = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "kisanmitra_http_request_duration_seconds",
		Help:    "HTTP request latency by route and status code.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)
