package pkg

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Registry = prometheus.NewRegistry()

	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "qa_community",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "qa_community",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "route"},
	)

	EventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "qa_community",
			Subsystem: "notify",
			Name:      "events_published_total",
			Help:      "Change events published on the notification bus.",
		},
		[]string{"channel", "type"},
	)

	SinkErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "qa_community",
			Subsystem: "notify",
			Name:      "sink_errors_total",
			Help:      "Failed deliveries per notification sink.",
		},
		[]string{"sink"},
	)

	LiveConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "qa_community",
			Subsystem: "notify",
			Name:      "live_connections",
			Help:      "Currently connected websocket clients.",
		},
	)

	DroppedConnections = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "qa_community",
			Subsystem: "notify",
			Name:      "dropped_connections_total",
			Help:      "Websocket clients dropped because their send queue was full.",
		},
	)
)

func init() {
	Registry.MustRegister(
		HTTPRequests,
		HTTPDuration,
		EventsPublished,
		SinkErrors,
		LiveConnections,
		DroppedConnections,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// MetricsHandler 暴露 /metrics
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
