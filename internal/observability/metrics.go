package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	connectionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "minitel",
			Subsystem: "server",
			Name:      "connections_total",
			Help:      "Total accepted connections.",
		},
	)
	connectionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "minitel",
			Subsystem: "server",
			Name:      "connections_active",
			Help:      "Currently open connections.",
		},
	)
	connectionsClosed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "minitel",
			Subsystem: "server",
			Name:      "connections_closed_total",
			Help:      "Connections closed, by reason.",
		},
		[]string{"reason"},
	)
	framesProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "minitel",
			Subsystem: "server",
			Name:      "frames_total",
			Help:      "Frames processed, by command.",
		},
		[]string{"command"},
	)
	dumpResponses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "minitel",
			Subsystem: "server",
			Name:      "dump_responses_total",
			Help:      "DUMP responses served, by result.",
		},
		[]string{"result"},
	)
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "minitel",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total admin HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "minitel",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Admin HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			connectionsTotal, connectionsActive, connectionsClosed,
			framesProcessed, dumpResponses,
			httpRequests, httpDuration,
		)
	})
}

func RecordConnectionOpened() {
	RegisterMetrics()
	connectionsTotal.Inc()
	connectionsActive.Inc()
}

func RecordConnectionClosed(reason string) {
	RegisterMetrics()
	connectionsActive.Dec()
	connectionsClosed.WithLabelValues(reason).Inc()
}

func RecordFrame(command string) {
	RegisterMetrics()
	framesProcessed.WithLabelValues(command).Inc()
}

func RecordDumpResponse(result string) {
	RegisterMetrics()
	dumpResponses.WithLabelValues(result).Inc()
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}
