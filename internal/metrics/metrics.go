// Package metrics defines the prometheus collectors exported by the album server.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "album"

// Metrics groups the collectors. A nil *Metrics is valid and records nothing,
// so components can take one optionally.
type Metrics struct {
	writes        *prometheus.CounterVec
	notifications *prometheus.CounterVec
	subscribers   *prometheus.GaugeVec
	rpcDuration   *prometheus.HistogramVec
	feedClients   prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		writes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "docstore",
			Name:      "writes_total",
			Help:      "Document writes by collection and operation.",
		}, []string{"collection", "op"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "docstore",
			Name:      "notifications_total",
			Help:      "Snapshots delivered to subscribers.",
		}, []string{"collection"}),
		subscribers: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "docstore",
			Name:      "subscribers",
			Help:      "Active subscriptions by collection.",
		}, []string{"collection"}),
		rpcDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "rpc",
			Name:      "duration_seconds",
			Help:      "Unary RPC latency by procedure and result code.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"procedure", "code"}),
		feedClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "clients",
			Help:      "Connected websocket feed clients.",
		}),
	}
	reg.MustRegister(m.writes, m.notifications, m.subscribers, m.rpcDuration, m.feedClients)
	return m
}

// Handler serves the collectors of gatherer in the prometheus text format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Write counts one write of op ("set" or "remove") to collection.
func (m *Metrics) Write(collection, op string) {
	if m == nil {
		return
	}
	m.writes.WithLabelValues(collection, op).Inc()
}

// Notified counts n snapshot deliveries for collection.
func (m *Metrics) Notified(collection string, n int) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(collection).Add(float64(n))
}

// SubscriberAdded tracks a new subscription.
func (m *Metrics) SubscriberAdded(collection string) {
	if m == nil {
		return
	}
	m.subscribers.WithLabelValues(collection).Inc()
}

// SubscriberRemoved tracks an ended subscription.
func (m *Metrics) SubscriberRemoved(collection string) {
	if m == nil {
		return
	}
	m.subscribers.WithLabelValues(collection).Dec()
}

// RPC records the latency of one call.
func (m *Metrics) RPC(procedure, code string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.rpcDuration.WithLabelValues(procedure, code).Observe(elapsed.Seconds())
}

// FeedConnected and FeedDisconnected track websocket feed clients.
func (m *Metrics) FeedConnected() {
	if m == nil {
		return
	}
	m.feedClients.Inc()
}

func (m *Metrics) FeedDisconnected() {
	if m == nil {
		return
	}
	m.feedClients.Dec()
}
