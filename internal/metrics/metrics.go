// Package metrics provides Prometheus metrics for feed replenishment.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"PaperFeed/internal/ports"
)

const namespace = "paperfeed"

// Replenish implements ports.ReplenishMetrics on its own registry.
type Replenish struct {
	registry *prometheus.Registry

	entriesStored  prometheus.Counter
	entriesSkipped *prometheus.CounterVec
	passes         *prometheus.CounterVec
	passSize       prometheus.Histogram
	consumed       prometheus.Counter
	httpRequests   *prometheus.CounterVec
}

var _ ports.ReplenishMetrics = (*Replenish)(nil)

// New registers all collectors, plus Go runtime and process collectors.
func New() *Replenish {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Replenish{
		registry: reg,
		entriesStored: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_entries_stored_total",
			Help:      "Feed entries generated and stored",
		}),
		entriesSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_entries_skipped_total",
			Help:      "Candidate papers skipped during generation",
		}, []string{"reason"}),
		passes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_passes_total",
			Help:      "Finished generation passes by outcome",
		}, []string{"status"}),
		passSize: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_pass_entries",
			Help:      "Entries stored per generation pass",
			Buckets:   []float64{0, 1, 5, 10, 20, 30, 50},
		}),
		consumed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_entries_consumed_total",
			Help:      "Feed entries delivered to clients",
		}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code",
		}, []string{"method", "route", "code"}),
	}
}

func (m *Replenish) EntryStored() {
	m.entriesStored.Inc()
}

func (m *Replenish) EntrySkipped(reason string) {
	m.entriesSkipped.WithLabelValues(reason).Inc()
}

// PassFinished records the outcome of a pass.
func (m *Replenish) PassFinished(stored int, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.passes.WithLabelValues(status).Inc()
	m.passSize.Observe(float64(stored))
}

func (m *Replenish) Consumed() {
	m.consumed.Inc()
}

// ObserveRequest counts one served HTTP request.
func (m *Replenish) ObserveRequest(method, route string, code int) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (m *Replenish) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Replenish) Registry() *prometheus.Registry {
	return m.registry
}
