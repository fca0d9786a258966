package metrics

import (
	"net/http"
	"time"

	"chain-explorer/internal/domain/entity"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "chain_explorer"

// Metrics holds the explorer's collectors on a dedicated registry
type Metrics struct {
	registry *prometheus.Registry

	decodedCalls      *prometheus.CounterVec
	transferPages     prometheus.Counter
	incompleteFetches prometheus.Counter
	ownerLookups      *prometheus.CounterVec
	rejectedLogs      *prometheus.CounterVec
	supersededLookups prometheus.Counter
	rpcDuration       *prometheus.HistogramVec
	selectorCount     prometheus.Gauge
	selectorCollision prometheus.Gauge
}

// New creates and registers all collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		decodedCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decoded_calls_total",
			Help:      "Calldata decode attempts by outcome.",
		}, []string{"outcome", "source"}),
		transferPages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transfer_pages_total",
			Help:      "Transfer pages fetched.",
		}),
		incompleteFetches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "incomplete_transfer_fetches_total",
			Help:      "Transfer fetches stopped at the page limit.",
		}),
		ownerLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "owner_lookups_total",
			Help:      "Per-token owner lookups by outcome.",
		}, []string{"outcome"}),
		rejectedLogs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejected_logs_total",
			Help:      "Log entries dropped by the stream filter.",
		}, []string{"reason"}),
		supersededLookups: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "superseded_lookups_total",
			Help:      "Token lookups cancelled by a newer submission.",
		}),
		rpcDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of explorer operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation", "has_error"}),
		selectorCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "registered_selectors",
			Help:      "Selectors in the registry.",
		}),
		selectorCollision: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "selector_collisions",
			Help:      "Selector registrations replaced by a later ABI.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.decodedCalls,
		m.transferPages,
		m.incompleteFetches,
		m.ownerLookups,
		m.rejectedLogs,
		m.supersededLookups,
		m.rpcDuration,
		m.selectorCount,
		m.selectorCollision,
	)

	return m
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveDecode counts a decode attempt. An empty source with no error means an unknown selector.
func (m *Metrics) ObserveDecode(call *entity.DecodedCall, err error) {
	switch {
	case err != nil:
		m.decodedCalls.WithLabelValues("error", "").Inc()
	case call == nil || !call.Known():
		m.decodedCalls.WithLabelValues("unknown", "").Inc()
	default:
		m.decodedCalls.WithLabelValues("decoded", call.Source).Inc()
	}
}

// ObserveTransferFetch records the outcome of a pagination run
func (m *Metrics) ObserveTransferFetch(result *entity.TransferFetchResult) {
	if result == nil {
		return
	}
	m.transferPages.Add(float64(result.Pages))
	if !result.Complete {
		m.incompleteFetches.Inc()
	}
}

// ObserveOwnerLookup counts a single token's owner lookup
func (m *Metrics) ObserveOwnerLookup(err error) {
	if err != nil {
		m.ownerLookups.WithLabelValues("error").Inc()
		return
	}
	m.ownerLookups.WithLabelValues("ok").Inc()
}

// ObserveRejectedLog counts a filtered log entry
func (m *Metrics) ObserveRejectedLog(reason entity.LogRejectReason) {
	m.rejectedLogs.WithLabelValues(string(reason)).Inc()
}

// ObserveSuperseded counts a cancelled lookup
func (m *Metrics) ObserveSuperseded() {
	m.supersededLookups.Inc()
}

// ObserveDuration records how long an operation took
func (m *Metrics) ObserveDuration(operation string, start time.Time, err error) {
	hasError := "false"
	if err != nil {
		hasError = "true"
	}
	m.rpcDuration.WithLabelValues(operation, hasError).Observe(time.Since(start).Seconds())
}

// SetSelectorStats publishes registry size and collision count
func (m *Metrics) SetSelectorStats(selectors, collisions int) {
	m.selectorCount.Set(float64(selectors))
	m.selectorCollision.Set(float64(collisions))
}
