package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "battle_tracker"

// Metrics are the ingestion counters exported on /metrics. Each instance owns its registry.
type Metrics struct {
	registry *prometheus.Registry

	reads          *prometheus.CounterVec
	readAttempts   prometheus.Histogram
	droppedTrigger prometheus.Counter
	lastSuccess    prometheus.Gauge
	members        prometheus.Gauge
	catalogKeys    *prometheus.GaugeVec
	settingsSaves  prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		reads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reads_total",
			Help:      "Stats file reads by outcome.",
		}, []string{"outcome"}),
		readAttempts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "read_attempts",
			Help:      "Attempts needed per stats file read.",
			Buckets:   []float64{1, 2, 3, 4, 5, 8},
		}),
		droppedTrigger: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_dropped_total",
			Help:      "Refresh triggers dropped because a refresh was in flight.",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful read.",
		}),
		members: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "party_members",
			Help:      "Party members in the current snapshot.",
		}),
		catalogKeys: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_keys",
			Help:      "Metric keys known per scope.",
		}, []string{"scope"}),
		settingsSaves: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settings_saves_total",
			Help:      "Settings file writes.",
		}),
	}

	m.registry.MustRegister(
		m.reads,
		m.readAttempts,
		m.droppedTrigger,
		m.lastSuccess,
		m.members,
		m.catalogKeys,
		m.settingsSaves,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) ObserveRead(outcome string, attempts int) {
	m.reads.WithLabelValues(outcome).Inc()
	if attempts > 0 {
		m.readAttempts.Observe(float64(attempts))
	}
}

func (m *Metrics) ObserveSnapshot(at time.Time, members int) {
	m.lastSuccess.Set(float64(at.Unix()))
	m.members.Set(float64(members))
}

func (m *Metrics) RefreshDropped() {
	m.droppedTrigger.Inc()
}

func (m *Metrics) SetCatalogSize(scope string, keys int) {
	m.catalogKeys.WithLabelValues(scope).Set(float64(keys))
}

func (m *Metrics) SettingsSaved() {
	m.settingsSaves.Inc()
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
