package metrics

import (
	"net/http"
	"time"

	"github.com/bnema/browserfarm-cli/internal/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics implements ports.SessionObserver and ports.HubObserver.
type Metrics struct {
	registry *prometheus.Registry

	OpenAttemptsTotal  *prometheus.CounterVec   // outcome=opened|timed_out|polling_exhausted|failed
	OpenLatencyMS      *prometheus.HistogramVec // outcome
	BrowserStartsTotal *prometheus.CounterVec   // result=success|fail
	TerminationsTotal  *prometheus.CounterVec   // result=success|fail
	NotificationsTotal *prometheus.CounterVec   // result=delivered|dropped
	FreeMachineGauge   prometheus.Gauge
	HubConnections     prometheus.Gauge
}

// New registers every collector on a private registry so several instances
// can coexist in one process.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		OpenAttemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "browserfarm_open_attempts_total",
				Help: "Total session open attempts by outcome",
			},
			[]string{"outcome"},
		),
		OpenLatencyMS: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "browserfarm_open_latency_ms",
				Help:    "Time from registration to the end of an open attempt (ms)",
				Buckets: prometheus.ExponentialBuckets(250, 2, 10), // 250ms .. ~128s
			},
			[]string{"outcome"},
		),
		BrowserStartsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "browserfarm_browser_starts_total",
				Help: "Total browser starts after retries, by result",
			},
			[]string{"result"},
		),
		TerminationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "browserfarm_worker_terminations_total",
				Help: "Total terminations of half-open workers, by result",
			},
			[]string{"result"},
		),
		NotificationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "browserfarm_hub_notifications_total",
				Help: "Total hub correlation requests by result",
			},
			[]string{"result"},
		),
		FreeMachineGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "browserfarm_free_machines",
			Help: "Free machines seen on the last capacity check",
		}),
		HubConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "browserfarm_hub_open_connections",
			Help: "Connections currently open on the hub",
		}),
	}

	m.registry.MustRegister(
		m.OpenAttemptsTotal,
		m.OpenLatencyMS,
		m.BrowserStartsTotal,
		m.TerminationsTotal,
		m.NotificationsTotal,
		m.FreeMachineGauge,
		m.HubConnections,
		collectors.NewGoCollector(),
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) OpenAttempt(outcome ports.AttemptOutcome, elapsed time.Duration) {
	m.OpenAttemptsTotal.WithLabelValues(string(outcome)).Inc()
	m.OpenLatencyMS.WithLabelValues(string(outcome)).Observe(float64(elapsed.Milliseconds()))
}

func (m *Metrics) BrowserStart(ok bool) {
	m.BrowserStartsTotal.WithLabelValues(result(ok)).Inc()
}

func (m *Metrics) WorkerTerminated(err error) {
	m.TerminationsTotal.WithLabelValues(result(err == nil)).Inc()
}

func (m *Metrics) FreeMachines(free int) {
	m.FreeMachineGauge.Set(float64(free))
}

func (m *Metrics) Notification(delivered bool) {
	label := "dropped"
	if delivered {
		label = "delivered"
	}
	m.NotificationsTotal.WithLabelValues(label).Inc()
}

func (m *Metrics) OpenConnections(n int) {
	m.HubConnections.Set(float64(n))
}

func result(ok bool) string {
	if ok {
		return "success"
	}
	return "fail"
}

var (
	_ ports.SessionObserver = (*Metrics)(nil)
	_ ports.HubObserver     = (*Metrics)(nil)
)
