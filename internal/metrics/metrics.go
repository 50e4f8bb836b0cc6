// Package metrics exposes Prometheus counters for HTTP traffic, collection
// toggles and ajax failures on a per-server registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gameshelf"

// Recorder is what the rest of the server reports into.
type Recorder interface {
	ObserveRequest(route, method string, status int, duration time.Duration)
	IncToggle(collectionType string, active bool)
	IncTeamChoice(active bool)
	IncAjaxFailure(action, kind string)
	// GaugeFunc registers a gauge sampled at scrape time.
	GaugeFunc(name, help string, fn func() float64)
	Handler() http.Handler
}

// Metrics is the Prometheus-backed Recorder.
type Metrics struct {
	registry        *prometheus.Registry
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	togglesTotal    *prometheus.CounterVec
	teamChoiceTotal *prometheus.CounterVec
	ajaxFailures    *prometheus.CounterVec
}

// New returns a Recorder. When enabled is false every method is a no-op
// and Handler responds 404.
func New(enabled bool) Recorder {
	if !enabled {
		return noop{}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"route", "method", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		togglesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collection_toggles_total",
			Help:      "Successful collection toggles by type and resulting state",
		}, []string{"type", "state"}),
		teamChoiceTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "team_choice_changes_total",
			Help:      "Team choice flag changes by resulting state",
		}, []string{"state"}),
		ajaxFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ajax_failures_total",
			Help:      "Failed ajax actions by action and error code",
		}, []string{"action", "kind"}),
	}
	reg.MustRegister(m.requestsTotal, m.requestDuration, m.togglesTotal, m.teamChoiceTotal, m.ajaxFailures)
	return m
}

// ObserveRequest records one HTTP request.
func (m *Metrics) ObserveRequest(route, method string, status int, duration time.Duration) {
	m.requestsTotal.WithLabelValues(route, method, statusBucket(status)).Inc()
	m.requestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// IncToggle counts a successful favorite/owned toggle.
func (m *Metrics) IncToggle(collectionType string, active bool) {
	m.togglesTotal.WithLabelValues(collectionType, stateLabel(active)).Inc()
}

// IncTeamChoice counts a team choice change.
func (m *Metrics) IncTeamChoice(active bool) {
	m.teamChoiceTotal.WithLabelValues(stateLabel(active)).Inc()
}

// IncAjaxFailure counts an ajax action that answered success:false.
func (m *Metrics) IncAjaxFailure(action, kind string) {
	m.ajaxFailures.WithLabelValues(action, kind).Inc()
}

// GaugeFunc registers a gauge sampled at scrape time.
func (m *Metrics) GaugeFunc(name, help string, fn func() float64) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}, fn))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func stateLabel(active bool) string {
	if active {
		return "on"
	}
	return "off"
}

func statusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

type noop struct{}

func (noop) ObserveRequest(string, string, int, time.Duration) {}
func (noop) IncToggle(string, bool)                            {}
func (noop) IncTeamChoice(bool)                                {}
func (noop) IncAjaxFailure(string, string)                     {}
func (noop) GaugeFunc(string, string, func() float64)          {}
func (noop) Handler() http.Handler                             { return http.NotFoundHandler() }
