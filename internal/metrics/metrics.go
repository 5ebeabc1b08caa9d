// Package metrics holds the Prometheus collectors of one hop.
//
// Every hop owns its own registry so several hops can run in one process
// (and in one test binary) without colliding on the default registerer.
// All methods are safe to call on a nil *Metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "chain"

// Metrics groups the collectors exported by a hop.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
	downstreamRequests *prometheus.CounterVec
	downstreamDuration *prometheus.HistogramVec
	injectedFaults     *prometheus.CounterVec
	branchFailures     *prometheus.CounterVec
}

// New registers the collectors for service. inFlight, when non-nil, backs a
// gauge of outstanding downstream calls.
func New(service string, inFlight func() float64) *Metrics {
	reg := prometheus.NewRegistry()
	labels := prometheus.Labels{"service": service}

	m := &Metrics{
		registry: reg,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "http_requests_total",
			Help:        "Requests served by this hop.",
			ConstLabels: labels,
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "http_request_duration_seconds",
			Help:        "Latency of requests served by this hop.",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"method", "route"}),
		downstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "downstream_requests_total",
			Help:        "Outbound calls by target and outcome kind.",
			ConstLabels: labels,
		}, []string{"target", "outcome"}),
		downstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "downstream_request_duration_seconds",
			Help:        "Latency of outbound calls by target.",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"target"}),
		injectedFaults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "injected_faults_total",
			Help:        "Directives this hop acted on, by fault.",
			ConstLabels: labels,
		}, []string{"fault"}),
		branchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "fanout_branch_failures_total",
			Help:        "Fan-out branches dropped from an aggregate response, by error kind.",
			ConstLabels: labels,
		}, []string{"kind"}),
	}

	reg.MustRegister(
		m.httpRequests,
		m.httpDuration,
		m.downstreamRequests,
		m.downstreamDuration,
		m.injectedFaults,
		m.branchFailures,
		collectors.NewGoCollector(),
	)
	if inFlight != nil {
		reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "downstream_in_flight",
			Help:        "Outbound calls currently awaiting a response.",
			ConstLabels: labels,
		}, inFlight))
	}

	return m
}

// Handler serves the hop's registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// ObserveDownstream records one outbound call. outcome is "ok" or an error kind.
func (m *Metrics) ObserveDownstream(target, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.downstreamRequests.WithLabelValues(target, outcome).Inc()
	m.downstreamDuration.WithLabelValues(target).Observe(d.Seconds())
}

// InjectedFault records a delay or failure this hop manufactured.
func (m *Metrics) InjectedFault(fault string) {
	if m == nil {
		return
	}
	m.injectedFaults.WithLabelValues(fault).Inc()
}

// BranchFailure records a fan-out branch dropped with the given error kind.
func (m *Metrics) BranchFailure(kind string) {
	if m == nil {
		return
	}
	m.branchFailures.WithLabelValues(kind).Inc()
}
