// Package metrics exposes the Prometheus collectors of the service.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what services and middleware report to.
type Recorder interface {
	RecordOperationAttempt(ctx context.Context, operation, service string)
	RecordOperationFailure(ctx context.Context, operation, service, code string)
	RecordOperationDuration(ctx context.Context, operation, service string, d time.Duration)
	RecordRegistration(ctx context.Context, outcome string)
	RecordGeoLookup(ctx context.Context, result string)
	RecordHTTPRequest(method, route string, status int, d time.Duration)
}

type PrometheusRecorder struct {
	registry          *prometheus.Registry
	operationAttempts *prometheus.CounterVec
	operationFailures *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	registrations     *prometheus.CounterVec
	geoLookups        *prometheus.CounterVec
	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
}

func NewPrometheusRecorder(namespace string) *PrometheusRecorder {
	r := &PrometheusRecorder{
		registry: prometheus.NewRegistry(),
		operationAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_attempts_total",
			Help:      "Service operations started.",
		}, []string{"service", "operation"}),
		operationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_failures_total",
			Help:      "Service operations that returned an error, by error code.",
		}, []string{"service", "operation", "code"}),
		operationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Service operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"service", "operation"}),
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_total",
			Help:      "Registration attempts by outcome.",
		}, []string{"outcome"}),
		geoLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geolocation_lookups_total",
			Help:      "IP geolocation lookups by result.",
		}, []string{"result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.operationAttempts,
		r.operationFailures,
		r.operationDuration,
		r.registrations,
		r.geoLookups,
		r.httpRequests,
		r.httpDuration,
	)
	return r
}

func (r *PrometheusRecorder) Registry() *prometheus.Registry { return r.registry }

func (r *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func (r *PrometheusRecorder) RecordOperationAttempt(_ context.Context, operation, service string) {
	r.operationAttempts.WithLabelValues(service, operation).Inc()
}

func (r *PrometheusRecorder) RecordOperationFailure(_ context.Context, operation, service, code string) {
	r.operationFailures.WithLabelValues(service, operation, code).Inc()
}

func (r *PrometheusRecorder) RecordOperationDuration(_ context.Context, operation, service string, d time.Duration) {
	r.operationDuration.WithLabelValues(service, operation).Observe(d.Seconds())
}

func (r *PrometheusRecorder) RecordRegistration(_ context.Context, outcome string) {
	r.registrations.WithLabelValues(outcome).Inc()
}

func (r *PrometheusRecorder) RecordGeoLookup(_ context.Context, result string) {
	r.geoLookups.WithLabelValues(result).Inc()
}

func (r *PrometheusRecorder) RecordHTTPRequest(method, route string, status int, d time.Duration) {
	r.httpRequests.WithLabelValues(method, route, http.StatusText(status)).Inc()
	r.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// NoOp discards everything.
type NoOp struct{}

func (NoOp) RecordOperationAttempt(context.Context, string, string)                 {}
func (NoOp) RecordOperationFailure(context.Context, string, string, string)         {}
func (NoOp) RecordOperationDuration(context.Context, string, string, time.Duration) {}
func (NoOp) RecordRegistration(context.Context, string)                             {}
func (NoOp) RecordGeoLookup(context.Context, string)                                {}
func (NoOp) RecordHTTPRequest(string, string, int, time.Duration)                   {}
