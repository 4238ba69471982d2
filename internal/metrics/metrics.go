// Package metrics exposes Prometheus collectors for predictions, tasks, the
// HTTP API and database statements.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/irfndi/bovara-ml/internal/models"
)

const namespace = "bovara_ml"

// MetricsCollector owns a private registry so tests and multiple servers never collide.
type MetricsCollector struct {
	registry *prometheus.Registry

	predictions   *prometheus.CounterVec
	degraded      *prometheus.CounterVec
	confidence    *prometheus.HistogramVec
	silhouette    prometheus.Histogram
	tasks         *prometheus.CounterVec
	taskDuration  *prometheus.HistogramVec
	apiRequests   *prometheus.CounterVec
	apiDuration   *prometheus.HistogramVec
	queryDuration *prometheus.HistogramVec
	queryErrors   *prometheus.CounterVec
}

// NewMetricsCollector registers every collector plus the Go runtime and process collectors.
func NewMetricsCollector(serviceName string) *MetricsCollector {
	constLabels := prometheus.Labels{"service": serviceName}
	mc := &MetricsCollector{
		registry: prometheus.NewRegistry(),
		predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "predictions_total",
			Help:        "Predictions produced, by kind, label and severity.",
			ConstLabels: constLabels,
		}, []string{"kind", "label", "severity"}),
		degraded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "degraded_results_total",
			Help:        "Successful results carrying reduced information, by reason.",
			ConstLabels: constLabels,
		}, []string{"kind", "reason"}),
		confidence: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "prediction_confidence",
			Help:        "Overall confidence of produced predictions.",
			Buckets:     prometheus.LinearBuckets(0.1, 0.1, 10),
			ConstLabels: constLabels,
		}, []string{"kind"}),
		silhouette: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "cluster_silhouette",
			Help:        "Mean silhouette coefficient of herd clusterings.",
			Buckets:     prometheus.LinearBuckets(-1, 0.25, 9),
			ConstLabels: constLabels,
		}),
		tasks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "tasks_total",
			Help:        "Queued tasks processed, by kind and status.",
			ConstLabels: constLabels,
		}, []string{"kind", "status"}),
		taskDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "task_duration_seconds",
			Help:        "Wall time of queued task processing.",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: constLabels,
		}, []string{"kind"}),
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "http_requests_total",
			Help:        "HTTP requests, by method, route and status code.",
			ConstLabels: constLabels,
		}, []string{"method", "route", "code"}),
		apiDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request latency.",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: constLabels,
		}, []string{"method", "route"}),
		queryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "db_statement_duration_seconds",
			Help:        "Database statement latency.",
			Buckets:     []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			ConstLabels: constLabels,
		}, []string{"operation"}),
		queryErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "db_statement_errors_total",
			Help:        "Failed database statements.",
			ConstLabels: constLabels,
		}, []string{"operation"}),
	}

	mc.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		mc.predictions,
		mc.degraded,
		mc.confidence,
		mc.silhouette,
		mc.tasks,
		mc.taskDuration,
		mc.apiRequests,
		mc.apiDuration,
		mc.queryDuration,
		mc.queryErrors,
	)
	return mc
}

// Registry returns the collector's registry
func (mc *MetricsCollector) Registry() *prometheus.Registry {
	return mc.registry
}

// Handler serves the registry in the Prometheus exposition format
func (mc *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(mc.registry, promhttp.HandlerOpts{Registry: mc.registry})
}

// RecordClusterAssignment counts a cluster result and its diagnostics
func (mc *MetricsCollector) RecordClusterAssignment(a models.ClusterAssignment) {
	kind := string(models.TaskCluster)
	mc.predictions.WithLabelValues(kind, string(a.Label), string(a.Severity)).Inc()
	mc.confidence.WithLabelValues(kind).Observe(a.Confidence)
	if a.Reason != models.ReasonNone {
		mc.degraded.WithLabelValues(kind, string(a.Reason)).Inc()
	}
	if a.Silhouette != nil {
		mc.silhouette.Observe(*a.Silhouette)
	}
}

// RecordForecast counts a forecast result and every degraded signal in it
func (mc *MetricsCollector) RecordForecast(f models.ForecastResult) {
	kind := string(models.TaskForecast)
	mc.predictions.WithLabelValues(kind, "", string(f.Severity)).Inc()
	mc.confidence.WithLabelValues(kind).Observe(f.Confidence)
	for _, r := range f.Degraded {
		mc.degraded.WithLabelValues(kind, string(r)).Inc()
	}
}

// RecordTask counts a processed task and its duration
func (mc *MetricsCollector) RecordTask(kind models.TaskKind, status string, duration time.Duration) {
	mc.tasks.WithLabelValues(string(kind), status).Inc()
	mc.taskDuration.WithLabelValues(string(kind)).Observe(duration.Seconds())
}

// RecordAPIRequest counts an HTTP request
func (mc *MetricsCollector) RecordAPIRequest(method, route string, status int, duration time.Duration) {
	mc.apiRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	mc.apiDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveQuery records a database statement timing
func (mc *MetricsCollector) ObserveQuery(operation string, duration time.Duration, err error) {
	mc.queryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		mc.queryErrors.WithLabelValues(operation).Inc()
	}
}
