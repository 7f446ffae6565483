// Package metrics exposes Prometheus counters for use-case runs and client
// action traffic.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const Namespace = "dno"

type Collector struct {
	registry *prometheus.Registry

	useCasesStarted  *prometheus.CounterVec
	useCasesFinished *prometheus.CounterVec
	useCaseDuration  *prometheus.HistogramVec
	tasksRunning     prometheus.Gauge

	actionTransitions *prometheus.CounterVec
	actionWait        *prometheus.HistogramVec

	tasksReaped   prometheus.Counter
	httpRequests  *prometheus.CounterVec
	httpDurations *prometheus.HistogramVec
}

// NewCollector registers every metric on a fresh registry so that several
// collectors can coexist in one process.
func NewCollector(namespace string) *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		useCasesStarted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "usecases_started_total",
			Help:      "Use-case instances started",
		}, []string{"kind"}),
		useCasesFinished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "usecases_completed_total",
			Help:      "Use-case instances that reached a terminal status",
		}, []string{"kind", "status"}),
		useCaseDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "usecase_duration_seconds",
			Help:      "Time from start to terminal status",
			Buckets:   []float64{.01, .1, 1, 10, 60, 300, 1800, 3600},
		}, []string{"kind", "status"}),
		tasksRunning: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "usecases_running",
			Help:      "Use-case instances currently running",
		}),
		actionTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "client_action_transitions_total",
			Help:      "Client action status transitions",
		}, []string{"name", "status"}),
		actionWait: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "client_action_resolution_seconds",
			Help:      "Time from request to resolution of a client action",
			Buckets:   []float64{.01, .1, 1, 10, 60, 300, 1800, 3600},
		}, []string{"name", "status"}),
		tasksReaped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_reaped_total",
			Help:      "Terminal use-case instances removed by retention",
		}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		httpDurations: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
}

func (c *Collector) UseCaseStarted(kind string) {
	c.useCasesStarted.WithLabelValues(kind).Inc()
	c.tasksRunning.Inc()
}

func (c *Collector) UseCaseCompleted(kind, status string, duration time.Duration) {
	c.useCasesFinished.WithLabelValues(kind, status).Inc()
	c.useCaseDuration.WithLabelValues(kind, status).Observe(duration.Seconds())
	c.tasksRunning.Dec()
}

func (c *Collector) ActionTransition(name, status string) {
	c.actionTransitions.WithLabelValues(name, status).Inc()
}

func (c *Collector) ActionResolved(name, status string, wait time.Duration) {
	c.actionWait.WithLabelValues(name, status).Observe(wait.Seconds())
}

func (c *Collector) TasksReaped(n int) {
	c.tasksReaped.Add(float64(n))
}

func (c *Collector) HTTPRequest(method, path string, status int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, path, http.StatusText(status)).Inc()
	c.httpDurations.WithLabelValues(method, path).Observe(duration.Seconds())
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the collector's registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
