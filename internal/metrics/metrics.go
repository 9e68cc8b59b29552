// Package metrics exposes the purge pipeline as Prometheus collectors.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/i358/discord-message-deleter/internal/purge"
	"github.com/i358/discord-message-deleter/internal/retry"
)

const namespace = "msgpurge"

// PrometheusMetrics implements purge.Recorder and discord.RequestObserver.
type PrometheusMetrics struct {
	registry        *prometheus.Registry
	pagesTotal      prometheus.Counter
	pageMessages    prometheus.Histogram
	forwardedTotal  prometheus.Counter
	resolutions     *prometheus.CounterVec
	inProcess       prometheus.Gauge
	retriesTotal    *prometheus.CounterVec
	retryWait       *prometheus.HistogramVec
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	runsTotal       *prometheus.CounterVec
	lastRunDeleted  prometheus.Gauge
	lastRunSeconds  prometheus.Gauge
}

// New creates the collectors on a dedicated registry.
func New() *PrometheusMetrics {
	reg := prometheus.NewRegistry()

	m := &PrometheusMetrics{
		registry: reg,
		pagesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pages_total",
				Help:      "Non-empty message pages fetched",
			},
		),
		pageMessages: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "page_messages",
				Help:      "Messages per fetched page",
				Buckets:   []float64{1, 10, 25, 50, 75, 100},
			},
		),
		forwardedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "messages_forwarded_total",
				Help:      "Author messages handed to the deleter",
			},
		),
		resolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "messages_total",
				Help:      "Forwarded messages by final outcome",
			},
			[]string{"outcome"},
		),
		inProcess: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "messages_in_process",
				Help:      "Forwarded messages without a final outcome",
			},
		),
		retriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "retries_total",
				Help:      "Retried API calls by operation and reason",
			},
			[]string{"operation", "reason"},
		),
		retryWait: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "retry_wait_seconds",
				Help:      "Wait before a retried API call",
				Buckets:   []float64{.5, 1, 2, 4, 8, 16, 30, 60},
			},
			[]string{"operation"},
		),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_requests_total",
				Help:      "Discord API requests by route, method and status",
			},
			[]string{"route", "method", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "api_request_duration_seconds",
				Help:      "Duration of Discord API requests",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Completed runs by stop reason",
			},
			[]string{"stop_reason"},
		),
		lastRunDeleted: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_run_deleted",
				Help:      "Messages deleted by the last completed run",
			},
		),
		lastRunSeconds: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_run_duration_seconds",
				Help:      "Wall-clock duration of the last completed run",
			},
		),
	}

	reg.MustRegister(
		m.pagesTotal,
		m.pageMessages,
		m.forwardedTotal,
		m.resolutions,
		m.inProcess,
		m.retriesTotal,
		m.retryWait,
		m.requestsTotal,
		m.requestDuration,
		m.runsTotal,
		m.lastRunDeleted,
		m.lastRunSeconds,
	)

	return m
}

// Registry returns the registry holding the collectors.
func (m *PrometheusMetrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *PrometheusMetrics) ObservePage(size, forwarded int) {
	m.pagesTotal.Inc()
	m.pageMessages.Observe(float64(size))
	m.forwardedTotal.Add(float64(forwarded))
}

func (m *PrometheusMetrics) ObserveResolution(r purge.Resolution) {
	m.resolutions.WithLabelValues(r.String()).Inc()
}

func (m *PrometheusMetrics) ObserveInProcess(n int) {
	m.inProcess.Set(float64(n))
}

func (m *PrometheusMetrics) ObserveRetry(operation string, outcome retry.Outcome, wait time.Duration) {
	m.retriesTotal.WithLabelValues(operation, outcome.String()).Inc()
	m.retryWait.WithLabelValues(operation).Observe(wait.Seconds())
}

// ObserveRequest records one HTTP round trip. Transport failures use the
// status label "error".
func (m *PrometheusMetrics) ObserveRequest(route, method string, status int, duration time.Duration, err error) {
	code := strconv.Itoa(status)
	if err != nil {
		code = "error"
	}
	m.requestsTotal.WithLabelValues(route, method, code).Inc()
	m.requestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// ObserveRun records a completed run.
func (m *PrometheusMetrics) ObserveRun(s purge.Summary) {
	m.runsTotal.WithLabelValues(string(s.StopReason)).Inc()
	m.lastRunDeleted.Set(float64(s.Deleted))
	m.lastRunSeconds.Set(s.ElapsedSeconds())
}
