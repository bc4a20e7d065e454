package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder owns the service's Prometheus collectors.
type Recorder struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	lifecycleTotal  *prometheus.CounterVec
	subscriptions   prometheus.Gauge
}

func NewRecorder() *Recorder {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	lifecycleTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lostfound_lifecycle_operations_total",
		Help: "Report lifecycle operations by outcome",
	}, []string{"operation", "result"})

	subscriptions := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "lostfound_active_subscriptions",
		Help: "Report subscriptions currently open",
	})

	registry.MustRegister(
		requestDuration,
		requestTotal,
		lifecycleTotal,
		subscriptions,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)

	return &Recorder{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		lifecycleTotal:  lifecycleTotal,
		subscriptions:   subscriptions,
	}
}

func (r *Recorder) Handler() http.Handler {
	return r.handler
}

func (r *Recorder) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	code := strconv.Itoa(status)
	r.requestDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
	r.requestTotal.WithLabelValues(method, path, code).Inc()
}

// ObserveLifecycle counts one lifecycle operation; err == nil is a success.
func (r *Recorder) ObserveLifecycle(operation string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	r.lifecycleTotal.WithLabelValues(operation, result).Inc()
}

func (r *Recorder) SubscriptionOpened() {
	r.subscriptions.Inc()
}

func (r *Recorder) SubscriptionClosed() {
	r.subscriptions.Dec()
}
