package service

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the HTTP
// surface and the attendance pipeline.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	scansAccepted   prometheus.Counter
	scansRejected   *prometheus.CounterVec
	messagesHandled *prometheus.CounterVec
	jobsRetried     *prometheus.CounterVec
	queueDepth      *prometheus.GaugeVec
	roundsFinalized prometheus.Counter
	consensusTime   prometheus.Observer
}

// NewMetricsService registers the pipeline's Prometheus collectors.
func NewMetricsService() *MetricsService {
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

	scansAccepted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scans_accepted_total",
		Help: "Scan submissions accepted by the ingestion gateway",
	})

	scansRejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scans_rejected_total",
		Help: "Scan submissions rejected by the ingestion gateway",
	}, []string{"reason"})

	messagesHandled := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pipeline_messages_total",
		Help: "Queue messages processed by pipeline consumers",
	}, []string{"queue", "outcome"})

	jobsRetried := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pipeline_jobs_retried_total",
		Help: "Queue jobs re-enqueued after a handler failure",
	}, []string{"queue"})

	queueDepth := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "pipeline_queue_depth",
		Help: "Jobs waiting in each pipeline queue buffer",
	}, []string{"queue"})

	roundsFinalized := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rounds_finalized_total",
		Help: "Rounds whose attendance aggregation completed",
	})

	consensusTime := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "consensus_duration_seconds",
		Help:    "Time spent recomputing round consensus state",
		Buckets: prometheus.DefBuckets,
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, scansAccepted, scansRejected, messagesHandled, jobsRetried, queueDepth, roundsFinalized, consensusTime, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		scansAccepted:   scansAccepted,
		scansRejected:   scansRejected,
		messagesHandled: messagesHandled,
		jobsRetried:     jobsRetried,
		queueDepth:      queueDepth,
		roundsFinalized: roundsFinalized,
		consensusTime:   consensusTime,
	}
}

// Handler exposes the /metrics endpoint.
func (s *MetricsService) Handler() http.Handler {
	return s.handler
}

// ObserveHTTPRequest records one served HTTP request.
func (s *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	labels := prometheus.Labels{"method": method, "path": path, "status": strconv.Itoa(status)}
	s.requestDuration.With(labels).Observe(duration.Seconds())
	s.requestTotal.With(labels).Inc()
}

// ObserveScanAccepted counts an accepted scan submission.
func (s *MetricsService) ObserveScanAccepted() {
	s.scansAccepted.Inc()
}

// ObserveScanRejected counts a rejected scan submission by reason.
func (s *MetricsService) ObserveScanRejected(reason string) {
	s.scansRejected.WithLabelValues(reason).Inc()
}

// ObserveMessage counts one queue message outcome.
func (s *MetricsService) ObserveMessage(queue, outcome string) {
	s.messagesHandled.WithLabelValues(queue, outcome).Inc()
}

// ObserveJobRetried counts a queue job re-enqueued after failure.
func (s *MetricsService) ObserveJobRetried(queue string) {
	s.jobsRetried.WithLabelValues(queue).Inc()
}

// ObserveQueueDepth records the current buffer depth of a queue.
func (s *MetricsService) ObserveQueueDepth(queue string, depth int) {
	s.queueDepth.WithLabelValues(queue).Set(float64(depth))
}

// ObserveRoundFinalized counts a completed round aggregation.
func (s *MetricsService) ObserveRoundFinalized() {
	s.roundsFinalized.Inc()
}

// ObserveConsensus records one consensus recomputation duration.
func (s *MetricsService) ObserveConsensus(duration time.Duration) {
	s.consensusTime.Observe(duration.Seconds())
}
