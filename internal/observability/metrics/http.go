package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "shopverify"

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	uploadsTotal       *prometheus.CounterVec
	uploadBytes        *prometheus.HistogramVec
	decisionsTotal     *prometheus.CounterVec
	shopTransitions    *prometheus.CounterVec
	reportExportsTotal *prometheus.CounterVec
	eventSubscribers   prometheus.Gauge
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	uploadsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "documents",
			Name:      "uploads_total",
			Help:      "Document uploads by type and result.",
		},
		[]string{"service", "document_type", "result"},
	)
	uploadBytes := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "documents",
			Name:      "upload_bytes",
			Help:      "Size of accepted uploads in bytes.",
			Buckets:   prometheus.ExponentialBuckets(16*1024, 4, 7),
		},
		[]string{"service"},
	)
	decisionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "documents",
			Name:      "verification_decisions_total",
			Help:      "Reviewer decisions on documents by resulting status.",
		},
		[]string{"service", "status"},
	)
	shopTransitions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "shops",
			Name:      "transitions_total",
			Help:      "Shop status transitions by target status.",
		},
		[]string{"service", "status"},
	)
	reportExportsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "shops",
			Name:      "report_exports_total",
			Help:      "Verification report exports by result.",
		},
		[]string{"service", "result"},
	)
	eventSubscribers := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "websocket_subscribers",
			Help:      "Connected lifecycle event subscribers.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		uploadsTotal,
		uploadBytes,
		decisionsTotal,
		shopTransitions,
		reportExportsTotal,
		eventSubscribers,
	)

	return &HTTPServerMetrics{
		registry:           registry,
		requestTotal:       requestTotal,
		requestDuration:    requestDuration,
		requestInFlight:    requestInFlight,
		uploadsTotal:       uploadsTotal,
		uploadBytes:        uploadBytes,
		decisionsTotal:     decisionsTotal,
		shopTransitions:    shopTransitions,
		reportExportsTotal: reportExportsTotal,
		eventSubscribers:   eventSubscribers,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registerer exposes the registry for collectors owned by other components.
func (m *HTTPServerMetrics) Registerer() prometheus.Registerer {
	return m.registry
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

var (
	shopPathRe     = regexp.MustCompile(`^/v1/shops/[^/]+`)
	documentPathRe = regexp.MustCompile(`^/v1/documents/[^/]+`)
	catalogPathRe  = regexp.MustCompile(`^/v1/catalog/[^/]+$`)
)

// normalizePath collapses ids so label cardinality stays bounded.
func normalizePath(path string) string {
	switch {
	case shopPathRe.MatchString(path):
		return shopPathRe.ReplaceAllString(path, "/v1/shops/{shopId}")
	case documentPathRe.MatchString(path):
		return documentPathRe.ReplaceAllString(path, "/v1/documents/{documentId}")
	case catalogPathRe.MatchString(path):
		return "/v1/catalog/{category}"
	default:
		return path
	}
}

func (m *HTTPServerMetrics) RecordUpload(service, documentType string, size int64, err error) {
	if documentType == "" {
		documentType = "unknown"
	}
	if err != nil {
		m.uploadsTotal.WithLabelValues(service, documentType, "error").Inc()
		return
	}
	m.uploadsTotal.WithLabelValues(service, documentType, "success").Inc()
	m.uploadBytes.WithLabelValues(service).Observe(float64(size))
}

func (m *HTTPServerMetrics) RecordVerificationDecision(service, status string) {
	m.decisionsTotal.WithLabelValues(service, status).Inc()
}

func (m *HTTPServerMetrics) RecordShopTransition(service, status string) {
	m.shopTransitions.WithLabelValues(service, status).Inc()
}

func (m *HTTPServerMetrics) RecordReportExport(service string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	m.reportExportsTotal.WithLabelValues(service, result).Inc()
}

func (m *HTTPServerMetrics) SubscriberConnected() {
	m.eventSubscribers.Inc()
}

func (m *HTTPServerMetrics) SubscriberDisconnected() {
	m.eventSubscribers.Dec()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
