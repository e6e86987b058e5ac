package httpadapter

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/oapi-codegen/runtime"
	"golang.org/x/time/rate"

	"github.com/kirillkom/shop-verification/internal/config"
	"github.com/kirillkom/shop-verification/internal/core/domain"
	"github.com/kirillkom/shop-verification/internal/core/ports"
	"github.com/kirillkom/shop-verification/internal/observability/metrics"
)

const (
	metricsService = "api"
	eventsPath     = "/v1/events"
)

type Router struct {
	cfg     config.Config
	shops   ports.ShopService
	docs    ports.DocumentService
	reports ports.ReportService
	events  http.Handler
	metrics *metrics.HTTPServerMetrics
}

type Option func(*Router)

// WithEvents mounts the lifecycle event stream at /v1/events.
func WithEvents(h http.Handler) Option {
	return func(rt *Router) { rt.events = h }
}

// WithMetrics enables request and workflow metrics and serves them at /metrics.
func WithMetrics(m *metrics.HTTPServerMetrics) Option {
	return func(rt *Router) { rt.metrics = m }
}

func NewRouter(
	cfg config.Config,
	shops ports.ShopService,
	docs ports.DocumentService,
	reports ports.ReportService,
	opts ...Option,
) *Router {
	rt := &Router{
		cfg:     cfg,
		shops:   shops,
		docs:    docs,
		reports: reports,
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	mux.HandleFunc("GET /openapi.yaml", serveOpenAPIDocument)
	if rt.metrics != nil {
		mux.Handle("GET /metrics", rt.metrics.Handler())
	}

	mux.HandleFunc("GET /v1/catalog/{category}", rt.getCatalog)
	mux.HandleFunc("GET /v1/approvals/stats", rt.getApprovalStats)

	mux.HandleFunc("POST /v1/shops", rt.registerShop)
	mux.HandleFunc("GET /v1/shops", rt.listShops)
	mux.HandleFunc("GET /v1/shops/{shopId}", rt.getShop)
	mux.HandleFunc("PUT /v1/shops/{shopId}/status", rt.setShopStatus)
	mux.HandleFunc("PUT /v1/shops/{shopId}/approve", rt.approveShop)
	mux.HandleFunc("PUT /v1/shops/{shopId}/reject", rt.rejectShop)
	mux.HandleFunc("PUT /v1/shops/{shopId}/suspend", rt.suspendShop)
	mux.HandleFunc("PUT /v1/shops/{shopId}/reinstate", rt.reinstateShop)
	mux.HandleFunc("GET /v1/shops/{shopId}/progress", rt.getProgress)
	mux.HandleFunc("GET /v1/shops/{shopId}/report.xlsx", rt.exportReport)

	mux.HandleFunc("GET /v1/shops/{shopId}/documents", rt.listDocuments)
	mux.HandleFunc("POST /v1/shops/{shopId}/documents", rt.uploadDocument)
	mux.HandleFunc("PUT /v1/documents/{documentId}/verification", rt.setVerification)
	mux.HandleFunc("GET /v1/documents/{documentId}/download", rt.downloadDocument)
	mux.HandleFunc("DELETE /v1/documents/{documentId}", rt.deleteDocument)

	if rt.events != nil {
		mux.Handle("GET "+eventsPath, rt.events)
	}

	validator, err := loadRequestValidator()
	if err != nil {
		panic(err)
	}
	api := newAuthenticator(rt.cfg.AuthJWTSecret).middleware(validator.middleware(mux))

	gated := backpressureMiddleware(api, rt.cfg.APIMaxInFlight, rt.cfg.APIBackpressureWait)
	var handler http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Probes and long-lived streams must not hold an in-flight slot.
		if r.URL.Path == "/healthz" || r.URL.Path == eventsPath {
			api.ServeHTTP(w, r)
			return
		}
		gated.ServeHTTP(w, r)
	})
	handler = rateLimitMiddleware(handler, newLimiter(rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst))
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(metricsService, handler)
	}
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func newLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// decodeJSON fills dst from the request body. An empty body leaves dst untouched
// when optional is set.
func decodeJSON(r *http.Request, dst any, optional bool) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	switch {
	case err == nil:
		return nil
	case optional && errors.Is(err, io.EOF):
		return nil
	default:
		return domain.WrapError(domain.ErrInvalidInput, "decode request", err)
	}
}

// pathID binds a positive int64 path parameter.
func pathID(r *http.Request, name string) (int64, error) {
	var id int64
	err := runtime.BindStyledParameterWithOptions("simple", name, r.PathValue(name), &id, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Required:      true,
	})
	if err != nil {
		return 0, domain.WrapError(domain.ErrInvalidInput, "bind "+name, err)
	}
	if id < 1 {
		return 0, domain.WrapError(domain.ErrInvalidInput, "bind "+name, errors.New("must be positive"))
	}
	return id, nil
}

func (rt *Router) recordUpload(documentType string, size int64, err error) {
	if rt.metrics != nil {
		rt.metrics.RecordUpload(metricsService, documentType, size, err)
	}
}

func (rt *Router) recordDecision(status string) {
	if rt.metrics != nil {
		rt.metrics.RecordVerificationDecision(metricsService, status)
	}
}

func (rt *Router) recordTransition(status string) {
	if rt.metrics != nil {
		rt.metrics.RecordShopTransition(metricsService, status)
	}
}

func (rt *Router) recordReport(err error) {
	if rt.metrics != nil {
		rt.metrics.RecordReportExport(metricsService, err)
	}
}

