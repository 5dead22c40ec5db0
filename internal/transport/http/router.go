package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"entangledu/pkg/platform/middleware/request"
	"entangledu/pkg/platform/middleware/requesttime"
)

// Registrar mounts a group of routes.
type Registrar interface {
	Register(r chi.Router)
}

// RouterConfig holds the transport settings shared by every route.
type RouterConfig struct {
	RequestTimeout time.Duration
	MaxBodyBytes   int64
	// Gatherer backs /metrics. Nil omits the endpoint.
	Gatherer prometheus.Gatherer
	Latency  *request.Metrics
}

// NewRouter wires the public endpoints with middleware.
func NewRouter(cfg RouterConfig, logger *slog.Logger, registrars ...Registrar) http.Handler {
	r := chi.NewRouter()

	r.Use(request.Recovery(logger))
	r.Use(request.RequestID)
	r.Use(request.Logger(logger))
	if cfg.RequestTimeout > 0 {
		r.Use(request.Timeout(cfg.RequestTimeout))
	}
	r.Use(request.ContentTypeJSON)
	if cfg.MaxBodyBytes > 0 {
		r.Use(request.BodyLimit(cfg.MaxBodyBytes))
	}
	r.Use(requesttime.Middleware)
	r.Use(request.LatencyMiddleware(cfg.Latency))

	for _, reg := range registrars {
		reg.Register(r)
	}

	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	return r
}
