package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"entangledu/internal/issuer/handler"
	"entangledu/internal/issuer/metrics"
	"entangledu/internal/issuer/payload"
	"entangledu/internal/issuer/service"
	"entangledu/internal/issuer/signer"
	"entangledu/internal/issuer/store"
	"entangledu/internal/platform/config"
	"entangledu/internal/platform/health"
	"entangledu/internal/platform/logger"
	"entangledu/internal/platform/tracer"
	httptransport "entangledu/internal/transport/http"
	"entangledu/pkg/platform/middleware/request"
)

const shutdownTimeout = 10 * time.Second

// main wires the issuer: key, mint log, service, HTTP router. Business logic
// lives in internal/issuer.
func main() {
	cfg, err := config.IssuerFromEnv()
	if err != nil {
		slog.Error("invalid issuer configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	key, err := signer.NewKeySigner(cfg.SigningKey)
	if err != nil {
		log.Error("failed to load signing key", "error", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	svc := service.New(store.New(), key,
		service.WithLogger(log),
		service.WithMetrics(metrics.New(reg)),
		service.WithTracer(tracer.NewOTel(tracer.ScopeIssuer)),
	)

	probes := health.New()
	probes.RegisterCheck("signer", func(ctx context.Context) error {
		_, err := key.Sign(ctx, make([]byte, payload.DigestSize))
		return err
	})

	router := httptransport.NewRouter(httptransport.RouterConfig{
		RequestTimeout: cfg.RequestTimeout,
		MaxBodyBytes:   cfg.MaxBodyBytes,
		Gatherer:       reg,
		Latency:        request.NewMetrics(reg),
	}, log, handler.New(svc, log), probes)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Info("starting issuer", "addr", cfg.Addr, "signer", key.Identity())

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Info("shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}
