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

	"github.com/kirillkom/shop-verification/internal/bootstrap"
	"github.com/kirillkom/shop-verification/internal/config"
	"github.com/kirillkom/shop-verification/internal/core/domain"
	"github.com/kirillkom/shop-verification/internal/observability/logging"
	"github.com/kirillkom/shop-verification/internal/observability/metrics"
)

const serviceName = "worker"

func main() {
	cfg := config.Load()
	logger := logging.New(os.Stdout, serviceName, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workerMetrics := metrics.NewWorkerMetrics(serviceName)
	app, err := bootstrap.New(ctx, cfg, metrics.NewResilienceMetrics(serviceName, workerMetrics.Registerer()))
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           workerMetrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("worker_metrics_server_failed", "error", err)
		}
	}()

	logger.Info("worker_subscribed", "subject_prefix", cfg.NATSSubjectPrefix)
	err = app.Bus.Subscribe(ctx, func(handlerCtx context.Context, event domain.Event) error {
		if !event.OccurredAt.IsZero() {
			workerMetrics.ObserveEventLag(serviceName, time.Since(event.OccurredAt))
		}
		workerMetrics.StartEvent()
		start := time.Now()

		processCtx, cancel := context.WithTimeout(handlerCtx, cfg.WorkerEventTimeout)
		defer cancel()
		err := app.Processor.HandleEvent(processCtx, event)

		workerMetrics.FinishEvent(serviceName, string(event.Type), time.Since(start), err)
		return err
	})
	if err != nil {
		logger.Error("worker_subscribe_failed", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = metricsServer.Shutdown(shutdownCtx)
}
