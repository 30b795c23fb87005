package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tracelens/trace-diag/internal/api"
	"github.com/tracelens/trace-diag/internal/config"
	"github.com/tracelens/trace-diag/internal/diag"
	"github.com/tracelens/trace-diag/internal/metrics"
	"github.com/tracelens/trace-diag/internal/services"
	"github.com/tracelens/trace-diag/internal/store"
	"github.com/tracelens/trace-diag/internal/utils"
	"github.com/tracelens/trace-diag/pkg/cache"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("path", configPath), slog.Any("error", err))
		os.Exit(1)
	}

	logger := utils.NewLogger(cfg.Logging.Level, cfg.Logging.JSON)
	logger.Info("starting trace-diag", slog.String("address", cfg.Server.Address))

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Error("failed to register metrics", slog.Any("error", err))
		os.Exit(1)
	}

	reportStore, err := store.New(cfg.Storage.Path)
	if err != nil {
		logger.Error("failed to open report store", slog.String("path", cfg.Storage.Path), slog.Any("error", err))
		os.Exit(1)
	}
	defer reportStore.Close()

	pipeline, err := diag.NewPipeline(logger, cfg.Analysis)
	if err != nil {
		logger.Error("failed to build pipeline", slog.Any("error", err))
		os.Exit(1)
	}

	var reportCache *cache.ReportCache
	if cfg.Cache.Enabled {
		reportCache = cache.NewReportCache(cfg.Cache.ReportTTL)
	}

	service := services.NewAnalysisService(logger, pipeline, reportStore, reportCache)
	server := api.NewServer(cfg.Server, logger, service)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var metricsServer *http.Server
	if cfg.Server.MetricsAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{
			Addr:         cfg.Server.MetricsAddress,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 15 * time.Second,
		}
		go func() {
			logger.Info("metrics server listening", slog.String("address", cfg.Server.MetricsAddress))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server exited", slog.Any("error", err))
				stop()
			}
		}()
	}

	go func() {
		if serveErr := server.Start(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			logger.Error("http server exited", slog.Any("error", serveErr))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), server.GracefulTimeout())
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http server shutdown", slog.Any("error", err))
	}

	if metricsServer != nil {
		metricsCtx, cancelMetrics := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(metricsCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server shutdown", slog.Any("error", err))
		}
		cancelMetrics()
	}

	// Give remaining goroutines time to finish logging
	time.Sleep(100 * time.Millisecond)
	logger.Info("trace-diag stopped")
}
