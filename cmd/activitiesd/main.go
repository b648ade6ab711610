package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/celerix-dev/mergington-activities/internal/api"
	"github.com/celerix-dev/mergington-activities/internal/config"
	"github.com/celerix-dev/mergington-activities/internal/logging"
	"github.com/celerix-dev/mergington-activities/internal/metrics"
	"github.com/celerix-dev/mergington-activities/internal/registry"
)

func main() {
	configFile := flag.String("config", "", "path to config file (default: search ./configs and .)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// 1. Seed the registry
	catalog := registry.DefaultCatalog()
	if cfg.Catalog.Path != "" {
		catalog, err = registry.LoadCatalog(cfg.Catalog.Path)
		if err != nil {
			logger.Fatal("failed to load catalog", zap.Error(err))
		}
	}
	store, err := registry.New(catalog)
	if err != nil {
		logger.Fatal("invalid catalog", zap.Error(err))
	}
	logger.Info("registry started", zap.Int("activities", len(catalog)), zap.String("catalog", catalogSource(cfg.Catalog.Path)))

	// 2. Metrics
	opts := api.Options{
		Store:       store,
		Logger:      logger,
		CORSOrigins: cfg.Server.CORSOrigins,
	}
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		opts.Metrics = metrics.New(reg, store)
		opts.Gatherer = reg
		opts.MetricsPath = cfg.Metrics.Path
	}

	// 3. HTTP server
	gin.SetMode(cfg.Server.GinMode)
	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      api.NewRouter(opts),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("http server listening", zap.String("address", cfg.Server.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	// 4. Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("shutdown signal received, draining requests")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
	logger.Info("server stopped")
}

func catalogSource(path string) string {
	if path == "" {
		return "built-in"
	}
	return path
}
