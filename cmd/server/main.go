package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"geoviz-platform/internal/config"
	"geoviz-platform/internal/handlers"
	"geoviz-platform/internal/models"
	"geoviz-platform/internal/services"
	"geoviz-platform/pkg/logging"
	"geoviz-platform/pkg/metrics"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig(os.Getenv("GEOVIZ_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := logging.NewStructuredLogger("geoviz-api", "1.0.0", logging.ParseLevel(cfg.Logging.Level))

	ctx := context.Background()
	logger.Info(ctx, "[STARTUP] Starting GeoViz platform API server", logging.Fields{
		"version":     "1.0.0",
		"server_host": cfg.Server.Host,
		"server_port": cfg.Server.Port,
	})

	// Initialize metrics collector
	metricsCollector := metrics.NewCollector("geoviz_platform")

	// Initialize services
	thresholds := models.ThresholdConfig{
		Rain: cfg.Thresholds.Rain,
		Disp: cfg.Thresholds.Disp,
		Pore: cfg.Thresholds.Pore,
	}
	datasetService := services.NewDatasetService(thresholds, logger, metricsCollector)
	analysisService := services.NewAnalysisService(datasetService, logger, metricsCollector)

	// Auto-load the default monitoring dataset when one is present
	if cfg.Data.DefaultFile != "" {
		if file, err := os.Open(cfg.Data.DefaultFile); err == nil {
			_, loadErr := datasetService.LoadDataset(ctx, models.DatasetMonitoring, cfg.Data.DefaultFile, file)
			file.Close()
			if loadErr != nil {
				logger.Warn(ctx, "[STARTUP_AUTOLOAD_ERROR] Default data file could not be parsed", logging.Fields{
					"file": cfg.Data.DefaultFile,
				})
			} else {
				logger.Info(ctx, "[STARTUP_AUTOLOAD] Default data file loaded", logging.Fields{
					"file": cfg.Data.DefaultFile,
				})
			}
		}
	}

	// Initialize handlers
	maxUploadBytes := int64(cfg.Data.MaxUploadMB) * 1024 * 1024
	geoHandler := handlers.NewGeoHandler(datasetService, analysisService, logger, metricsCollector, maxUploadBytes)

	// Setup router
	router := mux.NewRouter()

	// Register routes
	geoHandler.RegisterRoutes(router)

	// Prometheus metrics endpoint
	router.Handle("/metrics", promhttp.Handler())

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info(ctx, "[SERVER_START] HTTP server listening", logging.Fields{
			"address": server.Addr,
		})

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal(ctx, "[SERVER_ERROR] Server failed", logging.Fields{}, err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info(ctx, "[SHUTDOWN] Shutting down server...", logging.Fields{})

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "[SHUTDOWN_ERROR] Server forced to shutdown", logging.Fields{}, err)
	}

	logger.Info(ctx, "[SHUTDOWN_COMPLETE] Server stopped", logging.Fields{})
}
