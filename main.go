package main

import (
	"context"
	"errors"
	"log" // Use standard log only for initial fatal errors before logger is set up
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"btcPowerLaw/config"
	"btcPowerLaw/internal/adapters/logger"
	"btcPowerLaw/internal/adapters/sources"
	"btcPowerLaw/internal/adapters/sqlite"
	"btcPowerLaw/internal/app"
	"btcPowerLaw/internal/ports"
	"btcPowerLaw/internal/server"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger
	appLogger := logger.New(cfg.LogLevel, cfg.LogFormat)
	appLogger.Info(context.Background(), "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String()})

	// 3. Initialize Price Source
	source, err := sources.New(cfg, appLogger)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize price source")
		log.Fatalf("FATAL: Failed to initialize price source: %v", err)
	}
	appLogger.Info(context.Background(), "Price source initialized", map[string]interface{}{"source": source.Name(), "symbol": cfg.Symbol})

	// 4. Initialize Fit Cache (optional)
	var cache ports.FitCache
	if cfg.FitCachePath != "" {
		fitCache, err := sqlite.NewFitCache(sqlite.Config{
			DBPath: cfg.FitCachePath,
			Logger: appLogger,
		})
		if err != nil {
			appLogger.Error(context.Background(), err, "FATAL: Failed to initialize fit cache")
			log.Fatalf("FATAL: Failed to initialize fit cache: %v", err)
		}
		defer func() {
			if err := fitCache.Close(); err != nil {
				appLogger.Error(context.Background(), err, "Error closing fit cache")
			}
		}()
		cache = fitCache
		appLogger.Info(context.Background(), "Fit cache initialized", map[string]interface{}{"path": cfg.FitCachePath})
	}

	// 5. Initialize Application Service
	forecastService, err := app.NewForecastService(app.Config{
		Symbol:        cfg.Symbol,
		History:       cfg.History,
		Origin:        cfg.Origin,
		ForecastStart: cfg.ForecastStart,
		ForecastEnd:   cfg.ForecastEnd,
	}, appLogger, source, cache)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize forecast service")
		log.Fatalf("FATAL: Failed to initialize forecast service: %v", err)
	}
	appLogger.Info(context.Background(), "Forecast service initialized")

	// 6. Start the UI Server
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: server.NewRouter(&server.Config{Pipeline: forecastService, Logger: appLogger}),
	}
	go func() {
		appLogger.Info(ctx, "UI server listening", map[string]interface{}{"addr": cfg.HTTPAddr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error(ctx, err, "UI server failed")
			stop()
		}
	}()

	<-ctx.Done()
	appLogger.Info(context.Background(), "Shutdown signal received, stopping UI server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error(context.Background(), err, "Error during UI server shutdown")
	}

	appLogger.Info(context.Background(), "Application finished gracefully.")
}
