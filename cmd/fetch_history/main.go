package main

import (
	"btcPowerLaw/config"
	"btcPowerLaw/internal/adapters/logger"
	"btcPowerLaw/internal/adapters/sources"
	"btcPowerLaw/internal/utils"
	"context"
	"fmt"
	"log"
)

// fetch_history downloads the configured history window and saves it as a
// snapshot that DATA_SOURCE=csv can replay offline.
func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger
	appLogger := logger.New(cfg.LogLevel, cfg.LogFormat)
	appLogger.Info(context.Background(), "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String()})

	// 3. Initialize Price Source; the snapshot is always taken from a live provider
	if cfg.DataSource == config.SourceCSV {
		cfg.DataSource = config.SourceYahoo
		cfg.Symbol = "BTC-USD"
	}
	source, err := sources.New(cfg, appLogger)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize price source")
		log.Fatalf("FATAL: Failed to initialize price source: %v", err)
	}

	fmt.Printf("Fetching %s daily closes from %s for %s...\n", cfg.Symbol, source.Name(), cfg.History)
	obs, err := source.FetchHistory(context.Background(), cfg.Symbol, cfg.History)
	if err != nil {
		appLogger.Error(context.Background(), err, "Error fetching history")
		log.Fatalf("Error fetching history: %v", err)
	}
	appLogger.Info(context.Background(), "Fetched history", map[string]interface{}{"count": len(obs)})

	if err := utils.WriteObservationsToCSV(obs, cfg.CSVPath); err != nil {
		appLogger.Error(context.Background(), err, "Error writing CSV")
		log.Fatalf("Error writing CSV: %v", err)
	}
	appLogger.Info(context.Background(), "Saved to", map[string]interface{}{"filename": cfg.CSVPath})
}
