package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"btcPowerLaw/internal/adapters/logger" // Import the logger package for LogLevel
	"btcPowerLaw/internal/domain"
)

// Data source identifiers accepted by DATA_SOURCE.
const (
	SourceYahoo   = "yahoo"
	SourceBinance = "binance"
	SourceCSV     = "csv"
)

// Config holds all application configuration.
// The defaults draw the 2010-2024 fit extended to 2100, so an empty environment is a valid setup.
type Config struct {
	// Data source
	DataSource string // yahoo, binance or csv
	Symbol     string // Provider ticker, e.g. BTC-USD (Yahoo) or BTCUSDT (Binance)
	CSVPath    string // Snapshot read by the csv source
	ProxyURL   string // Optional HTTP proxy for the Yahoo source

	// Binance API (public market data works without keys)
	BinanceAPIKey            string
	BinanceSecretKey         string
	BinanceRequestsPerSecond float64

	// Model
	Origin        time.Time     // Reference date for ages
	History       domain.Window // Fetch window, end exclusive
	ForecastStart time.Time     // First predicted day
	ForecastEnd   time.Time     // Last predicted day, inclusive

	// Fit cache; empty disables caching
	FitCachePath string

	// UI server
	HTTPAddr string

	// Logging
	LogLevel  logger.LogLevel
	LogFormat logger.Format
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var err error
	var errs []string // Collect validation errors

	cfg.DataSource = strings.ToLower(getEnv("DATA_SOURCE", SourceYahoo))
	switch cfg.DataSource {
	case SourceYahoo, SourceBinance, SourceCSV:
	default:
		errs = append(errs, fmt.Sprintf("DATA_SOURCE must be one of %s, %s, %s", SourceYahoo, SourceBinance, SourceCSV))
	}

	defaultSymbol := "BTC-USD"
	if cfg.DataSource == SourceBinance {
		defaultSymbol = "BTCUSDT"
	}
	cfg.Symbol = getEnv("SYMBOL", defaultSymbol)

	cfg.CSVPath = getEnv("CSV_PATH", "./data/btc_history.csv")
	if cfg.DataSource == SourceCSV && cfg.CSVPath == "" {
		errs = append(errs, "CSV_PATH must be set when DATA_SOURCE=csv")
	}
	cfg.ProxyURL = getEnv("HTTP_PROXY_URL", "")

	cfg.BinanceAPIKey = getEnv("BINANCE_API_KEY", "")
	cfg.BinanceSecretKey = getEnv("BINANCE_API_SECRET", "")
	cfg.BinanceRequestsPerSecond, err = getEnvAsFloatRequired("BINANCE_REQUESTS_PER_SECOND", 5)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid BINANCE_REQUESTS_PER_SECOND: %v", err))
	} else if cfg.BinanceRequestsPerSecond <= 0 {
		errs = append(errs, "BINANCE_REQUESTS_PER_SECOND must be positive")
	}

	// Model dates
	if cfg.Origin, err = getEnvAsDate("ORIGIN_DATE", domain.GenesisDate); err != nil {
		errs = append(errs, err.Error())
	}
	if cfg.History.Start, err = getEnvAsDate("HISTORY_START", date(2010, time.January, 1)); err != nil {
		errs = append(errs, err.Error())
	}
	if cfg.History.End, err = getEnvAsDate("HISTORY_END", date(2024, time.January, 1)); err != nil {
		errs = append(errs, err.Error())
	}
	if cfg.ForecastStart, err = getEnvAsDate("FORECAST_START", date(2024, time.January, 1)); err != nil {
		errs = append(errs, err.Error())
	}
	if cfg.ForecastEnd, err = getEnvAsDate("FORECAST_END", date(2100, time.December, 31)); err != nil {
		errs = append(errs, err.Error())
	}

	if !cfg.History.Start.Before(cfg.History.End) {
		errs = append(errs, "HISTORY_START must be before HISTORY_END")
	}
	if !cfg.Origin.Before(cfg.History.Start) {
		errs = append(errs, "ORIGIN_DATE must be before HISTORY_START")
	}
	if cfg.ForecastEnd.Before(cfg.ForecastStart) {
		errs = append(errs, "FORECAST_END must not be before FORECAST_START")
	}
	if !cfg.Origin.Before(cfg.ForecastStart) {
		errs = append(errs, "ORIGIN_DATE must be before FORECAST_START")
	}

	cfg.FitCachePath = getEnv("FIT_CACHE_PATH", "")

	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":8080")
	if cfg.HTTPAddr == "" {
		errs = append(errs, "HTTP_ADDR must be set")
	}

	// Logging
	cfg.LogLevel = logger.ParseLevel(getEnv("LOG_LEVEL", "INFO"))
	cfg.LogFormat = logger.ParseFormat(getEnv("LOG_FORMAT", "text"))

	// Combine validation errors
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

// --- Env Var Helpers ---

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsFloatRequired(key string, defaultValue float64) (float64, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid float value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

// getEnvAsDate parses a YYYY-MM-DD value as a UTC date.
func getEnvAsDate(key string, defaultValue time.Time) (time.Time, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := time.ParseInLocation(time.DateOnly, valueStr, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date value '%s' for key %s (want YYYY-MM-DD): %w", valueStr, key, err)
	}
	return value, nil
}
