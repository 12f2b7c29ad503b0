// Package sources builds the configured ports.PriceSource.
package sources

import (
	"fmt"

	"btcPowerLaw/config"
	"btcPowerLaw/internal/adapters/binanceclient"
	"btcPowerLaw/internal/adapters/csvsource"
	"btcPowerLaw/internal/adapters/yahoo"
	"btcPowerLaw/internal/ports"
)

// New returns the adapter named by cfg.DataSource.
func New(cfg *config.Config, logger ports.Logger) (ports.PriceSource, error) {
	var (
		src ports.PriceSource
		err error
	)
	switch cfg.DataSource {
	case config.SourceYahoo:
		src, err = yahoo.New(yahoo.Config{ProxyURL: cfg.ProxyURL, Logger: logger})
	case config.SourceBinance:
		src, err = binanceclient.New(binanceclient.Config{
			APIKey:            cfg.BinanceAPIKey,
			SecretKey:         cfg.BinanceSecretKey,
			RequestsPerSecond: cfg.BinanceRequestsPerSecond,
			Logger:            logger,
		})
	case config.SourceCSV:
		src, err = csvsource.New(cfg.CSVPath, logger)
	default:
		return nil, fmt.Errorf("unknown data source %q: %w", cfg.DataSource, ports.ErrConfigurationError)
	}
	if err != nil {
		return nil, err
	}
	return src, nil
}
