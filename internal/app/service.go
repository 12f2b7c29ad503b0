package app

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"time"

	"btcPowerLaw/internal/domain"
	"btcPowerLaw/internal/ports"
	"btcPowerLaw/internal/powerlaw"
)

// Config describes what a single run fetches and forecasts.
type Config struct {
	Symbol        string
	History       domain.Window
	Origin        time.Time
	ForecastStart time.Time
	ForecastEnd   time.Time // Inclusive
}

// ForecastService runs the fetch, fit and forecast pipeline.
// It holds no state between runs: every call re-fetches and re-fits.
type ForecastService struct {
	cfg    Config
	logger ports.Logger
	source ports.PriceSource
	cache  ports.FitCache // nil disables caching
}

// NewForecastService creates a new application service instance. cache may be nil.
func NewForecastService(cfg Config, logger ports.Logger, source ports.PriceSource, cache ports.FitCache) (*ForecastService, error) {
	if logger == nil || source == nil {
		return nil, fmt.Errorf("missing required dependencies for ForecastService")
	}
	if cfg.Symbol == "" {
		return nil, fmt.Errorf("symbol is required: %w", ports.ErrConfigurationError)
	}
	if !cfg.History.Start.Before(cfg.History.End) {
		return nil, fmt.Errorf("history window %s is empty: %w", cfg.History, ports.ErrConfigurationError)
	}
	if cfg.ForecastEnd.Before(cfg.ForecastStart) {
		return nil, fmt.Errorf("forecast range ends before it starts: %w", ports.ErrConfigurationError)
	}
	return &ForecastService{cfg: cfg, logger: logger, source: source, cache: cache}, nil
}

// Run executes one complete pipeline pass. Any failure aborts the run; no partial
// result is returned.
func (s *ForecastService) Run(ctx context.Context) (*domain.Forecast, error) {
	started := time.Now()
	fields := ports.Fields{"source": s.source.Name(), "symbol": s.cfg.Symbol, "window": s.cfg.History.String()}
	s.logger.Info(ctx, "Starting forecast run", fields)

	history, err := s.source.FetchHistory(ctx, s.cfg.Symbol, s.cfg.History)
	if err != nil {
		return nil, s.fail(ctx, "fetch", err)
	}
	if len(history) == 0 {
		return nil, s.fail(ctx, "fetch", fmt.Errorf("source %s returned no observations for %s: %w: %w",
			s.source.Name(), s.cfg.History, ports.ErrFetch, ports.ErrNoData))
	}
	if err := checkChronological(history); err != nil {
		return nil, s.fail(ctx, "fetch", err)
	}

	points, err := powerlaw.Transform(history, s.cfg.Origin)
	if err != nil {
		return nil, s.fail(ctx, "transform", err)
	}

	model, err := s.fit(ctx, history, points)
	if err != nil {
		return nil, s.fail(ctx, "fit", err)
	}

	trend, err := powerlaw.Forecast(model, s.cfg.Origin, powerlaw.ObservationDates(history))
	if err != nil {
		return nil, s.fail(ctx, "trend", err)
	}
	future, err := powerlaw.Forecast(model, s.cfg.Origin, powerlaw.DailyDates(s.cfg.ForecastStart, s.cfg.ForecastEnd))
	if err != nil {
		return nil, s.fail(ctx, "forecast", err)
	}

	s.logger.Info(ctx, "Forecast run complete", ports.Fields{
		"symbol":       s.cfg.Symbol,
		"observations": len(history),
		"intercept":    model.Intercept,
		"slope":        model.Slope,
		"futurePoints": len(future),
		"elapsed":      time.Since(started).String(),
	})
	return &domain.Forecast{
		Symbol:  s.cfg.Symbol,
		Origin:  s.cfg.Origin,
		Model:   model,
		History: history,
		Trend:   trend,
		Future:  future,
	}, nil
}

// fit solves the regression, consulting the cache first when one is configured.
// Cache failures are logged and otherwise ignored.
func (s *ForecastService) fit(ctx context.Context, history []domain.Observation, points []powerlaw.LogPoint) (domain.FittedModel, error) {
	if s.cache == nil {
		return powerlaw.Fit(points)
	}

	last := history[len(history)-1]
	key := ports.FitKey{
		Source:    s.source.Name(),
		Symbol:    s.cfg.Symbol,
		Window:    s.cfg.History,
		Origin:    s.cfg.Origin,
		Count:     len(history),
		LastDate:  last.Date,
		LastPrice: last.Price,
		Digest:    historyDigest(history),
	}
	if model, ok, err := s.cache.Get(ctx, key); err != nil {
		s.logger.Warn(ctx, "Fit cache lookup failed, fitting from scratch", ports.Fields{"error": err.Error()})
	} else if ok {
		return model, nil
	}

	model, err := powerlaw.Fit(points)
	if err != nil {
		return domain.FittedModel{}, err
	}
	if err := s.cache.Put(ctx, key, model); err != nil {
		s.logger.Warn(ctx, "Failed to store fit in cache", ports.Fields{"error": err.Error()})
	}
	return model, nil
}

func (s *ForecastService) fail(ctx context.Context, stage string, err error) error {
	s.logger.Error(ctx, err, "Forecast run failed", ports.Fields{"stage": stage, "symbol": s.cfg.Symbol})
	return fmt.Errorf("%s: %w", stage, err)
}

// checkChronological enforces the source contract of unique, ascending dates.
func checkChronological(obs []domain.Observation) error {
	for i := 1; i < len(obs); i++ {
		if !obs[i].Date.After(obs[i-1].Date) {
			return fmt.Errorf("observation %d (%s) does not follow %s: %w",
				i, obs[i].Date.Format(time.DateOnly), obs[i-1].Date.Format(time.DateOnly), ports.ErrFetch)
		}
	}
	return nil
}

// historyDigest hashes every observation so a revised close anywhere in the
// history yields a different cache key.
func historyDigest(obs []domain.Observation) string {
	h := sha256.New()
	var buf [16]byte
	for _, o := range obs {
		binary.BigEndian.PutUint64(buf[:8], uint64(o.Date.Unix()))
		binary.BigEndian.PutUint64(buf[8:], math.Float64bits(o.Price))
		h.Write(buf[:])
	}
	return hex.EncodeToString(h.Sum(nil))
}
