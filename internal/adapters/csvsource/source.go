package csvsource

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"btcPowerLaw/internal/domain"
	"btcPowerLaw/internal/ports"
	"btcPowerLaw/internal/utils"
)

// Source implements ports.PriceSource over a "date,close" CSV snapshot,
// typically written by cmd/fetch_history. The file is re-read on every fetch.
type Source struct {
	path   string
	logger ports.Logger
}

var _ ports.PriceSource = (*Source)(nil)

// New creates a CSV-backed source. The file is not opened until FetchHistory.
func New(path string, logger ports.Logger) (*Source, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required for CSV source")
	}
	if path == "" {
		return nil, fmt.Errorf("csv path is empty: %w", ports.ErrConfigurationError)
	}
	return &Source{path: path, logger: logger}, nil
}

func (s *Source) Name() string { return "csv" }

// FetchHistory returns the snapshot rows that fall inside window, ascending by date.
// The symbol is recorded in logs only; a snapshot holds a single asset.
func (s *Source) FetchHistory(ctx context.Context, symbol string, window domain.Window) ([]domain.Observation, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("csv fetch: %w: %w: %w", ports.ErrFetch, ports.ErrContextCanceled, err)
	}

	f, err := os.Open(s.path)
	if err != nil {
		s.logger.Error(ctx, err, "Failed to open CSV snapshot", ports.Fields{"path": s.path})
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("csv fetch %s: %w: %w: %w", s.path, ports.ErrFetch, ports.ErrNoData, err)
		}
		return nil, fmt.Errorf("csv fetch %s: %w: %w", s.path, ports.ErrFetch, err)
	}
	defer f.Close()

	rows, err := utils.ReadObservationsFromCSV(f)
	if err != nil {
		s.logger.Error(ctx, err, "Failed to parse CSV snapshot", ports.Fields{"path": s.path})
		return nil, fmt.Errorf("csv fetch %s: %w: %w: %w", s.path, ports.ErrFetch, ports.ErrInvalidRequest, err)
	}

	byDate := make(map[time.Time]float64, len(rows))
	for _, r := range rows {
		if window.Contains(r.Date) {
			byDate[r.Date] = r.Price
		}
	}
	obs := make([]domain.Observation, 0, len(byDate))
	for d, p := range byDate {
		obs = append(obs, domain.Observation{Date: d, Price: p})
	}
	sort.Slice(obs, func(i, j int) bool { return obs[i].Date.Before(obs[j].Date) })

	if len(obs) == 0 {
		return nil, fmt.Errorf("csv fetch %s %s: %w: %w", s.path, window, ports.ErrFetch, ports.ErrNoData)
	}
	s.logger.Info(ctx, "Loaded price history", ports.Fields{"source": s.Name(), "symbol": symbol, "path": s.path, "count": len(obs)})
	return obs, nil
}
