package ports

import (
	"context"

	"btcPowerLaw/internal/domain"
)

// PriceSource retrieves daily closing prices for one asset.
//
// Implementations return observations in strictly increasing date order with no
// duplicates and no gap filling. An empty result is reported as an error wrapping
// ErrFetch and ErrNoData, never as an empty slice.
type PriceSource interface {
	// Name identifies the provider in logs and cache keys.
	Name() string
	// FetchHistory blocks until the whole window has been downloaded.
	FetchHistory(ctx context.Context, symbol string, window domain.Window) ([]domain.Observation, error)
}
