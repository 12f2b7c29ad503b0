package ports

import (
	"context"
	"time"

	"btcPowerLaw/internal/domain"
)

// FitKey identifies a fit by the exact data it was computed from.
// Two keys are equal only when a re-fit would see the same observations.
type FitKey struct {
	Source    string
	Symbol    string
	Window    domain.Window
	Origin    time.Time
	Count     int       // Number of observations fitted
	LastDate  time.Time // Date of the newest observation
	LastPrice float64   // Close of the newest observation
	Digest    string    // Hex SHA-256 over every (date, close) pair
}

// FitCache stores fitted coefficients so an unchanged history does not need a new solve.
type FitCache interface {
	// Get returns the cached model, or ok=false when the key has not been stored.
	Get(ctx context.Context, key FitKey) (model domain.FittedModel, ok bool, err error)
	Put(ctx context.Context, key FitKey, model domain.FittedModel) error
	Close() error
}
