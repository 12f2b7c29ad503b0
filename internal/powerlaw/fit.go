package powerlaw

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"btcPowerLaw/internal/domain"
	"btcPowerLaw/internal/ports"
)

// MinObservations is the smallest sample a line can be fitted through.
const MinObservations = 2

// Fit computes the ordinary least squares line log_price = intercept + slope*log_age.
//
// Errors wrap ports.ErrInsufficientData when there are fewer than MinObservations
// points or every point has the same age, and ports.ErrNumerical when the solution
// is not finite.
func Fit(points []LogPoint) (domain.FittedModel, error) {
	if len(points) < MinObservations {
		return domain.FittedModel{}, fmt.Errorf("have %d observations, need at least %d: %w",
			len(points), MinObservations, ports.ErrInsufficientData)
	}

	x := make([]float64, len(points))
	y := make([]float64, len(points))
	spread := false
	for i, p := range points {
		x[i] = p.LogAge
		y[i] = p.LogPrice
		if x[i] != x[0] {
			spread = true
		}
	}
	if !spread {
		return domain.FittedModel{}, fmt.Errorf("all %d observations share the same age: %w",
			len(points), ports.ErrInsufficientData)
	}

	// Centered closed form; stable for the ~1e3..1e4 sample sizes seen here.
	intercept, slope := stat.LinearRegression(x, y, nil, false)
	if !isFinite(intercept) || !isFinite(slope) {
		return domain.FittedModel{}, fmt.Errorf("solve returned intercept=%g slope=%g: %w",
			intercept, slope, ports.ErrNumerical)
	}
	return domain.FittedModel{Intercept: intercept, Slope: slope}, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
