package powerlaw

import (
	"fmt"
	"math"
	"time"

	"btcPowerLaw/internal/domain"
	"btcPowerLaw/internal/ports"
)

const secondsPerDay = 24 * 60 * 60

// LogPoint is one observation expressed in log-log space.
type LogPoint struct {
	LogAge   float64 // ln(days since origin)
	LogPrice float64 // ln(close)
}

// calendarDay truncates t to midnight of its UTC calendar date.
func calendarDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AgeInDays returns the number of whole days between the UTC calendar dates of origin and d.
// The result is negative when d precedes origin.
func AgeInDays(origin, d time.Time) int {
	return int((calendarDay(d).Unix() - calendarDay(origin).Unix()) / secondsPerDay)
}

// logAge is ln(age) for d, failing with ErrDomain when d is not strictly after origin.
func logAge(origin, d time.Time) (float64, error) {
	age := AgeInDays(origin, d)
	if age < 1 {
		return 0, fmt.Errorf("date %s is %d days from origin %s, need at least 1: %w",
			d.Format(time.DateOnly), age, origin.Format(time.DateOnly), ports.ErrDomain)
	}
	return math.Log(float64(age)), nil
}

// Transform maps each observation to (ln age, ln price), preserving order.
func Transform(obs []domain.Observation, origin time.Time) ([]LogPoint, error) {
	points := make([]LogPoint, len(obs))
	for i, o := range obs {
		la, err := logAge(origin, o.Date)
		if err != nil {
			return nil, fmt.Errorf("observation %d: %w", i, err)
		}
		if !(o.Price > 0) || math.IsInf(o.Price, 1) {
			return nil, fmt.Errorf("observation %d (%s): price %g is not a positive finite number: %w",
				i, o.Date.Format(time.DateOnly), o.Price, ports.ErrDomain)
		}
		points[i] = LogPoint{LogAge: la, LogPrice: math.Log(o.Price)}
	}
	return points, nil
}
