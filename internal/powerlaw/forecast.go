package powerlaw

import (
	"fmt"
	"math"
	"time"

	"btcPowerLaw/internal/domain"
	"btcPowerLaw/internal/ports"
)

// Evaluate returns exp(intercept + slope*logAge).
func Evaluate(m domain.FittedModel, logAge float64) float64 {
	return math.Exp(m.Intercept + m.Slope*logAge)
}

// Forecast evaluates m at every date, in the order given. Callers that plot the
// result are responsible for passing ascending dates.
func Forecast(m domain.FittedModel, origin time.Time, dates []time.Time) ([]domain.ForecastPoint, error) {
	points := make([]domain.ForecastPoint, len(dates))
	for i, d := range dates {
		la, err := logAge(origin, d)
		if err != nil {
			return nil, fmt.Errorf("forecast date %d: %w", i, err)
		}
		price := Evaluate(m, la)
		// exp over/underflow leaves a value the chart cannot place.
		if !(price > 0) || math.IsInf(price, 1) {
			return nil, fmt.Errorf("forecast at %s evaluates to %g: %w",
				d.Format(time.DateOnly), price, ports.ErrNumerical)
		}
		points[i] = domain.ForecastPoint{Date: d, Price: price}
	}
	return points, nil
}

// DailyDates lists every UTC calendar day from start through end inclusive.
// It returns nil when end precedes start.
func DailyDates(start, end time.Time) []time.Time {
	first, last := calendarDay(start), calendarDay(end)
	if last.Before(first) {
		return nil
	}
	dates := make([]time.Time, 0, AgeInDays(first, last)+1)
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates
}

// ObservationDates extracts the dates of obs in order.
func ObservationDates(obs []domain.Observation) []time.Time {
	dates := make([]time.Time, len(obs))
	for i, o := range obs {
		dates[i] = o.Date
	}
	return dates
}
