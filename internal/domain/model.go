package domain

import "time"

// FittedModel holds the coefficients of log(price) = Intercept + Slope*log(age).
type FittedModel struct {
	Intercept float64
	Slope     float64
}

// ForecastPoint is a price evaluated from a FittedModel at a calendar date.
type ForecastPoint struct {
	Date  time.Time
	Price float64
}

// Forecast is everything the presentation layer needs to draw a chart.
type Forecast struct {
	Symbol  string
	Origin  time.Time
	Model   FittedModel
	History []Observation   // Raw closes as fetched
	Trend   []ForecastPoint // Model evaluated over the historical dates
	Future  []ForecastPoint // Model evaluated over the future range
}
