package domain

import "time"

// GenesisDate is the origin from which every age in days is measured (Bitcoin genesis block, UTC).
var GenesisDate = time.Date(2009, time.January, 3, 0, 0, 0, 0, time.UTC)

// Observation represents a single daily closing price reported by a data source.
type Observation struct {
	Date  time.Time // Trading day of the close
	Price float64   // Closing price, must be positive
}

// Window is the calendar range requested from a data source.
type Window struct {
	Start time.Time // Inclusive
	End   time.Time // Exclusive
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// String renders the window as "YYYY-MM-DD..YYYY-MM-DD".
func (w Window) String() string {
	return w.Start.Format(time.DateOnly) + ".." + w.End.Format(time.DateOnly)
}
