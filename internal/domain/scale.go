package domain

import (
	"fmt"
	"strings"
)

// ScaleMode selects how the chart's price axis is drawn. It never influences the fit.
type ScaleMode string

const (
	ScaleLog    ScaleMode = "log"
	ScaleLinear ScaleMode = "linear"
)

// DefaultScaleMode is preselected in the UI.
const DefaultScaleMode = ScaleLog

// ParseScaleMode converts user input to a ScaleMode. An empty string yields the default.
func ParseScaleMode(s string) (ScaleMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return DefaultScaleMode, nil
	case "log", "logarithmic":
		return ScaleLog, nil
	case "linear", "lin":
		return ScaleLinear, nil
	default:
		return "", fmt.Errorf("unknown scale mode %q", s)
	}
}

// IsLog reports whether the price axis is logarithmic.
func (s ScaleMode) IsLog() bool { return s == ScaleLog }

func (s ScaleMode) String() string { return string(s) }
