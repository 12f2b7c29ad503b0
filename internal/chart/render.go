// Package chart draws a forecast as a price-over-time image.
package chart

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"btcPowerLaw/internal/domain"
	"btcPowerLaw/internal/ports"
)

// Output formats accepted by Render.
const (
	FormatSVG = "svg"
	FormatPNG = "png"
)

const (
	Title      = "Historical Price and Bitcoin Price Prediction until 2100"
	XLabel     = "Date"
	YLabel     = "Bitcoin Price (USD)"
	Width      = 12 * vg.Inch
	Height     = 6 * vg.Inch
	seriesHist = "Historical Price"
	seriesPred = "Prediction"
	seriesLow  = "Lower Trend Line"
)

var (
	blue  = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
	red   = color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff}
	green = color.RGBA{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff}
)

// ErrUnsupportedFormat is returned for an output format other than svg or png.
var ErrUnsupportedFormat = errors.New("unsupported chart format")

// Render writes the chart for f to w. An empty format means svg.
func Render(w io.Writer, f *domain.Forecast, scale domain.ScaleMode, format string) error {
	if f == nil {
		return errors.New("nil forecast")
	}
	if format == "" {
		format = FormatSVG
	}
	if format != FormatSVG && format != FormatPNG {
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	p, err := build(f, scale)
	if err != nil {
		return err
	}

	wt, err := p.WriterTo(Width, Height, format)
	if err != nil {
		return fmt.Errorf("failed to prepare %s canvas: %w", format, err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write chart: %w", err)
	}
	return nil
}

func build(f *domain.Forecast, scale domain.ScaleMode) (*plot.Plot, error) {
	hist := observationXYs(f.History)
	pred := pointXYs(f.Future)
	low := pointXYs(f.Trend)

	// plot.LogScale panics on values <= 0.
	if scale.IsLog() {
		for _, s := range []struct {
			name string
			xys  plotter.XYs
		}{{seriesHist, hist}, {seriesPred, pred}, {seriesLow, low}} {
			if err := checkPositive(s.name, s.xys); err != nil {
				return nil, err
			}
		}
	}

	p := plot.New()
	p.Title.Text = Title
	p.X.Label.Text = XLabel
	p.Y.Label.Text = YLabel
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006"}
	if scale.IsLog() {
		p.Y.Scale = plot.LogScale{}
		p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
	}

	grid := plotter.NewGrid()
	grid.Vertical.Dashes = []vg.Length{vg.Points(2), vg.Points(2)}
	grid.Horizontal.Dashes = []vg.Length{vg.Points(2), vg.Points(2)}
	p.Add(grid)

	series := []struct {
		name   string
		xys    plotter.XYs
		color  color.Color
		width  vg.Length
		dashes []vg.Length
	}{
		{seriesHist, hist, blue, vg.Points(1.5), nil},
		{seriesPred, pred, red, vg.Points(1.5), []vg.Length{vg.Points(6), vg.Points(3)}},
		{seriesLow, low, green, vg.Points(0.5), nil},
	}
	for _, s := range series {
		if len(s.xys) == 0 {
			continue
		}
		line, err := plotter.NewLine(s.xys)
		if err != nil {
			return nil, fmt.Errorf("invalid %s series: %w", s.name, err)
		}
		line.LineStyle.Color = s.color
		line.LineStyle.Width = s.width
		line.LineStyle.Dashes = s.dashes
		p.Add(line)
		p.Legend.Add(s.name, line)
	}
	p.Legend.Top = true
	p.Legend.Left = true

	return p, nil
}

func checkPositive(name string, xys plotter.XYs) error {
	for _, xy := range xys {
		if !(xy.Y > 0) || math.IsInf(xy.Y, 1) {
			return fmt.Errorf("%s value %g at %s cannot be drawn on a logarithmic axis: %w",
				name, xy.Y, time.Unix(int64(xy.X), 0).UTC().Format(time.DateOnly), ports.ErrDomain)
		}
	}
	return nil
}

func observationXYs(obs []domain.Observation) plotter.XYs {
	xys := make(plotter.XYs, len(obs))
	for i, o := range obs {
		xys[i].X = float64(o.Date.Unix())
		xys[i].Y = o.Price
	}
	return xys
}

func pointXYs(points []domain.ForecastPoint) plotter.XYs {
	xys := make(plotter.XYs, len(points))
	for i, fp := range points {
		xys[i].X = float64(fp.Date.Unix())
		xys[i].Y = fp.Price
	}
	return xys
}
