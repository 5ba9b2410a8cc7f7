// Package render draws trend charts as PNG images.
package render

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/couchcryptid/casualty-tracker/internal/domain"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ErrNoPoints is returned when the chart window holds no data.
var ErrNoPoints = errors.New("chart has no points")

const (
	DefaultWidth  = 960
	DefaultHeight = 400
)

var (
	killedColor  = drawing.ColorFromHex("c0392b")
	injuredColor = drawing.ColorFromHex("e67e22")
)

// Options sizes and titles the rendered image.
type Options struct {
	Title  string
	Width  int
	Height int
}

// PNG writes the daily killed and injured deltas of c as a line chart.
func PNG(w io.Writer, c domain.Chart, opts Options) error {
	if len(c.Points) == 0 {
		return ErrNoPoints
	}
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	if opts.Height <= 0 {
		opts.Height = DefaultHeight
	}

	times := make([]time.Time, len(c.Points))
	killed := make([]float64, len(c.Points))
	injured := make([]float64, len(c.Points))
	maxY := 1.0
	for i, p := range c.Points {
		t, err := time.Parse(domain.DateLayout, p.Date)
		if err != nil {
			return fmt.Errorf("chart point %d: %w", i, err)
		}
		times[i] = t
		killed[i] = float64(p.Killed)
		injured[i] = float64(p.Injured)
		maxY = max(maxY, killed[i], injured[i])
	}

	// A single point has no x-range to draw; repeat it one day later.
	if len(times) == 1 {
		times = append(times, times[0].AddDate(0, 0, 1))
		killed = append(killed, killed[0])
		injured = append(injured, injured[0])
	}

	ch := chart.Chart{
		Title:      opts.Title,
		Width:      opts.Width,
		Height:     opts.Height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatterWithFormat("Jan 2"),
		},
		// Deltas are clamped at zero, and a flat series needs a non-empty range.
		YAxis: chart.YAxis{
			Name:  "per day",
			Range: &chart.ContinuousRange{Min: 0, Max: maxY * 1.1},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Killed",
				XValues: times,
				YValues: killed,
				Style:   chart.Style{StrokeColor: killedColor, StrokeWidth: 2},
			},
			chart.TimeSeries{
				Name:    "Injured",
				XValues: times,
				YValues: injured,
				Style:   chart.Style{StrokeColor: injuredColor, StrokeWidth: 2},
			},
		},
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}
