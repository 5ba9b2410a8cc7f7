package domain

import (
	"slices"
	"strings"
	"time"
)

// DefaultChartWindow is the number of days shown on the trend chart.
const DefaultChartWindow = 30

// ChartPoint is one day on the trend chart.
type ChartPoint struct {
	Label   string `json:"label"`
	Date    string `json:"date"`
	Killed  int64  `json:"killed"`
	Injured int64  `json:"injured"`
}

// Chart holds the trend chart data as parallel arrays plus per-point records.
type Chart struct {
	Labels  []string     `json:"labels"`
	Dates   []string     `json:"dates"`
	Killed  []int64      `json:"killed"`
	Injured []int64      `json:"injured"`
	Points  []ChartPoint `json:"points"`
}

// BuildChart derives daily killed/injured deltas over a trailing window of at
// most windowSize records. With asOf set the window ends before the first
// record dated after asOf; otherwise it ends at the latest record not after
// today.
func BuildChart(series Series, windowSize int, asOf string) Chart {
	if windowSize <= 0 {
		windowSize = DefaultChartWindow
	}

	sorted := slices.Clone(series)
	slices.SortStableFunc(sorted, func(a, b Record) int {
		return strings.Compare(a.Date, b.Date)
	})

	var window []Record
	if asOf != "" {
		end := len(sorted)
		if i := slices.IndexFunc(sorted, func(r Record) bool { return r.Date > asOf }); i >= 0 {
			end = i
		}
		window = sorted[max(0, end-windowSize):end]
	} else {
		today := Today()
		upToToday := slices.DeleteFunc(sorted, func(r Record) bool { return r.Date > today })
		window = upToToday[max(0, len(upToToday)-windowSize):]
	}

	chart := Chart{
		Labels:  make([]string, 0, len(window)),
		Dates:   make([]string, 0, len(window)),
		Killed:  make([]int64, 0, len(window)),
		Injured: make([]int64, 0, len(window)),
		Points:  make([]ChartPoint, 0, len(window)),
	}
	for i, rec := range window {
		var killed, injured int64
		if i > 0 {
			prev := window[i-1]
			killed = clampedDelta(rec.Killed, prev.Killed)
			injured = clampedDelta(rec.Injured, prev.Injured)
		}
		label := chartLabel(rec.Date)
		chart.Labels = append(chart.Labels, label)
		chart.Dates = append(chart.Dates, rec.Date)
		chart.Killed = append(chart.Killed, killed)
		chart.Injured = append(chart.Injured, injured)
		chart.Points = append(chart.Points, ChartPoint{Label: label, Date: rec.Date, Killed: killed, Injured: injured})
	}
	return chart
}

// clampedDelta returns cur-prev, or 0 when an upstream correction moved the
// cumulative total backwards.
// TODO: surface corrections on the chart instead of hiding them once the
// view has a marker for them.
func clampedDelta(cur, prev int64) int64 {
	return max(0, cur-prev)
}

// chartLabel renders 2024-01-05 as "Jan 5".
func chartLabel(date string) string {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return date
	}
	return t.Format("Jan 2")
}
