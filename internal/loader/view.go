package loader

import (
	"log/slog"

	"github.com/couchcryptid/casualty-tracker/internal/domain"
)

// View is the presentation layer driven by the Coordinator.
type View interface {
	Render(region domain.Region, series domain.Series)
	ShowError(err error)
	NotifyUpdated()
	ShowDate(lookup DateLookup)
}

// LogView is a View that writes what would be displayed to a logger.
type LogView struct {
	logger *slog.Logger
}

// NewLogView creates a LogView.
func NewLogView(logger *slog.Logger) *LogView {
	return &LogView{logger: logger}
}

func (v *LogView) Render(region domain.Region, series domain.Series) {
	sum, ok := domain.Summarize(series, region)
	if !ok {
		return
	}
	v.logger.Info("dashboard",
		"region", region,
		"date", sum.Date,
		"total_killed", sum.TotalKilled,
		"total_injured", sum.TotalInjured,
		"daily_killed", sum.DailyKilled,
		"daily_injured", sum.DailyInjured,
		"source", sum.Source,
	)
}

func (v *LogView) ShowError(err error) {
	v.logger.Error("dashboard error", "kind", domain.ErrorKind(err), "error", err)
}

func (v *LogView) NotifyUpdated() {
	v.logger.Info("dashboard data updated")
}

func (v *LogView) ShowDate(lookup DateLookup) {
	v.logger.Info("historical view",
		"region", lookup.Region,
		"requested_date", lookup.RequestedDate,
		"actual_date", lookup.ActualDate,
		"approximate", lookup.Approximate,
		"killed", lookup.Record.Killed,
	)
}
