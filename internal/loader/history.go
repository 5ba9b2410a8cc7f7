package loader

import (
	"context"
	"fmt"
	"time"

	"github.com/couchcryptid/casualty-tracker/internal/domain"
)

// DateLookup is the record shown for a requested historical date. When no
// report exists for that exact day, the nearest earlier report is used and
// Approximate is set.
type DateLookup struct {
	Region        domain.Region `json:"region"`
	RequestedDate string        `json:"requested_date"`
	ActualDate    string        `json:"actual_date"`
	Approximate   bool          `json:"approximate"`
	Record        domain.Record `json:"record"`
}

// LoadForDate fetches region fresh-first and returns the record for date,
// or the closest earlier one.
func (c *Coordinator) LoadForDate(ctx context.Context, region domain.Region, date string) (DateLookup, error) {
	if _, err := time.Parse(domain.DateLayout, date); err != nil {
		return DateLookup{}, &domain.ValidationError{Reason: fmt.Sprintf("date %q is not YYYY-MM-DD", date)}
	}

	series, err := c.fetcher.Fetch(ctx, region, false)
	if err != nil {
		return DateLookup{}, fmt.Errorf("load %s for %s: %w", region, date, err)
	}

	if rec, ok := series.Find(date); ok {
		return DateLookup{Region: region, RequestedDate: date, ActualDate: date, Record: rec}, nil
	}

	var best domain.Record
	found := false
	for _, r := range series {
		if r.Date < date && (!found || r.Date > best.Date) {
			best, found = r, true
		}
	}
	if !found {
		return DateLookup{}, fmt.Errorf("%s on or before %s: %w", region, date, domain.ErrNoDataForDate)
	}
	return DateLookup{
		Region:        region,
		RequestedDate: date,
		ActualDate:    best.Date,
		Approximate:   true,
		Record:        best,
	}, nil
}
