package domain

// DateLayout is the report date format used throughout the API.
const DateLayout = "2006-01-02"

// RawRecord is one upstream report as decoded from JSON. Field names vary
// across schema revisions, so it stays an open mapping.
type RawRecord map[string]any

// Record is the canonical per-day report for a region.
type Record struct {
	Date   string `json:"date"`
	Source string `json:"source"`

	// Cumulative totals since reporting began.
	Killed            int64 `json:"killed"`
	Injured           int64 `json:"injured"`
	ChildrenKilled    int64 `json:"children_killed"`
	WomenKilled       int64 `json:"women_killed"`
	MedicalKilled     int64 `json:"medical_killed"`
	PressKilled       int64 `json:"press_killed"`
	SettlerAttacksCum int64 `json:"settler_attacks"`

	// Same-day figures.
	DailyKilled  int64 `json:"daily_killed"`
	DailyInjured int64 `json:"daily_injured"`
}

// Series is an ordered run of records for one region, newest first.
type Series []Record

// Latest returns the record with the greatest date. It scans the whole
// series instead of trusting position.
func (s Series) Latest() (Record, bool) {
	if len(s) == 0 {
		return Record{}, false
	}
	latest := s[0]
	for _, r := range s[1:] {
		if r.Date > latest.Date {
			latest = r
		}
	}
	return latest, true
}

// Find returns the record reported on date.
func (s Series) Find(date string) (Record, bool) {
	for _, r := range s {
		if r.Date == date {
			return r, true
		}
	}
	return Record{}, false
}
