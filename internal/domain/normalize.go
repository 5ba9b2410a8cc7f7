package domain

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// fieldChain lists the upstream keys that may carry a canonical field,
// most authoritative first.
type fieldChain struct {
	name       string
	candidates []string
	set        func(*Record, int64)
}

var fieldChains = []fieldChain{
	{"killed", []string{"ext_killed_cum", "killed_cum", "killed"}, func(r *Record, v int64) { r.Killed = v }},
	{"injured", []string{"ext_injured_cum", "injured_cum", "injured"}, func(r *Record, v int64) { r.Injured = v }},
	{"children_killed", []string{"ext_killed_children_cum", "killed_children_cum", "children_killed"}, func(r *Record, v int64) { r.ChildrenKilled = v }},
	{"women_killed", []string{"ext_killed_women_cum", "killed_women_cum", "women_killed"}, func(r *Record, v int64) { r.WomenKilled = v }},
	{"medical_killed", []string{"ext_med_killed_cum", "med_killed_cum", "medical_killed"}, func(r *Record, v int64) { r.MedicalKilled = v }},
	{"press_killed", []string{"ext_press_killed_cum", "press_killed_cum", "press_killed"}, func(r *Record, v int64) { r.PressKilled = v }},
	{"daily_killed", []string{"ext_killed", "killed"}, func(r *Record, v int64) { r.DailyKilled = v }},
	{"daily_injured", []string{"ext_injured", "injured"}, func(r *Record, v int64) { r.DailyInjured = v }},
	{"settler_attacks", []string{"settler_attacks_cum", "settler_attacks"}, func(r *Record, v int64) { r.SettlerAttacksCum = v }},
}

// FieldCandidates returns the ordered upstream keys consulted for a canonical field.
func FieldCandidates(field string) []string {
	for _, fc := range fieldChains {
		if fc.name == field {
			return slices.Clone(fc.candidates)
		}
	}
	return nil
}

// DecodeRaw parses an upstream payload into raw records.
func DecodeRaw(data []byte) ([]RawRecord, error) {
	var raw []RawRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, validationErrorf("payload is not an array of objects: %v", err)
	}
	return raw, nil
}

// Normalize converts raw upstream records into a Series sorted newest first.
// Every input record yields exactly one output record.
func Normalize(raw []RawRecord) (Series, error) {
	if len(raw) == 0 {
		return nil, validationErrorf("data array is empty")
	}

	series := make(Series, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for i, item := range raw {
		rec, err := normalizeRecord(item)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		if _, dup := seen[rec.Date]; dup {
			return nil, validationErrorf("duplicate report_date %s", rec.Date)
		}
		seen[rec.Date] = struct{}{}
		series = append(series, rec)
	}

	slices.SortFunc(series, func(a, b Record) int {
		return strings.Compare(b.Date, a.Date)
	})
	return series, nil
}

func normalizeRecord(item RawRecord) (Record, error) {
	if item == nil {
		return Record{}, validationErrorf("record is null")
	}

	date := strings.TrimSpace(cast.ToString(item["report_date"]))
	if date == "" {
		return Record{}, validationErrorf("missing report_date")
	}
	if _, err := time.Parse(DateLayout, date); err != nil {
		return Record{}, validationErrorf("report_date %q is not YYYY-MM-DD", date)
	}

	rec := Record{
		Date:   date,
		Source: cast.ToString(item["report_source"]),
	}
	for _, fc := range fieldChains {
		fc.set(&rec, resolve(item, fc.candidates))
	}
	return rec, nil
}

// resolve returns the first non-zero numeric value among candidates, or 0.
func resolve(item RawRecord, candidates []string) int64 {
	for _, key := range candidates {
		v, ok := item[key]
		if !ok || v == nil {
			continue
		}
		f, err := cast.ToFloat64E(v)
		if err != nil || f == 0 {
			continue
		}
		return int64(f)
	}
	return 0
}
