// Package domain models the daily casualty reports published by the
// Tech for Palestine data API.
//
// # Data Source
//
// Each region has its own JSON endpoint returning an array of daily reports:
//
//	gaza:     https://data.techforpalestine.org/api/v2/casualties_daily.json
//	westbank: https://data.techforpalestine.org/api/v2/west_bank_daily.json
//
// Reports are keyed by report_date (YYYY-MM-DD) and carry a report_source tag
// naming the reporting body (Ministry of Health, Government Media Office, UN
// OCHA, ...).
//
// # Field Naming Drift
//
// The upstream schema has been revised several times and the same quantity
// appears under different keys depending on the report:
//
//	ext_killed_cum   extended/corrected cumulative total (preferred)
//	killed_cum       cumulative total as reported
//	killed           bare field, cumulative in older rows, daily in newer ones
//
// [Normalize] resolves every canonical field through an ordered candidate list
// (see [fieldChains]). The first candidate holding a non-zero number wins and
// the field defaults to 0 when none does.
//
// # Ordering
//
// A normalized [Series] is ordered newest-first. Dates are zero-padded ISO
// strings, so lexicographic comparison matches chronological order and no
// time parsing is needed for sorting. [BuildChart] re-sorts ascending.
//
// # Daily Deltas
//
// Chart points are derived from cumulative totals as cur-prev per day. The
// upstream occasionally revises totals downward; those negative deltas are
// clamped to zero so the trend line never dips below the axis.
//
// # Change Detection
//
// [ChangeDetector] keeps one fingerprint per region: a 32-bit rolling hash of
// region|date|killed|injured of the most recent record. It decides whether a
// reload actually brought new figures.
package domain
