package domain

import (
	"strconv"
	"sync"
)

// Fingerprint hashes region|date|killed|injured of the latest record in
// series. An empty series yields "", which never equals a real fingerprint.
func Fingerprint(series Series, region Region) string {
	latest, ok := series.Latest()
	if !ok {
		return ""
	}
	key := string(region) + "|" + latest.Date + "|" +
		strconv.FormatInt(latest.Killed, 10) + "|" +
		strconv.FormatInt(latest.Injured, 10)
	return strconv.FormatInt(int64(rollingHash(key)), 10)
}

// rollingHash folds s as h = h*31 + c with signed 32-bit wraparound.
func rollingHash(s string) int32 {
	var h int32
	for _, c := range s {
		h = h*31 + int32(c)
	}
	return h
}

// ChangeDetector remembers the last fingerprint seen per region.
type ChangeDetector struct {
	mu       sync.Mutex
	lastSeen map[Region]string
}

// NewChangeDetector creates a detector with no recorded fingerprints.
func NewChangeDetector() *ChangeDetector {
	return &ChangeDetector{lastSeen: make(map[Region]string)}
}

// HasChanged reports whether series differs from the last one seen for
// region, recording the new fingerprint when it does.
func (d *ChangeDetector) HasChanged(series Series, region Region) bool {
	fp := Fingerprint(series, region)

	d.mu.Lock()
	defer d.mu.Unlock()
	if fp == d.lastSeen[region] {
		return false
	}
	d.lastSeen[region] = fp
	return true
}

// Reset forgets the fingerprints of the given regions, or of all regions when none are given.
func (d *ChangeDetector) Reset(regions ...Region) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(regions) == 0 {
		clear(d.lastSeen)
		return
	}
	for _, r := range regions {
		delete(d.lastSeen, r)
	}
}
