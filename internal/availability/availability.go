// Package availability decides whether a listing counts as "on" within a
// date window. It is used by the public catalog filter, the stats endpoint
// and the daily running-show count job.
package availability

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/stagedoor/theatre-listings/internal/model"
)

// DateLayout is the calendar date format used throughout the listings table.
const DateLayout = "2006-01-02"

// farFuture stands in for the end date of an open-ended run.
var farFuture = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)

// IsActive reports whether the listing is on during [windowStart, windowEnd]
// (inclusive on both ends).
//
// The base condition is the standard interval overlap test, with a missing
// end date treated as infinitely far in the future. When the window is a
// single day and the listing carries a weekly schedule, that day's weekday
// must additionally map to at least one non-nil performance time. A missing
// or malformed schedule never excludes a listing: the source data favours
// over-inclusion, so schedule parsing fails open.
func IsActive(l *model.Listing, windowStart, windowEnd time.Time) bool {
	start, err := time.Parse(DateLayout, l.StartDate)
	if err != nil {
		return false
	}
	end := farFuture
	if l.EndDate != nil && *l.EndDate != "" {
		if e, err := time.Parse(DateLayout, *l.EndDate); err == nil {
			end = e
		}
	}
	if start.After(windowEnd) || end.Before(windowStart) {
		return false
	}
	if sameDay(windowStart, windowEnd) {
		return performsOn(l.Schedule, windowStart)
	}
	return true
}

// IsActiveOn is IsActive with a single-day window.
func IsActiveOn(l *model.Listing, day time.Time) bool {
	return IsActive(l, day, day)
}

// CountByCategory tallies the listings active on the given day, keyed by
// category. Every enumerated category is present in the result, so callers
// always see explicit zeroes.
func CountByCategory(listings []model.Listing, day time.Time) map[model.Category]int {
	counts := make(map[model.Category]int, 3)
	for _, cat := range model.Categories() {
		counts[cat] = 0
	}
	for i := range listings {
		if IsActiveOn(&listings[i], day) {
			counts[listings[i].Category]++
		}
	}
	return counts
}

// performsOn checks the weekly schedule for at least one performance on the
// weekday of day. No schedule, or a schedule that does not parse, means no
// restriction.
func performsOn(raw json.RawMessage, day time.Time) bool {
	if len(raw) == 0 || string(raw) == "null" {
		return true
	}
	var ws model.WeeklySchedule
	if err := json.Unmarshal(raw, &ws); err != nil {
		return true // fail open: malformed schedule must not hide the listing
	}
	if len(ws) == 0 {
		return true
	}
	p, ok := ws[strings.ToLower(day.Weekday().String())]
	if !ok {
		return false
	}
	return p.Matinee != nil || p.Evening != nil
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}
