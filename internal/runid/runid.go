// Package runid derives the natural-key slug used to de-duplicate listings.
// The slug is a pure function of (title, venue name, start date): importing
// the same run twice always resolves to the same key, which is what makes
// bulk import an idempotent upsert rather than an append.
package runid

import (
	"regexp"
	"strings"
)

var (
	apostrophes = strings.NewReplacer("'", "", "’", "")
	disallowed  = regexp.MustCompile(`[^a-z0-9\s-]+`)
	whitespace  = regexp.MustCompile(`\s+`)
	hyphenRuns  = regexp.MustCompile(`-{2,}`)
)

// normalize lower-cases s, strips apostrophes, drops every character outside
// [a-z0-9], whitespace and hyphen, collapses whitespace runs to single
// hyphens, collapses repeated hyphens and trims hyphens at both ends.
func normalize(s string) string {
	s = strings.ToLower(s)
	s = apostrophes.Replace(s)
	s = disallowed.ReplaceAllString(s, "")
	s = whitespace.ReplaceAllString(s, "-")
	s = hyphenRuns.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Generate returns the run-id slug for a listing. startDate is concatenated
// verbatim; callers pass the DB date string ("2006-01-02").
func Generate(title, venueName, startDate string) string {
	return normalize(title) + "-" + normalize(venueName) + "-" + startDate
}
