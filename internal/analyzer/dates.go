package analyzer

import (
	"time"

	"github.com/jamesmcarthur-3999/taskerino/pkg/types"
)

// dateKeywords maps query phrases to named ranges. Entries are checked
// in order; the first phrase found wins, so the two-word forms precede
// their one-word substrings.
var dateKeywords = []struct {
	phrase string
	named  types.NamedDateRange
}{
	{"yesterday", types.RangeYesterday},
	{"today", types.RangeToday},
	{"this week", types.RangeThisWeek},
	{"last week", types.RangeLastWeek},
	{"this month", types.RangeThisMonth},
	{"last month", types.RangeLastMonth},
	{"this year", types.RangeThisYear},
}

// extractDateFilter scans the query for a date keyword and resolves it
// to an inclusive calendar range against now. Returns nil when no date
// keyword is present.
func extractDateFilter(query string, now time.Time) *types.DateFilter {
	for _, kw := range dateKeywords {
		if containsPhrase(query, kw.phrase) {
			start, end := resolveNamedRange(kw.named, now)
			return &types.DateFilter{
				Kind:  types.DateFilterRelative,
				Start: start,
				End:   end,
				Named: kw.named,
			}
		}
	}
	return nil
}

// resolveNamedRange computes the inclusive calendar range for a named
// keyword. Weeks run Monday through Sunday; month and year boundaries
// are calendar boundaries.
func resolveNamedRange(named types.NamedDateRange, now time.Time) (time.Time, time.Time) {
	switch named {
	case types.RangeToday:
		return startOfDay(now), endOfDay(now)
	case types.RangeYesterday:
		y := now.AddDate(0, 0, -1)
		return startOfDay(y), endOfDay(y)
	case types.RangeThisWeek:
		monday := startOfWeek(now)
		return monday, endOfDay(monday.AddDate(0, 0, 6))
	case types.RangeLastWeek:
		monday := startOfWeek(now).AddDate(0, 0, -7)
		return monday, endOfDay(monday.AddDate(0, 0, 6))
	case types.RangeThisMonth:
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return first, endOfDay(first.AddDate(0, 1, -1))
	case types.RangeLastMonth:
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -1, 0)
		return first, endOfDay(first.AddDate(0, 1, -1))
	case types.RangeThisYear:
		first := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())
		return first, endOfDay(time.Date(now.Year(), 12, 31, 0, 0, 0, 0, now.Location()))
	}
	return startOfDay(now), endOfDay(now)
}

// startOfWeek returns midnight on the Monday of now's calendar week,
// using ISO-style day-of-week arithmetic (Sunday counts as day 7).
func startOfWeek(now time.Time) time.Time {
	weekday := int(now.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	return startOfDay(now).AddDate(0, 0, -(weekday - 1))
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}
