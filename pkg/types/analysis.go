package types

import "time"

// ExtractedEntity is a known entity whose name occurred verbatim
// (case-insensitive, word-bounded) in a query. There is no fuzzy
// matching, so Confidence is always 1.0.
type ExtractedEntity struct {
	Kind       EntityKind `json:"kind"`
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Confidence float64    `json:"confidence"`
}

// DateFilterKind distinguishes calendar ranges computed from a named
// keyword from ranges supplied directly by the caller.
type DateFilterKind string

const (
	DateFilterAbsolute DateFilterKind = "absolute"
	DateFilterRelative DateFilterKind = "relative"
)

// NamedDateRange is the closed set of date keywords the analyzer
// recognizes.
type NamedDateRange string

const (
	RangeToday     NamedDateRange = "today"
	RangeYesterday NamedDateRange = "yesterday"
	RangeThisWeek  NamedDateRange = "this_week"
	RangeLastWeek  NamedDateRange = "last_week"
	RangeThisMonth NamedDateRange = "this_month"
	RangeLastMonth NamedDateRange = "last_month"
	RangeThisYear  NamedDateRange = "this_year"
)

// DateFilter is an inclusive calendar date range. Relative filters are
// resolved against the clock at analysis time, which is the only
// time-impure part of query analysis.
type DateFilter struct {
	Kind  DateFilterKind `json:"kind"`
	Start time.Time      `json:"start"`
	End   time.Time      `json:"end"`

	// Named is set for relative filters (e.g. "this_week").
	Named NamedDateRange `json:"named,omitempty"`
}

// Contains reports whether t falls inside the inclusive range.
func (f *DateFilter) Contains(t time.Time) bool {
	return !t.Before(f.Start) && !t.After(f.End)
}

// QueryAnalysis is the immutable structured form of a natural-language
// query, created once per query by the analyzer. Filters are extracted
// independently of the pattern: an entity search can still carry a date
// and priority filter.
type QueryAnalysis struct {
	// Pattern is the mutually-exclusive query classification.
	Pattern QueryPattern `json:"pattern"`

	// Entities is every known entity matched in the query.
	Entities []ExtractedEntity `json:"entities,omitempty"`

	// DateFilter is the extracted calendar range, if any.
	DateFilter *DateFilter `json:"date_filter,omitempty"`

	// StatusFilter lists the task statuses named by the query.
	StatusFilter []TaskStatus `json:"status_filter,omitempty"`

	// PriorityFilter lists the task priorities named by the query.
	PriorityFilter []TaskPriority `json:"priority_filter,omitempty"`

	// Tags lists #hashtag tokens found in the query (without the #).
	Tags []string `json:"tags,omitempty"`

	// RequireTasks / RequireNotes flag result-type requirements. Both
	// false means "no constraint"; both true is allowed.
	RequireTasks bool `json:"require_tasks"`
	RequireNotes bool `json:"require_notes"`

	// OriginalQuery is the raw query text.
	OriginalQuery string `json:"original_query"`
}

// HasStructuralFilter reports whether any of the date, status, or
// priority filters is set. Used by strategy selection to pick the local
// filter path over a full scan.
func (a *QueryAnalysis) HasStructuralFilter() bool {
	return a.DateFilter != nil || len(a.StatusFilter) > 0 || len(a.PriorityFilter) > 0
}
