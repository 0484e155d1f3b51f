// Package types defines the domain records and closed enumerations shared
// by the query pipeline: notes, tasks, the three entity record kinds
// (organizations, people, topics), relationships, and the analysis/search
// artifacts the pipeline stages exchange.
package types

// EntityKind identifies the kind of record a relationship endpoint or an
// extracted entity refers to. It is a closed set; unknown kinds are
// rejected at the edges (index load, analysis) rather than silently
// falling through string comparisons.
type EntityKind string

const (
	KindOrganization EntityKind = "organization"
	KindPerson       EntityKind = "person"
	KindTopic        EntityKind = "topic"
	KindNote         EntityKind = "note"
	KindTask         EntityKind = "task"
)

// IsValidEntityKind reports whether s names a known entity kind.
func IsValidEntityKind(s string) bool {
	switch EntityKind(s) {
	case KindOrganization, KindPerson, KindTopic, KindNote, KindTask:
		return true
	}
	return false
}

// IsAnchorKind reports whether k is one of the three kinds the analyzer
// extracts as pre-filter anchors (organization, person, topic).
func (k EntityKind) IsAnchorKind() bool {
	return k == KindOrganization || k == KindPerson || k == KindTopic
}

// TaskStatus is the closed task lifecycle enumeration.
type TaskStatus string

const (
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "in-progress"
	StatusDone       TaskStatus = "done"
	StatusBlocked    TaskStatus = "blocked"
)

// IsValidTaskStatus reports whether s names a known task status.
func IsValidTaskStatus(s string) bool {
	switch TaskStatus(s) {
	case StatusTodo, StatusInProgress, StatusDone, StatusBlocked:
		return true
	}
	return false
}

// TaskPriority is the closed task priority enumeration.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

// IsValidTaskPriority reports whether s names a known task priority.
func IsValidTaskPriority(s string) bool {
	switch TaskPriority(s) {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// QueryPattern classifies a query by the first matching rule in strict
// priority order. Patterns are mutually exclusive by construction: the
// analyzer stops at the first rule that fires.
type QueryPattern string

const (
	// PatternEntitySearch applies when at least one known entity name
	// occurs verbatim in the query.
	PatternEntitySearch QueryPattern = "entity_search"

	// PatternDateFilter applies when no entity matched but a date
	// keyword is present.
	PatternDateFilter QueryPattern = "date_filter"

	// PatternStatusFilter applies when a status or priority keyword is
	// present and no higher-priority rule fired.
	PatternStatusFilter QueryPattern = "status_filter"

	// PatternComplexSemantic applies to question-word or relational
	// phrasings that carry no structural filter.
	PatternComplexSemantic QueryPattern = "complex_semantic"

	// PatternKeywordSearch is the fallback when nothing else matched.
	PatternKeywordSearch QueryPattern = "keyword_search"
)
