package analyzer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesmcarthur-3999/taskerino/pkg/types"
)

var (
	testOrgs   = []*types.Organization{{ID: "c1", Name: "Acme Corp"}}
	testPeople = []*types.Person{{ID: "p1", Name: "Dana Reyes"}}
	testTopics = []*types.Topic{{ID: "t1", Name: "Onboarding"}}
)

// fixedClock pins "today" to Wednesday 2026-08-26 so week arithmetic is
// deterministic.
func fixedClock() time.Time {
	return time.Date(2026, 8, 26, 15, 4, 5, 0, time.UTC)
}

func newTestAnalyzer() *Analyzer {
	return NewAnalyzerWithClock(fixedClock)
}

func TestAnalyzeEndToEndExample(t *testing.T) {
	a := newTestAnalyzer()

	got := a.Analyze("show me high priority tasks for Acme Corp from this week", testOrgs, testPeople, testTopics)

	assert.Equal(t, types.PatternEntitySearch, got.Pattern)
	require.Len(t, got.Entities, 1)
	assert.Equal(t, types.ExtractedEntity{
		Kind:       types.KindOrganization,
		ID:         "c1",
		Name:       "Acme Corp",
		Confidence: 1.0,
	}, got.Entities[0])
	assert.Equal(t, []types.TaskPriority{types.PriorityHigh}, got.PriorityFilter)
	require.NotNil(t, got.DateFilter)
	assert.Equal(t, types.RangeThisWeek, got.DateFilter.Named)
	assert.True(t, got.RequireTasks)
	assert.False(t, got.RequireNotes)
}

func TestEntityExtractionWordBoundedCaseInsensitive(t *testing.T) {
	a := newTestAnalyzer()

	got := a.Analyze("anything about ACME CORP and dana reyes?", testOrgs, testPeople, testTopics)
	require.Len(t, got.Entities, 2)
	for _, e := range got.Entities {
		assert.Equal(t, 1.0, e.Confidence)
	}

	// Substring occurrences are not matches: "Acme Corporation" does not
	// word-bound "Acme Corp".
	got = a.Analyze("news from Acme Corporation", testOrgs, nil, nil)
	assert.Empty(t, got.Entities)
}

func TestThisWeekIsMondayThroughSunday(t *testing.T) {
	// Run the same query on every day of the week containing
	// 2026-08-26; the resolved range must not move.
	wantStart := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC) // Monday
	wantEnd := time.Date(2026, 8, 30, 23, 59, 59, 0, time.UTC) // Sunday

	for day := 24; day <= 30; day++ {
		now := time.Date(2026, 8, day, 11, 0, 0, 0, time.UTC)
		a := NewAnalyzerWithClock(func() time.Time { return now })

		got := a.Analyze("notes from this week", nil, nil, nil)
		require.NotNil(t, got.DateFilter, "day %d", day)
		assert.Equal(t, wantStart, got.DateFilter.Start, "day %d", day)
		assert.Equal(t, wantEnd, got.DateFilter.End.Truncate(time.Second), "day %d", day)
		assert.Equal(t, types.DateFilterRelative, got.DateFilter.Kind)
	}
}

func TestDateKeywordTable(t *testing.T) {
	a := newTestAnalyzer()

	cases := map[string]types.NamedDateRange{
		"what happened today":   types.RangeToday,
		"yesterday's meetings":  types.RangeYesterday,
		"tasks from last week":  types.RangeLastWeek,
		"notes from this month": types.RangeThisMonth,
		"review last month":     types.RangeLastMonth,
		"everything this year":  types.RangeThisYear,
	}
	for query, want := range cases {
		got := a.Analyze(query, nil, nil, nil)
		require.NotNil(t, got.DateFilter, query)
		assert.Equal(t, want, got.DateFilter.Named, query)
	}
}

func TestLastMonthCalendarBoundaries(t *testing.T) {
	a := newTestAnalyzer()

	got := a.Analyze("review last month", nil, nil, nil)
	require.NotNil(t, got.DateFilter)
	assert.Equal(t, time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC), got.DateFilter.Start)
	assert.Equal(t, time.Date(2026, 7, 31, 23, 59, 59, 0, time.UTC), got.DateFilter.End.Truncate(time.Second))
}

func TestBareStatusQuery(t *testing.T) {
	a := newTestAnalyzer()

	got := a.Analyze("done", testOrgs, testPeople, testTopics)
	assert.Equal(t, types.PatternStatusFilter, got.Pattern)
	assert.Equal(t, []types.TaskStatus{types.StatusDone}, got.StatusFilter)
	assert.Empty(t, got.Entities)
	assert.Nil(t, got.DateFilter)
}

func TestPatternPriorityOrder(t *testing.T) {
	a := newTestAnalyzer()

	// Entity beats date beats status beats semantic.
	got := a.Analyze("what did Acme Corp finish this week", testOrgs, nil, nil)
	assert.Equal(t, types.PatternEntitySearch, got.Pattern)

	got = a.Analyze("what was finished this week", nil, nil, nil)
	assert.Equal(t, types.PatternDateFilter, got.Pattern)

	got = a.Analyze("anything urgent", nil, nil, nil)
	assert.Equal(t, types.PatternStatusFilter, got.Pattern)

	got = a.Analyze("who is working on the launch", nil, nil, nil)
	assert.Equal(t, types.PatternComplexSemantic, got.Pattern)

	got = a.Analyze("launch checklist", nil, nil, nil)
	assert.Equal(t, types.PatternKeywordSearch, got.Pattern)
}

func TestRelationalPhraseIsSemantic(t *testing.T) {
	a := newTestAnalyzer()

	got := a.Analyze("everything related to the migration", nil, nil, nil)
	assert.Equal(t, types.PatternComplexSemantic, got.Pattern)
}

func TestHashtagExtraction(t *testing.T) {
	a := newTestAnalyzer()

	got := a.Analyze("notes tagged #Q3 and #planning, mostly #q3", nil, nil, nil)
	assert.Equal(t, []string{"q3", "planning"}, got.Tags)
}

func TestResultTypeFlags(t *testing.T) {
	a := newTestAnalyzer()

	got := a.Analyze("meeting notes and open tasks", nil, nil, nil)
	assert.True(t, got.RequireTasks)
	assert.True(t, got.RequireNotes)

	got = a.Analyze("anything about the launch", nil, nil, nil)
	assert.False(t, got.RequireTasks)
	assert.False(t, got.RequireNotes)
}

func TestAnalyzeIsIdempotent(t *testing.T) {
	a := newTestAnalyzer()
	query := "show me high priority tasks for Acme Corp from this week #launch"

	first := a.Analyze(query, testOrgs, testPeople, testTopics)
	second := a.Analyze(query, testOrgs, testPeople, testTopics)

	assert.Equal(t, first, second)
}
