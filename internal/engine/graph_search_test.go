package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesmcarthur-3999/taskerino/internal/index"
	"github.com/jamesmcarthur-3999/taskerino/pkg/types"
)

var (
	monday  = time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC)
	lastMon = monday.AddDate(0, 0, -7)
)

func testCollections() types.Collections {
	return types.Collections{
		Notes: []*types.Note{
			{ID: "note:standup", Summary: "Standup notes", Content: "Discussed Acme renewal", Tags: []string{"meeting"}, Timestamp: monday},
			{ID: "note:old", Summary: "Old note", Content: "Stale", Timestamp: lastMon},
			{ID: "note:unrelated", Summary: "Groceries", Content: "Milk", Timestamp: monday},
		},
		Tasks: []*types.Task{
			{ID: "task:renew", Title: "Renew Acme contract", Status: types.StatusTodo, Priority: types.PriorityHigh, CreatedAt: monday},
			{ID: "task:archive", Title: "Archive old docs", Status: types.StatusDone, Priority: types.PriorityLow, CreatedAt: lastMon},
		},
		Organizations: []*types.Organization{{ID: "org:acme", Name: "Acme Corp"}},
		People:        []*types.Person{{ID: "person:dana", Name: "Dana Reyes"}},
	}
}

func testIndex(t *testing.T) index.RelationshipIndex {
	t.Helper()
	idx, err := index.NewMemoryIndex([]*types.Relationship{
		{ID: "rel:1", SourceKind: types.KindNote, SourceID: "note:standup", TargetKind: types.KindOrganization, TargetID: "org:acme"},
		{ID: "rel:2", SourceKind: types.KindOrganization, SourceID: "org:acme", TargetKind: types.KindTask, TargetID: "task:renew"},
		{ID: "rel:3", SourceKind: types.KindNote, SourceID: "note:standup", TargetKind: types.KindPerson, TargetID: "person:dana"},
	})
	require.NoError(t, err)
	return idx
}

func initializedSearch(t *testing.T) *GraphSearch {
	t.Helper()
	g := NewGraphSearch()
	require.NoError(t, g.Init(context.Background(), testIndex(t)))
	return g
}

func TestSearchBeforeInitFails(t *testing.T) {
	g := NewGraphSearch()
	_, err := g.SearchByQuery(context.Background(), &types.QueryAnalysis{}, types.Collections{})
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestEntityStrategy(t *testing.T) {
	g := initializedSearch(t)
	cols := testCollections()

	analysis := &types.QueryAnalysis{
		Pattern: types.PatternEntitySearch,
		Entities: []types.ExtractedEntity{
			{Kind: types.KindOrganization, ID: "org:acme", Name: "Acme Corp", Confidence: 1.0},
		},
	}

	result, err := g.SearchByQuery(context.Background(), analysis, cols)
	require.NoError(t, err)

	assert.Equal(t, types.StrategyGraph, result.Metadata.Strategy)
	require.Len(t, result.Notes, 1)
	require.Len(t, result.Tasks, 1)

	// Results are the caller's own pointers, not copies.
	assert.Same(t, cols.Notes[0], result.Notes[0])
	assert.Same(t, cols.Tasks[0], result.Tasks[0])
}

func TestEntityStrategyDeduplicatesAcrossEntities(t *testing.T) {
	g := initializedSearch(t)
	cols := testCollections()

	// Both entities touch note:standup via different relationships; the
	// note must appear once.
	analysis := &types.QueryAnalysis{
		Entities: []types.ExtractedEntity{
			{Kind: types.KindOrganization, ID: "org:acme", Name: "Acme Corp", Confidence: 1.0},
			{Kind: types.KindPerson, ID: "person:dana", Name: "Dana Reyes", Confidence: 1.0},
		},
	}

	result, err := g.SearchByQuery(context.Background(), analysis, cols)
	require.NoError(t, err)
	assert.Len(t, result.Notes, 1)
	assert.Len(t, result.Tasks, 1)
}

func TestMetadataCountOrdering(t *testing.T) {
	g := initializedSearch(t)
	cols := testCollections()

	thisWeek := &types.DateFilter{
		Kind:  types.DateFilterRelative,
		Start: time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 8, 30, 23, 59, 59, 0, time.UTC),
		Named: types.RangeThisWeek,
	}
	analysis := &types.QueryAnalysis{
		Entities: []types.ExtractedEntity{
			{Kind: types.KindOrganization, ID: "org:acme", Confidence: 1.0},
		},
		DateFilter:     thisWeek,
		PriorityFilter: []types.TaskPriority{types.PriorityHigh},
	}

	result, err := g.SearchByQuery(context.Background(), analysis, cols)
	require.NoError(t, err)

	m := result.Metadata
	assert.Equal(t, 5, m.TotalScanned)
	assert.LessOrEqual(t, m.GraphFiltered, m.TotalScanned)
	assert.LessOrEqual(t, m.FinalResults, m.GraphFiltered)
	require.NotNil(t, m.DateFiltered)
	require.NotNil(t, m.PriorityFiltered)
	assert.Nil(t, m.StatusFiltered)
	assert.GreaterOrEqual(t, m.QueryTime, time.Duration(0))
}

func TestLocalFilterStrategy(t *testing.T) {
	g := initializedSearch(t)
	cols := testCollections()

	analysis := &types.QueryAnalysis{
		Pattern:      types.PatternStatusFilter,
		StatusFilter: []types.TaskStatus{types.StatusDone},
	}

	result, err := g.SearchByQuery(context.Background(), analysis, cols)
	require.NoError(t, err)

	assert.Equal(t, types.StrategyLocalFilter, result.Metadata.Strategy)
	require.Len(t, result.Tasks, 1)
	assert.Equal(t, "task:archive", result.Tasks[0].ID)
	// Status filters apply to tasks only; notes pass through.
	assert.Len(t, result.Notes, 3)

	// The candidate set is the pre-filter selection and matches the
	// GraphFiltered count even after narrowing.
	assert.Len(t, result.CandidateTasks, 2)
	assert.Len(t, result.CandidateNotes, 3)
	assert.Equal(t, 5, result.Metadata.GraphFiltered)
}

func TestFullScanStrategy(t *testing.T) {
	g := initializedSearch(t)
	cols := testCollections()

	result, err := g.SearchByQuery(context.Background(), &types.QueryAnalysis{Pattern: types.PatternKeywordSearch}, cols)
	require.NoError(t, err)

	assert.Equal(t, types.StrategyFullScan, result.Metadata.Strategy)
	assert.Equal(t, result.Metadata.TotalScanned, result.Metadata.GraphFiltered)
	assert.Len(t, result.Notes, 3)
	assert.Len(t, result.Tasks, 2)
}

func TestRequireTasksEmptiesNotes(t *testing.T) {
	g := initializedSearch(t)
	cols := testCollections()

	analysis := &types.QueryAnalysis{RequireTasks: true}
	result, err := g.SearchByQuery(context.Background(), analysis, cols)
	require.NoError(t, err)

	assert.Empty(t, result.Notes)
	assert.Len(t, result.Tasks, 2)
}

func TestBothRequireFlagsMeanNoConstraint(t *testing.T) {
	g := initializedSearch(t)
	cols := testCollections()

	analysis := &types.QueryAnalysis{RequireTasks: true, RequireNotes: true}
	result, err := g.SearchByQuery(context.Background(), analysis, cols)
	require.NoError(t, err)

	assert.Len(t, result.Notes, 3)
	assert.Len(t, result.Tasks, 2)
}

func TestTagFilter(t *testing.T) {
	g := initializedSearch(t)
	cols := testCollections()

	analysis := &types.QueryAnalysis{Tags: []string{"meeting"}}
	result, err := g.SearchByQuery(context.Background(), analysis, cols)
	require.NoError(t, err)

	require.Len(t, result.Notes, 1)
	assert.Equal(t, "note:standup", result.Notes[0].ID)
	assert.Empty(t, result.Tasks)
}

func TestInitRequiresIndex(t *testing.T) {
	g := NewGraphSearch()
	assert.Error(t, g.Init(context.Background(), nil))
}
