// Package engine implements graph-backed candidate selection: it turns
// a query analysis plus the caller's in-memory collections into a
// bounded candidate set using relationship-index lookups, and records
// stage-by-stage metadata for the skip-LLM decision.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jamesmcarthur-3999/taskerino/internal/index"
	"github.com/jamesmcarthur-3999/taskerino/pkg/types"
)

// ErrNotInitialized is returned when SearchByQuery is called before
// Init has established the relationship-index connection.
var ErrNotInitialized = errors.New("graph search not initialized")

// GraphSearch selects one of three candidate strategies (entity-graph
// traversal, local structural filtering, full scan) and funnels all of
// them through a shared filter chain. It holds no per-query state and
// is safe for concurrent use after Init.
type GraphSearch struct {
	idx index.RelationshipIndex
}

// NewGraphSearch creates an uninitialized graph search. Init must be
// called before SearchByQuery.
func NewGraphSearch() *GraphSearch {
	return &GraphSearch{}
}

// Init establishes the relationship-index connection. It pings the
// index once so a misconfigured backend fails here rather than on the
// first query.
func (g *GraphSearch) Init(ctx context.Context, idx index.RelationshipIndex) error {
	if idx == nil {
		return fmt.Errorf("engine: relationship index is required")
	}
	if err := idx.Ping(ctx); err != nil {
		return fmt.Errorf("engine: relationship index ping failed: %w", err)
	}
	g.idx = idx
	return nil
}

// SearchByQuery runs strategy selection and the shared filter chain.
// Returned notes and tasks are pointers into the supplied collections.
//
// Strategy selection, first matching rule wins:
//   - entities extracted: graph traversal of their relationships
//   - any structural filter set: local filtering, no traversal
//   - otherwise: full scan
func (g *GraphSearch) SearchByQuery(ctx context.Context, analysis *types.QueryAnalysis, cols types.Collections) (*types.SearchResult, error) {
	if g.idx == nil {
		return nil, ErrNotInitialized
	}

	start := time.Now()
	meta := types.SearchMetadata{
		TotalScanned: len(cols.Notes) + len(cols.Tasks),
	}

	var notes []*types.Note
	var tasks []*types.Task

	switch {
	case len(analysis.Entities) > 0:
		meta.Strategy = types.StrategyGraph
		var err error
		notes, tasks, err = g.entityCandidates(ctx, analysis.Entities, cols)
		if err != nil {
			return nil, err
		}
	case analysis.HasStructuralFilter():
		meta.Strategy = types.StrategyLocalFilter
		notes, tasks = cols.Notes, cols.Tasks
	default:
		meta.Strategy = types.StrategyFullScan
		notes, tasks = cols.Notes, cols.Tasks
	}
	meta.GraphFiltered = len(notes) + len(tasks)
	candidateNotes, candidateTasks := notes, tasks

	notes, tasks = applyFilters(analysis, notes, tasks, &meta)

	meta.FinalResults = len(notes) + len(tasks)
	meta.QueryTime = time.Since(start)

	return &types.SearchResult{
		Notes:          notes,
		Tasks:          tasks,
		Metadata:       meta,
		CandidateNotes: candidateNotes,
		CandidateTasks: candidateTasks,
	}, nil
}

// entityCandidates fetches every relationship touching the extracted
// entities, deduplicates by relationship ID across entities, and
// derives the candidate sets: a note or task is a candidate if it is
// the source or the target of any fetched relationship.
func (g *GraphSearch) entityCandidates(ctx context.Context, entities []types.ExtractedEntity, cols types.Collections) ([]*types.Note, []*types.Task, error) {
	seen := make(map[string]bool)
	noteIDs := make(map[string]bool)
	taskIDs := make(map[string]bool)

	for _, entity := range entities {
		rels, err := g.idx.GetRelationships(ctx, entity.ID, entity.Kind)
		if err != nil {
			return nil, nil, fmt.Errorf("engine: relationship lookup for %s failed: %w", entity.ID, err)
		}
		for _, rel := range rels {
			if seen[rel.ID] {
				continue
			}
			seen[rel.ID] = true
			if id, ok := rel.EndpointOfKind(types.KindNote); ok {
				noteIDs[id] = true
			}
			if id, ok := rel.EndpointOfKind(types.KindTask); ok {
				taskIDs[id] = true
			}
		}
	}

	// Select in collection order so results are deterministic and by
	// identity from the caller's slices.
	var notes []*types.Note
	for _, note := range cols.Notes {
		if noteIDs[note.ID] {
			notes = append(notes, note)
		}
	}
	var tasks []*types.Task
	for _, task := range cols.Tasks {
		if taskIDs[task.ID] {
			tasks = append(tasks, task)
		}
	}
	return notes, tasks, nil
}
