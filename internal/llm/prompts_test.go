package llm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jamesmcarthur-3999/taskerino/pkg/types"
)

func TestContextBlockEnumeratesPreFilterCandidates(t *testing.T) {
	now := time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC)
	kept := &types.Task{ID: "task:renew", Title: "Renew contract", Status: types.StatusTodo, Priority: types.PriorityHigh, CreatedAt: now}
	dropped := &types.Task{ID: "task:archive", Title: "Archive docs", Status: types.StatusDone, Priority: types.PriorityLow, CreatedAt: now}
	note := &types.Note{ID: "note:standup", Summary: "Standup", Content: "Discussed the renewal", Timestamp: now}

	// Secondary filters narrowed tasks to one, but all three candidates
	// were counted toward the skip decision.
	result := &types.SearchResult{
		Tasks:          []*types.Task{kept},
		CandidateNotes: []*types.Note{note},
		CandidateTasks: []*types.Task{kept, dropped},
		Metadata:       types.SearchMetadata{GraphFiltered: 3, FinalResults: 1},
	}

	block := ContextBlock(result, nil, now)

	assert.Contains(t, block, "Candidate notes (1)")
	assert.Contains(t, block, "Candidate tasks (2)")
	assert.Contains(t, block, "task:renew")
	assert.Contains(t, block, "task:archive", "the model must see the full graph-filtered set")
	assert.Contains(t, block, "note:standup")
	assert.Contains(t, block, now.Format(time.RFC3339))
}

func TestContextBlockListsMatchedEntities(t *testing.T) {
	now := time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC)
	result := &types.SearchResult{}
	entities := []types.ExtractedEntity{
		{Kind: types.KindOrganization, ID: "org:acme", Name: "Acme Corp", Confidence: 1.0},
	}

	block := ContextBlock(result, entities, now)
	assert.Contains(t, block, "Acme Corp (organization)")
}
