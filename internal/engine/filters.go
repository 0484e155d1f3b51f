package engine

import (
	"strings"

	"github.com/jamesmcarthur-3999/taskerino/pkg/types"
)

// applyFilters is the shared narrowing step every strategy funnels
// through: date range (notes by timestamp, tasks by creation date),
// status (tasks only), priority (tasks only), tag membership, and the
// require-tasks/require-notes flags. Stage counts are recorded into
// meta as each filter runs.
func applyFilters(analysis *types.QueryAnalysis, notes []*types.Note, tasks []*types.Task, meta *types.SearchMetadata) ([]*types.Note, []*types.Task) {
	if analysis.DateFilter != nil {
		notes = filterNotesByDate(notes, analysis.DateFilter)
		tasks = filterTasksByDate(tasks, analysis.DateFilter)
		count := len(notes) + len(tasks)
		meta.DateFiltered = &count
	}

	if len(analysis.StatusFilter) > 0 {
		tasks = filterTasksByStatus(tasks, analysis.StatusFilter)
		count := len(notes) + len(tasks)
		meta.StatusFiltered = &count
	}

	if len(analysis.PriorityFilter) > 0 {
		tasks = filterTasksByPriority(tasks, analysis.PriorityFilter)
		count := len(notes) + len(tasks)
		meta.PriorityFiltered = &count
	}

	if len(analysis.Tags) > 0 {
		notes = filterNotesByTags(notes, analysis.Tags)
		tasks = filterTasksByTags(tasks, analysis.Tags)
	}

	// When exactly one result type is required, the other collection is
	// forced empty. Both flags set (or neither) means no constraint.
	if analysis.RequireTasks && !analysis.RequireNotes {
		notes = nil
	}
	if analysis.RequireNotes && !analysis.RequireTasks {
		tasks = nil
	}

	return notes, tasks
}

func filterNotesByDate(notes []*types.Note, filter *types.DateFilter) []*types.Note {
	var out []*types.Note
	for _, note := range notes {
		if filter.Contains(note.Timestamp) {
			out = append(out, note)
		}
	}
	return out
}

func filterTasksByDate(tasks []*types.Task, filter *types.DateFilter) []*types.Task {
	var out []*types.Task
	for _, task := range tasks {
		if filter.Contains(task.CreatedAt) {
			out = append(out, task)
		}
	}
	return out
}

func filterTasksByStatus(tasks []*types.Task, statuses []types.TaskStatus) []*types.Task {
	allowed := make(map[types.TaskStatus]bool, len(statuses))
	for _, s := range statuses {
		allowed[s] = true
	}
	var out []*types.Task
	for _, task := range tasks {
		if allowed[task.Status] {
			out = append(out, task)
		}
	}
	return out
}

func filterTasksByPriority(tasks []*types.Task, priorities []types.TaskPriority) []*types.Task {
	allowed := make(map[types.TaskPriority]bool, len(priorities))
	for _, p := range priorities {
		allowed[p] = true
	}
	var out []*types.Task
	for _, task := range tasks {
		if allowed[task.Priority] {
			out = append(out, task)
		}
	}
	return out
}

func filterNotesByTags(notes []*types.Note, tags []string) []*types.Note {
	var out []*types.Note
	for _, note := range notes {
		if tagsIntersect(note.Tags, tags) {
			out = append(out, note)
		}
	}
	return out
}

func filterTasksByTags(tasks []*types.Task, tags []string) []*types.Task {
	var out []*types.Task
	for _, task := range tasks {
		if tagsIntersect(task.Tags, tags) {
			out = append(out, task)
		}
	}
	return out
}

// tagsIntersect reports a case-insensitive non-empty intersection.
func tagsIntersect(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if strings.EqualFold(h, w) {
				return true
			}
		}
	}
	return false
}
