package llm

import (
	"fmt"
	"strings"
	"time"

	"github.com/jamesmcarthur-3999/taskerino/pkg/types"
)

// snippetLen caps the per-candidate text excerpt in the context block.
// Candidates are enumerated by ID; the model selects, it does not need
// full bodies.
const snippetLen = 160

// SystemPrompt is the static instruction block sent as the first
// system block of every thread. It is identical across threads and
// queries, which is what makes it cacheable upstream.
func SystemPrompt() string {
	return `You are a search assistant for a personal knowledge base of notes and tasks.

You are given a candidate list of notes and tasks with their IDs, plus the user's query. Select the candidates that answer the query.

Respond with exactly one JSON object and nothing else, in this shape:
{"note_ids": ["..."], "task_ids": ["..."], "summary": "...", "suggestions": ["..."]}

Rules:
- note_ids and task_ids must only contain IDs from the candidate list.
- Prefer fewer, more relevant results over exhaustive lists.
- Rank by directness of match to the query, then by recency.
- summary is one or two sentences describing what was found.
- suggestions are up to three short follow-up queries the user might try.
- If nothing matches, return empty id arrays and say so in the summary.`
}

// ContextBlock enumerates the graph-filtered candidates (the
// pre-secondary-filter set, matching the count the skip decision used)
// with their accessible fields and the current date/time. On a
// thread's first turn this block is cache-marked together with the
// system prompt.
func ContextBlock(result *types.SearchResult, entities []types.ExtractedEntity, now time.Time) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Current date/time: %s\n", now.Format(time.RFC3339))

	if len(entities) > 0 {
		names := make([]string, len(entities))
		for i, e := range entities {
			names[i] = fmt.Sprintf("%s (%s)", e.Name, e.Kind)
		}
		fmt.Fprintf(&sb, "Matched entities: %s\n", strings.Join(names, ", "))
	}

	fmt.Fprintf(&sb, "\nCandidate notes (%d):\n", len(result.CandidateNotes))
	for _, note := range result.CandidateNotes {
		fmt.Fprintf(&sb, "- id=%s title=%q", note.ID, note.Summary)
		if len(note.Tags) > 0 {
			fmt.Fprintf(&sb, " tags=%s", strings.Join(note.Tags, ","))
		}
		fmt.Fprintf(&sb, " date=%s snippet=%q\n", note.Timestamp.Format("2006-01-02"), snippet(note.Content))
	}

	fmt.Fprintf(&sb, "\nCandidate tasks (%d):\n", len(result.CandidateTasks))
	for _, task := range result.CandidateTasks {
		fmt.Fprintf(&sb, "- id=%s title=%q status=%s priority=%s", task.ID, task.Title, task.Status, task.Priority)
		if len(task.Tags) > 0 {
			fmt.Fprintf(&sb, " tags=%s", strings.Join(task.Tags, ","))
		}
		fmt.Fprintf(&sb, " created=%s", task.CreatedAt.Format("2006-01-02"))
		if task.Description != "" {
			fmt.Fprintf(&sb, " snippet=%q", snippet(task.Description))
		}
		sb.WriteByte('\n')
	}

	return sb.String()
}

func snippet(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if len(text) <= snippetLen {
		return text
	}
	cut := text[:snippetLen]
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return cut + "..."
}
