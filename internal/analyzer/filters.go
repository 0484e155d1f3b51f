package analyzer

import (
	"regexp"
	"strings"

	"github.com/jamesmcarthur-3999/taskerino/pkg/types"
)

// statusKeywords maps disjoint keyword sets onto the closed status
// enumeration. A query can name several statuses ("done or blocked").
var statusKeywords = []struct {
	status   types.TaskStatus
	keywords []string
}{
	{types.StatusTodo, []string{"todo", "to do", "to-do", "pending", "open"}},
	{types.StatusInProgress, []string{"in progress", "in-progress", "ongoing", "started", "doing"}},
	{types.StatusDone, []string{"done", "completed", "finished", "closed"}},
	{types.StatusBlocked, []string{"blocked", "stuck", "waiting"}},
}

// priorityKeywords maps disjoint keyword sets onto the closed priority
// enumeration.
var priorityKeywords = []struct {
	priority types.TaskPriority
	keywords []string
}{
	{types.PriorityHigh, []string{"high priority", "urgent", "critical", "important"}},
	{types.PriorityMedium, []string{"medium priority", "normal priority"}},
	{types.PriorityLow, []string{"low priority", "minor", "trivial"}},
}

// extractStatusFilter returns every status named by the query, in enum
// order. Nil when none are named.
func extractStatusFilter(query string) []types.TaskStatus {
	var statuses []types.TaskStatus
	for _, entry := range statusKeywords {
		for _, kw := range entry.keywords {
			if containsPhrase(query, kw) {
				statuses = append(statuses, entry.status)
				break
			}
		}
	}
	return statuses
}

// extractPriorityFilter returns every priority named by the query, in
// enum order. Nil when none are named.
func extractPriorityFilter(query string) []types.TaskPriority {
	var priorities []types.TaskPriority
	for _, entry := range priorityKeywords {
		for _, kw := range entry.keywords {
			if containsPhrase(query, kw) {
				priorities = append(priorities, entry.priority)
				break
			}
		}
	}
	return priorities
}

var hashtagRe = regexp.MustCompile(`#([A-Za-z0-9][A-Za-z0-9_-]*)`)

// extractTags scans the query for #hashtag tokens and returns the
// deduplicated, lowercased tag names without the # prefix.
func extractTags(query string) []string {
	matches := hashtagRe.FindAllStringSubmatch(query, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(matches))
	var tags []string
	for _, m := range matches {
		tag := strings.ToLower(m[1])
		if !seen[tag] {
			seen[tag] = true
			tags = append(tags, tag)
		}
	}
	return tags
}
