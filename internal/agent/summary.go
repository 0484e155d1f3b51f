package agent

import (
	"fmt"
	"strings"

	"github.com/jamesmcarthur-3999/taskerino/pkg/types"
)

var namedRangeLabels = map[types.NamedDateRange]string{
	types.RangeToday:     "today",
	types.RangeYesterday: "yesterday",
	types.RangeThisWeek:  "this week",
	types.RangeLastWeek:  "last week",
	types.RangeThisMonth: "this month",
	types.RangeLastMonth: "last month",
	types.RangeThisYear:  "this year",
}

// graphSummary renders a templated one-line summary for the skip-LLM
// path, describing the counts and the filters that produced them.
func graphSummary(analysis *types.QueryAnalysis, result *types.SearchResult) string {
	return countSummary(analysis, len(result.Notes), len(result.Tasks))
}

func countSummary(analysis *types.QueryAnalysis, noteCount, taskCount int) string {
	var b strings.Builder

	switch {
	case noteCount == 0 && taskCount == 0:
		b.WriteString("Found no matching notes or tasks")
	case taskCount == 0:
		fmt.Fprintf(&b, "Found %s", plural(noteCount, "note"))
	case noteCount == 0:
		fmt.Fprintf(&b, "Found %s", plural(taskCount, "task"))
	default:
		fmt.Fprintf(&b, "Found %s and %s", plural(noteCount, "note"), plural(taskCount, "task"))
	}

	if names := entityNames(analysis); len(names) > 0 {
		b.WriteString(" for ")
		b.WriteString(strings.Join(names, ", "))
	}

	if quals := filterLabels(analysis); len(quals) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(quals, ", "))
	}

	b.WriteString(".")
	return b.String()
}

// graphSuggestions proposes follow-up refinements based on which
// filters the query did not already use.
func graphSuggestions(analysis *types.QueryAnalysis, result *types.SearchResult) []string {
	var out []string

	if analysis.DateFilter == nil {
		out = append(out, "Narrow to a time range like \"this week\"")
	}
	if len(analysis.PriorityFilter) == 0 && len(result.Tasks) > 0 {
		out = append(out, "Filter tasks by priority, e.g. \"high priority\"")
	}
	if len(analysis.StatusFilter) == 0 && len(result.Tasks) > 0 {
		out = append(out, "Filter tasks by status, e.g. \"in progress\"")
	}
	if len(analysis.Entities) == 0 {
		out = append(out, "Mention a person, organization, or topic by name")
	}
	if len(result.Notes) == 0 && len(result.Tasks) == 0 {
		out = append(out, "Try broader wording or remove filters")
	}

	return out
}

func entityNames(analysis *types.QueryAnalysis) []string {
	names := make([]string, 0, len(analysis.Entities))
	for _, e := range analysis.Entities {
		names = append(names, e.Name)
	}
	return names
}

func filterLabels(analysis *types.QueryAnalysis) []string {
	var quals []string
	if analysis.DateFilter != nil {
		if label, ok := namedRangeLabels[analysis.DateFilter.Named]; ok {
			quals = append(quals, label)
		} else {
			quals = append(quals, fmt.Sprintf("%s to %s",
				analysis.DateFilter.Start.Format("2006-01-02"),
				analysis.DateFilter.End.Format("2006-01-02")))
		}
	}
	for _, st := range analysis.StatusFilter {
		quals = append(quals, string(st))
	}
	for _, p := range analysis.PriorityFilter {
		quals = append(quals, string(p)+" priority")
	}
	for _, tag := range analysis.Tags {
		quals = append(quals, "#"+tag)
	}
	return quals
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// keywordFallback is the last parse-failure resort: a case-insensitive
// containment scan of note and task text, capped at limit per
// collection. Query tokens shorter than three characters are skipped to
// avoid matching on articles.
func keywordFallback(query string, cols types.Collections, limit int) ([]*types.Note, []*types.Task) {
	tokens := fallbackTokens(query)
	if len(tokens) == 0 {
		return []*types.Note{}, []*types.Task{}
	}

	notes := make([]*types.Note, 0, limit)
	for _, n := range cols.Notes {
		if len(notes) >= limit {
			break
		}
		text := strings.ToLower(n.Summary + " " + n.Content + " " + strings.Join(n.Tags, " "))
		if containsAny(text, tokens) {
			notes = append(notes, n)
		}
	}

	tasks := make([]*types.Task, 0, limit)
	for _, t := range cols.Tasks {
		if len(tasks) >= limit {
			break
		}
		text := strings.ToLower(t.Title + " " + t.Description + " " + strings.Join(t.Tags, " "))
		if containsAny(text, tokens) {
			tasks = append(tasks, t)
		}
	}

	return notes, tasks
}

func fallbackTokens(query string) []string {
	var tokens []string
	for _, f := range strings.Fields(strings.ToLower(query)) {
		f = strings.Trim(f, ".,!?\"'#")
		if len(f) >= 3 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

func containsAny(text string, tokens []string) bool {
	for _, tok := range tokens {
		if strings.Contains(text, tok) {
			return true
		}
	}
	return false
}
