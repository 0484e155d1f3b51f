// Package analyzer turns a natural-language query into a structured
// QueryAnalysis: extracted entities, a pattern classification, and
// date/status/priority/tag filters. Analysis is pure except for the
// clock used to resolve relative date keywords.
package analyzer

import (
	"regexp"
	"time"

	"github.com/jamesmcarthur-3999/taskerino/pkg/types"
)

// Analyzer performs deterministic query analysis. The zero value is not
// usable; construct with NewAnalyzer (or NewAnalyzerWithClock in tests
// to pin "today").
type Analyzer struct {
	now func() time.Time
}

// NewAnalyzer creates an analyzer using the system clock.
func NewAnalyzer() *Analyzer {
	return &Analyzer{now: time.Now}
}

// NewAnalyzerWithClock creates an analyzer with an injected clock so
// relative date ranges can be computed against a fixed "today".
func NewAnalyzerWithClock(now func() time.Time) *Analyzer {
	return &Analyzer{now: now}
}

// Analyze produces the structured analysis for a query against the
// known entity lists. It is total: every input yields an analysis, and
// repeated calls with the same inputs within the same calendar day
// yield identical results.
//
// Pattern classification applies the first matching rule in strict
// priority order; filter extraction runs independently of the pattern.
func (a *Analyzer) Analyze(query string, orgs []*types.Organization, people []*types.Person, topics []*types.Topic) *types.QueryAnalysis {
	analysis := &types.QueryAnalysis{
		OriginalQuery: query,
		Entities:      extractEntities(query, orgs, people, topics),
		DateFilter:    extractDateFilter(query, a.now()),
		StatusFilter:  extractStatusFilter(query),
		Tags:          extractTags(query),
	}
	analysis.PriorityFilter = extractPriorityFilter(query)
	analysis.RequireTasks = taskKeywordRe.MatchString(query)
	analysis.RequireNotes = noteKeywordRe.MatchString(query)
	analysis.Pattern = classify(analysis)
	return analysis
}

// classify applies the mutually-exclusive pattern rules in priority
// order: entities > date keywords > status/priority keywords >
// question/relational phrasing > keyword fallback.
func classify(analysis *types.QueryAnalysis) types.QueryPattern {
	switch {
	case len(analysis.Entities) > 0:
		return types.PatternEntitySearch
	case analysis.DateFilter != nil:
		return types.PatternDateFilter
	case len(analysis.StatusFilter) > 0 || len(analysis.PriorityFilter) > 0:
		return types.PatternStatusFilter
	case isComplexSemantic(analysis.OriginalQuery):
		return types.PatternComplexSemantic
	default:
		return types.PatternKeywordSearch
	}
}

var (
	questionWordRe = regexp.MustCompile(`(?i)\b(what|when|where|who|why|how)\b`)
	taskKeywordRe  = regexp.MustCompile(`(?i)\b(task|tasks|todo|todos|to-dos?)\b`)
	noteKeywordRe  = regexp.MustCompile(`(?i)\b(note|notes|meeting|meetings|document|documents|doc|docs)\b`)
)

// relationalPhrases are multi-word phrasings that signal a semantic
// query even without a question word.
var relationalPhrases = []string{
	"working on",
	"related to",
	"connected to",
	"linked to",
}

func isComplexSemantic(query string) bool {
	if questionWordRe.MatchString(query) {
		return true
	}
	for _, phrase := range relationalPhrases {
		if containsPhrase(query, phrase) {
			return true
		}
	}
	return false
}

// extractEntities tests every known entity name against the query with
// an exact, case-insensitive, word-bounded match. All matches are kept
// with confidence 1.0; there is no fuzzy matching or ranking.
func extractEntities(query string, orgs []*types.Organization, people []*types.Person, topics []*types.Topic) []types.ExtractedEntity {
	var entities []types.ExtractedEntity

	for _, org := range orgs {
		if nameMatches(query, org.Name) {
			entities = append(entities, types.ExtractedEntity{
				Kind:       types.KindOrganization,
				ID:         org.ID,
				Name:       org.Name,
				Confidence: 1.0,
			})
		}
	}
	for _, person := range people {
		if nameMatches(query, person.Name) {
			entities = append(entities, types.ExtractedEntity{
				Kind:       types.KindPerson,
				ID:         person.ID,
				Name:       person.Name,
				Confidence: 1.0,
			})
		}
	}
	for _, topic := range topics {
		if nameMatches(query, topic.Name) {
			entities = append(entities, types.ExtractedEntity{
				Kind:       types.KindTopic,
				ID:         topic.ID,
				Name:       topic.Name,
				Confidence: 1.0,
			})
		}
	}

	return entities
}

// nameMatches reports a word-bounded, case-insensitive occurrence of
// name in query.
func nameMatches(query, name string) bool {
	if name == "" {
		return false
	}
	re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(name) + `\b`)
	if err != nil {
		return false
	}
	return re.MatchString(query)
}

// containsPhrase reports a word-bounded, case-insensitive occurrence of
// a fixed keyword or phrase in query.
func containsPhrase(query, phrase string) bool {
	re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(phrase) + `\b`)
	if err != nil {
		return false
	}
	return re.MatchString(query)
}
