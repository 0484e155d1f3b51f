package types

import "time"

// SearchStrategy names the candidate-selection strategy graph search
// chose for a query.
type SearchStrategy string

const (
	// StrategyGraph traverses relationships of the extracted entities.
	StrategyGraph SearchStrategy = "graph"

	// StrategyLocalFilter skips traversal and filters the supplied
	// collections directly by the extracted structural filters.
	StrategyLocalFilter SearchStrategy = "local_filter"

	// StrategyFullScan filters the full collections by whatever filters
	// exist, possibly none.
	StrategyFullScan SearchStrategy = "full_scan"
)

// SearchMetadata records stage-by-stage observability counts for one
// graph search. The optional stage counts are nil when the
// corresponding filter was not applied. The counts satisfy
// FinalResults <= GraphFiltered <= TotalScanned.
type SearchMetadata struct {
	// TotalScanned is the combined size of the supplied note and task
	// collections.
	TotalScanned int `json:"total_scanned"`

	// GraphFiltered is the candidate count after strategy selection,
	// before secondary filters.
	GraphFiltered int `json:"graph_filtered"`

	// DateFiltered, StatusFiltered, and PriorityFiltered are the
	// candidate counts after each secondary stage, when that stage ran.
	DateFiltered     *int `json:"date_filtered,omitempty"`
	StatusFiltered   *int `json:"status_filtered,omitempty"`
	PriorityFiltered *int `json:"priority_filtered,omitempty"`

	// FinalResults is the candidate count after all filters.
	FinalResults int `json:"final_results"`

	// QueryTime is wall-clock time for the whole search call.
	QueryTime time.Duration `json:"query_time"`

	// Strategy is the candidate-selection strategy used.
	Strategy SearchStrategy `json:"strategy"`
}

// SearchResult is the graph-search output: the filtered candidate set
// plus its stage metadata. All slices are pointers into the
// caller-supplied collections.
type SearchResult struct {
	Notes    []*Note        `json:"notes"`
	Tasks    []*Task        `json:"tasks"`
	Metadata SearchMetadata `json:"metadata"`

	// CandidateNotes and CandidateTasks are the strategy-selected
	// candidates before secondary filters ran. Their combined length is
	// Metadata.GraphFiltered. The LLM context is built from these, so
	// the model sees everything the skip decision counted.
	CandidateNotes []*Note `json:"-"`
	CandidateTasks []*Task `json:"-"`
}

// ContextAgentResult is the terminal, caller-facing search artifact.
// Notes and Tasks reference the caller's original collections; the
// pipeline never fabricates records.
type ContextAgentResult struct {
	Notes       []*Note  `json:"notes"`
	Tasks       []*Task  `json:"tasks"`
	Summary     string   `json:"summary"`
	Suggestions []string `json:"suggestions,omitempty"`
	ThreadID    string   `json:"thread_id"`
}
