package agent

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/jamesmcarthur-3999/taskerino/internal/analyzer"
	"github.com/jamesmcarthur-3999/taskerino/internal/config"
	"github.com/jamesmcarthur-3999/taskerino/internal/engine"
	"github.com/jamesmcarthur-3999/taskerino/internal/llm"
	"github.com/jamesmcarthur-3999/taskerino/pkg/types"
)

// ErrNoAPIKey is returned by Search when no Claude credential has been
// configured via SetAPIKey or config.
var ErrNoAPIKey = errors.New("agent: no API key configured")

// Service orchestrates the full search pipeline: query analysis, graph
// pre-filtering, the skip-LLM fast path, and cache-aware Claude calls
// with layered parse fallback.
type Service struct {
	cfg      *config.Config
	analyzer *analyzer.Analyzer
	search   *engine.GraphSearch
	threads  ThreadStore

	clientMu sync.RWMutex
	client   llm.ChatClient

	now func() time.Time
}

// NewService creates a Service. A nil threads store falls back to an
// in-process MemoryThreadStore. The service starts without a Claude
// client; call SetAPIKey (or SetClient) before Search.
func NewService(cfg *config.Config, search *engine.GraphSearch, threads ThreadStore) *Service {
	if threads == nil {
		threads = NewMemoryThreadStore()
	}
	s := &Service{
		cfg:      cfg,
		analyzer: analyzer.NewAnalyzer(),
		search:   search,
		threads:  threads,
		now:      time.Now,
	}
	if cfg.LLM.APIKey != "" {
		s.SetAPIKey(cfg.LLM.APIKey)
	}
	return s
}

// SetAPIKey swaps in a Claude client using the given credential. Safe
// to call at any time; in-flight searches keep the client they started
// with.
func (s *Service) SetAPIKey(key string) {
	client := llm.NewClaudeClient(llm.ClaudeConfig{
		APIKey:  key,
		Model:   s.cfg.LLM.Model,
		Timeout: s.cfg.LLM.Timeout,
	})
	s.SetClient(client)
}

// SetClient installs an explicit chat client. Used by tests and by
// callers with their own transport.
func (s *Service) SetClient(client llm.ChatClient) {
	s.clientMu.Lock()
	defer s.clientMu.Unlock()
	s.client = client
}

func (s *Service) chatClient() llm.ChatClient {
	s.clientMu.RLock()
	defer s.clientMu.RUnlock()
	return s.client
}

// CreateThread allocates a new conversation thread and returns its id.
func (s *Service) CreateThread() string {
	id := NewThreadID()
	s.threads.GetOrCreate(id)
	return id
}

// ClearThread discards a thread's history. Unknown ids are a no-op.
func (s *Service) ClearThread(id string) {
	s.threads.Delete(id)
}

// Search answers a natural-language query over the given collections.
// An empty threadID starts a new thread; passing a prior id continues
// the conversation with cached context.
func (s *Service) Search(ctx context.Context, query string, cols types.Collections, threadID string) (*types.ContextAgentResult, error) {
	client := s.chatClient()
	if client == nil {
		return nil, ErrNoAPIKey
	}

	analysis := s.analyzer.Analyze(query, cols.Organizations, cols.People, cols.Topics)

	result, err := s.search.SearchByQuery(ctx, analysis, cols)
	if err != nil {
		// Graph pre-filtering degraded; fall back to scanning every
		// candidate rather than failing the search.
		log.Printf("agent: graph search unavailable, scanning all candidates: %v", err)
		result = fullScanResult(cols)
	}

	// Skip-LLM fast path: small enough candidate sets are answered
	// directly from the graph with zero token spend.
	if result.Metadata.GraphFiltered <= s.cfg.Agent.GraphOnlyThreshold {
		return &types.ContextAgentResult{
			Notes:       result.Notes,
			Tasks:       result.Tasks,
			Summary:     graphSummary(analysis, result),
			Suggestions: graphSuggestions(analysis, result),
			ThreadID:    GraphOnlyThreadID,
		}, nil
	}

	if threadID == "" || threadID == GraphOnlyThreadID {
		threadID = NewThreadID()
	}
	thread := s.threads.GetOrCreate(threadID)
	thread.mu.Lock()
	defer thread.mu.Unlock()

	userMsg := s.buildUserMessage(thread, query, result, analysis)

	req := llm.ChatRequest{
		Model:     s.cfg.LLM.Model,
		MaxTokens: s.cfg.LLM.MaxTokens,
		Messages:  append(append([]llm.Message{}, thread.Messages...), userMsg),
	}

	resp, err := client.Chat(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("agent: chat call failed: %w", err)
	}
	if resp.Truncated() {
		return nil, fmt.Errorf("agent: %w", llm.ErrResponseTruncated)
	}

	agentResult := s.resolveResponse(resp.Text, query, cols, analysis)
	agentResult.ThreadID = threadID

	thread.Messages = append(thread.Messages, userMsg, llm.Message{
		Role:    llm.RoleAssistant,
		Content: []llm.ContentBlock{llm.TextBlock(resp.Text)},
	})

	return agentResult, nil
}

// buildUserMessage shapes the turn's user message. The first turn of a
// thread carries the system instructions and candidate context as
// cache-marked blocks; later turns send only the query text so the
// provider serves the marked prefix from cache. When the cache TTL has
// lapsed, a fresh context block is marked again.
func (s *Service) buildUserMessage(thread *Thread, query string, result *types.SearchResult, analysis *types.QueryAnalysis) llm.Message {
	now := s.now()

	if len(thread.Messages) == 0 {
		thread.cacheMarkedAt = now
		return llm.Message{
			Role: llm.RoleUser,
			Content: []llm.ContentBlock{
				llm.CachedTextBlock(llm.SystemPrompt()),
				llm.CachedTextBlock(llm.ContextBlock(result, analysis.Entities, now)),
				llm.TextBlock(query),
			},
		}
	}

	if now.Sub(thread.cacheMarkedAt) > s.cfg.LLM.CacheTTL {
		thread.cacheMarkedAt = now
		return llm.Message{
			Role: llm.RoleUser,
			Content: []llm.ContentBlock{
				llm.CachedTextBlock(llm.ContextBlock(result, analysis.Entities, now)),
				llm.TextBlock(query),
			},
		}
	}

	return llm.Message{
		Role:    llm.RoleUser,
		Content: []llm.ContentBlock{llm.TextBlock(query)},
	}
}

// resolveResponse turns raw model output into a result. Selected ids
// resolve against the original unfiltered collections so the caller
// gets back the exact records it handed in. A response that fails both
// parse stages degrades to a keyword scan instead of failing the turn.
func (s *Service) resolveResponse(raw, query string, cols types.Collections, analysis *types.QueryAnalysis) *types.ContextAgentResult {
	sel, err := llm.ParseSearchSelection(raw)
	if err != nil {
		log.Printf("agent: unparseable model response, using keyword fallback: %v", err)
		notes, tasks := keywordFallback(query, cols, s.cfg.Agent.FallbackLimit)
		return &types.ContextAgentResult{
			Notes:       notes,
			Tasks:       tasks,
			Summary:     "Search results may be incomplete: the assistant response could not be interpreted, so a keyword match was used instead.",
			Suggestions: []string{"Try rephrasing the query", "Search for a specific person, organization, or topic"},
		}
	}

	notes := make([]*types.Note, 0, len(sel.NoteIDs))
	noteByID := make(map[string]*types.Note, len(cols.Notes))
	for _, n := range cols.Notes {
		noteByID[n.ID] = n
	}
	for _, id := range sel.NoteIDs {
		if n, ok := noteByID[id]; ok {
			notes = append(notes, n)
		}
	}

	tasks := make([]*types.Task, 0, len(sel.TaskIDs))
	taskByID := make(map[string]*types.Task, len(cols.Tasks))
	for _, t := range cols.Tasks {
		taskByID[t.ID] = t
	}
	for _, id := range sel.TaskIDs {
		if t, ok := taskByID[id]; ok {
			tasks = append(tasks, t)
		}
	}

	summary := sel.Summary
	if summary == "" {
		summary = countSummary(analysis, len(notes), len(tasks))
	}

	return &types.ContextAgentResult{
		Notes:       notes,
		Tasks:       tasks,
		Summary:     summary,
		Suggestions: sel.Suggestions,
	}
}

// fullScanResult wraps the entire collection set as search output, used
// when graph pre-filtering is unavailable.
func fullScanResult(cols types.Collections) *types.SearchResult {
	n := len(cols.Notes) + len(cols.Tasks)
	return &types.SearchResult{
		Notes:          cols.Notes,
		Tasks:          cols.Tasks,
		CandidateNotes: cols.Notes,
		CandidateTasks: cols.Tasks,
		Metadata: types.SearchMetadata{
			TotalScanned:  n,
			GraphFiltered: n,
			FinalResults:  n,
			Strategy:      types.StrategyFullScan,
		},
	}
}
