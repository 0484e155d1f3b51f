package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/jamesmcarthur-3999/taskerino/internal/agent"
	"github.com/jamesmcarthur-3999/taskerino/internal/llm"
	"github.com/jamesmcarthur-3999/taskerino/pkg/types"
)

// Searcher is the orchestrator surface the HTTP layer depends on.
// Satisfied by agent.Service.
type Searcher interface {
	Search(ctx context.Context, query string, cols types.Collections, threadID string) (*types.ContextAgentResult, error)
	CreateThread() string
	ClearThread(id string)
	SetAPIKey(key string)
}

// CollectionsProvider supplies the caller-owned record collections for
// each request.
type CollectionsProvider interface {
	Collections() types.Collections
}

// StaticCollections is a CollectionsProvider over a fixed snapshot,
// used by the server binary after a vault load.
type StaticCollections struct {
	Data types.Collections
}

func (s StaticCollections) Collections() types.Collections { return s.Data }

// SearchHandler exposes the search pipeline over HTTP.
type SearchHandler struct {
	searcher Searcher
	provider CollectionsProvider
	hub      *TelemetryHub // optional
}

// NewSearchHandler creates a SearchHandler. hub may be nil to disable
// telemetry broadcasts.
func NewSearchHandler(searcher Searcher, provider CollectionsProvider, hub *TelemetryHub) *SearchHandler {
	return &SearchHandler{
		searcher: searcher,
		provider: provider,
		hub:      hub,
	}
}

// Search handles POST /api/search.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed", nil)
		return
	}

	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		respondError(w, http.StatusBadRequest, "query is required", nil)
		return
	}

	start := time.Now()
	result, err := h.searcher.Search(r.Context(), req.Query, h.provider.Collections(), req.ThreadID)
	if err != nil {
		switch {
		case errors.Is(err, agent.ErrNoAPIKey):
			respondError(w, http.StatusPreconditionFailed, "no API key configured", err)
		case errors.Is(err, llm.ErrResponseTruncated):
			respondError(w, http.StatusBadGateway, "model response truncated", err)
		case errors.Is(err, llm.ErrCircuitOpen):
			respondError(w, http.StatusServiceUnavailable, "model temporarily unavailable", err)
		default:
			respondError(w, http.StatusBadGateway, "search failed", err)
		}
		return
	}
	elapsed := time.Since(start)

	if h.hub != nil {
		h.hub.Broadcast(SearchEvent{
			Type:       "search",
			Query:      req.Query,
			ThreadID:   result.ThreadID,
			NoteCount:  len(result.Notes),
			TaskCount:  len(result.Tasks),
			GraphOnly:  result.ThreadID == agent.GraphOnlyThreadID,
			DurationMS: elapsed.Milliseconds(),
			At:         time.Now().UTC(),
		})
	}

	notes := result.Notes
	if notes == nil {
		notes = []*types.Note{}
	}
	tasks := result.Tasks
	if tasks == nil {
		tasks = []*types.Task{}
	}

	respondJSON(w, http.StatusOK, SearchResponse{
		Notes:       notes,
		Tasks:       tasks,
		Summary:     result.Summary,
		Suggestions: result.Suggestions,
		ThreadID:    result.ThreadID,
		DurationMS:  elapsed.Milliseconds(),
	})
}

// CreateThread handles POST /api/threads.
func (h *SearchHandler) CreateThread(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed", nil)
		return
	}
	respondJSON(w, http.StatusCreated, ThreadResponse{ThreadID: h.searcher.CreateThread()})
}

// DeleteThread handles DELETE /api/threads/{id}.
func (h *SearchHandler) DeleteThread(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed", nil)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/threads/")
	if id == "" || strings.Contains(id, "/") {
		respondError(w, http.StatusBadRequest, "thread ID is required", nil)
		return
	}
	h.searcher.ClearThread(id)
	w.WriteHeader(http.StatusNoContent)
}

// UpdateCredential handles PUT /api/config/key.
func (h *SearchHandler) UpdateCredential(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed", nil)
		return
	}
	var req CredentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if strings.TrimSpace(req.APIKey) == "" {
		respondError(w, http.StatusBadRequest, "api_key is required", nil)
		return
	}
	h.searcher.SetAPIKey(req.APIKey)
	w.WriteHeader(http.StatusNoContent)
}

// Health handles GET /api/health.
func (h *SearchHandler) Health(w http.ResponseWriter, _ *http.Request) {
	cols := h.provider.Collections()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"notes":  len(cols.Notes),
		"tasks":  len(cols.Tasks),
	})
}
