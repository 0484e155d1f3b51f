// Package handlers provides the HTTP surface for the taskerino search
// pipeline: the search endpoint, thread management, credential updates,
// and a WebSocket telemetry feed.
package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/jamesmcarthur-3999/taskerino/pkg/types"
)

// ErrorResponse is the standard error response format for the API.
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// SearchRequest is the request body for POST /api/search.
type SearchRequest struct {
	Query string `json:"query"`

	// ThreadID continues an existing conversation; empty starts a new
	// one.
	ThreadID string `json:"thread_id,omitempty"`
}

// SearchResponse is the response body for POST /api/search.
type SearchResponse struct {
	Notes       []*types.Note `json:"notes"`
	Tasks       []*types.Task `json:"tasks"`
	Summary     string        `json:"summary"`
	Suggestions []string      `json:"suggestions,omitempty"`
	ThreadID    string        `json:"thread_id"`
	DurationMS  int64         `json:"duration_ms"`
}

// ThreadResponse is the response body for POST /api/threads.
type ThreadResponse struct {
	ThreadID string `json:"thread_id"`
}

// CredentialRequest is the request body for PUT /api/config/key.
type CredentialRequest struct {
	APIKey string `json:"api_key"`
}

// SearchEvent is the telemetry message broadcast to WebSocket clients
// after every search.
type SearchEvent struct {
	Type       string    `json:"type"` // always "search"
	Query      string    `json:"query"`
	ThreadID   string    `json:"thread_id"`
	NoteCount  int       `json:"note_count"`
	TaskCount  int       `json:"task_count"`
	GraphOnly  bool      `json:"graph_only"`
	DurationMS int64     `json:"duration_ms"`
	At         time.Time `json:"at"`
}

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers already sent, nothing left to do but log.
		log.Printf("failed to encode JSON response: %v", err)
	}
}

// respondError writes an error response with the given status code.
func respondError(w http.ResponseWriter, statusCode int, message string, err error) {
	errResp := ErrorResponse{
		Error: message,
		Code:  http.StatusText(statusCode),
	}
	if err != nil {
		errResp.Details = map[string]interface{}{
			"error": err.Error(),
		}
	}
	respondJSON(w, statusCode, errResp)
}
