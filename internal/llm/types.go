// Package llm provides the Claude Messages API client used by the
// context agent, including prompt-cache request shaping, a circuit
// breaker around the transport, and layered response parsing.
package llm

import "errors"

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Stop reasons reported by the Messages API.
const (
	StopReasonEndTurn   = "end_turn"
	StopReasonMaxTokens = "max_tokens"
)

// ErrResponseTruncated indicates the model hit the output-token limit.
// The budget is sized so this never happens; when it does it is a
// violated invariant and must surface to the caller, not be papered
// over.
var ErrResponseTruncated = errors.New("response truncated by output token limit")

// CacheControl marks a content block as cacheable by the upstream
// prompt cache.
type CacheControl struct {
	Type string `json:"type"` // always "ephemeral"
}

// ContentBlock is one block of message or system content. Blocks may
// carry a cache marker; the upstream service caches everything up to
// and including the marked block.
type ContentBlock struct {
	Type         string        `json:"type"` // always "text"
	Text         string        `json:"text"`
	CacheControl *CacheControl `json:"cache_control,omitempty"`
}

// TextBlock builds a plain text block.
func TextBlock(text string) ContentBlock {
	return ContentBlock{Type: "text", Text: text}
}

// CachedTextBlock builds a text block marked for prompt caching.
func CachedTextBlock(text string) ContentBlock {
	return ContentBlock{
		Type:         "text",
		Text:         text,
		CacheControl: &CacheControl{Type: "ephemeral"},
	}
}

// Message is one turn of conversation history.
type Message struct {
	Role    string         `json:"role"`
	Content []ContentBlock `json:"content"`
}

// ChatRequest is a Messages API call: model, output budget, optional
// system blocks, and the accumulated message history.
type ChatRequest struct {
	Model     string
	MaxTokens int
	System    []ContentBlock
	Messages  []Message
}

// Usage reports the token accounting for one call, including tokens
// served from the prompt cache and tokens spent creating cache entries.
type Usage struct {
	InputTokens              int `json:"input_tokens"`
	OutputTokens             int `json:"output_tokens"`
	CacheReadInputTokens     int `json:"cache_read_input_tokens"`
	CacheCreationInputTokens int `json:"cache_creation_input_tokens"`
}

// ChatResponse is the assembled response: concatenated text content,
// the stop reason, and usage counters.
type ChatResponse struct {
	Text       string
	StopReason string
	Usage      Usage
}

// Truncated reports whether the response was cut off by the
// output-token limit.
func (r *ChatResponse) Truncated() bool {
	return r.StopReason == StopReasonMaxTokens
}
