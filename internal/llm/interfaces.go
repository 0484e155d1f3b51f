package llm

import "context"

// ChatClient is the chat-completion capability the context agent
// consumes. The production implementation is ClaudeClient; tests use a
// call-counting fake.
type ChatClient interface {
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
	Model() string
}
