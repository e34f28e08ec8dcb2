package output

import (
	"context"

	"better-todo/internal/domain/entity"
)

// LLMPort is the provider-agnostic completion surface. Implementations keep no
// state between calls; every request carries its own provider and API key.
type LLMPort interface {
	Complete(ctx context.Context, req ChatRequest) (string, error)
	CompleteWithTools(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

type ChatRequest struct {
	Provider     entity.Provider
	APIKey       string
	SystemPrompt string
	Messages     []entity.Message
	Tools        []entity.ToolDefinition
}

type ResponseKind int

const (
	// ResponseTextOnly ends an agentic loop.
	ResponseTextOnly ResponseKind = iota
	// ResponseToolRequest asks the caller to run tools and continue.
	ResponseToolRequest
)

// ChatResponse is one normalized assistant turn. Message.Content holds the
// concatenated text blocks and Message.ToolCalls the requested tools in the
// order the model emitted them.
type ChatResponse struct {
	Message    entity.Message
	StopReason string
}

func (r *ChatResponse) Kind() ResponseKind {
	if r == nil || len(r.Message.ToolCalls) == 0 {
		return ResponseTextOnly
	}
	return ResponseToolRequest
}

func (r *ChatResponse) Text() string {
	if r == nil {
		return ""
	}
	return r.Message.Content
}
