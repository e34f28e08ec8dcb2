package output

import (
	"context"

	"better-todo/internal/domain/entity"
)

// ToolPort is one catalog action. Execute receives the raw JSON arguments the
// model produced for userID and returns a JSON-serializable result.
type ToolPort interface {
	Name() entity.ToolName
	Description() string
	Parameters() map[string]interface{}
	Execute(ctx context.Context, userID string, arguments string) (any, error)
}

type ToolRegistry interface {
	Register(tool ToolPort)
	Get(name entity.ToolName) (ToolPort, bool)
	All() []ToolPort
	Definitions() []entity.ToolDefinition
	Dispatch(ctx context.Context, userID string, call entity.ToolCall) (any, error)
}
