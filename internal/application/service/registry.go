package service

import (
	"context"
	"fmt"

	"better-todo/internal/application/port/output"
	"better-todo/internal/domain/entity"
)

var _ output.ToolRegistry = (*ToolRegistryImpl)(nil)

// ToolRegistryImpl is the dispatch table from tool name to handler. Iteration
// order follows registration order so rendered catalogs are deterministic.
type ToolRegistryImpl struct {
	tools map[entity.ToolName]output.ToolPort
	order []entity.ToolName
}

func NewToolRegistry() *ToolRegistryImpl {
	return &ToolRegistryImpl{
		tools: make(map[entity.ToolName]output.ToolPort),
	}
}

func (r *ToolRegistryImpl) Register(tool output.ToolPort) {
	if _, ok := r.tools[tool.Name()]; !ok {
		r.order = append(r.order, tool.Name())
	}
	r.tools[tool.Name()] = tool
}

func (r *ToolRegistryImpl) Get(name entity.ToolName) (output.ToolPort, bool) {
	tool, ok := r.tools[name]
	return tool, ok
}

func (r *ToolRegistryImpl) All() []output.ToolPort {
	result := make([]output.ToolPort, 0, len(r.order))
	for _, name := range r.order {
		result = append(result, r.tools[name])
	}
	return result
}

func (r *ToolRegistryImpl) Definitions() []entity.ToolDefinition {
	result := make([]entity.ToolDefinition, 0, len(r.order))
	for _, tool := range r.All() {
		result = append(result, entity.ToolDefinition{
			Name:        tool.Name().String(),
			Description: tool.Description(),
			Parameters:  tool.Parameters(),
		})
	}
	return result
}

// Dispatch runs call against its handler. Unknown names fail with
// entity.ErrToolNotFound; handler failures are wrapped with
// entity.ErrToolExecutionFailed.
func (r *ToolRegistryImpl) Dispatch(ctx context.Context, userID string, call entity.ToolCall) (any, error) {
	tool, ok := r.Get(entity.ToolName(call.Name))
	if !ok {
		return nil, fmt.Errorf("unknown tool %q: %w", call.Name, entity.ErrToolNotFound)
	}

	args := call.Arguments
	if args == "" {
		args = "{}"
	}

	result, err := tool.Execute(ctx, userID, args)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", call.Name, entity.ErrToolExecutionFailed, err)
	}
	return result, nil
}
