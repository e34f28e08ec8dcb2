// Package mcpserver serves the agent tool catalog to external MCP clients.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"better-todo/internal/application/port/output"
	"better-todo/internal/domain/entity"
)

type Config struct {
	Tools output.ToolRegistry
	// UserID owns every todo and note the session touches.
	UserID  string
	Version string
	Logger  output.LoggerPort
}

func (c *Config) defaults() error {
	if c.Tools == nil {
		return fmt.Errorf("tool registry is required")
	}
	if c.UserID == "" {
		return fmt.Errorf("user id is required")
	}
	if c.Logger == nil {
		return fmt.Errorf("logger is required")
	}
	if c.Version == "" {
		c.Version = "dev"
	}
	c.Logger = c.Logger.WithFields(map[string]any{"svc": "mcpserver.Server", "user_id": c.UserID})
	return nil
}

type Server struct {
	srv    *mcp.Server
	tools  output.ToolRegistry
	userID string
	logger output.LoggerPort
}

// New registers one MCP tool per catalog entry. Calls go through the same
// registry the agentic runner dispatches to.
func New(cfg Config) (*Server, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	s := &Server{
		srv:    mcp.NewServer(&mcp.Implementation{Name: "bettertodo", Version: cfg.Version}, nil),
		tools:  cfg.Tools,
		userID: cfg.UserID,
		logger: cfg.Logger,
	}

	for _, def := range cfg.Tools.Definitions() {
		schema, err := inputSchema(def)
		if err != nil {
			return nil, err
		}
		s.srv.AddTool(&mcp.Tool{
			Name:        def.Name,
			Description: def.Description,
			InputSchema: schema,
		}, s.handler(def.Name))
	}
	return s, nil
}

// Run serves over stdin/stdout until the client disconnects or ctx is done.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("MCP server started")
	return s.srv.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) handler(name string) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := "{}"
		if len(req.Params.Arguments) > 0 {
			args = string(req.Params.Arguments)
		}

		result, err := s.tools.Dispatch(ctx, s.userID, entity.ToolCall{Name: name, Arguments: args})
		if err != nil {
			s.logger.Warn("Tool call failed", "tool", name, "error", err)
			return textResult(map[string]string{"error": err.Error()}, true)
		}
		s.logger.Debug("Tool call succeeded", "tool", name)
		return textResult(result, false)
	}
}

func textResult(v any, isError bool) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("could not encode tool result: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(b)}},
		IsError: isError,
	}, nil
}

func inputSchema(def entity.ToolDefinition) (*jsonschema.Schema, error) {
	raw, err := json.Marshal(def.Parameters)
	if err != nil {
		return nil, fmt.Errorf("could not encode %s parameters: %w", def.Name, err)
	}
	var schema jsonschema.Schema
	if err := json.Unmarshal(raw, &schema); err != nil {
		return nil, fmt.Errorf("invalid %s parameters: %w", def.Name, err)
	}
	return &schema, nil
}
