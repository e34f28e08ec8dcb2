package anthropic

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/llms"
	lcanthropic "github.com/tmc/langchaingo/llms/anthropic"

	"better-todo/internal/adapter/tool"
	"better-todo/internal/application/port/output"
	"better-todo/internal/domain/entity"
)

const (
	DefaultModel     = "claude-sonnet-4-20250514"
	DefaultMaxTokens = 4096
)

type Config struct {
	Model      string
	BaseURL    string
	MaxTokens  int
	HTTPClient *http.Client
	Logger     output.LoggerPort
}

func (c *Config) defaults() error {
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.HTTPClient == nil {
		c.HTTPClient = http.DefaultClient
	}
	if c.Logger == nil {
		return fmt.Errorf("logger is required")
	}
	c.Logger = c.Logger.WithField("svc", "llm.Anthropic")
	return nil
}

// Adapter speaks the Messages API content-block format through langchaingo.
type Adapter struct {
	cfg Config
}

func NewAdapter(cfg Config) (*Adapter, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &Adapter{cfg: cfg}, nil
}

func (a *Adapter) client(apiKey string) (*lcanthropic.LLM, error) {
	opts := []lcanthropic.Option{
		lcanthropic.WithToken(apiKey),
		lcanthropic.WithModel(a.cfg.Model),
		lcanthropic.WithHTTPClient(a.cfg.HTTPClient),
	}
	if a.cfg.BaseURL != "" {
		opts = append(opts, lcanthropic.WithBaseURL(a.cfg.BaseURL))
	}
	return lcanthropic.New(opts...)
}

func (a *Adapter) Chat(ctx context.Context, req output.ChatRequest) (*output.ChatResponse, error) {
	client, err := a.client(req.APIKey)
	if err != nil {
		return nil, fmt.Errorf("could not create client: %w", err)
	}

	messages := convertMessages(req.SystemPrompt, req.Messages)
	opts := []llms.CallOption{
		llms.WithModel(a.cfg.Model),
		llms.WithMaxTokens(a.cfg.MaxTokens),
	}
	tools, err := convertTools(req.Tools)
	if err != nil {
		return nil, err
	}
	if len(tools) > 0 {
		opts = append(opts, llms.WithTools(tools))
	}

	a.cfg.Logger.Debug("creating message",
		"model", a.cfg.Model,
		"messagesCount", len(messages),
		"toolsCount", len(req.Tools))

	resp, err := client.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return nil, fmt.Errorf("message request failed: %w", err)
	}
	return convertResponse(resp)
}

// convertMessages emits one langchaingo message per content block. The API
// merges consecutive turns of the same role back into one.
func convertMessages(systemPrompt string, messages []entity.Message) []llms.MessageContent {
	result := make([]llms.MessageContent, 0, len(messages)+1)
	if systemPrompt != "" {
		result = append(result, llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt))
	}

	for _, msg := range messages {
		switch msg.Role {
		case entity.RoleSystem:
			result = append(result, llms.TextParts(llms.ChatMessageTypeSystem, msg.Content))
		case entity.RoleUser:
			result = append(result, llms.TextParts(llms.ChatMessageTypeHuman, msg.Content))
		case entity.RoleAssistant:
			if strings.TrimSpace(msg.Content) != "" {
				result = append(result, llms.TextParts(llms.ChatMessageTypeAI, msg.Content))
			}
			for _, tc := range msg.ToolCalls {
				args := tc.Arguments
				if strings.TrimSpace(args) == "" {
					args = "{}"
				}
				result = append(result, llms.MessageContent{
					Role: llms.ChatMessageTypeAI,
					Parts: []llms.ContentPart{llms.ToolCall{
						ID:           tc.ID,
						Type:         "function",
						FunctionCall: &llms.FunctionCall{Name: tc.Name, Arguments: args},
					}},
				})
			}
		case entity.RoleTool:
			result = append(result, llms.MessageContent{
				Role: llms.ChatMessageTypeTool,
				Parts: []llms.ContentPart{llms.ToolCallResponse{
					ToolCallID: msg.ToolCallID,
					Name:       msg.Name,
					Content:    msg.Content,
				}},
			})
		}
	}
	return result
}

// convertTools carries the catalog's Claude projection; langchaingo sends the
// function parameters as input_schema.
func convertTools(defs []entity.ToolDefinition) ([]llms.Tool, error) {
	rendered, err := tool.Render(entity.ToolFormatClaude, defs)
	if err != nil {
		return nil, err
	}
	result := make([]llms.Tool, 0, len(rendered))
	for _, r := range rendered {
		name, _ := r["name"].(string)
		description, _ := r["description"].(string)
		result = append(result, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        name,
				Description: description,
				Parameters:  r["input_schema"],
			},
		})
	}
	return result, nil
}

// convertResponse folds the per-block choices back into one assistant turn.
func convertResponse(resp *llms.ContentResponse) (*output.ChatResponse, error) {
	if resp == nil || len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty response: %w", entity.ErrNoTextResponse)
	}

	out := &output.ChatResponse{Message: entity.Message{Role: entity.RoleAssistant}}
	var texts []string
	for _, choice := range resp.Choices {
		if choice == nil {
			continue
		}
		if choice.StopReason != "" {
			out.StopReason = choice.StopReason
		}
		if choice.Content != "" {
			texts = append(texts, choice.Content)
		}
		for _, tc := range choice.ToolCalls {
			if tc.FunctionCall == nil {
				continue
			}
			id := tc.ID
			if id == "" {
				id = "toolu_" + uuid.NewString()
			}
			out.Message.ToolCalls = append(out.Message.ToolCalls, entity.ToolCall{
				ID:        id,
				Name:      tc.FunctionCall.Name,
				Arguments: tc.FunctionCall.Arguments,
			})
		}
	}
	out.Message.Content = strings.Join(texts, "\n")
	return out, nil
}
