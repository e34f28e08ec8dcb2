package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	goopenai "github.com/sashabaranov/go-openai"

	"better-todo/internal/adapter/tool"
	"better-todo/internal/application/port/output"
	"better-todo/internal/domain/entity"
)

const (
	DefaultModel     = "gpt-4o"
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
	c.Logger = c.Logger.WithField("svc", "llm.OpenAI")
	return nil
}

// Adapter speaks the chat-completions function-calling format. A client is
// built per call since every request carries its own key.
type Adapter struct {
	cfg Config
}

func NewAdapter(cfg Config) (*Adapter, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &Adapter{cfg: cfg}, nil
}

func (a *Adapter) client(apiKey string) *goopenai.Client {
	config := goopenai.DefaultConfig(apiKey)
	if a.cfg.BaseURL != "" {
		config.BaseURL = a.cfg.BaseURL
	}
	config.HTTPClient = a.cfg.HTTPClient
	return goopenai.NewClientWithConfig(config)
}

func (a *Adapter) Chat(ctx context.Context, req output.ChatRequest) (*output.ChatResponse, error) {
	messages := convertMessages(req.SystemPrompt, req.Messages)
	tools, err := convertTools(req.Tools)
	if err != nil {
		return nil, err
	}

	a.cfg.Logger.Debug("creating chat completion",
		"model", a.cfg.Model,
		"messagesCount", len(messages),
		"toolsCount", len(tools))

	chatReq := goopenai.ChatCompletionRequest{
		Model:     a.cfg.Model,
		Messages:  messages,
		MaxTokens: a.cfg.MaxTokens,
	}
	if len(tools) > 0 {
		chatReq.Tools = tools
		chatReq.ToolChoice = "auto"
	}

	resp, err := a.client(req.APIKey).CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response: %w", entity.ErrNoTextResponse)
	}

	choice := resp.Choices[0]
	return &output.ChatResponse{
		Message:    convertResponseMessage(choice.Message),
		StopReason: string(choice.FinishReason),
	}, nil
}

func convertMessages(systemPrompt string, messages []entity.Message) []goopenai.ChatCompletionMessage {
	result := make([]goopenai.ChatCompletionMessage, 0, len(messages)+1)
	if systemPrompt != "" {
		result = append(result, goopenai.ChatCompletionMessage{
			Role:    goopenai.ChatMessageRoleSystem,
			Content: systemPrompt,
		})
	}

	for _, msg := range messages {
		oaiMsg := goopenai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		}
		if msg.Role == entity.RoleTool {
			oaiMsg.ToolCallID = msg.ToolCallID
		}

		for _, tc := range msg.ToolCalls {
			oaiMsg.ToolCalls = append(oaiMsg.ToolCalls, goopenai.ToolCall{
				ID:   tc.ID,
				Type: goopenai.ToolTypeFunction,
				Function: goopenai.FunctionCall{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			})
		}

		result = append(result, oaiMsg)
	}
	return result
}

// convertTools decodes the catalog's OpenAI projection into the client's types.
func convertTools(defs []entity.ToolDefinition) ([]goopenai.Tool, error) {
	rendered, err := tool.Render(entity.ToolFormatOpenAI, defs)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(rendered)
	if err != nil {
		return nil, fmt.Errorf("could not encode tools: %w", err)
	}
	var tools []goopenai.Tool
	if err := json.Unmarshal(raw, &tools); err != nil {
		return nil, fmt.Errorf("could not decode tools: %w", err)
	}
	return tools, nil
}

func convertResponseMessage(msg goopenai.ChatCompletionMessage) entity.Message {
	result := entity.Message{
		Role:    entity.RoleAssistant,
		Content: msg.Content,
	}
	for _, tc := range msg.ToolCalls {
		result.ToolCalls = append(result.ToolCalls, entity.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return result
}
