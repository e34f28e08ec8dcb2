package executor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"better-todo/internal/application/port/input"
	"better-todo/internal/application/port/output"
	"better-todo/internal/application/service"
	"better-todo/internal/domain/entity"
)

var _ input.TaskRunner = (*UseCase)(nil)

const (
	// MaxIterations bounds the model round trips of one agentic run.
	MaxIterations     = 10
	maxObservationLen = 20000
	// PlaceholderResult is stored when the model never produced any text.
	PlaceholderResult = "Execution completed."
)

// PromptFunc renders the agent system prompt for a task.
type PromptFunc func(now time.Time, task entity.AgentTask) (string, error)

type Config struct {
	LLM         output.LLMPort
	Tools       output.ToolRegistry
	Tasks       output.TaskRepository
	Credentials output.CredentialsPort
	Prompt      PromptFunc
	Progress    output.ProgressReporter
	Logger      output.LoggerPort
	Now         func() time.Time
}

func (c *Config) defaults() error {
	if c.LLM == nil {
		return fmt.Errorf("llm is required")
	}
	if c.Tools == nil {
		return fmt.Errorf("tool registry is required")
	}
	if c.Tasks == nil {
		return fmt.Errorf("task repository is required")
	}
	if c.Credentials == nil {
		return fmt.Errorf("credentials are required")
	}
	if c.Prompt == nil {
		return fmt.Errorf("prompt is required")
	}
	if c.Logger == nil {
		return fmt.Errorf("logger is required")
	}
	if c.Progress == nil {
		c.Progress = output.NoopProgress
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	c.Logger = c.Logger.WithField("svc", "usecase.Executor")
	return nil
}

// UseCase runs tasks of type run through the tool-use loop.
type UseCase struct {
	llm         output.LLMPort
	tools       output.ToolRegistry
	tasks       output.TaskRepository
	credentials output.CredentialsPort
	prompt      PromptFunc
	progress    output.ProgressReporter
	logger      output.LoggerPort
	now         func() time.Time
}

func New(cfg Config) (*UseCase, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &UseCase{
		llm:         cfg.LLM,
		tools:       cfg.Tools,
		tasks:       cfg.Tasks,
		credentials: cfg.Credentials,
		prompt:      cfg.Prompt,
		progress:    cfg.Progress,
		logger:      cfg.Logger,
		now:         cfg.Now,
	}, nil
}

// Run processes one task and records the outcome on it.
func (uc *UseCase) Run(ctx context.Context, taskID string) error {
	logger := uc.logger.WithField("task_id", taskID)

	task, err := uc.tasks.GetTask(ctx, taskID)
	if errors.Is(err, entity.ErrNotFound) {
		logger.Info("Task deleted before processing")
		return nil
	}
	if err != nil {
		return fmt.Errorf("could not load task: %w", err)
	}
	if err := uc.tasks.MarkProcessing(ctx, taskID); err != nil {
		return err
	}

	result, provider, err := uc.run(ctx, *task, logger)

	settleCtx, cancel := service.SettleContext(ctx)
	defer cancel()
	if err != nil {
		logger.Warn("Agent run failed", "error", err)
		return uc.tasks.MarkFailed(settleCtx, taskID, err.Error())
	}
	logger.Info("Agent run completed", "provider", provider, "requested", task.Provider)
	return uc.tasks.MarkCompleted(settleCtx, taskID, result, provider)
}

func (uc *UseCase) run(ctx context.Context, task entity.AgentTask, logger output.LoggerPort) (string, entity.Provider, error) {
	resolved, err := service.ResolveForUser(ctx, uc.credentials, task.UserID, task.Provider)
	if err != nil {
		return "", "", err
	}
	if resolved.Fallback(task.Provider) {
		logger.Info("Falling back to other provider", "requested", task.Provider, "provider", resolved.Provider)
	}

	systemPrompt, err := uc.prompt(uc.now(), task)
	if err != nil {
		return "", "", fmt.Errorf("could not render system prompt: %w", err)
	}

	result, err := uc.Execute(ctx, Request{
		TaskID:       task.ID,
		UserID:       task.UserID,
		Provider:     resolved,
		SystemPrompt: systemPrompt,
		Instructions: task.InitialPrompt(),
	})
	if err != nil {
		return "", "", err
	}
	return result.FinalText, resolved.Provider, nil
}

type Request struct {
	TaskID       string
	UserID       string
	Provider     service.ResolvedProvider
	SystemPrompt string
	Instructions string
}

type Result struct {
	FinalText  string
	Iterations int
	ToolCalls  int
}

// Execute drives the bounded tool-use exchange. Tool failures are fed back to the
// model; only provider and persistence failures end the run with an error.
func (uc *UseCase) Execute(ctx context.Context, req Request) (*Result, error) {
	logger := uc.logger.WithField("task_id", req.TaskID)
	messages := []entity.Message{{Role: entity.RoleUser, Content: req.Instructions}}
	toolDefs := uc.tools.Definitions()

	res := &Result{}
	for iteration := 1; iteration <= MaxIterations; iteration++ {
		res.Iterations = iteration
		uc.progress.ShowIteration(ctx, iteration, MaxIterations)
		logger.Debug("Starting iteration", "iteration", iteration)

		resp, err := uc.llm.CompleteWithTools(ctx, output.ChatRequest{
			Provider:     req.Provider.Provider,
			APIKey:       req.Provider.APIKey,
			SystemPrompt: req.SystemPrompt,
			Messages:     messages,
			Tools:        toolDefs,
		})
		if err != nil {
			return nil, err
		}

		if text := strings.TrimSpace(resp.Text()); text != "" {
			res.FinalText = text
			uc.progress.ShowThinking(ctx, text)
		}

		assistant := resp.Message
		assistant.Role = entity.RoleAssistant
		messages = append(messages, assistant)

		if resp.Kind() == output.ResponseTextOnly {
			break
		}

		for _, tc := range resp.Message.ToolCalls {
			msg, err := uc.executeTool(ctx, req, tc, logger)
			if err != nil {
				return nil, err
			}
			res.ToolCalls++
			messages = append(messages, msg)
		}

		if iteration == MaxIterations {
			logger.Warn("Iteration limit reached", "max_iterations", MaxIterations)
		}
	}

	if res.FinalText == "" {
		res.FinalText = PlaceholderResult
	}
	return res, nil
}

// executeTool logs the call as pending before running it and patches the entry
// once it settles.
func (uc *UseCase) executeTool(ctx context.Context, req Request, tc entity.ToolCall, logger output.LoggerPort) (entity.Message, error) {
	idx, err := uc.tasks.AppendExecutionLogEntry(ctx, req.TaskID, entity.ExecutionLogEntry{
		ToolName:  tc.Name,
		ToolInput: tc.Arguments,
		Status:    entity.LogStatusPending,
		Timestamp: uc.now().UTC(),
	})
	if err != nil {
		return entity.Message{}, fmt.Errorf("could not record tool call: %w", err)
	}

	uc.progress.ShowToolStart(ctx, tc.Name, tc.Arguments)
	logger.Info("Executing tool", "name", tc.Name, "args", tc.Arguments)

	status := entity.LogStatusSuccess
	result, err := uc.tools.Dispatch(ctx, req.UserID, tc)
	var payload string
	if err != nil {
		status = entity.LogStatusError
		payload = errorPayload(err)
		logger.Warn("Tool execution failed", "name", tc.Name, "error", err)
	} else {
		payload = serialize(result)
		logger.Debug("Tool completed", "name", tc.Name, "resultLen", len(payload))
	}

	if err := uc.tasks.UpdateExecutionLogEntry(ctx, req.TaskID, idx, status, payload); err != nil {
		return entity.Message{}, fmt.Errorf("could not record tool result: %w", err)
	}
	uc.progress.ShowToolResult(ctx, tc.Name, payload, status == entity.LogStatusError)

	return entity.Message{
		Role:       entity.RoleTool,
		ToolCallID: tc.ID,
		Name:       tc.Name,
		Content:    truncate(payload, maxObservationLen),
		IsError:    status == entity.LogStatusError,
	}, nil
}

func serialize(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return errorPayload(fmt.Errorf("could not serialize tool result: %w", err))
	}
	return string(raw)
}

func errorPayload(err error) string {
	raw, _ := json.Marshal(map[string]string{"error": err.Error()})
	return string(raw)
}

// truncate caps s at limit bytes without splitting a rune.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "\n... (truncated)"
}
