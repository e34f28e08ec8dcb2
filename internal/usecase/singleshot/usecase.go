package singleshot

import (
	"context"
	"errors"
	"fmt"

	"better-todo/internal/application/port/input"
	"better-todo/internal/application/port/output"
	"better-todo/internal/application/service"
	"better-todo/internal/domain/entity"
)

var _ input.TaskRunner = (*UseCase)(nil)

// PromptFunc returns the system prompt of a task type.
type PromptFunc func(taskType entity.TaskType) string

type Config struct {
	LLM         output.LLMPort
	Tasks       output.TaskRepository
	Credentials output.CredentialsPort
	Prompt      PromptFunc
	Logger      output.LoggerPort
}

func (c *Config) defaults() error {
	if c.LLM == nil {
		return fmt.Errorf("llm is required")
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
	c.Logger = c.Logger.WithField("svc", "usecase.SingleShot")
	return nil
}

// UseCase answers expand, code, summarize, analyze and other tasks with one
// completion.
type UseCase struct {
	llm         output.LLMPort
	tasks       output.TaskRepository
	credentials output.CredentialsPort
	prompt      PromptFunc
	logger      output.LoggerPort
}

func New(cfg Config) (*UseCase, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &UseCase{
		llm:         cfg.LLM,
		tasks:       cfg.Tasks,
		credentials: cfg.Credentials,
		prompt:      cfg.Prompt,
		logger:      cfg.Logger,
	}, nil
}

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

	result, provider, err := uc.complete(ctx, *task, logger)

	settleCtx, cancel := service.SettleContext(ctx)
	defer cancel()
	if err != nil {
		return uc.tasks.MarkFailed(settleCtx, taskID, err.Error())
	}
	return uc.tasks.MarkCompleted(settleCtx, taskID, result, provider)
}

func (uc *UseCase) complete(ctx context.Context, task entity.AgentTask, logger output.LoggerPort) (string, entity.Provider, error) {
	resolved, err := service.ResolveForUser(ctx, uc.credentials, task.UserID, task.Provider)
	if err != nil {
		logger.Warn("No provider available", "error", err)
		return "", "", err
	}

	result, err := uc.llm.Complete(ctx, output.ChatRequest{
		Provider:     resolved.Provider,
		APIKey:       resolved.APIKey,
		SystemPrompt: uc.prompt(task.TaskType),
		Messages:     []entity.Message{{Role: entity.RoleUser, Content: task.InitialPrompt()}},
	})
	if err != nil {
		logger.Warn("Completion failed", "provider", resolved.Provider, "error", err)
		return "", "", err
	}

	logger.Info("Task completed", "provider", resolved.Provider, "fallback", resolved.Fallback(task.Provider))
	return result, resolved.Provider, nil
}
