package followup

import (
	"context"
	"errors"
	"fmt"
	"time"

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
	Now         func() time.Time
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
	if c.Now == nil {
		c.Now = time.Now
	}
	c.Logger = c.Logger.WithField("svc", "usecase.FollowUp")
	return nil
}

// UseCase answers the latest follow-up turn of a task. Follow-ups never use
// tools, whatever the task type.
type UseCase struct {
	llm         output.LLMPort
	tasks       output.TaskRepository
	credentials output.CredentialsPort
	prompt      PromptFunc
	logger      output.LoggerPort
	now         func() time.Time
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
		now:         cfg.Now,
	}, nil
}

// Run expects the new user turn to be stored already. A failure records the error
// and leaves an answered task completed; a task with no answer stays failed.
func (uc *UseCase) Run(ctx context.Context, taskID string) error {
	logger := uc.logger.WithField("task_id", taskID)

	task, err := uc.tasks.GetTask(ctx, taskID)
	if errors.Is(err, entity.ErrNotFound) {
		logger.Info("Task deleted before follow-up")
		return nil
	}
	if err != nil {
		return fmt.Errorf("could not load task: %w", err)
	}

	reply, err := uc.reply(ctx, *task, logger)

	settleCtx, cancel := service.SettleContext(ctx)
	defer cancel()
	if err != nil {
		logger.Warn("Follow-up failed", "error", err)
		return uc.tasks.MarkFollowUpFailed(settleCtx, taskID, err.Error())
	}

	return uc.tasks.AppendAssistantReply(settleCtx, taskID, entity.ConversationMessage{
		Role:      entity.RoleAssistant,
		Content:   reply,
		Timestamp: uc.now().UTC(),
	})
}

func (uc *UseCase) reply(ctx context.Context, task entity.AgentTask, logger output.LoggerPort) (string, error) {
	resolved, err := service.ResolveForUser(ctx, uc.credentials, task.UserID, task.Provider)
	if err != nil {
		return "", err
	}

	reply, err := uc.llm.Complete(ctx, output.ChatRequest{
		Provider:     resolved.Provider,
		APIKey:       resolved.APIKey,
		SystemPrompt: uc.prompt(task.TaskType),
		Messages:     Transcript(task),
	})
	if err != nil {
		return "", err
	}
	logger.Info("Follow-up answered", "provider", resolved.Provider, "turns", len(task.Messages))
	return reply, nil
}

// Transcript rebuilds the conversation: the initial user turn, the first answer,
// then every stored follow-up turn.
func Transcript(task entity.AgentTask) []entity.Message {
	out := []entity.Message{{Role: entity.RoleUser, Content: task.InitialPrompt()}}
	for _, m := range task.Transcript() {
		out = append(out, entity.Message{Role: m.Role, Content: m.Content})
	}
	return out
}
