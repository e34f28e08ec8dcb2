package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"better-todo/internal/application/port/input"
	"better-todo/internal/application/port/output"
	"better-todo/internal/domain/entity"
)

var _ input.AgentTaskService = (*Service)(nil)

// noteTitleRunes bounds the source excerpt used when a task has no title.
const noteTitleRunes = 40

type Config struct {
	Tasks     output.TaskRepository
	Workspace output.WorkspacePort
	Scheduler output.SchedulerPort
	// Agentic runs taskType run, SingleShot every other type.
	Agentic    input.TaskRunner
	SingleShot input.TaskRunner
	FollowUp   input.TaskRunner
	Logger     output.LoggerPort
	Now        func() time.Time
}

func (c *Config) defaults() error {
	if c.Tasks == nil {
		return fmt.Errorf("task repository is required")
	}
	if c.Workspace == nil {
		return fmt.Errorf("workspace is required")
	}
	if c.Scheduler == nil {
		return fmt.Errorf("scheduler is required")
	}
	if c.Agentic == nil {
		return fmt.Errorf("agentic runner is required")
	}
	if c.SingleShot == nil {
		return fmt.Errorf("single-shot runner is required")
	}
	if c.FollowUp == nil {
		return fmt.Errorf("follow-up runner is required")
	}
	if c.Logger == nil {
		return fmt.Errorf("logger is required")
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	c.Logger = c.Logger.WithField("svc", "usecase.Tasks")
	return nil
}

// Service is the entry point used by the HTTP and CLI layers. It owns task
// creation and every state change a caller may request; runners are only ever
// started through the scheduler.
type Service struct {
	tasks      output.TaskRepository
	workspace  output.WorkspacePort
	scheduler  output.SchedulerPort
	agentic    input.TaskRunner
	singleShot input.TaskRunner
	followUp   input.TaskRunner
	logger     output.LoggerPort
	now        func() time.Time
}

func New(cfg Config) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &Service{
		tasks:      cfg.Tasks,
		workspace:  cfg.Workspace,
		scheduler:  cfg.Scheduler,
		agentic:    cfg.Agentic,
		singleShot: cfg.SingleShot,
		followUp:   cfg.FollowUp,
		logger:     cfg.Logger,
		now:        cfg.Now,
	}, nil
}

func (s *Service) CreateAgentTask(ctx context.Context, ownerID string, req input.CreateTaskRequest) (string, error) {
	task := entity.AgentTask{
		ID:                 ulid.Make().String(),
		UserID:             ownerID,
		CreatedAt:          s.now().UTC(),
		SourceID:           req.SourceID,
		SourceType:         req.SourceType,
		SourceContent:      req.SourceContent,
		SourceTitle:        req.SourceTitle,
		Provider:           req.Provider,
		TaskType:           req.TaskType,
		CustomInstructions: strings.TrimSpace(req.CustomInstructions),
		Status:             entity.TaskStatusPending,
		FolderID:           req.FolderID,
		Date:               req.Date,
	}
	if err := task.Validate(); err != nil {
		return "", err
	}

	if err := s.tasks.CreateTask(ctx, task); err != nil {
		return "", fmt.Errorf("could not create task: %w", err)
	}

	if err := s.schedule(task.ID, s.runnerFor(task.TaskType), "process"); err != nil {
		// The task exists and would otherwise stay pending forever.
		_ = s.tasks.MarkFailed(ctx, task.ID, err.Error())
		return "", err
	}

	s.logger.Info("Task created", "task_id", task.ID, "task_type", task.TaskType, "provider", task.Provider)
	return task.ID, nil
}

func (s *Service) AddFollowUpMessage(ctx context.Context, ownerID, taskID, message string) error {
	message = strings.TrimSpace(message)
	if message == "" {
		return fmt.Errorf("message is required: %w", entity.ErrValidation)
	}

	err := s.tasks.AppendFollowUp(ctx, taskID, ownerID, entity.ConversationMessage{
		Role:      entity.RoleUser,
		Content:   message,
		Timestamp: s.now().UTC(),
	})
	if err != nil {
		return err
	}

	if err := s.schedule(taskID, s.followUp, "follow-up"); err != nil {
		_ = s.tasks.MarkFollowUpFailed(ctx, taskID, err.Error())
		return err
	}
	return nil
}

func (s *Service) RetryAgentTask(ctx context.Context, ownerID, taskID string) error {
	task, err := s.tasks.GetTaskForOwner(ctx, taskID, ownerID)
	if err != nil {
		return err
	}
	if err := s.tasks.ResetForRetry(ctx, taskID, ownerID); err != nil {
		return err
	}

	if err := s.schedule(taskID, s.runnerFor(task.TaskType), "retry"); err != nil {
		_ = s.tasks.MarkFailed(ctx, taskID, err.Error())
		return err
	}
	s.logger.Info("Task retried", "task_id", taskID)
	return nil
}

// DeleteAgentTask is idempotent: missing and foreign tasks are ignored.
func (s *Service) DeleteAgentTask(ctx context.Context, ownerID, taskID string) error {
	err := s.tasks.DeleteTask(ctx, taskID, ownerID)
	if err != nil && !errors.Is(err, entity.ErrNotFound) {
		return err
	}
	return nil
}

func (s *Service) GetAgentTask(ctx context.Context, ownerID, taskID string) (*entity.AgentTask, error) {
	return s.tasks.GetTaskForOwner(ctx, taskID, ownerID)
}

func (s *Service) ListAgentTasks(ctx context.Context, ownerID string) ([]entity.AgentTask, error) {
	return s.tasks.ListTasks(ctx, ownerID)
}

// SaveResultAsNote copies the conversation of a completed task into a new note
// placed where the task was created. A task without placement lands on today.
func (s *Service) SaveResultAsNote(ctx context.Context, ownerID, taskID string) (string, error) {
	task, err := s.tasks.GetTaskForOwner(ctx, taskID, ownerID)
	if err != nil {
		return "", err
	}
	if task.Status != entity.TaskStatusCompleted || task.Result == "" {
		return "", fmt.Errorf("task %s has no completed result: %w", taskID, entity.ErrValidation)
	}

	note := entity.Note{
		UserID:   ownerID,
		Title:    NoteTitle(*task),
		Content:  NoteBody(*task),
		FolderID: task.FolderID,
		Date:     task.Date,
	}
	if note.FolderID == "" && note.Date == "" {
		note.Date = s.now().Format(entity.DateLayout)
	}

	created, err := s.workspace.CreateNote(ctx, note)
	if err != nil {
		return "", fmt.Errorf("could not create note: %w", err)
	}
	s.logger.Info("Task result saved as note", "task_id", taskID, "note_id", created.ID)
	return created.ID, nil
}

// NoteTitle is "AI: " followed by the source title, or by the start of the
// source content when there is no title.
func NoteTitle(task entity.AgentTask) string {
	title := strings.TrimSpace(task.SourceTitle)
	if title == "" {
		title = strings.TrimSpace(task.SourceContent)
		if r := []rune(title); len(r) > noteTitleRunes {
			title = strings.TrimSpace(string(r[:noteTitleRunes]))
		}
	}
	return "AI: " + title
}

// NoteBody is the first answer followed by every follow-up turn.
func NoteBody(task entity.AgentTask) string {
	var b strings.Builder
	for i, m := range task.Transcript() {
		if i > 0 {
			b.WriteString("\n\n")
		}
		if m.Role == entity.RoleUser {
			b.WriteString("**You:** ")
		}
		b.WriteString(m.Content)
	}
	return b.String()
}

func (s *Service) runnerFor(t entity.TaskType) input.TaskRunner {
	if t.Agentic() {
		return s.agentic
	}
	return s.singleShot
}

func (s *Service) schedule(taskID string, runner input.TaskRunner, kind string) error {
	logger := s.logger.WithFields(map[string]any{"task_id": taskID, "job": kind})
	err := s.scheduler.RunAfter(0, kind+":"+taskID, func(ctx context.Context) {
		if err := runner.Run(ctx, taskID); err != nil {
			logger.Error("Task job failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("could not schedule %s of task %s: %w", kind, taskID, err)
	}
	return nil
}
