package input

import (
	"context"

	"better-todo/internal/domain/entity"
)

type CreateTaskRequest struct {
	SourceID           string
	SourceType         entity.SourceType
	SourceContent      string
	SourceTitle        string
	Provider           entity.Provider
	TaskType           entity.TaskType
	CustomInstructions string
	FolderID           string
	Date               string
}

// AgentTaskService is what the UI/API layer calls.
type AgentTaskService interface {
	CreateAgentTask(ctx context.Context, ownerID string, req CreateTaskRequest) (string, error)
	AddFollowUpMessage(ctx context.Context, ownerID, taskID, message string) error
	RetryAgentTask(ctx context.Context, ownerID, taskID string) error
	DeleteAgentTask(ctx context.Context, ownerID, taskID string) error
	GetAgentTask(ctx context.Context, ownerID, taskID string) (*entity.AgentTask, error)
	ListAgentTasks(ctx context.Context, ownerID string) ([]entity.AgentTask, error)
	SaveResultAsNote(ctx context.Context, ownerID, taskID string) (string, error)
}
