package output

import (
	"context"

	"better-todo/internal/domain/entity"
)

// TaskRepository persists AgentTask records. Status-only transitions are no-ops
// when the task no longer exists. Owner-scoped reads treat foreign tasks as
// missing.
type TaskRepository interface {
	CreateTask(ctx context.Context, t entity.AgentTask) error
	GetTask(ctx context.Context, id string) (*entity.AgentTask, error)
	GetTaskForOwner(ctx context.Context, id, ownerID string) (*entity.AgentTask, error)
	ListTasks(ctx context.Context, ownerID string) ([]entity.AgentTask, error)
	DeleteTask(ctx context.Context, id, ownerID string) error

	MarkProcessing(ctx context.Context, id string) error
	MarkCompleted(ctx context.Context, id, result string, provider entity.Provider) error
	MarkFailed(ctx context.Context, id, errMsg string) error
	// ResetForRetry moves a failed task back to pending and clears its run output.
	ResetForRetry(ctx context.Context, id, ownerID string) error

	// AppendFollowUp appends a user turn and flips the task to processing. It
	// fails with entity.ErrTaskBusy while the task is pending or processing.
	AppendFollowUp(ctx context.Context, id, ownerID string, msg entity.ConversationMessage) error
	AppendAssistantReply(ctx context.Context, id string, msg entity.ConversationMessage) error
	MarkFollowUpFailed(ctx context.Context, id, errMsg string) error

	// AppendExecutionLogEntry returns the index of the new entry.
	AppendExecutionLogEntry(ctx context.Context, id string, entry entity.ExecutionLogEntry) (int, error)
	UpdateExecutionLogEntry(ctx context.Context, id string, index int, status entity.LogStatus, result string) error
}
