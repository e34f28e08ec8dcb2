package entity

import (
	"fmt"
	"strings"
	"time"
)

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// Busy reports whether a runner currently owns the task.
func (s TaskStatus) Busy() bool {
	return s == TaskStatusPending || s == TaskStatusProcessing
}

type TaskType string

const (
	TaskTypeExpand    TaskType = "expand"
	TaskTypeCode      TaskType = "code"
	TaskTypeSummarize TaskType = "summarize"
	TaskTypeAnalyze   TaskType = "analyze"
	TaskTypeOther     TaskType = "other"
	TaskTypeRun       TaskType = "run"
)

func (t TaskType) Valid() bool {
	switch t {
	case TaskTypeExpand, TaskTypeCode, TaskTypeSummarize, TaskTypeAnalyze, TaskTypeOther, TaskTypeRun:
		return true
	}
	return false
}

// Agentic reports whether the task runs through the tool-use loop.
func (t TaskType) Agentic() bool { return t == TaskTypeRun }

type Provider string

const (
	ProviderClaude Provider = "claude"
	ProviderOpenAI Provider = "openai"
)

func (p Provider) Valid() bool {
	return p == ProviderClaude || p == ProviderOpenAI
}

// Other returns the fallback counterpart of p.
func (p Provider) Other() Provider {
	if p == ProviderClaude {
		return ProviderOpenAI
	}
	return ProviderClaude
}

type SourceType string

const (
	SourceTypeTodo         SourceType = "todo"
	SourceTypeFullPageNote SourceType = "fullPageNote"
)

func (s SourceType) Valid() bool {
	return s == SourceTypeTodo || s == SourceTypeFullPageNote
}

type LogStatus string

const (
	LogStatusPending LogStatus = "pending"
	LogStatusSuccess LogStatus = "success"
	LogStatusError   LogStatus = "error"
)

// ExecutionLogEntry records one tool invocation of an agentic run. It is written
// as pending before the tool runs and patched in place once it settles.
type ExecutionLogEntry struct {
	ToolName   string    `json:"toolName"`
	ToolInput  string    `json:"toolInput"`
	ToolResult string    `json:"toolResult,omitempty"`
	Status     LogStatus `json:"status"`
	Timestamp  time.Time `json:"timestamp"`
}

// AgentTask is the durable record of one AI request made from a todo or note.
//
// Lifecycle: pending -> processing -> completed | failed
//
//	completed -> processing (follow-up) -> completed
type AgentTask struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`

	SourceID      string     `json:"sourceId"`
	SourceType    SourceType `json:"sourceType"`
	SourceContent string     `json:"sourceContent"`
	SourceTitle   string     `json:"sourceTitle,omitempty"`

	Provider           Provider `json:"provider"`
	TaskType           TaskType `json:"taskType"`
	CustomInstructions string   `json:"customInstructions,omitempty"`

	Status         TaskStatus `json:"status"`
	Result         string     `json:"result,omitempty"`
	Error          string     `json:"error,omitempty"`
	ActualProvider Provider   `json:"actualProvider,omitempty"`

	Messages     []ConversationMessage `json:"messages,omitempty"`
	ExecutionLog []ExecutionLogEntry   `json:"executionLog,omitempty"`

	FolderID string `json:"folderId,omitempty"`
	Date     string `json:"date,omitempty"`
}

// Validate checks the creation invariants of a task.
func (t AgentTask) Validate() error {
	if t.UserID == "" {
		return fmt.Errorf("user id is required: %w", ErrValidation)
	}
	if !t.SourceType.Valid() {
		return fmt.Errorf("invalid source type %q: %w", t.SourceType, ErrValidation)
	}
	if !t.Provider.Valid() {
		return fmt.Errorf("invalid provider %q: %w", t.Provider, ErrValidation)
	}
	if !t.TaskType.Valid() {
		return fmt.Errorf("invalid task type %q: %w", t.TaskType, ErrValidation)
	}
	if t.TaskType == TaskTypeOther && t.CustomInstructions == "" {
		return fmt.Errorf("custom instructions are required for task type %q: %w", TaskTypeOther, ErrValidation)
	}
	if t.FolderID != "" && t.Date != "" {
		return fmt.Errorf("a task is placed in a folder or on a date, not both: %w", ErrValidation)
	}
	return nil
}

// Transcript returns the logical conversation order: the first answer, then every
// follow-up turn.
func (t AgentTask) Transcript() []ConversationMessage {
	out := make([]ConversationMessage, 0, len(t.Messages)+1)
	if t.Result != "" {
		out = append(out, ConversationMessage{Role: RoleAssistant, Content: t.Result, Timestamp: t.CreatedAt})
	}
	return append(out, t.Messages...)
}

// InitialPrompt is the first user turn of every run: the instructions for
// taskType other, then the source title, then the source content.
func (t AgentTask) InitialPrompt() string {
	var parts []string
	if t.TaskType == TaskTypeOther && strings.TrimSpace(t.CustomInstructions) != "" {
		parts = append(parts, "Instructions: "+strings.TrimSpace(t.CustomInstructions))
	}
	if title := strings.TrimSpace(t.SourceTitle); title != "" {
		parts = append(parts, title)
	}
	parts = append(parts, t.SourceContent)
	return strings.Join(parts, "\n\n")
}
