package entity_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"better-todo/internal/domain/entity"
)

func validTask() entity.AgentTask {
	return entity.AgentTask{
		UserID:        "u1",
		SourceType:    entity.SourceTypeTodo,
		SourceContent: "buy milk",
		Provider:      entity.ProviderClaude,
		TaskType:      entity.TaskTypeExpand,
	}
}

func TestAgentTaskValidate(t *testing.T) {
	tests := map[string]struct {
		mutate func(t *entity.AgentTask)
		expErr bool
	}{
		"Valid task.": {
			mutate: func(*entity.AgentTask) {},
		},
		"Missing user.": {
			mutate: func(t *entity.AgentTask) { t.UserID = "" },
			expErr: true,
		},
		"Unknown source type.": {
			mutate: func(t *entity.AgentTask) { t.SourceType = "page" },
			expErr: true,
		},
		"Unknown provider.": {
			mutate: func(t *entity.AgentTask) { t.Provider = "gemini" },
			expErr: true,
		},
		"Unknown task type.": {
			mutate: func(t *entity.AgentTask) { t.TaskType = "translate" },
			expErr: true,
		},
		"Other without instructions.": {
			mutate: func(t *entity.AgentTask) { t.TaskType = entity.TaskTypeOther },
			expErr: true,
		},
		"Other with instructions.": {
			mutate: func(t *entity.AgentTask) {
				t.TaskType = entity.TaskTypeOther
				t.CustomInstructions = "rhyme it"
			},
		},
		"Folder and date together.": {
			mutate: func(t *entity.AgentTask) {
				t.FolderID = "f1"
				t.Date = "2026-03-10"
			},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			task := validTask()
			test.mutate(&task)

			err := task.Validate()

			if test.expErr {
				assert.ErrorIs(t, err, entity.ErrValidation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAgentTaskInitialPrompt(t *testing.T) {
	tests := map[string]struct {
		task      entity.AgentTask
		expPrompt string
	}{
		"Content only.": {
			task:      entity.AgentTask{TaskType: entity.TaskTypeExpand, SourceContent: "body"},
			expPrompt: "body",
		},
		"Title then content.": {
			task:      entity.AgentTask{TaskType: entity.TaskTypeCode, SourceTitle: " Title ", SourceContent: "body"},
			expPrompt: "Title\n\nbody",
		},
		"Instructions lead for other.": {
			task:      entity.AgentTask{TaskType: entity.TaskTypeOther, CustomInstructions: "rhyme", SourceTitle: "T", SourceContent: "body"},
			expPrompt: "Instructions: rhyme\n\nT\n\nbody",
		},
		"Instructions are ignored for other types.": {
			task:      entity.AgentTask{TaskType: entity.TaskTypeRun, CustomInstructions: "rhyme", SourceContent: "body"},
			expPrompt: "body",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.expPrompt, test.task.InitialPrompt())
		})
	}
}

func TestAgentTaskTranscript(t *testing.T) {
	created := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	follow := []entity.ConversationMessage{
		{Role: entity.RoleUser, Content: "q", Timestamp: created.Add(time.Minute)},
		{Role: entity.RoleAssistant, Content: "a", Timestamp: created.Add(2 * time.Minute)},
	}

	withResult := entity.AgentTask{CreatedAt: created, Result: "first", Messages: follow}
	got := withResult.Transcript()
	assert.Equal(t, append([]entity.ConversationMessage{{Role: entity.RoleAssistant, Content: "first", Timestamp: created}}, follow...), got)

	noResult := entity.AgentTask{Messages: follow}
	assert.Equal(t, follow, noResult.Transcript())
}

func TestStatusAndTypeHelpers(t *testing.T) {
	assert.True(t, entity.TaskStatusPending.Busy())
	assert.True(t, entity.TaskStatusProcessing.Busy())
	assert.False(t, entity.TaskStatusCompleted.Busy())
	assert.False(t, entity.TaskStatusFailed.Busy())

	assert.True(t, entity.TaskTypeRun.Agentic())
	assert.False(t, entity.TaskTypeAnalyze.Agentic())

	assert.Equal(t, entity.ProviderOpenAI, entity.ProviderClaude.Other())
	assert.Equal(t, entity.ProviderClaude, entity.ProviderOpenAI.Other())
}
