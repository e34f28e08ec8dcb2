package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"better-todo/internal/domain/entity"
	"better-todo/internal/infrastructure/storage/memory"
)

func newRepo(t *testing.T) *memory.Repository {
	t.Helper()
	repo, err := memory.NewRepository(memory.RepositoryConfig{})
	require.NoError(t, err)
	return repo
}

func taskFixture(id, owner string, status entity.TaskStatus, createdAt time.Time) entity.AgentTask {
	return entity.AgentTask{
		ID:            id,
		UserID:        owner,
		CreatedAt:     createdAt,
		SourceID:      "todo-1",
		SourceType:    entity.SourceTypeTodo,
		SourceContent: "write a plan",
		Provider:      entity.ProviderClaude,
		TaskType:      entity.TaskTypeExpand,
		Status:        status,
	}
}

func TestTaskTransitions(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := map[string]struct {
		initial   entity.TaskStatus
		actions   func(ctx context.Context, t *testing.T, repo *memory.Repository)
		expStatus entity.TaskStatus
		check     func(t *testing.T, got *entity.AgentTask)
	}{
		"Completing a processing task stores the result and provider": {
			initial: entity.TaskStatusPending,
			actions: func(ctx context.Context, t *testing.T, repo *memory.Repository) {
				require.NoError(t, repo.MarkProcessing(ctx, "t1"))
				require.NoError(t, repo.MarkCompleted(ctx, "t1", "done", entity.ProviderOpenAI))
			},
			expStatus: entity.TaskStatusCompleted,
			check: func(t *testing.T, got *entity.AgentTask) {
				assert.Equal(t, "done", got.Result)
				assert.Equal(t, entity.ProviderOpenAI, got.ActualProvider)
				assert.Equal(t, entity.ProviderClaude, got.Provider)
			},
		},

		"Failing a task records the error": {
			initial: entity.TaskStatusProcessing,
			actions: func(ctx context.Context, t *testing.T, repo *memory.Repository) {
				require.NoError(t, repo.MarkFailed(ctx, "t1", "boom"))
			},
			expStatus: entity.TaskStatusFailed,
			check: func(t *testing.T, got *entity.AgentTask) {
				assert.Equal(t, "boom", got.Error)
			},
		},

		"A follow-up on a processing task is rejected as busy": {
			initial: entity.TaskStatusProcessing,
			actions: func(ctx context.Context, t *testing.T, repo *memory.Repository) {
				err := repo.AppendFollowUp(ctx, "t1", "u1", entity.ConversationMessage{Role: entity.RoleUser, Content: "more"})
				assert.ErrorIs(t, err, entity.ErrTaskBusy)
			},
			expStatus: entity.TaskStatusProcessing,
			check: func(t *testing.T, got *entity.AgentTask) {
				assert.Empty(t, got.Messages)
			},
		},

		"A follow-up reply appends and completes": {
			initial: entity.TaskStatusCompleted,
			actions: func(ctx context.Context, t *testing.T, repo *memory.Repository) {
				require.NoError(t, repo.AppendFollowUp(ctx, "t1", "u1", entity.ConversationMessage{Role: entity.RoleUser, Content: "more"}))
				got, err := repo.GetTask(ctx, "t1")
				require.NoError(t, err)
				assert.Equal(t, entity.TaskStatusProcessing, got.Status)
				require.NoError(t, repo.AppendAssistantReply(ctx, "t1", entity.ConversationMessage{Role: entity.RoleAssistant, Content: "sure"}))
			},
			expStatus: entity.TaskStatusCompleted,
			check: func(t *testing.T, got *entity.AgentTask) {
				require.Len(t, got.Messages, 2)
				assert.Equal(t, entity.RoleUser, got.Messages[0].Role)
				assert.Equal(t, "sure", got.Messages[1].Content)
			},
		},

		"A failed follow-up keeps the task completed": {
			initial: entity.TaskStatusProcessing,
			actions: func(ctx context.Context, t *testing.T, repo *memory.Repository) {
				require.NoError(t, repo.MarkCompleted(ctx, "t1", "1. Outline", entity.ProviderClaude))
				require.NoError(t, repo.AppendFollowUp(ctx, "t1", "u1", entity.ConversationMessage{Role: entity.RoleUser, Content: "more"}))
				require.NoError(t, repo.MarkFollowUpFailed(ctx, "t1", "provider down"))
			},
			expStatus: entity.TaskStatusCompleted,
			check: func(t *testing.T, got *entity.AgentTask) {
				assert.Equal(t, "provider down", got.Error)
				assert.Equal(t, "1. Outline", got.Result)
				assert.Len(t, got.Messages, 1)
			},
		},

		"A failed follow-up on a task without an answer stays failed and retryable": {
			initial: entity.TaskStatusFailed,
			actions: func(ctx context.Context, t *testing.T, repo *memory.Repository) {
				require.NoError(t, repo.AppendFollowUp(ctx, "t1", "u1", entity.ConversationMessage{Role: entity.RoleUser, Content: "more"}))
				require.NoError(t, repo.MarkFollowUpFailed(ctx, "t1", "provider down"))
				got, err := repo.GetTask(ctx, "t1")
				require.NoError(t, err)
				assert.Equal(t, entity.TaskStatusFailed, got.Status)
				assert.Equal(t, "provider down", got.Error)
				require.NoError(t, repo.ResetForRetry(ctx, "t1", "u1"))
			},
			expStatus: entity.TaskStatusPending,
		},

		"A follow-up from another owner is not found": {
			initial: entity.TaskStatusCompleted,
			actions: func(ctx context.Context, t *testing.T, repo *memory.Repository) {
				err := repo.AppendFollowUp(ctx, "t1", "u2", entity.ConversationMessage{Role: entity.RoleUser, Content: "more"})
				assert.ErrorIs(t, err, entity.ErrNotFound)
			},
			expStatus: entity.TaskStatusCompleted,
		},

		"Retrying a failed task resets it": {
			initial: entity.TaskStatusFailed,
			actions: func(ctx context.Context, t *testing.T, repo *memory.Repository) {
				_, err := repo.AppendExecutionLogEntry(ctx, "t1", entity.ExecutionLogEntry{ToolName: "createTodo", Status: entity.LogStatusError})
				require.NoError(t, err)
				require.NoError(t, repo.ResetForRetry(ctx, "t1", "u1"))
			},
			expStatus: entity.TaskStatusPending,
			check: func(t *testing.T, got *entity.AgentTask) {
				assert.Empty(t, got.Error)
				assert.Empty(t, got.ExecutionLog)
			},
		},

		"Retrying a completed task is invalid": {
			initial: entity.TaskStatusCompleted,
			actions: func(ctx context.Context, t *testing.T, repo *memory.Repository) {
				assert.ErrorIs(t, repo.ResetForRetry(ctx, "t1", "u1"), entity.ErrValidation)
			},
			expStatus: entity.TaskStatusCompleted,
		},

		"Status transitions on a deleted task are no-ops": {
			initial: entity.TaskStatusPending,
			actions: func(ctx context.Context, t *testing.T, repo *memory.Repository) {
				require.NoError(t, repo.DeleteTask(ctx, "t1", "u1"))
				assert.NoError(t, repo.MarkProcessing(ctx, "t1"))
				assert.NoError(t, repo.MarkCompleted(ctx, "t1", "x", entity.ProviderClaude))
				assert.NoError(t, repo.MarkFailed(ctx, "t1", "x"))
				require.NoError(t, repo.CreateTask(ctx, taskFixture("t1", "u1", entity.TaskStatusPending, now)))
			},
			expStatus: entity.TaskStatusPending,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := newRepo(t)
			require.NoError(t, repo.CreateTask(ctx, taskFixture("t1", "u1", test.initial, now)))

			test.actions(ctx, t, repo)

			got, err := repo.GetTask(ctx, "t1")
			require.NoError(t, err)
			assert.Equal(t, test.expStatus, got.Status)
			if test.check != nil {
				test.check(t, got)
			}
		})
	}
}

func TestExecutionLogPatchedInPlace(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	require.NoError(t, repo.CreateTask(ctx, taskFixture("t1", "u1", entity.TaskStatusProcessing, time.Now())))

	i0, err := repo.AppendExecutionLogEntry(ctx, "t1", entity.ExecutionLogEntry{ToolName: "createTodo", ToolInput: "{}", Status: entity.LogStatusPending})
	require.NoError(t, err)
	i1, err := repo.AppendExecutionLogEntry(ctx, "t1", entity.ExecutionLogEntry{ToolName: "deleteTodo", ToolInput: "{}", Status: entity.LogStatusPending})
	require.NoError(t, err)
	assert.Equal(t, 0, i0)
	assert.Equal(t, 1, i1)

	require.NoError(t, repo.UpdateExecutionLogEntry(ctx, "t1", i1, entity.LogStatusError, `{"error":"nope"}`))
	require.NoError(t, repo.UpdateExecutionLogEntry(ctx, "t1", i0, entity.LogStatusSuccess, `{"ok":true}`))
	assert.ErrorIs(t, repo.UpdateExecutionLogEntry(ctx, "t1", 5, entity.LogStatusSuccess, ""), entity.ErrNotFound)

	got, err := repo.GetTask(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, got.ExecutionLog, 2)
	assert.Equal(t, entity.LogStatusSuccess, got.ExecutionLog[0].Status)
	assert.Equal(t, "createTodo", got.ExecutionLog[0].ToolName)
	assert.Equal(t, entity.LogStatusError, got.ExecutionLog[1].Status)
	assert.Equal(t, `{"error":"nope"}`, got.ExecutionLog[1].ToolResult)
}

func TestTaskOwnership(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.CreateTask(ctx, taskFixture("a", "u1", entity.TaskStatusPending, base)))
	require.NoError(t, repo.CreateTask(ctx, taskFixture("b", "u1", entity.TaskStatusPending, base.Add(time.Minute))))
	require.NoError(t, repo.CreateTask(ctx, taskFixture("c", "u2", entity.TaskStatusPending, base)))

	_, err := repo.GetTaskForOwner(ctx, "c", "u1")
	assert.ErrorIs(t, err, entity.ErrNotFound)

	list, err := repo.ListTasks(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].ID)
	assert.Equal(t, "a", list[1].ID)

	assert.ErrorIs(t, repo.DeleteTask(ctx, "c", "u1"), entity.ErrNotFound)
	_, err = repo.GetTask(ctx, "c")
	assert.NoError(t, err)
}

func TestReturnedTasksAreCopies(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	require.NoError(t, repo.CreateTask(ctx, taskFixture("t1", "u1", entity.TaskStatusCompleted, time.Now())))
	require.NoError(t, repo.AppendFollowUp(ctx, "t1", "u1", entity.ConversationMessage{Role: entity.RoleUser, Content: "one"}))

	got, err := repo.GetTask(ctx, "t1")
	require.NoError(t, err)
	got.Messages[0].Content = "mutated"

	again, err := repo.GetTask(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "one", again.Messages[0].Content)
}

func TestWorkspace(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	milk, err := repo.CreateTodo(ctx, entity.Todo{UserID: "u1", Content: "Buy milk", Date: "2026-03-02"})
	require.NoError(t, err)
	bread, err := repo.CreateTodo(ctx, entity.Todo{UserID: "u1", Content: "Buy bread", Date: "2026-03-02"})
	require.NoError(t, err)
	_, err = repo.CreateTodo(ctx, entity.Todo{UserID: "u2", Content: "Buy milk", Date: "2026-03-02"})
	require.NoError(t, err)

	found, err := repo.SearchTodos(ctx, "u1", "MILK", 20)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, milk.ID, found[0].ID)

	_, err = repo.MoveTodosToDate(ctx, "u1", []string{milk.ID, "missing"}, "2026-03-05")
	assert.ErrorIs(t, err, entity.ErrNotFound)
	day, err := repo.TodosForDate(ctx, "u1", "2026-03-02")
	require.NoError(t, err)
	assert.Len(t, day, 2, "a failed move must not move anything")

	n, err := repo.MoveTodosToDate(ctx, "u1", []string{milk.ID}, "2026-03-05")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	archived, err := repo.ArchiveDate(ctx, "u1", "2026-03-02")
	require.NoError(t, err)
	assert.Equal(t, 1, archived)
	day, err = repo.TodosForDate(ctx, "u1", "2026-03-02")
	require.NoError(t, err)
	assert.Empty(t, day)

	_, err = repo.UpdateTodo(ctx, "u2", bread.ID, entity.TodoPatch{})
	assert.ErrorIs(t, err, entity.ErrNotFound)

	note, err := repo.CreateNote(ctx, entity.Note{UserID: "u1", Title: "Groceries", Content: "milk, eggs"})
	require.NoError(t, err)
	notes, err := repo.SearchNotes(ctx, "u1", "eggs", 20)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, note.ID, notes[0].ID)
}

func TestSearchFoldsCase(t *testing.T) {
	tests := map[string]struct {
		query    string
		expTodos []string
		expNotes []string
	}{
		"ASCII query in upper case.": {
			query:    "MILK",
			expTodos: []string{"Buy milk"},
			expNotes: []string{"Groceries"},
		},
		"Non-ASCII query in lower case.": {
			query:    "äpfel",
			expTodos: []string{"Äpfel kaufen"},
			expNotes: []string{"Öko-Markt"},
		},
		"Non-ASCII query in upper case.": {
			query:    "ÖKO",
			expNotes: []string{"Öko-Markt"},
		},
		"Cyrillic query.": {
			query:    "молоко",
			expTodos: []string{"Купить МОЛОКО"},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := newRepo(t)
			for _, content := range []string{"Buy milk", "Äpfel kaufen", "Купить МОЛОКО"} {
				_, err := repo.CreateTodo(ctx, entity.Todo{UserID: "u1", Content: content, Date: "2026-03-02"})
				require.NoError(t, err)
			}
			_, err := repo.CreateNote(ctx, entity.Note{UserID: "u1", Title: "Groceries", Content: "Milk and eggs"})
			require.NoError(t, err)
			_, err = repo.CreateNote(ctx, entity.Note{UserID: "u1", Title: "Öko-Markt", Content: "ÄPFEL, Birnen"})
			require.NoError(t, err)

			todos, err := repo.SearchTodos(ctx, "u1", test.query, 20)
			require.NoError(t, err)
			gotTodos := []string{}
			for _, td := range todos {
				gotTodos = append(gotTodos, td.Content)
			}
			assert.ElementsMatch(t, test.expTodos, gotTodos)

			notes, err := repo.SearchNotes(ctx, "u1", test.query, 20)
			require.NoError(t, err)
			gotNotes := []string{}
			for _, n := range notes {
				gotNotes = append(gotNotes, n.Title)
			}
			assert.ElementsMatch(t, test.expNotes, gotNotes)
		})
	}
}

func TestAPIKeys(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	require.NoError(t, repo.SetAPIKey(ctx, "u1", entity.ProviderClaude, "sk-ant", true))
	require.NoError(t, repo.SetAPIKey(ctx, "u1", entity.ProviderOpenAI, "sk-oai", false))
	assert.ErrorIs(t, repo.SetAPIKey(ctx, "u1", "gemini", "x", false), entity.ErrValidation)

	keys, err := repo.AvailableAPIKeys(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, entity.APIKeys{OpenAIAvailable: true, OpenAIKey: "sk-oai"}, keys)
}
