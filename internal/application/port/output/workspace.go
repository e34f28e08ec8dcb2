package output

import (
	"context"

	"better-todo/internal/domain/entity"
)

// WorkspacePort is the todo and note store the agent tools act on. Every call is
// scoped to userID; ids owned by another user fail with entity.ErrNotFound.
type WorkspacePort interface {
	CreateTodo(ctx context.Context, todo entity.Todo) (*entity.Todo, error)
	UpdateTodo(ctx context.Context, userID, todoID string, patch entity.TodoPatch) (*entity.Todo, error)
	DeleteTodo(ctx context.Context, userID, todoID string) error
	MoveTodosToDate(ctx context.Context, userID string, todoIDs []string, date string) (int, error)
	SearchTodos(ctx context.Context, userID, query string, limit int) ([]entity.Todo, error)
	TodosForDate(ctx context.Context, userID, date string) ([]entity.Todo, error)
	ArchiveDate(ctx context.Context, userID, date string) (int, error)

	CreateNote(ctx context.Context, note entity.Note) (*entity.Note, error)
	UpdateNote(ctx context.Context, userID, noteID string, patch entity.NotePatch) (*entity.Note, error)
	SearchNotes(ctx context.Context, userID, query string, limit int) ([]entity.Note, error)
}
