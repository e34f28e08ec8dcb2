package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"better-todo/internal/domain/entity"
)

const todoColumns = `id, user_id, content, date, folder_id, completed, archived, created_at`

func (r *Repository) CreateTodo(ctx context.Context, todo entity.Todo) (*entity.Todo, error) {
	if todo.UserID == "" || strings.TrimSpace(todo.Content) == "" {
		return nil, fmt.Errorf("todo needs an owner and content: %w", entity.ErrValidation)
	}
	if todo.ID == "" {
		todo.ID = uuid.NewString()
	}
	if todo.CreatedAt.IsZero() {
		todo.CreatedAt = r.now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `INSERT INTO todos (`+todoColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		todo.ID, todo.UserID, todo.Content, todo.Date, todo.FolderID,
		boolInt(todo.Completed), boolInt(todo.Archived), toMillis(todo.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("could not insert todo: %w", err)
	}
	return &todo, nil
}

func getTodo(ctx context.Context, tx *sql.Tx, userID, todoID string) (*entity.Todo, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+todoColumns+` FROM todos WHERE id = ? AND user_id = ?`, todoID, userID)
	t, err := scanTodo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("todo %s: %w", todoID, entity.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("could not query todo: %w", err)
	}
	return &t, nil
}

func (r *Repository) UpdateTodo(ctx context.Context, userID, todoID string, patch entity.TodoPatch) (*entity.Todo, error) {
	var out *entity.Todo
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		t, err := getTodo(ctx, tx, userID, todoID)
		if err != nil {
			return err
		}
		if patch.Content != nil {
			t.Content = *patch.Content
		}
		if patch.Completed != nil {
			t.Completed = *patch.Completed
		}
		if patch.Date != nil {
			t.Date = *patch.Date
			t.FolderID = ""
		}
		_, err = tx.ExecContext(ctx, `UPDATE todos SET content = ?, completed = ?, date = ?, folder_id = ? WHERE id = ?`,
			t.Content, boolInt(t.Completed), t.Date, t.FolderID, t.ID)
		if err != nil {
			return fmt.Errorf("could not update todo: %w", err)
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repository) DeleteTodo(ctx context.Context, userID, todoID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM todos WHERE id = ? AND user_id = ?`, todoID, userID)
	if err != nil {
		return fmt.Errorf("could not delete todo: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("todo %s: %w", todoID, entity.ErrNotFound)
	}
	return nil
}

// MoveTodosToDate moves every listed todo or none of them.
func (r *Repository) MoveTodosToDate(ctx context.Context, userID string, todoIDs []string, date string) (int, error) {
	if len(todoIDs) == 0 {
		return 0, fmt.Errorf("no todo ids given: %w", entity.ErrValidation)
	}
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		for _, id := range todoIDs {
			res, err := tx.ExecContext(ctx, `UPDATE todos SET date = ?, folder_id = '' WHERE id = ? AND user_id = ?`, date, id, userID)
			if err != nil {
				return fmt.Errorf("could not move todo: %w", err)
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return fmt.Errorf("todo %s: %w", id, entity.ErrNotFound)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(todoIDs), nil
}

func (r *Repository) SearchTodos(ctx context.Context, userID, query string, limit int) ([]entity.Todo, error) {
	return r.queryTodos(ctx, `SELECT `+todoColumns+` FROM todos
		WHERE user_id = ? AND instr(`+foldFunc+`(content), ?) > 0
		ORDER BY created_at, id LIMIT ?`, userID, strings.ToLower(query), sqlLimit(limit))
}

func (r *Repository) TodosForDate(ctx context.Context, userID, date string) ([]entity.Todo, error) {
	return r.queryTodos(ctx, `SELECT `+todoColumns+` FROM todos
		WHERE user_id = ? AND date = ? AND archived = 0
		ORDER BY created_at, id`, userID, date)
}

func (r *Repository) ArchiveDate(ctx context.Context, userID, date string) (int, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE todos SET archived = 1 WHERE user_id = ? AND date = ? AND archived = 0`, userID, date)
	if err != nil {
		return 0, fmt.Errorf("could not archive todos: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("could not get rows affected: %w", err)
	}
	return int(n), nil
}

func (r *Repository) queryTodos(ctx context.Context, query string, args ...any) ([]entity.Todo, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("could not query todos: %w", err)
	}
	defer rows.Close()

	todos := []entity.Todo{}
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, fmt.Errorf("could not scan todo: %w", err)
		}
		todos = append(todos, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return todos, nil
}

func scanTodo(s scanner) (entity.Todo, error) {
	var t entity.Todo
	var completed, archived int
	var createdAt int64
	if err := s.Scan(&t.ID, &t.UserID, &t.Content, &t.Date, &t.FolderID, &completed, &archived, &createdAt); err != nil {
		return entity.Todo{}, err
	}
	t.Completed = completed != 0
	t.Archived = archived != 0
	t.CreatedAt = fromMillis(createdAt)
	return t, nil
}

const noteColumns = `id, user_id, title, content, date, folder_id, created_at`

func (r *Repository) CreateNote(ctx context.Context, note entity.Note) (*entity.Note, error) {
	if note.UserID == "" || strings.TrimSpace(note.Title) == "" {
		return nil, fmt.Errorf("note needs an owner and title: %w", entity.ErrValidation)
	}
	if note.ID == "" {
		note.ID = uuid.NewString()
	}
	if note.CreatedAt.IsZero() {
		note.CreatedAt = r.now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `INSERT INTO notes (`+noteColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		note.ID, note.UserID, note.Title, note.Content, note.Date, note.FolderID, toMillis(note.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("could not insert note: %w", err)
	}
	return &note, nil
}

func (r *Repository) UpdateNote(ctx context.Context, userID, noteID string, patch entity.NotePatch) (*entity.Note, error) {
	var out entity.Note
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `SELECT `+noteColumns+` FROM notes WHERE id = ? AND user_id = ?`, noteID, userID)
		n, err := scanNote(row)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("note %s: %w", noteID, entity.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("could not query note: %w", err)
		}
		if patch.Title != nil {
			n.Title = *patch.Title
		}
		if patch.Content != nil {
			n.Content = *patch.Content
		}
		if _, err := tx.ExecContext(ctx, `UPDATE notes SET title = ?, content = ? WHERE id = ?`, n.Title, n.Content, n.ID); err != nil {
			return fmt.Errorf("could not update note: %w", err)
		}
		out = n
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Repository) SearchNotes(ctx context.Context, userID, query string, limit int) ([]entity.Note, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+noteColumns+` FROM notes
		WHERE user_id = ? AND (instr(`+foldFunc+`(title), ?) > 0 OR instr(`+foldFunc+`(content), ?) > 0)
		ORDER BY created_at DESC, id LIMIT ?`, userID, strings.ToLower(query), strings.ToLower(query), sqlLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("could not query notes: %w", err)
	}
	defer rows.Close()

	notes := []entity.Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("could not scan note: %w", err)
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return notes, nil
}

func scanNote(s scanner) (entity.Note, error) {
	var n entity.Note
	var createdAt int64
	if err := s.Scan(&n.ID, &n.UserID, &n.Title, &n.Content, &n.Date, &n.FolderID, &createdAt); err != nil {
		return entity.Note{}, err
	}
	n.CreatedAt = fromMillis(createdAt)
	return n, nil
}

// sqlLimit maps a non-positive limit to SQLite's "no limit".
func sqlLimit(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}
