package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"better-todo/internal/domain/entity"
)

const taskColumns = `
	id, user_id, created_at,
	source_id, source_type, source_content, source_title,
	provider, task_type, custom_instructions,
	status, result, error, actual_provider,
	folder_id, date
`

func (r *Repository) CreateTask(ctx context.Context, t entity.AgentTask) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO agent_tasks (`+taskColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID, t.UserID, toMillis(t.CreatedAt),
			t.SourceID, t.SourceType, t.SourceContent, t.SourceTitle,
			t.Provider, t.TaskType, t.CustomInstructions,
			t.Status, t.Result, t.Error, t.ActualProvider,
			t.FolderID, t.Date,
		)
		if err != nil {
			if strings.Contains(err.Error(), "UNIQUE constraint failed") {
				return fmt.Errorf("task %s already exists: %w", t.ID, entity.ErrValidation)
			}
			return fmt.Errorf("could not insert task: %w", err)
		}
		for i, m := range t.Messages {
			if err := insertMessage(ctx, tx, t.ID, i, m); err != nil {
				return err
			}
		}
		for i, e := range t.ExecutionLog {
			if err := insertLogEntry(ctx, tx, t.ID, i, e); err != nil {
				return err
			}
		}
		r.logger.Debug("created task", "task_id", t.ID)
		return nil
	})
}

func (r *Repository) GetTask(ctx context.Context, id string) (*entity.AgentTask, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM agent_tasks WHERE id = ?`, id)
	return r.loadTask(ctx, row, id)
}

func (r *Repository) GetTaskForOwner(ctx context.Context, id, ownerID string) (*entity.AgentTask, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM agent_tasks WHERE id = ? AND user_id = ?`, id, ownerID)
	return r.loadTask(ctx, row, id)
}

func (r *Repository) loadTask(ctx context.Context, row scanner, id string) (*entity.AgentTask, error) {
	t, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("task %s: %w", id, entity.ErrNotFound)
		}
		return nil, fmt.Errorf("could not query task: %w", err)
	}
	if err := r.loadChildren(ctx, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTasks returns the owner's tasks, newest first.
func (r *Repository) ListTasks(ctx context.Context, ownerID string) ([]entity.AgentTask, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+taskColumns+` FROM agent_tasks
		WHERE user_id = ? ORDER BY created_at DESC, id DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("could not query tasks: %w", err)
	}

	tasks := []entity.AgentTask{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("could not scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	rows.Close()

	// Children are loaded after the cursor is released; the pool holds one connection.
	for i := range tasks {
		if err := r.loadChildren(ctx, &tasks[i]); err != nil {
			return nil, err
		}
	}
	return tasks, nil
}

func (r *Repository) DeleteTask(ctx context.Context, id, ownerID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM agent_tasks WHERE id = ? AND user_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("could not delete task: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("task %s: %w", id, entity.ErrNotFound)
	}
	r.logger.Debug("deleted task", "task_id", id)
	return nil
}

// exec runs a status-only update. Zero affected rows means the task was deleted
// and is not an error.
func (r *Repository) exec(ctx context.Context, query string, args ...any) error {
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("could not update task: %w", err)
	}
	return nil
}

func (r *Repository) MarkProcessing(ctx context.Context, id string) error {
	return r.exec(ctx, `UPDATE agent_tasks SET status = ? WHERE id = ?`, entity.TaskStatusProcessing, id)
}

func (r *Repository) MarkCompleted(ctx context.Context, id, result string, provider entity.Provider) error {
	return r.exec(ctx, `UPDATE agent_tasks SET status = ?, result = ?, actual_provider = ?, error = '' WHERE id = ?`,
		entity.TaskStatusCompleted, result, provider, id)
}

func (r *Repository) MarkFailed(ctx context.Context, id, errMsg string) error {
	return r.exec(ctx, `UPDATE agent_tasks SET status = ?, error = ? WHERE id = ?`, entity.TaskStatusFailed, errMsg, id)
}

func (r *Repository) ResetForRetry(ctx context.Context, id, ownerID string) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		status, err := ownedStatus(ctx, tx, id, ownerID)
		if err != nil {
			return err
		}
		switch {
		case status.Busy():
			return entity.ErrTaskBusy
		case status != entity.TaskStatusFailed:
			return fmt.Errorf("only failed tasks can be retried, task is %s: %w", status, entity.ErrValidation)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE agent_tasks SET status = ?, error = '', actual_provider = '' WHERE id = ?`,
			entity.TaskStatusPending, id); err != nil {
			return fmt.Errorf("could not reset task: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM agent_task_log_entries WHERE task_id = ?`, id); err != nil {
			return fmt.Errorf("could not clear execution log: %w", err)
		}
		return nil
	})
}

func (r *Repository) AppendFollowUp(ctx context.Context, id, ownerID string, msg entity.ConversationMessage) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		status, err := ownedStatus(ctx, tx, id, ownerID)
		if err != nil {
			return err
		}
		if status.Busy() {
			return entity.ErrTaskBusy
		}
		if err := appendMessage(ctx, tx, id, msg); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE agent_tasks SET status = ? WHERE id = ?`, entity.TaskStatusProcessing, id); err != nil {
			return fmt.Errorf("could not update task: %w", err)
		}
		return nil
	})
}

func (r *Repository) AppendAssistantReply(ctx context.Context, id string, msg entity.ConversationMessage) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE agent_tasks SET status = ?, error = '' WHERE id = ?`, entity.TaskStatusCompleted, id)
		if err != nil {
			return fmt.Errorf("could not update task: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil
		}
		return appendMessage(ctx, tx, id, msg)
	})
}

// MarkFollowUpFailed keeps a task without a first answer failed so it can still be retried.
func (r *Repository) MarkFollowUpFailed(ctx context.Context, id, errMsg string) error {
	return r.exec(ctx, `UPDATE agent_tasks SET status = CASE WHEN result = '' THEN ? ELSE ? END, error = ? WHERE id = ?`,
		entity.TaskStatusFailed, entity.TaskStatusCompleted, errMsg, id)
}

func (r *Repository) AppendExecutionLogEntry(ctx context.Context, id string, entry entity.ExecutionLogEntry) (int, error) {
	var index int
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM agent_tasks WHERE id = ?`, id).Scan(&exists); err != nil {
			return fmt.Errorf("could not query task: %w", err)
		}
		if exists == 0 {
			return fmt.Errorf("task %s: %w", id, entity.ErrNotFound)
		}
		if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq) + 1, 0) FROM agent_task_log_entries WHERE task_id = ?`, id).Scan(&index); err != nil {
			return fmt.Errorf("could not get next sequence: %w", err)
		}
		return insertLogEntry(ctx, tx, id, index, entry)
	})
	if err != nil {
		return 0, err
	}
	return index, nil
}

func (r *Repository) UpdateExecutionLogEntry(ctx context.Context, id string, index int, status entity.LogStatus, result string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE agent_task_log_entries SET status = ?, tool_result = ? WHERE task_id = ? AND seq = ?`,
		status, result, id, index)
	if err != nil {
		return fmt.Errorf("could not update log entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("log entry %d of task %s: %w", index, id, entity.ErrNotFound)
	}
	return nil
}

func ownedStatus(ctx context.Context, tx *sql.Tx, id, ownerID string) (entity.TaskStatus, error) {
	var status entity.TaskStatus
	err := tx.QueryRowContext(ctx, `SELECT status FROM agent_tasks WHERE id = ? AND user_id = ?`, id, ownerID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("task %s: %w", id, entity.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("could not query task: %w", err)
	}
	return status, nil
}

func appendMessage(ctx context.Context, tx *sql.Tx, id string, msg entity.ConversationMessage) error {
	var seq int
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq) + 1, 0) FROM agent_task_messages WHERE task_id = ?`, id).Scan(&seq); err != nil {
		return fmt.Errorf("could not get next sequence: %w", err)
	}
	return insertMessage(ctx, tx, id, seq, msg)
}

func insertMessage(ctx context.Context, tx *sql.Tx, id string, seq int, m entity.ConversationMessage) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO agent_task_messages (task_id, seq, role, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, seq, m.Role, m.Content, toMillis(m.Timestamp))
	if err != nil {
		return fmt.Errorf("could not insert message: %w", err)
	}
	return nil
}

func insertLogEntry(ctx context.Context, tx *sql.Tx, id string, seq int, e entity.ExecutionLogEntry) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO agent_task_log_entries (task_id, seq, tool_name, tool_input, tool_result, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, seq, e.ToolName, e.ToolInput, e.ToolResult, e.Status, toMillis(e.Timestamp))
	if err != nil {
		return fmt.Errorf("could not insert log entry: %w", err)
	}
	return nil
}

func scanTask(s scanner) (entity.AgentTask, error) {
	var t entity.AgentTask
	var createdAt int64
	err := s.Scan(
		&t.ID, &t.UserID, &createdAt,
		&t.SourceID, &t.SourceType, &t.SourceContent, &t.SourceTitle,
		&t.Provider, &t.TaskType, &t.CustomInstructions,
		&t.Status, &t.Result, &t.Error, &t.ActualProvider,
		&t.FolderID, &t.Date,
	)
	if err != nil {
		return entity.AgentTask{}, err
	}
	t.CreatedAt = fromMillis(createdAt)
	return t, nil
}

func (r *Repository) loadChildren(ctx context.Context, t *entity.AgentTask) error {
	rows, err := r.db.QueryContext(ctx, `SELECT role, content, created_at FROM agent_task_messages WHERE task_id = ? ORDER BY seq`, t.ID)
	if err != nil {
		return fmt.Errorf("could not query messages: %w", err)
	}
	for rows.Next() {
		var m entity.ConversationMessage
		var ts int64
		if err := rows.Scan(&m.Role, &m.Content, &ts); err != nil {
			rows.Close()
			return fmt.Errorf("could not scan message: %w", err)
		}
		m.Timestamp = fromMillis(ts)
		t.Messages = append(t.Messages, m)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("error iterating messages: %w", err)
	}
	rows.Close()

	rows, err = r.db.QueryContext(ctx, `SELECT tool_name, tool_input, tool_result, status, created_at
		FROM agent_task_log_entries WHERE task_id = ? ORDER BY seq`, t.ID)
	if err != nil {
		return fmt.Errorf("could not query execution log: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var e entity.ExecutionLogEntry
		var ts int64
		if err := rows.Scan(&e.ToolName, &e.ToolInput, &e.ToolResult, &e.Status, &ts); err != nil {
			return fmt.Errorf("could not scan log entry: %w", err)
		}
		e.Timestamp = fromMillis(ts)
		t.ExecutionLog = append(t.ExecutionLog, e)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating execution log: %w", err)
	}
	return nil
}
