package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"better-todo/internal/application/port/output"
	"better-todo/internal/domain/entity"
	"better-todo/internal/infrastructure/logger"
)

// RepositoryConfig is the configuration for the memory repository.
type RepositoryConfig struct {
	Logger output.LoggerPort
	Now    func() time.Time
}

func (c *RepositoryConfig) defaults() error {
	if c.Logger == nil {
		c.Logger = logger.NewNop()
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	c.Logger = c.Logger.WithField("svc", "storage.Memory")
	return nil
}

type apiKey struct {
	key    string
	paused bool
}

// Repository is an in-memory task, workspace and API key store. Reads return
// copies so callers never alias stored state.
type Repository struct {
	tasks  map[string]entity.AgentTask
	todos  map[string]entity.Todo
	notes  map[string]entity.Note
	keys   map[string]map[entity.Provider]apiKey
	mu     sync.RWMutex
	now    func() time.Time
	logger output.LoggerPort
}

var (
	_ output.TaskRepository = (*Repository)(nil)
	_ output.WorkspacePort  = (*Repository)(nil)
	_ output.APIKeyStore    = (*Repository)(nil)
)

// NewRepository creates a new memory repository.
func NewRepository(cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Repository{
		tasks:  make(map[string]entity.AgentTask),
		todos:  make(map[string]entity.Todo),
		notes:  make(map[string]entity.Note),
		keys:   make(map[string]map[entity.Provider]apiKey),
		now:    cfg.Now,
		logger: cfg.Logger,
	}, nil
}

func cloneTask(t entity.AgentTask) entity.AgentTask {
	t.Messages = append([]entity.ConversationMessage(nil), t.Messages...)
	t.ExecutionLog = append([]entity.ExecutionLogEntry(nil), t.ExecutionLog...)
	return t
}

func (r *Repository) CreateTask(ctx context.Context, t entity.AgentTask) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[t.ID]; ok {
		return fmt.Errorf("task %s already exists: %w", t.ID, entity.ErrValidation)
	}
	r.tasks[t.ID] = cloneTask(t)
	r.logger.Debug("created task", "task_id", t.ID)
	return nil
}

func (r *Repository) GetTask(ctx context.Context, id string) (*entity.AgentTask, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tasks[id]
	if !ok {
		return nil, fmt.Errorf("task %s: %w", id, entity.ErrNotFound)
	}
	c := cloneTask(t)
	return &c, nil
}

func (r *Repository) GetTaskForOwner(ctx context.Context, id, ownerID string) (*entity.AgentTask, error) {
	t, err := r.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.UserID != ownerID {
		return nil, fmt.Errorf("task %s: %w", id, entity.ErrNotFound)
	}
	return t, nil
}

// ListTasks returns the owner's tasks, newest first.
func (r *Repository) ListTasks(ctx context.Context, ownerID string) ([]entity.AgentTask, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []entity.AgentTask{}
	for _, t := range r.tasks {
		if t.UserID == ownerID {
			out = append(out, cloneTask(t))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *Repository) DeleteTask(ctx context.Context, id, ownerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok || t.UserID != ownerID {
		return fmt.Errorf("task %s: %w", id, entity.ErrNotFound)
	}
	delete(r.tasks, id)
	r.logger.Debug("deleted task", "task_id", id)
	return nil
}

// update applies fn to a stored task. Missing tasks are skipped silently.
func (r *Repository) update(id string, fn func(t *entity.AgentTask)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok {
		r.logger.Debug("task vanished before update", "task_id", id)
		return
	}
	fn(&t)
	r.tasks[id] = t
}

func (r *Repository) MarkProcessing(ctx context.Context, id string) error {
	r.update(id, func(t *entity.AgentTask) { t.Status = entity.TaskStatusProcessing })
	return nil
}

func (r *Repository) MarkCompleted(ctx context.Context, id, result string, provider entity.Provider) error {
	r.update(id, func(t *entity.AgentTask) {
		t.Status = entity.TaskStatusCompleted
		t.Result = result
		t.ActualProvider = provider
		t.Error = ""
	})
	return nil
}

func (r *Repository) MarkFailed(ctx context.Context, id, errMsg string) error {
	r.update(id, func(t *entity.AgentTask) {
		t.Status = entity.TaskStatusFailed
		t.Error = errMsg
	})
	return nil
}

func (r *Repository) ResetForRetry(ctx context.Context, id, ownerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok || t.UserID != ownerID {
		return fmt.Errorf("task %s: %w", id, entity.ErrNotFound)
	}
	if err := checkRetryable(t.Status); err != nil {
		return err
	}
	t.Status = entity.TaskStatusPending
	t.Error = ""
	t.ActualProvider = ""
	t.ExecutionLog = nil
	r.tasks[id] = t
	return nil
}

func checkRetryable(s entity.TaskStatus) error {
	switch {
	case s.Busy():
		return entity.ErrTaskBusy
	case s != entity.TaskStatusFailed:
		return fmt.Errorf("only failed tasks can be retried, task is %s: %w", s, entity.ErrValidation)
	}
	return nil
}

func (r *Repository) AppendFollowUp(ctx context.Context, id, ownerID string, msg entity.ConversationMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok || t.UserID != ownerID {
		return fmt.Errorf("task %s: %w", id, entity.ErrNotFound)
	}
	if t.Status.Busy() {
		return entity.ErrTaskBusy
	}
	t.Messages = append(append([]entity.ConversationMessage(nil), t.Messages...), msg)
	t.Status = entity.TaskStatusProcessing
	r.tasks[id] = t
	return nil
}

func (r *Repository) AppendAssistantReply(ctx context.Context, id string, msg entity.ConversationMessage) error {
	r.update(id, func(t *entity.AgentTask) {
		t.Messages = append(append([]entity.ConversationMessage(nil), t.Messages...), msg)
		t.Status = entity.TaskStatusCompleted
		t.Error = ""
	})
	return nil
}

func (r *Repository) MarkFollowUpFailed(ctx context.Context, id, errMsg string) error {
	r.update(id, func(t *entity.AgentTask) {
		t.Status = entity.TaskStatusCompleted
		if t.Result == "" {
			t.Status = entity.TaskStatusFailed
		}
		t.Error = errMsg
	})
	return nil
}

func (r *Repository) AppendExecutionLogEntry(ctx context.Context, id string, entry entity.ExecutionLogEntry) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok {
		return 0, fmt.Errorf("task %s: %w", id, entity.ErrNotFound)
	}
	t.ExecutionLog = append(append([]entity.ExecutionLogEntry(nil), t.ExecutionLog...), entry)
	r.tasks[id] = t
	return len(t.ExecutionLog) - 1, nil
}

func (r *Repository) UpdateExecutionLogEntry(ctx context.Context, id string, index int, status entity.LogStatus, result string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok {
		return fmt.Errorf("task %s: %w", id, entity.ErrNotFound)
	}
	if index < 0 || index >= len(t.ExecutionLog) {
		return fmt.Errorf("log entry %d of task %s: %w", index, id, entity.ErrNotFound)
	}
	log := append([]entity.ExecutionLogEntry(nil), t.ExecutionLog...)
	log[index].Status = status
	log[index].ToolResult = result
	t.ExecutionLog = log
	r.tasks[id] = t
	return nil
}

func (r *Repository) CreateTodo(ctx context.Context, todo entity.Todo) (*entity.Todo, error) {
	if todo.UserID == "" || strings.TrimSpace(todo.Content) == "" {
		return nil, fmt.Errorf("todo needs an owner and content: %w", entity.ErrValidation)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if todo.ID == "" {
		todo.ID = uuid.NewString()
	}
	if todo.CreatedAt.IsZero() {
		todo.CreatedAt = r.now().UTC()
	}
	r.todos[todo.ID] = todo
	return &todo, nil
}

func (r *Repository) ownedTodo(userID, todoID string) (entity.Todo, error) {
	t, ok := r.todos[todoID]
	if !ok || t.UserID != userID {
		return entity.Todo{}, fmt.Errorf("todo %s: %w", todoID, entity.ErrNotFound)
	}
	return t, nil
}

func (r *Repository) UpdateTodo(ctx context.Context, userID, todoID string, patch entity.TodoPatch) (*entity.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, err := r.ownedTodo(userID, todoID)
	if err != nil {
		return nil, err
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
	r.todos[todoID] = t
	return &t, nil
}

func (r *Repository) DeleteTodo(ctx context.Context, userID, todoID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.ownedTodo(userID, todoID); err != nil {
		return err
	}
	delete(r.todos, todoID)
	return nil
}

// MoveTodosToDate moves every listed todo or none of them.
func (r *Repository) MoveTodosToDate(ctx context.Context, userID string, todoIDs []string, date string) (int, error) {
	if len(todoIDs) == 0 {
		return 0, fmt.Errorf("no todo ids given: %w", entity.ErrValidation)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range todoIDs {
		if _, err := r.ownedTodo(userID, id); err != nil {
			return 0, err
		}
	}
	for _, id := range todoIDs {
		t := r.todos[id]
		t.Date = date
		t.FolderID = ""
		r.todos[id] = t
	}
	return len(todoIDs), nil
}

func (r *Repository) SearchTodos(ctx context.Context, userID, query string, limit int) ([]entity.Todo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	q := strings.ToLower(query)
	out := []entity.Todo{}
	for _, t := range r.todos {
		if t.UserID == userID && strings.Contains(strings.ToLower(t.Content), q) {
			out = append(out, t)
		}
	}
	sortTodos(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *Repository) TodosForDate(ctx context.Context, userID, date string) ([]entity.Todo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []entity.Todo{}
	for _, t := range r.todos {
		if t.UserID == userID && t.Date == date && !t.Archived {
			out = append(out, t)
		}
	}
	sortTodos(out)
	return out, nil
}

func (r *Repository) ArchiveDate(ctx context.Context, userID, date string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for id, t := range r.todos {
		if t.UserID == userID && t.Date == date && !t.Archived {
			t.Archived = true
			r.todos[id] = t
			n++
		}
	}
	return n, nil
}

func sortTodos(todos []entity.Todo) {
	sort.Slice(todos, func(i, j int) bool {
		if !todos[i].CreatedAt.Equal(todos[j].CreatedAt) {
			return todos[i].CreatedAt.Before(todos[j].CreatedAt)
		}
		return todos[i].ID < todos[j].ID
	})
}

func (r *Repository) CreateNote(ctx context.Context, note entity.Note) (*entity.Note, error) {
	if note.UserID == "" || strings.TrimSpace(note.Title) == "" {
		return nil, fmt.Errorf("note needs an owner and title: %w", entity.ErrValidation)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if note.ID == "" {
		note.ID = uuid.NewString()
	}
	if note.CreatedAt.IsZero() {
		note.CreatedAt = r.now().UTC()
	}
	r.notes[note.ID] = note
	return &note, nil
}

func (r *Repository) UpdateNote(ctx context.Context, userID, noteID string, patch entity.NotePatch) (*entity.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.notes[noteID]
	if !ok || n.UserID != userID {
		return nil, fmt.Errorf("note %s: %w", noteID, entity.ErrNotFound)
	}
	if patch.Title != nil {
		n.Title = *patch.Title
	}
	if patch.Content != nil {
		n.Content = *patch.Content
	}
	r.notes[noteID] = n
	return &n, nil
}

func (r *Repository) SearchNotes(ctx context.Context, userID, query string, limit int) ([]entity.Note, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	q := strings.ToLower(query)
	out := []entity.Note{}
	for _, n := range r.notes {
		if n.UserID != userID {
			continue
		}
		if strings.Contains(strings.ToLower(n.Title), q) || strings.Contains(strings.ToLower(n.Content), q) {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *Repository) SetAPIKey(ctx context.Context, userID string, provider entity.Provider, key string, paused bool) error {
	if !provider.Valid() {
		return fmt.Errorf("invalid provider %q: %w", provider, entity.ErrValidation)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.keys[userID] == nil {
		r.keys[userID] = make(map[entity.Provider]apiKey)
	}
	r.keys[userID][provider] = apiKey{key: key, paused: paused}
	return nil
}

func (r *Repository) AvailableAPIKeys(ctx context.Context, userID string) (entity.APIKeys, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out entity.APIKeys
	if k, ok := r.keys[userID][entity.ProviderClaude]; ok && k.key != "" && !k.paused {
		out.AnthropicAvailable, out.AnthropicKey = true, k.key
	}
	if k, ok := r.keys[userID][entity.ProviderOpenAI]; ok && k.key != "" && !k.paused {
		out.OpenAIAvailable, out.OpenAIKey = true, k.key
	}
	return out, nil
}
