package tool

import (
	"context"
	"time"

	"better-todo/internal/application/port/output"
	"better-todo/internal/domain/entity"
)

const searchLimit = 20

// Deps are the collaborators shared by every workspace tool.
type Deps struct {
	Workspace output.WorkspacePort
	Logger    output.LoggerPort
	Now       func() time.Time
}

func (d Deps) today() string {
	now := time.Now
	if d.Now != nil {
		now = d.Now
	}
	return now().Format(entity.DateLayout)
}

// base carries the catalog entry so descriptions live in one place.
type base struct {
	def  entity.ToolDefinition
	deps Deps
}

func newBase(name entity.ToolName, deps Deps) base {
	return base{def: definition(name), deps: deps}
}

func (b base) Name() entity.ToolName              { return entity.ToolName(b.def.Name) }
func (b base) Description() string                { return b.def.Description }
func (b base) Parameters() map[string]interface{} { return b.def.Parameters }

type todoView struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	Date      string `json:"date,omitempty"`
	FolderID  string `json:"folderId,omitempty"`
	Completed bool   `json:"completed"`
}

func viewTodos(todos []entity.Todo) []todoView {
	out := make([]todoView, 0, len(todos))
	for _, t := range todos {
		out = append(out, todoView{ID: t.ID, Content: t.Content, Date: t.Date, FolderID: t.FolderID, Completed: t.Completed})
	}
	return out
}

type CreateTodoTool struct{ base }

func NewCreateTodoTool(deps Deps) *CreateTodoTool {
	return &CreateTodoTool{newBase(entity.ToolCreateTodo, deps)}
}

func (t *CreateTodoTool) Execute(ctx context.Context, userID, arguments string) (any, error) {
	a, err := decodeArgs(arguments)
	if err != nil {
		return nil, err
	}
	content, err := a.required("content")
	if err != nil {
		return nil, err
	}
	date, err := a.optionalDate("date")
	if err != nil {
		return nil, err
	}
	todo := entity.Todo{UserID: userID, Content: content, FolderID: a.str("folderId")}
	switch {
	case date != nil:
		todo.Date = *date
	case todo.FolderID == "":
		todo.Date = t.deps.today()
	}

	created, err := t.deps.Workspace.CreateTodo(ctx, todo)
	if err != nil {
		return nil, err
	}
	t.deps.Logger.Debug("todo created", "todo_id", created.ID, "user_id", userID)
	return map[string]any{
		"success": true,
		"todoId":  created.ID,
		"content": created.Content,
		"date":    created.Date,
	}, nil
}

type UpdateTodoTool struct{ base }

func NewUpdateTodoTool(deps Deps) *UpdateTodoTool {
	return &UpdateTodoTool{newBase(entity.ToolUpdateTodo, deps)}
}

func (t *UpdateTodoTool) Execute(ctx context.Context, userID, arguments string) (any, error) {
	a, err := decodeArgs(arguments)
	if err != nil {
		return nil, err
	}
	id, err := a.required("todoId")
	if err != nil {
		return nil, err
	}
	completed, err := a.optionalBool("completed")
	if err != nil {
		return nil, err
	}
	date, err := a.optionalDate("date")
	if err != nil {
		return nil, err
	}
	patch := entity.TodoPatch{Content: a.optionalPtr("content"), Completed: completed, Date: date}
	if patch.Content != nil && *patch.Content == "" {
		patch.Content = nil
	}

	updated, err := t.deps.Workspace.UpdateTodo(ctx, userID, id, patch)
	if err != nil {
		return nil, err
	}
	return map[string]any{"success": true, "todo": viewTodos([]entity.Todo{*updated})[0]}, nil
}

type CompleteTodoTool struct{ base }

func NewCompleteTodoTool(deps Deps) *CompleteTodoTool {
	return &CompleteTodoTool{newBase(entity.ToolCompleteTodo, deps)}
}

func (t *CompleteTodoTool) Execute(ctx context.Context, userID, arguments string) (any, error) {
	a, err := decodeArgs(arguments)
	if err != nil {
		return nil, err
	}
	id, err := a.required("todoId")
	if err != nil {
		return nil, err
	}
	completed, err := a.optionalBool("completed")
	if err != nil {
		return nil, err
	}
	if completed == nil {
		yes := true
		completed = &yes
	}

	if _, err := t.deps.Workspace.UpdateTodo(ctx, userID, id, entity.TodoPatch{Completed: completed}); err != nil {
		return nil, err
	}
	return map[string]any{"success": true, "todoId": id, "completed": *completed}, nil
}

type DeleteTodoTool struct{ base }

func NewDeleteTodoTool(deps Deps) *DeleteTodoTool {
	return &DeleteTodoTool{newBase(entity.ToolDeleteTodo, deps)}
}

func (t *DeleteTodoTool) Execute(ctx context.Context, userID, arguments string) (any, error) {
	a, err := decodeArgs(arguments)
	if err != nil {
		return nil, err
	}
	id, err := a.required("todoId")
	if err != nil {
		return nil, err
	}
	if err := t.deps.Workspace.DeleteTodo(ctx, userID, id); err != nil {
		return nil, err
	}
	return map[string]any{"success": true, "todoId": id}, nil
}

type CreateNoteTool struct{ base }

func NewCreateNoteTool(deps Deps) *CreateNoteTool {
	return &CreateNoteTool{newBase(entity.ToolCreateNote, deps)}
}

func (t *CreateNoteTool) Execute(ctx context.Context, userID, arguments string) (any, error) {
	a, err := decodeArgs(arguments)
	if err != nil {
		return nil, err
	}
	title, err := a.required("title")
	if err != nil {
		return nil, err
	}
	date, err := a.optionalDate("date")
	if err != nil {
		return nil, err
	}
	note := entity.Note{UserID: userID, Title: title, Content: a.str("content"), FolderID: a.str("folderId")}
	if date != nil {
		note.Date = *date
	}

	created, err := t.deps.Workspace.CreateNote(ctx, note)
	if err != nil {
		return nil, err
	}
	return map[string]any{"success": true, "noteId": created.ID, "title": created.Title}, nil
}

type UpdateNoteTool struct{ base }

func NewUpdateNoteTool(deps Deps) *UpdateNoteTool {
	return &UpdateNoteTool{newBase(entity.ToolUpdateNote, deps)}
}

func (t *UpdateNoteTool) Execute(ctx context.Context, userID, arguments string) (any, error) {
	a, err := decodeArgs(arguments)
	if err != nil {
		return nil, err
	}
	id, err := a.required("noteId")
	if err != nil {
		return nil, err
	}
	patch := entity.NotePatch{Title: a.optionalPtr("title"), Content: a.optionalPtr("content")}
	if patch.Title != nil && *patch.Title == "" {
		patch.Title = nil
	}

	updated, err := t.deps.Workspace.UpdateNote(ctx, userID, id, patch)
	if err != nil {
		return nil, err
	}
	return map[string]any{"success": true, "noteId": updated.ID, "title": updated.Title}, nil
}

type MoveTodosToDateTool struct{ base }

func NewMoveTodosToDateTool(deps Deps) *MoveTodosToDateTool {
	return &MoveTodosToDateTool{newBase(entity.ToolMoveTodosToDate, deps)}
}

func (t *MoveTodosToDateTool) Execute(ctx context.Context, userID, arguments string) (any, error) {
	a, err := decodeArgs(arguments)
	if err != nil {
		return nil, err
	}
	raw, err := a.required("todoIds")
	if err != nil {
		return nil, err
	}
	ids := parseIDList(raw)
	target, err := a.requiredDate("targetDate")
	if err != nil {
		return nil, err
	}

	moved, err := t.deps.Workspace.MoveTodosToDate(ctx, userID, ids, target)
	if err != nil {
		return nil, err
	}
	return map[string]any{"success": true, "movedCount": moved, "targetDate": target}, nil
}

type SearchTodosTool struct{ base }

func NewSearchTodosTool(deps Deps) *SearchTodosTool {
	return &SearchTodosTool{newBase(entity.ToolSearchTodos, deps)}
}

func (t *SearchTodosTool) Execute(ctx context.Context, userID, arguments string) (any, error) {
	a, err := decodeArgs(arguments)
	if err != nil {
		return nil, err
	}
	query, err := a.required("query")
	if err != nil {
		return nil, err
	}
	todos, err := t.deps.Workspace.SearchTodos(ctx, userID, query, searchLimit)
	if err != nil {
		return nil, err
	}
	return map[string]any{"todos": viewTodos(todos), "count": len(todos)}, nil
}

type SearchNotesTool struct{ base }

func NewSearchNotesTool(deps Deps) *SearchNotesTool {
	return &SearchNotesTool{newBase(entity.ToolSearchNotes, deps)}
}

func (t *SearchNotesTool) Execute(ctx context.Context, userID, arguments string) (any, error) {
	a, err := decodeArgs(arguments)
	if err != nil {
		return nil, err
	}
	query, err := a.required("query")
	if err != nil {
		return nil, err
	}
	notes, err := t.deps.Workspace.SearchNotes(ctx, userID, query, searchLimit)
	if err != nil {
		return nil, err
	}

	type noteView struct {
		ID      string `json:"id"`
		Title   string `json:"title"`
		Snippet string `json:"snippet"`
		Date    string `json:"date,omitempty"`
	}
	views := make([]noteView, 0, len(notes))
	for _, n := range notes {
		views = append(views, noteView{ID: n.ID, Title: n.Title, Snippet: snippet(n.Content, 200), Date: n.Date})
	}
	return map[string]any{"notes": views, "count": len(views)}, nil
}

type GetTodosForDateTool struct{ base }

func NewGetTodosForDateTool(deps Deps) *GetTodosForDateTool {
	return &GetTodosForDateTool{newBase(entity.ToolGetTodosForDate, deps)}
}

func (t *GetTodosForDateTool) Execute(ctx context.Context, userID, arguments string) (any, error) {
	a, err := decodeArgs(arguments)
	if err != nil {
		return nil, err
	}
	date, err := a.requiredDate("date")
	if err != nil {
		return nil, err
	}
	todos, err := t.deps.Workspace.TodosForDate(ctx, userID, date)
	if err != nil {
		return nil, err
	}
	return map[string]any{"date": date, "todos": viewTodos(todos), "count": len(todos)}, nil
}

type ArchiveDateTool struct{ base }

func NewArchiveDateTool(deps Deps) *ArchiveDateTool {
	return &ArchiveDateTool{newBase(entity.ToolArchiveDate, deps)}
}

func (t *ArchiveDateTool) Execute(ctx context.Context, userID, arguments string) (any, error) {
	a, err := decodeArgs(arguments)
	if err != nil {
		return nil, err
	}
	date, err := a.requiredDate("date")
	if err != nil {
		return nil, err
	}
	n, err := t.deps.Workspace.ArchiveDate(ctx, userID, date)
	if err != nil {
		return nil, err
	}
	return map[string]any{"success": true, "date": date, "archivedCount": n}, nil
}

// snippet cuts s to at most n runes.
func snippet(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}

// All builds every catalog tool in catalog order.
func All(deps Deps) []output.ToolPort {
	return []output.ToolPort{
		NewCreateTodoTool(deps),
		NewUpdateTodoTool(deps),
		NewCompleteTodoTool(deps),
		NewDeleteTodoTool(deps),
		NewCreateNoteTool(deps),
		NewUpdateNoteTool(deps),
		NewMoveTodosToDateTool(deps),
		NewSearchTodosTool(deps),
		NewSearchNotesTool(deps),
		NewGetTodosForDateTool(deps),
		NewArchiveDateTool(deps),
	}
}

// Register adds every catalog tool to registry.
func Register(registry output.ToolRegistry, deps Deps) {
	for _, t := range All(deps) {
		registry.Register(t)
	}
}
