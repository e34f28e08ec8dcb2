package entity

type ToolName string

const (
	ToolCreateTodo      ToolName = "createTodo"
	ToolUpdateTodo      ToolName = "updateTodo"
	ToolCompleteTodo    ToolName = "completeTodo"
	ToolDeleteTodo      ToolName = "deleteTodo"
	ToolCreateNote      ToolName = "createNote"
	ToolUpdateNote      ToolName = "updateNote"
	ToolMoveTodosToDate ToolName = "moveTodosToDate"
	ToolSearchTodos     ToolName = "searchTodos"
	ToolSearchNotes     ToolName = "searchNotes"
	ToolGetTodosForDate ToolName = "getTodosForDate"
	ToolArchiveDate     ToolName = "archiveDate"
)

func (t ToolName) String() string {
	return string(t)
}

// ToolFormat selects a provider's native tool-description shape.
type ToolFormat string

const (
	ToolFormatClaude ToolFormat = "claude"
	ToolFormatOpenAI ToolFormat = "openai"
)
