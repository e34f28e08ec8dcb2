package userinteraction

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"

	"better-todo/internal/application/port/output"
	"better-todo/internal/domain/entity"
)

var _ output.ProgressReporter = (*ConsoleProgress)(nil)

// ConsoleProgress prints agentic run events for the CLI.
type ConsoleProgress struct {
	out io.Writer
}

func NewConsoleProgress(out io.Writer) *ConsoleProgress {
	if out == nil {
		out = os.Stdout
	}
	return &ConsoleProgress{out: out}
}

func (c *ConsoleProgress) ShowIteration(ctx context.Context, iteration, maxIterations int) {
	color.New(color.FgCyan, color.Bold).Fprintf(c.out, "\n━━━ Iteration %d/%d ━━━\n", iteration, maxIterations)
}

func (c *ConsoleProgress) ShowThinking(ctx context.Context, content string) {
	if content == "" {
		return
	}
	color.New(color.FgBlue).Fprint(c.out, "\n💭 ")
	color.New(color.Faint).Fprintln(c.out, truncate(content, 500))
}

func (c *ConsoleProgress) ShowToolStart(ctx context.Context, toolName, arguments string) {
	icon, name := toolDisplay(toolName)
	color.New(color.FgYellow, color.Bold).Fprintf(c.out, "\n%s %s\n", icon, name)

	if summary := formatToolArguments(toolName, arguments); summary != "" {
		color.New(color.Faint).Fprintf(c.out, "   %s\n", summary)
	}
}

func (c *ConsoleProgress) ShowToolResult(ctx context.Context, toolName, result string, isError bool) {
	if isError {
		color.New(color.FgRed).Fprint(c.out, "❌ Error: ")
		color.New(color.Faint).Fprintln(c.out, truncate(result, 300))
		return
	}
	color.New(color.FgGreen).Fprintf(c.out, "✓ %s\n", formatToolResult(result))
}

func toolDisplay(toolName string) (string, string) {
	displays := map[entity.ToolName][2]string{
		entity.ToolCreateTodo:      {"📝", "Create todo"},
		entity.ToolUpdateTodo:      {"✏️", "Update todo"},
		entity.ToolCompleteTodo:    {"✅", "Complete todo"},
		entity.ToolDeleteTodo:      {"🗑️", "Delete todo"},
		entity.ToolCreateNote:      {"📄", "Create note"},
		entity.ToolUpdateNote:      {"🖊️", "Update note"},
		entity.ToolMoveTodosToDate: {"📅", "Move todos"},
		entity.ToolSearchTodos:     {"🔍", "Search todos"},
		entity.ToolSearchNotes:     {"🔎", "Search notes"},
		entity.ToolGetTodosForDate: {"📋", "Todos for date"},
		entity.ToolArchiveDate:     {"📦", "Archive date"},
	}
	if d, ok := displays[entity.ToolName(toolName)]; ok {
		return d[0], d[1]
	}
	return "🔧", toolName
}

func formatToolArguments(toolName, arguments string) string {
	var args map[string]any
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return ""
	}
	str := func(k string) string {
		v, _ := args[k].(string)
		return v
	}

	switch entity.ToolName(toolName) {
	case entity.ToolCreateTodo:
		where := str("date")
		if f := str("folderId"); f != "" {
			where = "folder " + f
		}
		if where == "" {
			return truncate(str("content"), 80)
		}
		return fmt.Sprintf("%s → %s", truncate(str("content"), 60), where)
	case entity.ToolCreateNote:
		return truncate(str("title"), 80)
	case entity.ToolMoveTodosToDate:
		return fmt.Sprintf("%s → %s", truncate(str("todoIds"), 60), str("targetDate"))
	case entity.ToolSearchTodos, entity.ToolSearchNotes:
		return fmt.Sprintf("Query: %s", truncate(str("query"), 60))
	case entity.ToolGetTodosForDate, entity.ToolArchiveDate:
		return str("date")
	case entity.ToolUpdateTodo, entity.ToolCompleteTodo, entity.ToolDeleteTodo:
		return fmt.Sprintf("Todo: %s", str("todoId"))
	case entity.ToolUpdateNote:
		return fmt.Sprintf("Note: %s", str("noteId"))
	}
	return ""
}

// formatToolResult prefers a count when the result carries one.
func formatToolResult(result string) string {
	var fields map[string]any
	if err := json.Unmarshal([]byte(result), &fields); err == nil {
		for _, k := range []string{"count", "movedCount", "archivedCount"} {
			if n, ok := fields[k].(float64); ok {
				return fmt.Sprintf("%s: %d", k, int(n))
			}
		}
	}
	return truncate(result, 100)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return strings.TrimSpace(s[:cut]) + "..."
}
