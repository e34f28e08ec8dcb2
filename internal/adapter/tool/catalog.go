package tool

import (
	"fmt"

	"better-todo/internal/domain/entity"
)

// Every input is declared as a string. Booleans travel as "true"/"false" and id
// lists as comma-joined strings so every provider's function-calling surface can
// carry them unchanged; handlers parse them into typed inputs.
var catalog = []entity.ToolDefinition{
	{
		Name:        entity.ToolCreateTodo.String(),
		Description: "Create a new todo. Use date for a day list (YYYY-MM-DD) or folderId for a folder. Defaults to today when neither is given.",
		Parameters: objReq(map[string]any{
			"content":  prop("The todo text"),
			"date":     prop("Day to place the todo on, YYYY-MM-DD"),
			"folderId": prop("Folder to place the todo in"),
		}, "content"),
	},
	{
		Name:        entity.ToolUpdateTodo.String(),
		Description: "Update an existing todo's text, completion state or date.",
		Parameters: objReq(map[string]any{
			"todoId":    prop("Id of the todo to update"),
			"content":   prop("New todo text"),
			"completed": propEnum("New completion state", "true", "false"),
			"date":      prop("New day, YYYY-MM-DD"),
		}, "todoId"),
	},
	{
		Name:        entity.ToolCompleteTodo.String(),
		Description: "Mark a todo as completed, or as not completed when completed is \"false\".",
		Parameters: objReq(map[string]any{
			"todoId":    prop("Id of the todo"),
			"completed": propEnum("Completion state, defaults to true", "true", "false"),
		}, "todoId"),
	},
	{
		Name:        entity.ToolDeleteTodo.String(),
		Description: "Delete a todo permanently.",
		Parameters: objReq(map[string]any{
			"todoId": prop("Id of the todo to delete"),
		}, "todoId"),
	},
	{
		Name:        entity.ToolCreateNote.String(),
		Description: "Create a full-page note. Use date (YYYY-MM-DD) or folderId for placement.",
		Parameters: objReq(map[string]any{
			"title":    prop("Note title"),
			"content":  prop("Note body in markdown"),
			"date":     prop("Day to attach the note to, YYYY-MM-DD"),
			"folderId": prop("Folder to place the note in"),
		}, "title", "content"),
	},
	{
		Name:        entity.ToolUpdateNote.String(),
		Description: "Update an existing note's title or content.",
		Parameters: objReq(map[string]any{
			"noteId":  prop("Id of the note to update"),
			"title":   prop("New title"),
			"content": prop("New body in markdown"),
		}, "noteId"),
	},
	{
		Name:        entity.ToolMoveTodosToDate.String(),
		Description: "Move one or more todos to another day.",
		Parameters: objReq(map[string]any{
			"todoIds":    prop("Comma-separated todo ids"),
			"targetDate": prop("Destination day, YYYY-MM-DD"),
		}, "todoIds", "targetDate"),
	},
	{
		Name:        entity.ToolSearchTodos.String(),
		Description: "Search todos by text. Returns up to 20 matches with their ids.",
		Parameters: objReq(map[string]any{
			"query": prop("Text to search for"),
		}, "query"),
	},
	{
		Name:        entity.ToolSearchNotes.String(),
		Description: "Search notes by title or content. Returns up to 20 matches with their ids.",
		Parameters: objReq(map[string]any{
			"query": prop("Text to search for"),
		}, "query"),
	},
	{
		Name:        entity.ToolGetTodosForDate.String(),
		Description: "List the todos of a day.",
		Parameters: objReq(map[string]any{
			"date": prop("Day, YYYY-MM-DD"),
		}, "date"),
	},
	{
		Name:        entity.ToolArchiveDate.String(),
		Description: "Archive every todo of a day.",
		Parameters: objReq(map[string]any{
			"date": prop("Day to archive, YYYY-MM-DD"),
		}, "date"),
	},
}

// Catalog returns the tool definitions in their fixed order.
func Catalog() []entity.ToolDefinition {
	out := make([]entity.ToolDefinition, len(catalog))
	copy(out, catalog)
	return out
}

func definition(name entity.ToolName) entity.ToolDefinition {
	for _, d := range catalog {
		if d.Name == name.String() {
			return d
		}
	}
	panic(fmt.Sprintf("tool %q missing from catalog", name))
}

// Render projects defs into a provider's native tool-description shape. The LLM
// adapters put this projection on the wire.
func Render(format entity.ToolFormat, defs []entity.ToolDefinition) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(defs))
	for _, d := range defs {
		switch format {
		case entity.ToolFormatClaude:
			out = append(out, map[string]any{
				"name":         d.Name,
				"description":  d.Description,
				"input_schema": d.Parameters,
			})
		case entity.ToolFormatOpenAI:
			out = append(out, map[string]any{
				"type": "function",
				"function": map[string]any{
					"name":        d.Name,
					"description": d.Description,
					"parameters":  d.Parameters,
				},
			})
		default:
			return nil, fmt.Errorf("unknown tool format %q: %w", format, entity.ErrValidation)
		}
	}
	return out, nil
}

func prop(desc string) map[string]any {
	return map[string]any{"type": "string", "description": desc}
}

func propEnum(desc string, values ...string) map[string]any {
	p := prop(desc)
	p["enum"] = values
	return p
}

func objReq(properties map[string]any, required ...string) map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
}
