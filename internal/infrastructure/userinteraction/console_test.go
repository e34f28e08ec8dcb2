package userinteraction_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"better-todo/internal/infrastructure/userinteraction"
)

func TestConsoleProgress(t *testing.T) {
	color.NoColor = true

	tests := map[string]struct {
		show   func(p *userinteraction.ConsoleProgress)
		expOut []string
	}{
		"Iteration header.": {
			show:   func(p *userinteraction.ConsoleProgress) { p.ShowIteration(context.Background(), 2, 10) },
			expOut: []string{"Iteration 2/10"},
		},
		"Empty thinking prints nothing.": {
			show: func(p *userinteraction.ConsoleProgress) { p.ShowThinking(context.Background(), "") },
		},
		"Create todo arguments are summarized.": {
			show: func(p *userinteraction.ConsoleProgress) {
				p.ShowToolStart(context.Background(), "createTodo", `{"content":"buy milk","date":"2026-03-11"}`)
			},
			expOut: []string{"Create todo", "buy milk → 2026-03-11"},
		},
		"Move arguments show the target day.": {
			show: func(p *userinteraction.ConsoleProgress) {
				p.ShowToolStart(context.Background(), "moveTodosToDate", `{"todoIds":"a,b","targetDate":"2026-03-12"}`)
			},
			expOut: []string{"Move todos", "a,b → 2026-03-12"},
		},
		"Unknown tools fall back to their name.": {
			show:   func(p *userinteraction.ConsoleProgress) { p.ShowToolStart(context.Background(), "mystery", `not json`) },
			expOut: []string{"🔧 mystery"},
		},
		"Results with a count are summarized.": {
			show: func(p *userinteraction.ConsoleProgress) {
				p.ShowToolResult(context.Background(), "searchTodos", `{"todos":[],"count":3}`, false)
			},
			expOut: []string{"✓ count: 3"},
		},
		"Errors are flagged.": {
			show: func(p *userinteraction.ConsoleProgress) {
				p.ShowToolResult(context.Background(), "deleteTodo", `{"error":"not found"}`, true)
			},
			expOut: []string{"Error:", "not found"},
		},
		"Long thinking is truncated.": {
			show: func(p *userinteraction.ConsoleProgress) {
				p.ShowThinking(context.Background(), strings.Repeat("x", 600))
			},
			expOut: []string{strings.Repeat("x", 500) + "..."},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			test.show(userinteraction.NewConsoleProgress(&buf))

			if len(test.expOut) == 0 {
				assert.Empty(t, buf.String())
			}
			for _, exp := range test.expOut {
				assert.Contains(t, buf.String(), exp)
			}
		})
	}
}
