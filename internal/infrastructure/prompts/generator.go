package prompts

import (
	"bytes"
	"fmt"
	"text/template"
	"time"

	"better-todo/internal/domain/entity"
)

type AgentPromptData struct {
	Today    string
	Weekday  string
	Date     string
	FolderID string
}

// NewAgentPromptData places a task in time for the agent template.
func NewAgentPromptData(now time.Time, task entity.AgentTask) AgentPromptData {
	return AgentPromptData{
		Today:    now.Format(entity.DateLayout),
		Weekday:  now.Weekday().String(),
		Date:     task.Date,
		FolderID: task.FolderID,
	}
}

func parseAgent(text string) (*template.Template, error) {
	tmpl, err := template.New("agent").Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("invalid agent template: %w", err)
	}
	return tmpl, nil
}

// GenerateAgentPrompt renders the agent system prompt.
func (s *Set) GenerateAgentPrompt(data AgentPromptData) (string, error) {
	tmpl, err := parseAgent(s.Agent)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
