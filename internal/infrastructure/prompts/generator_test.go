package prompts_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"better-todo/internal/domain/entity"
	"better-todo/internal/infrastructure/prompts"
)

func TestGenerateAgentPrompt(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	tests := map[string]struct {
		task      entity.AgentTask
		contains  []string
		forbidden []string
	}{
		"A dated task mentions its day": {
			task:     entity.AgentTask{Date: "2026-03-09"},
			contains: []string{"Today is Tuesday, 2026-03-10", "from the day 2026-03-09"},
		},
		"A folder task mentions its folder": {
			task:      entity.AgentTask{FolderID: "f-42"},
			contains:  []string{"from folder f-42"},
			forbidden: []string{"from the day"},
		},
		"An unplaced task only gets today": {
			task:      entity.AgentTask{},
			contains:  []string{"2026-03-10"},
			forbidden: []string{"from the day", "from folder"},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := prompts.Default().GenerateAgentPrompt(prompts.NewAgentPromptData(now, test.task))
			require.NoError(t, err)
			for _, c := range test.contains {
				assert.Contains(t, got, c)
			}
			for _, f := range test.forbidden {
				assert.NotContains(t, got, f)
			}
		})
	}
}

func TestSystemFallsBackToExpand(t *testing.T) {
	set := prompts.Default()
	assert.Equal(t, prompts.CodePrompt, set.System(entity.TaskTypeCode))
	assert.Equal(t, prompts.ExpandPrompt, set.System("unknown"))
	assert.Equal(t, prompts.ExpandPrompt, set.System(entity.TaskTypeRun))
}

func TestLoad(t *testing.T) {
	write := func(t *testing.T, content string) string {
		p := filepath.Join(t.TempDir(), "prompts.yaml")
		require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
		return p
	}

	tests := map[string]struct {
		content string
		expErr  bool
		check   func(t *testing.T, s *prompts.Set)
	}{
		"Overrides replace only the named prompts": {
			content: "task_types:\n  summarize: Be terse.\nagent: \"Today is {{.Today}}.\"\n",
			check: func(t *testing.T, s *prompts.Set) {
				assert.Equal(t, "Be terse.", s.System(entity.TaskTypeSummarize))
				assert.Equal(t, prompts.AnalyzePrompt, s.System(entity.TaskTypeAnalyze))
				got, err := s.GenerateAgentPrompt(prompts.AgentPromptData{Today: "2026-01-01"})
				require.NoError(t, err)
				assert.Equal(t, "Today is 2026-01-01.", got)
			},
		},
		"Unknown task types are rejected": {
			content: "task_types:\n  poem: Rhyme.\n",
			expErr:  true,
		},
		"A broken agent template is rejected": {
			content: "agent: \"{{.Today\"\n",
			expErr:  true,
		},
		"Malformed YAML is rejected": {
			content: "task_types: [",
			expErr:  true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			set, err := prompts.Load(write(t, test.content))
			if test.expErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			test.check(t, set)
		})
	}
}

func TestLoadWithoutPath(t *testing.T) {
	set, err := prompts.Load("")
	require.NoError(t, err)
	assert.NotEmpty(t, set.Agent)
	for _, tt := range []entity.TaskType{entity.TaskTypeExpand, entity.TaskTypeCode, entity.TaskTypeSummarize, entity.TaskTypeAnalyze, entity.TaskTypeOther} {
		assert.NotEmpty(t, set.System(tt), tt)
	}
}
