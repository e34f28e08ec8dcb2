package prompts

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"better-todo/internal/domain/entity"
)

//go:embed expand.txt
var ExpandPrompt string

//go:embed code.txt
var CodePrompt string

//go:embed summarize.txt
var SummarizePrompt string

//go:embed analyze.txt
var AnalyzePrompt string

//go:embed other.txt
var OtherPrompt string

//go:embed agent.tmpl
var AgentTemplate string

// Set is the system prompt catalog used by the runners.
type Set struct {
	ByTaskType map[entity.TaskType]string
	Agent      string
}

// Default returns the embedded prompts.
func Default() *Set {
	return &Set{
		ByTaskType: map[entity.TaskType]string{
			entity.TaskTypeExpand:    ExpandPrompt,
			entity.TaskTypeCode:      CodePrompt,
			entity.TaskTypeSummarize: SummarizePrompt,
			entity.TaskTypeAnalyze:   AnalyzePrompt,
			entity.TaskTypeOther:     OtherPrompt,
		},
		Agent: AgentTemplate,
	}
}

// System returns the single-shot prompt of taskType, falling back to expand.
func (s *Set) System(taskType entity.TaskType) string {
	if p, ok := s.ByTaskType[taskType]; ok && p != "" {
		return p
	}
	return s.ByTaskType[entity.TaskTypeExpand]
}

type overrideFile struct {
	TaskTypes map[string]string `yaml:"task_types"`
	Agent     string            `yaml:"agent"`
}

// Load returns the embedded prompts with any entries of the YAML file at path
// replacing them. An empty path yields the defaults.
func Load(path string) (*Set, error) {
	set := Default()
	if path == "" {
		return set, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read prompts file: %w", err)
	}
	var file overrideFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("could not parse prompts file: %w", err)
	}

	for name, prompt := range file.TaskTypes {
		tt := entity.TaskType(name)
		if !tt.Valid() || tt.Agentic() {
			return nil, fmt.Errorf("prompts file: unknown task type %q: %w", name, entity.ErrValidation)
		}
		set.ByTaskType[tt] = prompt
	}
	if file.Agent != "" {
		if _, err := parseAgent(file.Agent); err != nil {
			return nil, fmt.Errorf("prompts file: %w", err)
		}
		set.Agent = file.Agent
	}
	return set, nil
}
