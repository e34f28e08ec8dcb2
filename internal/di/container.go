package di

import (
	"context"
	"fmt"
	"time"

	"better-todo/internal/adapter/tool"
	"better-todo/internal/application/port/output"
	"better-todo/internal/application/service"
	"better-todo/internal/domain/entity"
	"better-todo/internal/infrastructure/credentials"
	"better-todo/internal/infrastructure/llm"
	"better-todo/internal/infrastructure/llm/anthropic"
	"better-todo/internal/infrastructure/llm/openai"
	"better-todo/internal/infrastructure/logger"
	"better-todo/internal/infrastructure/prompts"
	"better-todo/internal/infrastructure/scheduler"
	"better-todo/internal/infrastructure/storage/memory"
	"better-todo/internal/infrastructure/storage/sqlite"
	"better-todo/internal/usecase/executor"
	"better-todo/internal/usecase/followup"
	"better-todo/internal/usecase/singleshot"
	"better-todo/internal/usecase/tasks"
)

// store is what both storage backends provide.
type store interface {
	output.TaskRepository
	output.WorkspacePort
	output.APIKeyStore
}

type Container struct {
	Logger      output.LoggerPort
	Store       store
	Credentials output.CredentialsPort
	LLM         output.LLMPort
	Tools       *service.ToolRegistryImpl
	Prompts     *prompts.Set
	Scheduler   *scheduler.Scheduler
	Service     *tasks.Service

	closers []func() error
}

type Config struct {
	LogLevel  string
	LogFormat string

	// DBPath selects SQLite storage; empty keeps everything in memory.
	DBPath string
	// EnvCredentials serves the operator keys from Env to every user instead of
	// the per-user key store.
	EnvCredentials bool
	Env            output.ConfigPort

	AnthropicModel   string
	AnthropicBaseURL string
	OpenAIModel      string
	OpenAIBaseURL    string
	MaxTokens        int
	HTTPTimeout      time.Duration

	Workers     int
	PromptsFile string
	Progress    output.ProgressReporter
}

func NewContainer(ctx context.Context, cfg Config) (*Container, error) {
	log, err := logger.NewLoggerAdapter(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Service: "bettertodo"})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	c := &Container{Logger: log, closers: []func() error{log.Close}}

	if err := c.build(ctx, cfg); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Container) build(ctx context.Context, cfg Config) error {
	if cfg.DBPath != "" {
		repo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{DBPath: cfg.DBPath, Logger: c.Logger})
		if err != nil {
			return fmt.Errorf("failed to open storage: %w", err)
		}
		c.Store = repo
		c.closers = append(c.closers, repo.Close)
	} else {
		repo, err := memory.NewRepository(memory.RepositoryConfig{Logger: c.Logger})
		if err != nil {
			return fmt.Errorf("failed to create storage: %w", err)
		}
		c.Store = repo
	}

	c.Credentials = c.Store
	if cfg.EnvCredentials {
		if cfg.Env == nil {
			return fmt.Errorf("env credentials need a config source")
		}
		c.Credentials = credentials.NewEnvProvider(cfg.Env)
	}

	c.Prompts = prompts.Default()
	if cfg.PromptsFile != "" {
		set, err := prompts.Load(cfg.PromptsFile)
		if err != nil {
			return fmt.Errorf("failed to load prompts: %w", err)
		}
		c.Prompts = set
	}

	gateway, err := c.newGateway(cfg)
	if err != nil {
		return err
	}
	c.LLM = gateway

	c.Tools = service.NewToolRegistry()
	tool.Register(c.Tools, tool.Deps{Workspace: c.Store, Logger: c.Logger, Now: time.Now})

	c.Scheduler, err = scheduler.New(scheduler.Config{Workers: cfg.Workers, Logger: c.Logger})
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	agentic, err := executor.New(executor.Config{
		LLM:         c.LLM,
		Tools:       c.Tools,
		Tasks:       c.Store,
		Credentials: c.Credentials,
		Prompt: func(now time.Time, task entity.AgentTask) (string, error) {
			return c.Prompts.GenerateAgentPrompt(prompts.NewAgentPromptData(now, task))
		},
		Progress: cfg.Progress,
		Logger:   c.Logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create executor: %w", err)
	}

	single, err := singleshot.New(singleshot.Config{
		LLM: c.LLM, Tasks: c.Store, Credentials: c.Credentials, Prompt: c.Prompts.System, Logger: c.Logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create single-shot runner: %w", err)
	}

	follow, err := followup.New(followup.Config{
		LLM: c.LLM, Tasks: c.Store, Credentials: c.Credentials, Prompt: c.Prompts.System, Logger: c.Logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create follow-up runner: %w", err)
	}

	c.Service, err = tasks.New(tasks.Config{
		Tasks:      c.Store,
		Workspace:  c.Store,
		Scheduler:  c.Scheduler,
		Agentic:    agentic,
		SingleShot: single,
		FollowUp:   follow,
		Logger:     c.Logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create task service: %w", err)
	}
	return nil
}

func (c *Container) newGateway(cfg Config) (*llm.Gateway, error) {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	httpClient := llm.NewHTTPClient(timeout, c.Logger)

	claude, err := anthropic.NewAdapter(anthropic.Config{
		Model:      cfg.AnthropicModel,
		BaseURL:    cfg.AnthropicBaseURL,
		MaxTokens:  cfg.MaxTokens,
		HTTPClient: httpClient,
		Logger:     c.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create anthropic adapter: %w", err)
	}

	oai, err := openai.NewAdapter(openai.Config{
		Model:      cfg.OpenAIModel,
		BaseURL:    cfg.OpenAIBaseURL,
		MaxTokens:  cfg.MaxTokens,
		HTTPClient: httpClient,
		Logger:     c.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create openai adapter: %w", err)
	}

	gateway, err := llm.NewGateway(llm.GatewayConfig{Claude: claude, OpenAI: oai, Logger: c.Logger})
	if err != nil {
		return nil, fmt.Errorf("failed to create llm gateway: %w", err)
	}
	return gateway, nil
}

// Close releases resources in reverse creation order. The logger goes last.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		_ = c.closers[i]()
	}
}
