package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/oklog/run"
	"github.com/spf13/cobra"

	"better-todo/internal/adapter/tool"
	"better-todo/internal/application/port/input"
	"better-todo/internal/di"
	"better-todo/internal/domain/entity"
	"better-todo/internal/infrastructure/env"
	"better-todo/internal/infrastructure/httpapi"
	"better-todo/internal/infrastructure/mcpserver"
	"better-todo/internal/infrastructure/userinteraction"
)

var version = "dev"

// localUser owns everything the single-user commands create.
const localUser = "local"

type rootOptions struct {
	env       *env.EnvService
	logLevel  string
	logFormat string
}

func main() {
	opts := &rootOptions{env: env.NewEnvService()}

	rootCmd := &cobra.Command{
		Use:           "bettertodo",
		Short:         "AI agent task engine for todos and notes",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", opts.env.GetWithDefault("LOG_LEVEL", "info"), "debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", opts.env.GetWithDefault("LOG_FORMAT", "json"), "json or console")

	rootCmd.AddCommand(newServeCommand(opts))
	rootCmd.AddCommand(newRunCommand(opts))
	rootCmd.AddCommand(newToolsCommand())
	rootCmd.AddCommand(newMCPCommand(opts))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func (o *rootOptions) containerConfig() di.Config {
	return di.Config{
		LogLevel:         o.logLevel,
		LogFormat:        o.logFormat,
		Env:              o.env,
		AnthropicModel:   o.env.Get("ANTHROPIC_MODEL"),
		AnthropicBaseURL: o.env.Get("ANTHROPIC_BASE_URL"),
		OpenAIModel:      o.env.Get("OPENAI_MODEL"),
		OpenAIBaseURL:    o.env.Get("OPENAI_BASE_URL"),
		MaxTokens:        o.env.GetInt("LLM_MAX_TOKENS", 4096),
		HTTPTimeout:      o.env.GetDuration("LLM_TIMEOUT", 0),
		Workers:          o.env.GetInt("SCHEDULER_WORKERS", 4),
		PromptsFile:      o.env.Get("PROMPTS_FILE"),
	}
}

func newServeCommand(opts *rootOptions) *cobra.Command {
	var addr, dbPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the task API over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := opts.containerConfig()
			cfg.DBPath = dbPath

			c, err := di.NewContainer(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer c.Close()

			handler, err := httpapi.NewHandler(httpapi.Config{Tasks: c.Service, APIKeys: c.Store, Logger: c.Logger, AccessLog: true})
			if err != nil {
				return err
			}
			server := httpapi.NewServer(addr, handler, c.Logger)

			var g run.Group

			// OS signals.
			{
				signalCtx, signalCancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
				defer signalCancel()

				g.Add(
					func() error {
						<-signalCtx.Done()
						c.Logger.Info("Termination signal received")
						return nil
					},
					func(_ error) {
						signalCancel()
					},
				)
			}

			// HTTP server.
			{
				ctx, cancel := context.WithCancel(context.Background())
				g.Add(
					func() error { return server.Run(ctx) },
					func(_ error) { cancel() },
				)
			}

			// Background jobs; stopped last so queued runs finish.
			{
				ctx, cancel := context.WithCancel(context.Background())
				g.Add(
					func() error { return c.Scheduler.Run(ctx) },
					func(_ error) { cancel() },
				)
			}

			return g.Run()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", opts.env.GetWithDefault("HTTP_ADDR", ":8080"), "listen address")
	cmd.Flags().StringVar(&dbPath, "db", opts.env.GetWithDefault("DB_PATH", "./data/bettertodo.db"), "SQLite database path")
	return cmd
}

func newRunCommand(opts *rootOptions) *cobra.Command {
	var taskType, provider, title, instructions string

	cmd := &cobra.Command{
		Use:   "run <content>",
		Short: "Run one task locally with the keys from the environment",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			cfg := opts.containerConfig()
			cfg.EnvCredentials = true
			cfg.Progress = userinteraction.NewConsoleProgress(out)

			c, err := di.NewContainer(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer c.Close()

			id, err := c.Service.CreateAgentTask(cmd.Context(), localUser, input.CreateTaskRequest{
				SourceType:         entity.SourceTypeTodo,
				SourceContent:      strings.Join(args, " "),
				SourceTitle:        title,
				Provider:           entity.Provider(provider),
				TaskType:           entity.TaskType(taskType),
				CustomInstructions: instructions,
			})
			if err != nil {
				return err
			}

			// Stop waits for the queued run.
			c.Scheduler.Stop()

			task, err := c.Service.GetAgentTask(cmd.Context(), localUser, id)
			if err != nil {
				return err
			}
			return printTask(out, task)
		},
	}

	cmd.Flags().StringVar(&taskType, "type", string(entity.TaskTypeRun), "expand, code, summarize, analyze, other or run")
	cmd.Flags().StringVar(&provider, "provider", string(entity.ProviderClaude), "preferred provider: claude or openai")
	cmd.Flags().StringVar(&title, "title", "", "source title")
	cmd.Flags().StringVar(&instructions, "instructions", "", "custom instructions, required for --type other")
	return cmd
}

func printTask(out io.Writer, task *entity.AgentTask) error {
	if task.Status == entity.TaskStatusFailed {
		color.New(color.FgRed, color.Bold).Fprintln(out, "\nTask failed")
		return errors.New(task.Error)
	}

	header := color.New(color.FgGreen, color.Bold)
	header.Fprintf(out, "\nResult (%s)\n", task.ActualProvider)
	fmt.Fprintln(out, task.Result)

	if len(task.ExecutionLog) > 0 {
		header.Fprintf(out, "\nExecution log\n")
		for i, e := range task.ExecutionLog {
			fmt.Fprintf(out, "%d. %s [%s] %s\n", i+1, e.ToolName, e.Status, e.ToolInput)
		}
	}
	return nil
}

func newToolsCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Print the agent tool catalog in a provider's format",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rendered, err := tool.Render(entity.ToolFormat(format), tool.Catalog())
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(rendered)
		},
	}

	cmd.Flags().StringVar(&format, "format", string(entity.ToolFormatClaude), "claude or openai")
	return cmd
}

func newMCPCommand(opts *rootOptions) *cobra.Command {
	var user, dbPath string

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the agent tools over MCP on stdio",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := opts.containerConfig()
			cfg.DBPath = dbPath

			c, err := di.NewContainer(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer c.Close()

			server, err := mcpserver.New(mcpserver.Config{Tools: c.Tools, UserID: user, Version: version, Logger: c.Logger})
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
			defer cancel()
			return server.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&user, "user", localUser, "user whose todos and notes the tools act on")
	cmd.Flags().StringVar(&dbPath, "db", opts.env.GetWithDefault("DB_PATH", "./data/bettertodo.db"), "SQLite database path")
	return cmd
}
