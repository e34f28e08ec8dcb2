package output

import "context"

// ProgressReporter observes an agentic run. All methods must be cheap; they are
// called inline from the loop.
type ProgressReporter interface {
	ShowIteration(ctx context.Context, iteration, maxIterations int)
	ShowThinking(ctx context.Context, content string)
	ShowToolStart(ctx context.Context, toolName, arguments string)
	ShowToolResult(ctx context.Context, toolName, result string, isError bool)
}

// NoopProgress discards every event.
var NoopProgress ProgressReporter = noopProgress{}

type noopProgress struct{}

func (noopProgress) ShowIteration(context.Context, int, int)              {}
func (noopProgress) ShowThinking(context.Context, string)                 {}
func (noopProgress) ShowToolStart(context.Context, string, string)        {}
func (noopProgress) ShowToolResult(context.Context, string, string, bool) {}
