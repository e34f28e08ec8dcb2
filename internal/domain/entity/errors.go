package entity

import "errors"

var (
	// ErrValidation is returned when a request is malformed.
	ErrValidation = errors.New("validation error")
	// ErrNotFound is returned for missing entities and for entities owned by someone else.
	ErrNotFound = errors.New("not found")
	// ErrTaskBusy is returned when a task is already queued or running.
	ErrTaskBusy = errors.New("task is already being processed")
	// ErrNoAPIKeyAvailable is returned when no provider credential is usable.
	ErrNoAPIKeyAvailable = errors.New("no API key available: add an Anthropic or OpenAI API key in settings, or unpause an existing one")
	// ErrProviderRequestFailed wraps transport and HTTP failures from a provider.
	ErrProviderRequestFailed = errors.New("provider request failed")
	// ErrNoTextResponse is returned when a provider answer has no usable text.
	ErrNoTextResponse = errors.New("no text response from provider")
	// ErrToolExecutionFailed wraps a single failed tool call.
	ErrToolExecutionFailed = errors.New("tool execution failed")
	// ErrToolNotFound is returned when the model names a tool outside the catalog.
	ErrToolNotFound = errors.New("tool not found")
)
