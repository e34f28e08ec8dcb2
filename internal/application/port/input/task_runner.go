package input

import "context"

// TaskRunner processes one task. Errors are recorded on the task itself; the
// returned error only reports what could not be recorded.
type TaskRunner interface {
	Run(ctx context.Context, taskID string) error
}
