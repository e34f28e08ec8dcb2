package output

import (
	"context"
	"time"
)

// Job is one asynchronous unit of work.
type Job func(ctx context.Context)

// SchedulerPort dispatches jobs fire-and-forget.
type SchedulerPort interface {
	RunAfter(delay time.Duration, name string, job Job) error
}
