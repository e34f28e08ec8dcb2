package service

import (
	"context"
	"time"
)

// SettleTimeout bounds the write that records a run's outcome.
const SettleTimeout = 10 * time.Second

// SettleContext returns a context for recording a run's terminal state. It keeps
// ctx's values but not its deadline or cancellation, so a run that timed out can
// still be marked as failed.
func SettleContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), SettleTimeout)
}
