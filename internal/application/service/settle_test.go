package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"better-todo/internal/application/service"
)

type ctxKey struct{}

func TestSettleContext(t *testing.T) {
	parent, cancel := context.WithTimeout(context.WithValue(context.Background(), ctxKey{}, "v"), time.Millisecond)
	defer cancel()
	<-parent.Done()

	ctx, settleCancel := service.SettleContext(parent)
	defer settleCancel()

	assert.NoError(t, ctx.Err())
	assert.Equal(t, "v", ctx.Value(ctxKey{}))
	deadline, ok := ctx.Deadline()
	assert.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(service.SettleTimeout), deadline, time.Second)
}
