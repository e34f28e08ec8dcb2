// Package outputmock holds testify mocks of the output ports.
package outputmock

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"better-todo/internal/application/port/output"
	"better-todo/internal/domain/entity"
)

type MockLLMPort struct{ mock.Mock }

var _ output.LLMPort = (*MockLLMPort)(nil)

func (m *MockLLMPort) Complete(ctx context.Context, req output.ChatRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *MockLLMPort) CompleteWithTools(ctx context.Context, req output.ChatRequest) (*output.ChatResponse, error) {
	args := m.Called(ctx, req)
	var resp *output.ChatResponse
	if v := args.Get(0); v != nil {
		resp = v.(*output.ChatResponse)
	}
	return resp, args.Error(1)
}

type MockCredentialsPort struct{ mock.Mock }

var _ output.CredentialsPort = (*MockCredentialsPort)(nil)

func (m *MockCredentialsPort) AvailableAPIKeys(ctx context.Context, userID string) (entity.APIKeys, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(entity.APIKeys), args.Error(1)
}

type MockSchedulerPort struct{ mock.Mock }

var _ output.SchedulerPort = (*MockSchedulerPort)(nil)

func (m *MockSchedulerPort) RunAfter(delay time.Duration, name string, job output.Job) error {
	args := m.Called(delay, name, job)
	return args.Error(0)
}

type MockProviderClient struct{ mock.Mock }

func (m *MockProviderClient) Chat(ctx context.Context, req output.ChatRequest) (*output.ChatResponse, error) {
	args := m.Called(ctx, req)
	var resp *output.ChatResponse
	if v := args.Get(0); v != nil {
		resp = v.(*output.ChatResponse)
	}
	return resp, args.Error(1)
}
