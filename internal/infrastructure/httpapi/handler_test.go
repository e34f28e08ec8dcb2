package httpapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"better-todo/internal/application/port/output"
	"better-todo/internal/domain/entity"
	"better-todo/internal/infrastructure/httpapi"
	"better-todo/internal/infrastructure/logger"
	"better-todo/internal/infrastructure/storage/memory"
	"better-todo/internal/usecase/tasks"
)

// parked accepts jobs and never runs them, so tasks stay pending.
type parked struct{}

func (parked) RunAfter(time.Duration, string, output.Job) error { return nil }

type noRun struct{}

func (noRun) Run(context.Context, string) error { return nil }

func newServer(t *testing.T) (*httptest.Server, *memory.Repository) {
	t.Helper()
	repo, err := memory.NewRepository(memory.RepositoryConfig{})
	require.NoError(t, err)
	svc, err := tasks.New(tasks.Config{
		Tasks: repo, Workspace: repo, Scheduler: parked{},
		Agentic: noRun{}, SingleShot: noRun{}, FollowUp: noRun{},
		Logger: logger.NewNop(),
	})
	require.NoError(t, err)

	h, err := httpapi.NewHandler(httpapi.Config{Tasks: svc, APIKeys: repo, Logger: logger.NewNop()})
	require.NoError(t, err)
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv, repo
}

func do(t *testing.T, srv *httptest.Server, method, path, user, body string) (int, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if user != "" {
		req.Header.Set(httpapi.UserHeader, user)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

const expandTask = `{"sourceId":"n1","sourceType":"fullPageNote","sourceContent":"Plan a trip","provider":"claude","taskType":"expand"}`

func TestNewHandler(t *testing.T) {
	_, err := httpapi.NewHandler(httpapi.Config{})
	assert.Error(t, err)
}

func TestRequests(t *testing.T) {
	tests := map[string]struct {
		method    string
		path      func(taskID string) string
		user      string
		body      string
		expStatus int
	}{
		"Health check needs no user.": {
			method: http.MethodGet, path: func(string) string { return "/healthz" },
			expStatus: http.StatusOK,
		},
		"Missing user header is unauthorized.": {
			method: http.MethodGet, path: func(string) string { return "/v1/tasks" },
			expStatus: http.StatusUnauthorized,
		},
		"Create task.": {
			method: http.MethodPost, path: func(string) string { return "/v1/tasks" }, user: "u1",
			body:      expandTask,
			expStatus: http.StatusCreated,
		},
		"Create other without instructions is a bad request.": {
			method: http.MethodPost, path: func(string) string { return "/v1/tasks" }, user: "u1",
			body:      `{"sourceType":"todo","sourceContent":"x","provider":"claude","taskType":"other"}`,
			expStatus: http.StatusBadRequest,
		},
		"Invalid JSON is a bad request.": {
			method: http.MethodPost, path: func(string) string { return "/v1/tasks" }, user: "u1",
			body:      `{`,
			expStatus: http.StatusBadRequest,
		},
		"Get own task.": {
			method: http.MethodGet, path: func(id string) string { return "/v1/tasks/" + id }, user: "u1",
			expStatus: http.StatusOK,
		},
		"Foreign task is not found.": {
			method: http.MethodGet, path: func(id string) string { return "/v1/tasks/" + id }, user: "u2",
			expStatus: http.StatusNotFound,
		},
		"Follow-up on a pending task conflicts.": {
			method: http.MethodPost, path: func(id string) string { return "/v1/tasks/" + id + "/follow-ups" }, user: "u1",
			body:      `{"message":"more"}`,
			expStatus: http.StatusConflict,
		},
		"Retry of a pending task conflicts.": {
			method: http.MethodPost, path: func(id string) string { return "/v1/tasks/" + id + "/retry" }, user: "u1",
			expStatus: http.StatusConflict,
		},
		"Saving a pending task is a bad request.": {
			method: http.MethodPost, path: func(id string) string { return "/v1/tasks/" + id + "/note" }, user: "u1",
			expStatus: http.StatusBadRequest,
		},
		"Delete of a missing task succeeds.": {
			method: http.MethodDelete, path: func(string) string { return "/v1/tasks/missing" }, user: "u1",
			expStatus: http.StatusNoContent,
		},
		"Store an api key.": {
			method: http.MethodPut, path: func(string) string { return "/v1/api-keys/openai" }, user: "u1",
			body:      `{"apiKey":"sk-1"}`,
			expStatus: http.StatusNoContent,
		},
		"Unknown provider is a bad request.": {
			method: http.MethodPut, path: func(string) string { return "/v1/api-keys/gemini" }, user: "u1",
			body:      `{"apiKey":"x"}`,
			expStatus: http.StatusBadRequest,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			srv, _ := newServer(t)
			status, body := do(t, srv, http.MethodPost, "/v1/tasks", "u1", expandTask)
			require.Equal(t, http.StatusCreated, status)
			id, _ := body["id"].(string)
			require.NotEmpty(t, id)

			status, _ = do(t, srv, test.method, test.path(id), test.user, test.body)

			assert.Equal(t, test.expStatus, status)
		})
	}
}

func TestTaskLifecycleOverHTTP(t *testing.T) {
	ctx := context.Background()
	srv, repo := newServer(t)

	status, body := do(t, srv, http.MethodPost, "/v1/tasks", "u1", expandTask)
	require.Equal(t, http.StatusCreated, status)
	id := body["id"].(string)

	status, body = do(t, srv, http.MethodGet, "/v1/tasks/"+id, "u1", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "pending", body["status"])
	assert.Equal(t, "Plan a trip", body["sourceContent"])

	require.NoError(t, repo.MarkCompleted(ctx, id, "1. Pick dates", entity.ProviderClaude))

	status, _ = do(t, srv, http.MethodPost, "/v1/tasks/"+id+"/follow-ups", "u1", `{"message":"shorter"}`)
	assert.Equal(t, http.StatusAccepted, status)

	require.NoError(t, repo.AppendAssistantReply(ctx, id, entity.ConversationMessage{Role: entity.RoleAssistant, Content: "Dates."}))

	status, body = do(t, srv, http.MethodPost, "/v1/tasks/"+id+"/note", "u1", "")
	require.Equal(t, http.StatusCreated, status)
	assert.NotEmpty(t, body["noteId"])

	status, body = do(t, srv, http.MethodGet, "/v1/tasks", "u1", "")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["tasks"], 1)

	status, body = do(t, srv, http.MethodGet, "/v1/tasks", "u2", "")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["tasks"], 0)

	status, _ = do(t, srv, http.MethodDelete, "/v1/tasks/"+id, "u1", "")
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = do(t, srv, http.MethodGet, "/v1/tasks/"+id, "u1", "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestSetAPIKeyPause(t *testing.T) {
	srv, repo := newServer(t)

	status, _ := do(t, srv, http.MethodPut, "/v1/api-keys/claude", "u1", `{"apiKey":"ak","paused":true}`)
	require.Equal(t, http.StatusNoContent, status)

	keys, err := repo.AvailableAPIKeys(context.Background(), "u1")
	require.NoError(t, err)
	assert.False(t, keys.AnthropicAvailable)
	assert.Empty(t, keys.AnthropicKey)
}
