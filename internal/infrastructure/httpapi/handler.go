// Package httpapi exposes the task service over JSON/HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog"

	"better-todo/internal/application/port/input"
	"better-todo/internal/application/port/output"
	"better-todo/internal/domain/entity"
)

// UserHeader carries the caller identity. Authenticating it is the job of
// whatever sits in front of this server.
const UserHeader = "X-User-ID"

type Config struct {
	Tasks   input.AgentTaskService
	APIKeys output.APIKeyStore
	Logger  output.LoggerPort
	// AccessLog enables httplog request logging.
	AccessLog bool
}

func (c *Config) defaults() error {
	if c.Tasks == nil {
		return fmt.Errorf("task service is required")
	}
	if c.APIKeys == nil {
		return fmt.Errorf("api key store is required")
	}
	if c.Logger == nil {
		return fmt.Errorf("logger is required")
	}
	c.Logger = c.Logger.WithField("svc", "httpapi.Handler")
	return nil
}

type handler struct {
	tasks   input.AgentTaskService
	apiKeys output.APIKeyStore
	logger  output.LoggerPort
}

// NewHandler returns the routed HTTP handler.
func NewHandler(cfg Config) (http.Handler, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	h := &handler{tasks: cfg.Tasks, apiKeys: cfg.APIKeys, logger: cfg.Logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if cfg.AccessLog {
		r.Use(httplog.RequestLogger(httplog.NewLogger("bettertodo", httplog.Options{JSON: true, Concise: true})))
	}
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(requireUser)

		r.Route("/tasks", func(r chi.Router) {
			r.Post("/", h.createTask)
			r.Get("/", h.listTasks)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.getTask)
				r.Delete("/", h.deleteTask)
				r.Post("/follow-ups", h.addFollowUp)
				r.Post("/retry", h.retryTask)
				r.Post("/note", h.saveAsNote)
			})
		})
		r.Put("/api-keys/{provider}", h.setAPIKey)
	})

	return r, nil
}

type userKey struct{}

func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := r.Header.Get(UserHeader)
		if user == "" {
			writeError(w, http.StatusUnauthorized, fmt.Sprintf("%s header is required", UserHeader))
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey{}, user)))
	})
}

func userID(r *http.Request) string {
	u, _ := r.Context().Value(userKey{}).(string)
	return u
}

type createTaskRequest struct {
	SourceID           string `json:"sourceId"`
	SourceType         string `json:"sourceType"`
	SourceContent      string `json:"sourceContent"`
	SourceTitle        string `json:"sourceTitle"`
	Provider           string `json:"provider"`
	TaskType           string `json:"taskType"`
	CustomInstructions string `json:"customInstructions"`
	FolderID           string `json:"folderId"`
	Date               string `json:"date"`
}

func (h *handler) createTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if !decode(w, r, &req) {
		return
	}

	id, err := h.tasks.CreateAgentTask(r.Context(), userID(r), input.CreateTaskRequest{
		SourceID:           req.SourceID,
		SourceType:         entity.SourceType(req.SourceType),
		SourceContent:      req.SourceContent,
		SourceTitle:        req.SourceTitle,
		Provider:           entity.Provider(req.Provider),
		TaskType:           entity.TaskType(req.TaskType),
		CustomInstructions: req.CustomInstructions,
		FolderID:           req.FolderID,
		Date:               req.Date,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *handler) listTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.tasks.ListAgentTasks(r.Context(), userID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if tasks == nil {
		tasks = []entity.AgentTask{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": tasks})
}

func (h *handler) getTask(w http.ResponseWriter, r *http.Request) {
	task, err := h.tasks.GetAgentTask(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *handler) deleteTask(w http.ResponseWriter, r *http.Request) {
	if err := h.tasks.DeleteAgentTask(r.Context(), userID(r), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) addFollowUp(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := h.tasks.AddFollowUpMessage(r.Context(), userID(r), chi.URLParam(r, "id"), req.Message); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *handler) retryTask(w http.ResponseWriter, r *http.Request) {
	if err := h.tasks.RetryAgentTask(r.Context(), userID(r), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *handler) saveAsNote(w http.ResponseWriter, r *http.Request) {
	noteID, err := h.tasks.SaveResultAsNote(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"noteId": noteID})
}

func (h *handler) setAPIKey(w http.ResponseWriter, r *http.Request) {
	var req struct {
		APIKey string `json:"apiKey"`
		Paused bool   `json:"paused"`
	}
	if !decode(w, r, &req) {
		return
	}

	provider := entity.Provider(chi.URLParam(r, "provider"))
	if !provider.Valid() {
		h.fail(w, r, fmt.Errorf("unknown provider %q: %w", provider, entity.ErrValidation))
		return
	}
	if req.APIKey == "" {
		h.fail(w, r, fmt.Errorf("apiKey is required: %w", entity.ErrValidation))
		return
	}

	if err := h.apiKeys.SetAPIKey(r.Context(), userID(r), provider, req.APIKey, req.Paused); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// fail maps domain errors to status codes. Unexpected errors are logged and
// hidden from the caller.
func (h *handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, entity.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, entity.ErrNotFound):
		writeError(w, http.StatusNotFound, "task not found")
	case errors.Is(err, entity.ErrTaskBusy):
		writeError(w, http.StatusConflict, err.Error())
	default:
		h.logger.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// Server runs the handler until its context is cancelled.
type Server struct {
	srv    *http.Server
	logger output.LoggerPort
}

func NewServer(addr string, h http.Handler, logger output.LoggerPort) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           h,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger.WithField("svc", "httpapi.Server"),
	}
}

func (s *Server) Run(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", s.srv.Addr)
		errc <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("could not shut down http server: %w", err)
	}
	return nil
}
