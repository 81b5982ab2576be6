// Package api serves the task list over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/charmbracelet/log"

	"todolist/pkg/task"
)

// Tasks is the part of task.Store the API needs.
type Tasks interface {
	List() []task.Task
	Stats() task.Stats
	Get(id string) (task.Task, error)
	Create(ctx context.Context, text string) (task.Task, error)
	ToggleID(ctx context.Context, id string) (task.Task, error)
	DeleteID(ctx context.Context, id string) error
	DeleteCompleted(ctx context.Context) (int, error)
	SetAllCompleted(ctx context.Context, value bool) error
	Subscribe() chan task.Change
	Unsubscribe(ch chan task.Change)
}

// Server is the HTTP API server.
type Server struct {
	tasks  Tasks
	logger *log.Logger
	mux    *http.ServeMux
}

// New creates a new Server.
func New(tasks Tasks, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	s := &Server{
		tasks:  tasks,
		logger: logger,
		mux:    http.NewServeMux(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /api/tasks", s.handleTaskList)
	s.mux.HandleFunc("POST /api/tasks", s.handleTaskCreate)
	s.mux.HandleFunc("GET /api/tasks/stream", s.handleTaskStream)
	s.mux.HandleFunc("POST /api/tasks/clear-completed", s.handleClearCompleted)
	s.mux.HandleFunc("POST /api/tasks/complete-all", s.handleCompleteAll)
	s.mux.HandleFunc("GET /api/tasks/{id}", s.handleTaskGet)
	s.mux.HandleFunc("POST /api/tasks/{id}/toggle", s.handleTaskToggle)
	s.mux.HandleFunc("DELETE /api/tasks/{id}", s.handleTaskDelete)

	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/status", s.handleStatus)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, 200, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, 200, s.tasks.Stats())
}

// writeStoreError maps store errors to status codes.
func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, task.ErrNotFound):
		writeError(w, 404, err.Error())
	case errors.Is(err, task.ErrEmptyText):
		writeError(w, 400, "text is required")
	default:
		s.logger.Error("store operation failed", "err", err)
		writeError(w, 500, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("write json", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
