package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"todolist/pkg/task"
)

// taskView is the wire form of a task; unlike the persisted form it
// carries the in-process ID.
type taskView struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
	CreatedAt string `json:"createdAt"`
}

func viewOf(t task.Task) taskView {
	return taskView{
		ID:        t.ID,
		Text:      t.Text,
		Completed: t.Completed,
		CreatedAt: t.CreatedAt.Format("2006-01-02T15:04:05.999999Z07:00"),
	}
}

func (s *Server) handleTaskList(w http.ResponseWriter, r *http.Request) {
	tasks := s.tasks.List()
	views := make([]taskView, 0, len(tasks))
	for _, t := range tasks {
		if status := r.URL.Query().Get("status"); status != "" {
			if (status == "completed") != t.Completed {
				continue
			}
		}
		views = append(views, viewOf(t))
	}
	writeJSON(w, 200, views)
}

func (s *Server) handleTaskGet(w http.ResponseWriter, r *http.Request) {
	t, err := s.tasks.Get(r.PathValue("id"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, 200, viewOf(t))
}

func (s *Server) handleTaskCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, 400, "invalid JSON: "+err.Error())
		return
	}
	t, err := s.tasks.Create(r.Context(), req.Text)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, 201, viewOf(t))
}

func (s *Server) handleTaskToggle(w http.ResponseWriter, r *http.Request) {
	t, err := s.tasks.ToggleID(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, 200, viewOf(t))
}

func (s *Server) handleTaskDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.tasks.DeleteID(r.Context(), r.PathValue("id")); err != nil {
		s.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearCompleted(w http.ResponseWriter, r *http.Request) {
	n, err := s.tasks.DeleteCompleted(r.Context())
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, 200, map[string]int{"removed": n})
}

func (s *Server) handleCompleteAll(w http.ResponseWriter, r *http.Request) {
	value := true
	if v := r.URL.Query().Get("value"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, 400, "value must be a boolean")
			return
		}
		value = b
	}
	if err := s.tasks.SetAllCompleted(r.Context(), value); err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, 200, s.tasks.Stats())
}
