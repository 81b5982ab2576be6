package api

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// handleTaskStream sends one server-sent event per store change.
func (s *Server) handleTaskStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, 500, "streaming not supported")
		return
	}

	// Subscribe before the headers go out so a client that has seen the
	// response cannot miss a change.
	ch := s.tasks.Subscribe()
	defer s.tasks.Unsubscribe(ch)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case c, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(c)
			if err != nil {
				s.logger.Error("SSE encode", "err", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", c.Op, data)
			flusher.Flush()
		}
	}
}
