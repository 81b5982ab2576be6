package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"todolist/pkg/task"
)

func newTestServer(t *testing.T) (*Server, *task.Store) {
	t.Helper()
	store, err := task.Open(context.Background(), task.NewFileStore(filepath.Join(t.TempDir(), "tasks.json")), nil)
	if err != nil {
		t.Fatal(err)
	}
	return New(store, nil), store
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestCreateAndList(t *testing.T) {
	srv, store := newTestServer(t)

	rec := do(t, srv, "POST", "/api/tasks", `{"text":"Buy milk"}`)
	if rec.Code != 201 {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body)
	}
	created := decode[taskView](t, rec)
	if created.ID == "" || created.Text != "Buy milk" || created.Completed {
		t.Errorf("created = %+v", created)
	}

	do(t, srv, "POST", "/api/tasks", `{"text":"Walk dog"}`)
	rec = do(t, srv, "GET", "/api/tasks", "")
	list := decode[[]taskView](t, rec)
	if len(list) != 2 || list[0].Text != "Buy milk" || list[1].Text != "Walk dog" {
		t.Errorf("list = %+v", list)
	}
	if len(store.List()) != 2 {
		t.Errorf("store has %d tasks", len(store.List()))
	}
}

func TestCreateRejectsBadInput(t *testing.T) {
	srv, store := newTestServer(t)

	if rec := do(t, srv, "POST", "/api/tasks", `{"text":"   "}`); rec.Code != 400 {
		t.Errorf("blank text status = %d", rec.Code)
	}
	if rec := do(t, srv, "POST", "/api/tasks", `not json`); rec.Code != 400 {
		t.Errorf("bad json status = %d", rec.Code)
	}
	if n := len(store.List()); n != 0 {
		t.Errorf("store has %d tasks after rejected creates", n)
	}
}

func TestToggleDeleteAndStatus(t *testing.T) {
	srv, store := newTestServer(t)
	ctx := context.Background()
	store.Add(ctx, "a")
	store.Add(ctx, "b")
	id := store.List()[0].ID

	rec := do(t, srv, "POST", "/api/tasks/"+id+"/toggle", "")
	if rec.Code != 200 || !decode[taskView](t, rec).Completed {
		t.Fatalf("toggle: %d %s", rec.Code, rec.Body)
	}

	st := decode[task.Stats](t, do(t, srv, "GET", "/api/status", ""))
	if st != (task.Stats{Total: 2, Completed: 1, Remaining: 1}) {
		t.Errorf("status = %+v", st)
	}

	done := decode[[]taskView](t, do(t, srv, "GET", "/api/tasks?status=completed", ""))
	if len(done) != 1 || done[0].ID != id {
		t.Errorf("completed filter = %+v", done)
	}

	if rec := do(t, srv, "DELETE", "/api/tasks/"+id, ""); rec.Code != 204 {
		t.Errorf("delete status = %d", rec.Code)
	}
	if rec := do(t, srv, "GET", "/api/tasks/"+id, ""); rec.Code != 404 {
		t.Errorf("get deleted status = %d", rec.Code)
	}
	if rec := do(t, srv, "POST", "/api/tasks/nope/toggle", ""); rec.Code != 404 {
		t.Errorf("toggle unknown status = %d", rec.Code)
	}
	if rec := do(t, srv, "DELETE", "/api/tasks/nope", ""); rec.Code != 404 {
		t.Errorf("delete unknown status = %d", rec.Code)
	}
}

func TestBulkOperations(t *testing.T) {
	srv, store := newTestServer(t)
	ctx := context.Background()
	for _, x := range []string{"a", "b", "c"} {
		store.Add(ctx, x)
	}

	rec := do(t, srv, "POST", "/api/tasks/complete-all", "")
	if st := decode[task.Stats](t, rec); st.Completed != 3 {
		t.Errorf("complete-all stats = %+v", st)
	}
	rec = do(t, srv, "POST", "/api/tasks/complete-all?value=false", "")
	if st := decode[task.Stats](t, rec); st.Completed != 0 {
		t.Errorf("complete-all=false stats = %+v", st)
	}
	if rec := do(t, srv, "POST", "/api/tasks/complete-all?value=maybe", ""); rec.Code != 400 {
		t.Errorf("bad value status = %d", rec.Code)
	}

	store.Toggle(ctx, 1)
	rec = do(t, srv, "POST", "/api/tasks/clear-completed", "")
	if got := decode[map[string]int](t, rec); got["removed"] != 1 {
		t.Errorf("clear-completed = %v", got)
	}
	if n := len(store.List()); n != 2 {
		t.Errorf("store has %d tasks, want 2", n)
	}
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	if rec := do(t, srv, "GET", "/health", ""); rec.Code != 200 {
		t.Errorf("health status = %d", rec.Code)
	}
}

// --- failing store ---

type failingTasks struct {
	*task.Store
}

func (f failingTasks) Create(context.Context, string) (task.Task, error) {
	return task.Task{}, errors.New("disk full")
}

func TestStoreFailureIs500(t *testing.T) {
	_, store := newTestServer(t)
	srv := New(failingTasks{store}, nil)
	if rec := do(t, srv, "POST", "/api/tasks", `{"text":"x"}`); rec.Code != 500 {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestTaskStream(t *testing.T) {
	srv, store := newTestServer(t)
	ts := httptest.NewServer(srv)
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, "GET", ts.URL+"/api/tasks/stream", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q", ct)
	}

	if err := store.Add(context.Background(), "streamed"); err != nil {
		t.Fatal(err)
	}

	sc := bufio.NewScanner(resp.Body)
	var event, data string
	for sc.Scan() {
		line := sc.Text()
		if v, ok := strings.CutPrefix(line, "event: "); ok {
			event = v
		}
		if v, ok := strings.CutPrefix(line, "data: "); ok {
			data = v
			break
		}
	}
	if event != "add" {
		t.Errorf("event = %q, want add", event)
	}
	var c task.Change
	if err := json.Unmarshal([]byte(data), &c); err != nil {
		t.Fatalf("data %q: %v", data, err)
	}
	if c.Stats.Total != 1 {
		t.Errorf("change = %+v", c)
	}
}
