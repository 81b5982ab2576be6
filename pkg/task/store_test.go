package task

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

// --- Mock persister ---

type memPersister struct {
	saved   []Task
	saves   int
	loadErr error
	saveErr error
}

func (p *memPersister) Load(_ context.Context) ([]Task, error) {
	if p.loadErr != nil {
		return nil, p.loadErr
	}
	return append([]Task(nil), p.saved...), nil
}

func (p *memPersister) Save(_ context.Context, tasks []Task) error {
	if p.saveErr != nil {
		return p.saveErr
	}
	p.saves++
	p.saved = append([]Task(nil), tasks...)
	return nil
}

func (p *memPersister) Close() error { return nil }

func openMem(t *testing.T) (*Store, *memPersister) {
	t.Helper()
	p := &memPersister{}
	s, err := Open(context.Background(), p, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s, p
}

func texts(tasks []Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Text
	}
	return out
}

func TestAddKeepsCallOrder(t *testing.T) {
	ctx := context.Background()
	s, p := openMem(t)

	want := []string{"one", "two", "three", "four"}
	for _, w := range want {
		if err := s.Add(ctx, w); err != nil {
			t.Fatalf("Add(%q): %v", w, err)
		}
	}
	if got := texts(s.List()); !reflect.DeepEqual(got, want) {
		t.Fatalf("List() = %v, want %v", got, want)
	}
	if p.saves != len(want) {
		t.Errorf("saves = %d, want one per add (%d)", p.saves, len(want))
	}
	for _, task := range s.List() {
		if task.Completed {
			t.Errorf("new task %q should not be completed", task.Text)
		}
		if task.ID == "" {
			t.Errorf("new task %q has no ID", task.Text)
		}
	}
}

func TestAddBlankIsIgnored(t *testing.T) {
	ctx := context.Background()
	s, p := openMem(t)

	for _, text := range []string{"", "   ", "\t\n"} {
		if err := s.Add(ctx, text); err != nil {
			t.Fatalf("Add(%q): %v", text, err)
		}
	}
	if n := len(s.List()); n != 0 {
		t.Fatalf("List() len = %d, want 0", n)
	}
	if p.saves != 0 {
		t.Errorf("blank adds should not persist, saves = %d", p.saves)
	}
}

func TestAddTrimsText(t *testing.T) {
	s, _ := openMem(t)
	if err := s.Add(context.Background(), "  Buy milk \n"); err != nil {
		t.Fatal(err)
	}
	if got := s.List()[0].Text; got != "Buy milk" {
		t.Errorf("text = %q, want %q", got, "Buy milk")
	}
}

func TestAddStampsCreatedAt(t *testing.T) {
	s, _ := openMem(t)
	fixed := time.Date(2026, 3, 1, 9, 30, 0, 123456789, time.FixedZone("X", 3600))
	s.now = func() time.Time { return fixed }

	if err := s.Add(context.Background(), "stamp"); err != nil {
		t.Fatal(err)
	}
	got := s.List()[0].CreatedAt
	want := time.Date(2026, 3, 1, 8, 30, 0, 123456000, time.UTC)
	if !got.Equal(want) || got.Location() != time.UTC {
		t.Errorf("CreatedAt = %v, want %v in UTC", got, want)
	}
}

func TestToggleIsInvolution(t *testing.T) {
	ctx := context.Background()
	s, _ := openMem(t)
	s.Add(ctx, "a")
	s.Add(ctx, "b")

	before := s.List()[1].Completed
	if err := s.Toggle(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if s.List()[1].Completed == before {
		t.Fatal("first toggle should flip completed")
	}
	if err := s.Toggle(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if s.List()[1].Completed != before {
		t.Fatal("second toggle should restore completed")
	}
	if s.List()[0].Completed {
		t.Error("toggle touched the wrong task")
	}
}

func TestIndexOutOfRange(t *testing.T) {
	ctx := context.Background()
	s, p := openMem(t)
	s.Add(ctx, "only")
	saves := p.saves

	for _, idx := range []int{-1, 1, 5} {
		if err := s.Toggle(ctx, idx); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("Toggle(%d) err = %v, want ErrIndexOutOfRange", idx, err)
		}
		if err := s.DeleteOne(ctx, idx); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("DeleteOne(%d) err = %v, want ErrIndexOutOfRange", idx, err)
		}
	}
	if p.saves != saves {
		t.Errorf("failed ops should not persist")
	}
	if n := len(s.List()); n != 1 {
		t.Errorf("List() len = %d, want 1", n)
	}
}

func TestDeleteOneKeepsSurvivorOrder(t *testing.T) {
	ctx := context.Background()
	s, _ := openMem(t)
	for _, x := range []string{"a", "b", "c", "d"} {
		s.Add(ctx, x)
	}
	if err := s.DeleteOne(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if got, want := texts(s.List()), []string{"a", "c", "d"}; !reflect.DeepEqual(got, want) {
		t.Errorf("List() = %v, want %v", got, want)
	}
}

func TestDeleteCompletedIdempotent(t *testing.T) {
	ctx := context.Background()
	s, _ := openMem(t)
	for _, x := range []string{"a", "b", "c", "d", "e"} {
		s.Add(ctx, x)
	}
	s.Toggle(ctx, 0)
	s.Toggle(ctx, 2)
	s.Toggle(ctx, 4)

	n, err := s.DeleteCompleted(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("removed = %d, want 3", n)
	}
	first := s.List()
	if got, want := texts(first), []string{"b", "d"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("List() = %v, want %v", got, want)
	}

	n, err = s.DeleteCompleted(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("second call removed %d, want 0", n)
	}
	if !reflect.DeepEqual(s.List(), first) {
		t.Errorf("second DeleteCompleted changed the list")
	}
}

func TestSetAllCompleted(t *testing.T) {
	ctx := context.Background()
	s, _ := openMem(t)
	s.Add(ctx, "a")
	s.Add(ctx, "b")
	s.Toggle(ctx, 0)

	if err := s.SetAllCompleted(ctx, true); err != nil {
		t.Fatal(err)
	}
	if st := s.Stats(); st.Completed != 2 {
		t.Errorf("after select all: %+v", st)
	}
	if err := s.SetAllCompleted(ctx, false); err != nil {
		t.Fatal(err)
	}
	if st := s.Stats(); st.Completed != 0 || st.Remaining != 2 {
		t.Errorf("after deselect all: %+v", st)
	}
}

func TestStatsInvariants(t *testing.T) {
	ctx := context.Background()
	s, _ := openMem(t)
	check := func() {
		t.Helper()
		st := s.Stats()
		if st.Completed+st.Remaining != st.Total {
			t.Errorf("completed+remaining != total: %+v", st)
		}
		if st.Completed < 0 || st.Completed > st.Total {
			t.Errorf("completed out of bounds: %+v", st)
		}
		if st.Total != len(s.List()) {
			t.Errorf("total %d != len(List()) %d", st.Total, len(s.List()))
		}
	}
	check()
	for i := 0; i < 6; i++ {
		s.Add(ctx, "task")
		check()
	}
	s.Toggle(ctx, 1)
	s.Toggle(ctx, 3)
	check()
	s.DeleteOne(ctx, 0)
	check()
	s.DeleteCompleted(ctx)
	check()
}

func TestListIsSnapshot(t *testing.T) {
	ctx := context.Background()
	s, _ := openMem(t)
	s.Add(ctx, "original")

	l := s.List()
	l[0].Text = "mutated"
	l[0].Completed = true
	if got := s.List()[0]; got.Text != "original" || got.Completed {
		t.Errorf("store changed through List(): %+v", got)
	}
}

func TestFailedSaveRollsBack(t *testing.T) {
	ctx := context.Background()
	s, p := openMem(t)
	s.Add(ctx, "keep")
	before := s.List()

	p.saveErr = errors.New("disk full")
	if err := s.Add(ctx, "lost"); err == nil {
		t.Fatal("Add should fail when save fails")
	}
	if err := s.Toggle(ctx, 0); err == nil {
		t.Fatal("Toggle should fail when save fails")
	}
	if _, err := s.DeleteCompleted(ctx); err == nil {
		t.Fatal("DeleteCompleted should fail when save fails")
	}
	if !reflect.DeepEqual(s.List(), before) {
		t.Errorf("List() = %+v, want unchanged %+v", s.List(), before)
	}
}

func TestOpenPropagatesLoadError(t *testing.T) {
	p := &memPersister{loadErr: errors.New("corrupt")}
	if _, err := Open(context.Background(), p, nil); err == nil {
		t.Fatal("Open should fail when Load fails")
	}
}

func TestIDOperations(t *testing.T) {
	ctx := context.Background()
	s, _ := openMem(t)
	s.Add(ctx, "a")
	s.Add(ctx, "b")
	s.Add(ctx, "c")
	id := s.List()[1].ID

	got, err := s.ToggleID(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Completed || got.Text != "b" {
		t.Errorf("ToggleID returned %+v", got)
	}
	if i := s.IndexOf(id); i != 1 {
		t.Errorf("IndexOf = %d, want 1", i)
	}
	if err := s.DeleteOne(ctx, 0); err != nil {
		t.Fatal(err)
	}
	if i := s.IndexOf(id); i != 0 {
		t.Errorf("IndexOf after delete = %d, want 0", i)
	}
	if err := s.DeleteID(ctx, id); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(id); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after delete err = %v, want ErrNotFound", err)
	}
	if _, err := s.ToggleID(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("ToggleID(missing) err = %v", err)
	}
	if err := s.DeleteID(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteID(missing) err = %v", err)
	}
}

func TestSubscribeReceivesChanges(t *testing.T) {
	ctx := context.Background()
	s, _ := openMem(t)
	ch := s.Subscribe()
	defer s.Unsubscribe(ch)

	s.Add(ctx, "")
	s.Add(ctx, "Buy milk")
	s.Toggle(ctx, 0)

	want := []Change{
		{Op: "add", Stats: Stats{Total: 1, Completed: 0, Remaining: 1}},
		{Op: "toggle", Stats: Stats{Total: 1, Completed: 1, Remaining: 0}},
	}
	for i, w := range want {
		select {
		case got := <-ch:
			if got != w {
				t.Errorf("change %d = %+v, want %+v", i, got, w)
			}
		default:
			t.Fatalf("change %d not delivered", i)
		}
	}
	select {
	case c := <-ch:
		t.Errorf("unexpected change %+v", c)
	default:
	}
}

func TestBuyMilkScenario(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tasks.json")
	s, err := Open(ctx, NewFileStore(path), nil)
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Add(ctx, "Buy milk"); err != nil {
		t.Fatal(err)
	}
	l := s.List()
	if len(l) != 1 || l[0].Completed {
		t.Fatalf("after add: %+v", l)
	}
	if err := s.Toggle(ctx, 0); err != nil {
		t.Fatal(err)
	}
	if st := s.Stats(); st != (Stats{Total: 1, Completed: 1, Remaining: 0}) {
		t.Fatalf("Stats() = %+v, want (1,1,0)", st)
	}
	if _, err := s.DeleteCompleted(ctx); err != nil {
		t.Fatal(err)
	}
	if n := len(s.List()); n != 0 {
		t.Fatalf("List() len = %d, want 0", n)
	}

	reopened, err := Open(ctx, NewFileStore(path), nil)
	if err != nil {
		t.Fatal(err)
	}
	if n := len(reopened.List()); n != 0 {
		t.Errorf("reopened List() len = %d, want 0", n)
	}
}

func TestStatsString(t *testing.T) {
	got := Stats{Total: 3, Completed: 1, Remaining: 2}.String()
	want := "Total tasks: 3 | Completed: 1 | Remaining: 2"
	if got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestCreateReturnsTask(t *testing.T) {
	ctx := context.Background()
	s, _ := openMem(t)

	if _, err := s.Create(ctx, "  "); !errors.Is(err, ErrEmptyText) {
		t.Errorf("Create(blank) err = %v, want ErrEmptyText", err)
	}
	created, err := s.Create(ctx, "Write report")
	if err != nil {
		t.Fatal(err)
	}
	got, err := s.Get(created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got != created {
		t.Errorf("Get = %+v, want %+v", got, created)
	}
}
