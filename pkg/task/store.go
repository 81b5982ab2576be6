// Package task holds the ordered to-do list and keeps it in step with its
// persisted form: every mutation is written through before it becomes
// visible to readers.
package task

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// Store is the single source of truth for tasks.
type Store struct {
	mu     sync.Mutex
	tasks  []Task
	p      Persister
	bus    *bus
	logger *log.Logger
	now    func() time.Time
}

// Open loads the task list from p. A missing document yields an empty
// store; any other load failure is returned and the store is not usable.
func Open(ctx context.Context, p Persister, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	tasks, err := p.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	for i := range tasks {
		tasks[i].ID = newID()
	}
	logger.Info("tasks loaded", "count", len(tasks))
	return &Store{
		tasks:  tasks,
		p:      p,
		bus:    newBus(),
		logger: logger,
		now:    time.Now,
	}, nil
}

// Close releases the underlying persister.
func (s *Store) Close() error {
	return s.p.Close()
}

// Add appends a task. Blank text is ignored.
func (s *Store) Add(ctx context.Context, text string) error {
	if _, err := s.Create(ctx, text); err != nil && !errors.Is(err, ErrEmptyText) {
		return err
	}
	return nil
}

// Create appends a task and returns it. Blank text yields ErrEmptyText.
func (s *Store) Create(ctx context.Context, text string) (Task, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Task{}, ErrEmptyText
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t := Task{
		ID:        newID(),
		Text:      text,
		CreatedAt: s.now().UTC().Truncate(time.Microsecond),
	}
	if err := s.commit(ctx, "add", append(slices.Clone(s.tasks), t)); err != nil {
		return Task{}, err
	}
	return t, nil
}

// Toggle flips the completion flag of the task at index.
func (s *Store) Toggle(ctx context.Context, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkIndex(index); err != nil {
		return err
	}
	next := slices.Clone(s.tasks)
	next[index].Completed = !next[index].Completed
	return s.commit(ctx, "toggle", next)
}

// DeleteOne removes the task at index.
func (s *Store) DeleteOne(ctx context.Context, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkIndex(index); err != nil {
		return err
	}
	next := slices.Delete(slices.Clone(s.tasks), index, index+1)
	return s.commit(ctx, "delete", next)
}

// DeleteCompleted removes every completed task and reports how many went.
func (s *Store) DeleteCompleted(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := slices.DeleteFunc(slices.Clone(s.tasks), func(t Task) bool { return t.Completed })
	removed := len(s.tasks) - len(next)
	if err := s.commit(ctx, "delete_completed", next); err != nil {
		return 0, err
	}
	return removed, nil
}

// SetAllCompleted sets the completion flag of every task to value.
func (s *Store) SetAllCompleted(ctx context.Context, value bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := slices.Clone(s.tasks)
	for i := range next {
		next[i].Completed = value
	}
	return s.commit(ctx, "set_all", next)
}

// List returns a snapshot of the tasks in display order.
func (s *Store) List() []Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.tasks)
}

// Stats returns total, completed and remaining counts.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return computeStats(s.tasks)
}

// Get returns the task with the given ID.
func (s *Store) Get(id string) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return Task{}, fmt.Errorf("get task %s: %w", id, ErrNotFound)
	}
	return s.tasks[i], nil
}

// IndexOf returns the current position of the task with the given ID, or -1.
func (s *Store) IndexOf(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexOf(id)
}

// ToggleID is Toggle addressed by ID.
func (s *Store) ToggleID(ctx context.Context, id string) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return Task{}, fmt.Errorf("toggle task %s: %w", id, ErrNotFound)
	}
	next := slices.Clone(s.tasks)
	next[i].Completed = !next[i].Completed
	if err := s.commit(ctx, "toggle", next); err != nil {
		return Task{}, err
	}
	return next[i], nil
}

// DeleteID is DeleteOne addressed by ID.
func (s *Store) DeleteID(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("delete task %s: %w", id, ErrNotFound)
	}
	next := slices.Delete(slices.Clone(s.tasks), i, i+1)
	return s.commit(ctx, "delete", next)
}

// commit persists next and only then makes it the current list.
// Caller holds s.mu.
func (s *Store) commit(ctx context.Context, op string, next []Task) error {
	if err := s.p.Save(ctx, next); err != nil {
		s.logger.Error("save failed, change discarded", "op", op, "err", err)
		return fmt.Errorf("save tasks: %w", err)
	}
	s.tasks = next
	stats := computeStats(next)
	s.logger.Debug("tasks saved", "op", op, "total", stats.Total, "completed", stats.Completed)
	s.bus.publish(Change{Op: op, Stats: stats})
	return nil
}

func (s *Store) checkIndex(index int) error {
	if index < 0 || index >= len(s.tasks) {
		return fmt.Errorf("index %d (len %d): %w", index, len(s.tasks), ErrIndexOutOfRange)
	}
	return nil
}

func (s *Store) indexOf(id string) int {
	return slices.IndexFunc(s.tasks, func(t Task) bool { return t.ID == id })
}

func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}
