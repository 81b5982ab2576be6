// Package desktop is the Gio window for the to-do list. Every user intent
// goes through a Binding, which calls the task store and hands back a
// fresh snapshot for the next frame.
package desktop

import (
	"context"
	"io"

	"github.com/charmbracelet/log"

	"todolist/pkg/task"
)

// Snapshot is everything a frame needs to draw.
type Snapshot struct {
	Tasks []task.Task
	Stats task.Stats
}

// Binding forwards window intents to a task.Store.
type Binding struct {
	store  *task.Store
	logger *log.Logger
}

// NewBinding creates a Binding.
func NewBinding(store *task.Store, logger *log.Logger) *Binding {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Binding{store: store, logger: logger}
}

// Snapshot re-reads the list and its stats.
func (b *Binding) Snapshot() Snapshot {
	return Snapshot{Tasks: b.store.List(), Stats: b.store.Stats()}
}

// Add adds text as a new task. It reports whether the input should be
// cleared, which is only the case when a task was actually stored.
func (b *Binding) Add(ctx context.Context, text string) (bool, error) {
	before := b.store.Stats().Total
	if err := b.store.Add(ctx, text); err != nil {
		b.logger.Error("add task", "err", err)
		return false, err
	}
	return b.store.Stats().Total > before, nil
}

// Toggle flips the task at index.
func (b *Binding) Toggle(ctx context.Context, index int) error {
	return b.logged("toggle task", b.store.Toggle(ctx, index))
}

// Delete removes the task at index.
func (b *Binding) Delete(ctx context.Context, index int) error {
	return b.logged("delete task", b.store.DeleteOne(ctx, index))
}

// DeleteSelected removes every completed task.
func (b *Binding) DeleteSelected(ctx context.Context) error {
	_, err := b.store.DeleteCompleted(ctx)
	return b.logged("delete selected", err)
}

// SelectAll marks every task completed.
func (b *Binding) SelectAll(ctx context.Context) error {
	return b.logged("select all", b.store.SetAllCompleted(ctx, true))
}

// DeselectAll clears every completion flag.
func (b *Binding) DeselectAll(ctx context.Context) error {
	return b.logged("deselect all", b.store.SetAllCompleted(ctx, false))
}

// Close releases the store's persister.
func (b *Binding) Close() error {
	return b.logged("close task store", b.store.Close())
}

func (b *Binding) logged(op string, err error) error {
	if err != nil {
		b.logger.Error(op, "err", err)
	}
	return err
}
