package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Sentinel errors returned by Store operations.
var (
	ErrIndexOutOfRange = errors.New("task index out of range")
	ErrNotFound        = errors.New("task not found")
	ErrEmptyText       = errors.New("task text is empty")
)

// localLayout is the zone-less timestamp form accepted on read.
const localLayout = "2006-01-02T15:04:05.999999999"

// Task is a single to-do item.
type Task struct {
	ID        string    `json:"-"`         // in-process only, never persisted
	Text      string    `json:"text"`      // non-empty, immutable
	Completed bool      `json:"completed"` // toggled by the user
	CreatedAt time.Time `json:"createdAt"` // UTC, microsecond precision
}

// Stats summarizes a task list.
type Stats struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Remaining int `json:"remaining"`
}

// String renders the stats line shown under the task list.
func (s Stats) String() string {
	return fmt.Sprintf("Total tasks: %d | Completed: %d | Remaining: %d", s.Total, s.Completed, s.Remaining)
}

// Persister loads and saves the whole ordered task list.
type Persister interface {
	Load(ctx context.Context) ([]Task, error)
	Save(ctx context.Context, tasks []Task) error
	Close() error
}

// MarshalJSON writes createdAt in RFC 3339 with sub-second precision.
func (t Task) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Text      string `json:"text"`
		Completed bool   `json:"completed"`
		CreatedAt string `json:"createdAt"`
	}{t.Text, t.Completed, t.CreatedAt.UTC().Format(time.RFC3339Nano)})
}

// UnmarshalJSON accepts RFC 3339 timestamps and zone-less ones, which are
// read as local time.
func (t *Task) UnmarshalJSON(data []byte) error {
	var raw struct {
		Text      string `json:"text"`
		Completed bool   `json:"completed"`
		CreatedAt string `json:"createdAt"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	ts, err := ParseTimestamp(raw.CreatedAt)
	if err != nil {
		return err
	}
	t.Text = raw.Text
	t.Completed = raw.Completed
	t.CreatedAt = ts
	return nil
}

// ParseTimestamp parses a persisted createdAt value into UTC.
func ParseTimestamp(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return ts.UTC(), nil
	}
	ts, err := time.ParseInLocation(localLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse createdAt %q: %w", s, err)
	}
	return ts.UTC(), nil
}

func computeStats(tasks []Task) Stats {
	var s Stats
	s.Total = len(tasks)
	for _, t := range tasks {
		if t.Completed {
			s.Completed++
		}
	}
	s.Remaining = s.Total - s.Completed
	return s
}
