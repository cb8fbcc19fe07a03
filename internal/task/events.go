package task

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventKind names a change to a stored task.
type EventKind string

const (
	EventCreated       EventKind = "task.created"
	EventStatusChanged EventKind = "task.status_changed"
	EventDeleted       EventKind = "task.deleted"
)

// Event describes one committed change. It is published after the write, so
// consumers only ever see changes that are already in the table.
type Event struct {
	ID         string    `json:"id"`
	Kind       EventKind `json:"kind"`
	Table      string    `json:"table"`
	TaskID     int64     `json:"task_id"`
	Name       string    `json:"name,omitempty"`
	Status     Status    `json:"status,omitempty"`
	Matched    bool      `json:"matched"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher delivers change events to an external feed.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

func newEvent(kind EventKind, table Table, taskID int64) Event {
	return Event{
		ID:         uuid.NewString(),
		Kind:       kind,
		Table:      table.String(),
		TaskID:     taskID,
		Matched:    true,
		OccurredAt: time.Now().UTC(),
	}
}
