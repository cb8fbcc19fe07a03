package task

import (
	"time"

	xerrors "taskmanager/internal/errors"
)

// Status is the lifecycle state of a task.
type Status string

const (
	StatusNotStarted Status = "NotStarted"
	StatusInProgress Status = "InProgress"
	StatusDone       Status = "Done"
)

// Statuses lists every valid status in display order.
func Statuses() []Status {
	return []Status{StatusNotStarted, StatusInProgress, StatusDone}
}

// Valid reports whether s is one of the three known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusDone:
		return true
	default:
		return false
	}
}

func (s Status) String() string { return string(s) }

// ParseStatus converts user input into a Status. The input must match an
// enumeration member exactly; anything else is a validation error.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.Valid() {
		return "", invalidStatus(s)
	}
	return s, nil
}

// Task is a stored task record.
type Task struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// Result reports how many rows an update or delete touched. Zero is not an
// error; callers that care check Matched.
type Result struct {
	RowsAffected int64
}

// Matched reports whether at least one row was changed.
func (r Result) Matched() bool { return r.RowsAffected > 0 }

const (
	CodeTaskValidation xerrors.Code = "TASK_VALIDATION_FAILED"
	CodeTaskLiveDrop   xerrors.Code = "TASK_LIVE_TABLE_DROP"
)

var (
	// ErrEmptyName is returned by Add when the name is blank.
	ErrEmptyName = xerrors.New(CodeTaskValidation, "task name cannot be empty")
	// ErrInvalidStatus is returned when a status is outside the enumeration.
	ErrInvalidStatus = xerrors.New(CodeTaskValidation, "invalid task status")
	// ErrLiveTableDrop is returned when dropping the live table is requested.
	ErrLiveTableDrop = xerrors.New(CodeTaskLiveDrop, "the live task table cannot be dropped")
)

func init() {
	xerrors.Register(CodeTaskValidation, xerrors.Attributes{
		Message:  "task validation failed",
		Severity: xerrors.SeverityInfo,
	})
	xerrors.Register(CodeTaskLiveDrop, xerrors.Attributes{
		Message:  "the live task table cannot be dropped",
		Severity: xerrors.SeverityCritical,
	})
}

// IsValidation reports whether err is a validation failure, meaning the
// operation was rejected before anything was written.
func IsValidation(err error) bool {
	return xerrors.HasCode(err, CodeTaskValidation)
}

func invalidStatus(s Status) error {
	return xerrors.New(CodeTaskValidation, "invalid task status",
		xerrors.WithMetadata("status", string(s)),
		xerrors.WithMetadata("allowed", "NotStarted, InProgress, Done"),
	)
}
