package task

import "context"

// Repository is the task CRUD contract shared by the MySQL and memory stores.
type Repository interface {
	// Add inserts a task with status NotStarted and returns its ID. A blank
	// name is rejected with a validation error and nothing is written.
	Add(ctx context.Context, name, description string) (int64, error)
	// List returns every task in ID order.
	List(ctx context.Context) ([]Task, error)
	// UpdateStatus sets the status of task id. An invalid status is rejected
	// before storage is touched; an unknown id is not an error.
	UpdateStatus(ctx context.Context, id int64, status Status) (Result, error)
	// Delete removes task id. An unknown id is not an error.
	Delete(ctx context.Context, id int64) (Result, error)
}

// Schema manages the table behind a repository.
type Schema interface {
	// EnsureSchema creates the table if it does not exist yet.
	EnsureSchema(ctx context.Context) error
	// DropSchema drops the table. Only the test table may be dropped.
	DropSchema(ctx context.Context) error
}

// Store is a repository that also owns its table.
type Store interface {
	Repository
	Schema
	Table() Table
}
