package task

import (
	"context"
	"sort"
	"sync"
	"time"

	xerrors "taskmanager/internal/errors"
)

// MemoryStore keeps one table in process. It backs the "memory" storage
// driver and the tests.
type MemoryStore struct {
	mu     sync.Mutex
	table  Table
	exists bool
	nextID int64
	tasks  map[int64]Task
	now    func() time.Time
}

// NewMemoryStore creates an empty store bound to table. Like MySQL, the table
// has to be created with EnsureSchema before use.
func NewMemoryStore(table Table) *MemoryStore {
	return &MemoryStore{table: table, now: time.Now}
}

// Table returns the table the store is bound to.
func (m *MemoryStore) Table() Table { return m.table }

// EnsureSchema implements Schema.
func (m *MemoryStore) EnsureSchema(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.exists {
		m.exists = true
		m.nextID = 1
		m.tasks = make(map[int64]Task)
	}
	return nil
}

// DropSchema implements Schema. The auto-increment counter restarts, as it
// does when MySQL drops a table.
func (m *MemoryStore) DropSchema(context.Context) error {
	if m.table == TableLive {
		return ErrLiveTableDrop
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exists = false
	m.tasks = nil
	return nil
}

// Add implements Repository.
func (m *MemoryStore) Add(_ context.Context, name, description string) (int64, error) {
	if name == "" {
		return 0, ErrEmptyName
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkTable(); err != nil {
		return 0, err
	}
	id := m.nextID
	m.nextID++
	m.tasks[id] = Task{
		ID:          id,
		Name:        name,
		Description: description,
		Status:      StatusNotStarted,
		CreatedAt:   m.now().Truncate(time.Second),
	}
	return id, nil
}

// List implements Repository.
func (m *MemoryStore) List(context.Context) ([]Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkTable(); err != nil {
		return nil, err
	}
	tasks := make([]Task, 0, len(m.tasks))
	for _, t := range m.tasks {
		tasks = append(tasks, t)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
	return tasks, nil
}

// UpdateStatus implements Repository.
func (m *MemoryStore) UpdateStatus(_ context.Context, id int64, status Status) (Result, error) {
	if !status.Valid() {
		return Result{}, invalidStatus(status)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkTable(); err != nil {
		return Result{}, err
	}
	t, ok := m.tasks[id]
	if !ok || t.Status == status {
		// MySQL reports changed rows, so rewriting the same status counts as zero.
		return Result{}, nil
	}
	t.Status = status
	m.tasks[id] = t
	return Result{RowsAffected: 1}, nil
}

// Delete implements Repository.
func (m *MemoryStore) Delete(_ context.Context, id int64) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkTable(); err != nil {
		return Result{}, err
	}
	if _, ok := m.tasks[id]; !ok {
		return Result{}, nil
	}
	delete(m.tasks, id)
	return Result{RowsAffected: 1}, nil
}

func (m *MemoryStore) checkTable() error {
	if !m.exists {
		return xerrors.New(xerrors.CodeStorageFailure, "table "+m.table.String()+" doesn't exist")
	}
	return nil
}

var _ Store = (*MemoryStore)(nil)
