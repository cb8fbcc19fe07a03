package menu

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	xerrors "taskmanager/internal/errors"
	"taskmanager/internal/selftest"
	"taskmanager/internal/task"
)

// script feeds canned answers and reports EOF once they run out.
type script struct {
	answers []string
	prompts []string
}

func (s *script) Prompt(prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if len(s.answers) == 0 {
		return "", io.EOF
	}
	next := s.answers[0]
	s.answers = s.answers[1:]
	return next, nil
}

func liveStore(t *testing.T) *task.MemoryStore {
	t.Helper()
	store := task.NewMemoryStore(task.TableLive)
	require.NoError(t, store.EnsureSchema(context.Background()))
	return store
}

func run(t *testing.T, store task.Store, runner ScenarioRunner, answers ...string) string {
	t.Helper()
	var out bytes.Buffer
	m := New(store, runner, &script{answers: answers}, &out)
	require.NoError(t, m.Run(context.Background()))
	return out.String()
}

func TestMenuAddListUpdateDelete(t *testing.T) {
	store := liveStore(t)
	out := run(t, store, nil,
		"1", "Write report", "quarterly numbers",
		"3", "1", "InProgress",
		"2",
		"4", "1",
		"6",
	)

	assert.Contains(t, out, "Task Write report was added to table `tasks`.")
	assert.Contains(t, out, "Task 1 status was updated.")
	assert.Contains(t, out, "[1] Write report\n quarterly numbers\n Status: InProgress\n")
	assert.Contains(t, out, "Task number 1 was deleted from `tasks`.")
	assert.True(t, strings.HasSuffix(out, "See you next time!\n"))

	tasks, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestMenuRejectsBadInput(t *testing.T) {
	store := liveStore(t)
	out := run(t, store, nil,
		"1", "", "no name",
		"3", "abc",
		"1", "Task", "desc",
		"3", "1", "Other",
		"4", "9999",
		"9",
		"6",
	)

	assert.Contains(t, out, "Task name cannot be empty.")
	assert.Contains(t, out, "Task ID must be a number.")
	assert.Contains(t, out, "Invalid status.")
	assert.Contains(t, out, "No task with ID 9999 exists in `tasks`.")
	assert.Contains(t, out, "Invalid choice. Try again.")

	tasks, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, task.StatusNotStarted, tasks[0].Status)
}

func TestMenuEmptyList(t *testing.T) {
	out := run(t, liveStore(t), nil, "2", "6")
	assert.Contains(t, out, " Task list:\n No tasks yet.\n")
}

func TestMenuEndsOnEOF(t *testing.T) {
	out := run(t, liveStore(t), nil, "2")
	assert.True(t, strings.HasSuffix(out, "\nSee you next time!\n"))
}

func TestMenuPrintsStorageErrors(t *testing.T) {
	// The table was never created, so every call fails in storage.
	store := task.NewMemoryStore(task.TableLive)
	out := run(t, store, nil, "2", "1", "a", "b", "6")
	assert.Equal(t, 2, strings.Count(out, "Error: "))
	assert.Contains(t, out, "See you next time!")
}

func TestMenuRunsScenarios(t *testing.T) {
	runner, err := selftest.NewRunner(task.NewMemoryStore(task.TableTest))
	require.NoError(t, err)

	out := run(t, liveStore(t), runner, "5", "2", "", "5", "42", "6")
	assert.Contains(t, out, "6. delete_missing_task")
	assert.Contains(t, out, "PASS add_task_empty_name")
	assert.Contains(t, out, "Invalid choice. Try again.")
}

func TestMenuRunsAllScenarios(t *testing.T) {
	runner, err := selftest.NewRunner(task.NewMemoryStore(task.TableTest))
	require.NoError(t, err)

	out := run(t, liveStore(t), runner, "5", "all", "", "6")
	assert.Contains(t, out, "a. all scenarios")
	assert.Equal(t, 6, strings.Count(out, "PASS "))
	assert.NotContains(t, out, "FAIL ")
}

// columnRejectingStore fails every non-empty insert the way MySQL rejects a
// value that does not fit the column.
type columnRejectingStore struct {
	*task.MemoryStore
}

func (columnRejectingStore) Add(_ context.Context, name, _ string) (int64, error) {
	if name == "" {
		return 0, task.ErrEmptyName
	}
	cause := errors.New("Error 1265 (01000): Data truncated for column 'name' at row 1")
	return 0, xerrors.Wrap(task.CodeTaskValidation, cause, "insert task")
}

func TestMenuPrintsServerSideRejection(t *testing.T) {
	store := columnRejectingStore{MemoryStore: liveStore(t)}
	out := run(t, store, nil, "1", "Write report", "desc", "1", "", "desc", "6")

	assert.Contains(t, out, "Rejected: [TASK_VALIDATION_FAILED] insert task: Error 1265")
	assert.NotContains(t, out, "Error: ")
	assert.Equal(t, 1, strings.Count(out, "Rejected: "))
	assert.Equal(t, 1, strings.Count(out, "Task name cannot be empty."))
}

func TestMenuWithoutScenarios(t *testing.T) {
	out := run(t, liveStore(t), nil, "5", "6")
	assert.Contains(t, out, "Automated scenarios are not available.")
}

type failingPrompter struct{}

func (failingPrompter) Prompt(string) (string, error) { return "", errors.New("terminal gone") }

func TestMenuReturnsPromptFailures(t *testing.T) {
	m := New(liveStore(t), nil, failingPrompter{}, io.Discard)
	assert.EqualError(t, m.Run(context.Background()), "terminal gone")
}

func TestMenuStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := &script{answers: []string{"1"}}
	var out bytes.Buffer
	require.NoError(t, New(liveStore(t), nil, p, &out).Run(ctx))
	assert.Empty(t, p.prompts)
}

func TestSaveHistoryReplacesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "history")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("old\n"), 0o644))

	dump := func(w io.Writer) (int, error) { return io.WriteString(w, "1\n2\n") }
	require.NoError(t, saveHistory(path, dump))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "1\n2\n", string(data))

	broken := func(io.Writer) (int, error) { return 0, errors.New("boom") }
	assert.Error(t, saveHistory(path, broken))
	data, _ = os.ReadFile(path)
	assert.Equal(t, "1\n2\n", string(data))
}
