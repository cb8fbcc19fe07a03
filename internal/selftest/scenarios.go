// Package selftest runs the built-in acceptance scenarios against the test
// task table. Each scenario gets a freshly created table that is dropped
// again once the scenario finishes.
package selftest

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"taskmanager/internal/task"
)

// Scenario is one numbered acceptance check.
type Scenario struct {
	Number      int
	Name        string
	Description string
	run         func(ctx context.Context, repo task.Repository) error
}

var catalogue = []Scenario{
	{
		Number:      1,
		Name:        "add_task",
		Description: "adding a task stores it with status NotStarted",
		run:         addTask,
	},
	{
		Number:      2,
		Name:        "add_task_empty_name",
		Description: "adding a task without a name is rejected",
		run:         addTaskEmptyName,
	},
	{
		Number:      3,
		Name:        "update_task_status",
		Description: "a task status can be set to Done",
		run:         updateTaskStatus,
	},
	{
		Number:      4,
		Name:        "update_task_invalid_status",
		Description: "an unknown status is rejected and the task is unchanged",
		run:         updateTaskInvalidStatus,
	},
	{
		Number:      5,
		Name:        "delete_task",
		Description: "a deleted task no longer appears in the list",
		run:         deleteTask,
	},
	{
		Number:      6,
		Name:        "delete_missing_task",
		Description: "deleting an unknown id succeeds and changes nothing",
		run:         deleteMissingTask,
	},
}

// Scenarios returns the catalogue in menu order.
func Scenarios() []Scenario {
	out := make([]Scenario, len(catalogue))
	copy(out, catalogue)
	return out
}

// Lookup finds a scenario by its number or its name.
func Lookup(key string) (Scenario, bool) {
	key = strings.TrimSpace(key)
	if n, err := strconv.Atoi(key); err == nil {
		for _, sc := range catalogue {
			if sc.Number == n {
				return sc, true
			}
		}
		return Scenario{}, false
	}
	for _, sc := range catalogue {
		if sc.Name == key {
			return sc, true
		}
	}
	return Scenario{}, false
}

const (
	sampleName        = "Test Task"
	sampleDescription = "Test Description"
	missingID         = 9999
)

func addTask(ctx context.Context, repo task.Repository) error {
	if _, err := repo.Add(ctx, sampleName, sampleDescription); err != nil {
		return fmt.Errorf("add: %w", err)
	}
	tasks, err := repo.List(ctx)
	if err != nil {
		return fmt.Errorf("list: %w", err)
	}
	if len(tasks) != 1 {
		return fmt.Errorf("expected 1 task, found %d", len(tasks))
	}
	got := tasks[0]
	if got.Name != sampleName || got.Description != sampleDescription || got.Status != task.StatusNotStarted {
		return fmt.Errorf("unexpected task %q/%q/%s", got.Name, got.Description, got.Status)
	}
	return nil
}

func addTaskEmptyName(ctx context.Context, repo task.Repository) error {
	_, err := repo.Add(ctx, "", sampleDescription)
	if err == nil {
		return fmt.Errorf("empty name was accepted")
	}
	if !task.IsValidation(err) {
		return fmt.Errorf("expected a validation error: %w", err)
	}
	return expectEmpty(ctx, repo)
}

func updateTaskStatus(ctx context.Context, repo task.Repository) error {
	id, err := repo.Add(ctx, sampleName, sampleDescription)
	if err != nil {
		return fmt.Errorf("add: %w", err)
	}
	if _, err := repo.UpdateStatus(ctx, id, task.StatusDone); err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	return expectStatus(ctx, repo, task.StatusDone)
}

func updateTaskInvalidStatus(ctx context.Context, repo task.Repository) error {
	id, err := repo.Add(ctx, sampleName, sampleDescription)
	if err != nil {
		return fmt.Errorf("add: %w", err)
	}
	_, err = repo.UpdateStatus(ctx, id, task.Status("Other"))
	if err == nil {
		return fmt.Errorf("status %q was accepted", "Other")
	}
	if !task.IsValidation(err) {
		return fmt.Errorf("expected a validation error: %w", err)
	}
	return expectStatus(ctx, repo, task.StatusNotStarted)
}

func deleteTask(ctx context.Context, repo task.Repository) error {
	id, err := repo.Add(ctx, sampleName, sampleDescription)
	if err != nil {
		return fmt.Errorf("add: %w", err)
	}
	if _, err := repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	return expectEmpty(ctx, repo)
}

func deleteMissingTask(ctx context.Context, repo task.Repository) error {
	res, err := repo.Delete(ctx, missingID)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	if res.Matched() {
		return fmt.Errorf("expected no rows affected, got %d", res.RowsAffected)
	}
	return expectEmpty(ctx, repo)
}

func expectEmpty(ctx context.Context, repo task.Repository) error {
	tasks, err := repo.List(ctx)
	if err != nil {
		return fmt.Errorf("list: %w", err)
	}
	if len(tasks) != 0 {
		return fmt.Errorf("expected no tasks, found %d", len(tasks))
	}
	return nil
}

func expectStatus(ctx context.Context, repo task.Repository, want task.Status) error {
	tasks, err := repo.List(ctx)
	if err != nil {
		return fmt.Errorf("list: %w", err)
	}
	if len(tasks) != 1 {
		return fmt.Errorf("expected 1 task, found %d", len(tasks))
	}
	if tasks[0].Status != want {
		return fmt.Errorf("expected status %s, found %s", want, tasks[0].Status)
	}
	return nil
}
