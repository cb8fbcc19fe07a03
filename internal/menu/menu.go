// Package menu implements the interactive numbered menu over the live task
// table.
package menu

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	xerrors "taskmanager/internal/errors"
	"taskmanager/internal/selftest"
	"taskmanager/internal/task"
	"taskmanager/pkg/logger"
)

// ErrAborted is returned by a Prompter when the user pressed Ctrl-C or closed
// the input.
var ErrAborted = errors.New("menu: input aborted")

// Prompter reads one line of input after showing prompt.
type Prompter interface {
	Prompt(prompt string) (string, error)
}

// ScenarioRunner runs built-in scenarios, one by number or name or the whole
// catalogue.
type ScenarioRunner interface {
	Run(ctx context.Context, key string) selftest.Report
	RunAll(ctx context.Context) []selftest.Report
}

// Menu is the read-eval loop. All task calls go to tasks, which is bound to
// the live table.
type Menu struct {
	tasks     task.Store
	scenarios ScenarioRunner
	in        Prompter
	out       io.Writer
	log       *slog.Logger
}

// New builds a menu. scenarios may be nil, in which case option 5 reports
// that scenarios are unavailable.
func New(tasks task.Store, scenarios ScenarioRunner, in Prompter, out io.Writer) *Menu {
	return &Menu{
		tasks:     tasks,
		scenarios: scenarios,
		in:        in,
		out:       out,
		log:       logger.Named("menu"),
	}
}

const banner = `
 Task Manager
1. Add task
2. List tasks
3. Update task status
4. Delete task
5. Run automated scenarios
6. Exit`

// Run shows the menu until the user exits, aborts input or ctx is cancelled.
// Only a prompt failure other than an abort is returned as an error.
func (m *Menu) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			m.println("See you next time!")
			return nil
		}
		m.println(banner)
		choice, err := m.prompt("Choose an option: ")
		if err != nil {
			return m.finish(err)
		}

		switch strings.TrimSpace(choice) {
		case "1":
			err = m.add(ctx)
		case "2":
			err = m.list(ctx)
		case "3":
			err = m.updateStatus(ctx)
		case "4":
			err = m.delete(ctx)
		case "5":
			err = m.runScenario(ctx)
		case "6":
			m.println("See you next time!")
			return nil
		default:
			m.println("Invalid choice. Try again.")
		}
		if err != nil {
			return m.finish(err)
		}
	}
}

func (m *Menu) finish(err error) error {
	if errors.Is(err, ErrAborted) {
		m.println("\nSee you next time!")
		return nil
	}
	return err
}

func (m *Menu) add(ctx context.Context) error {
	name, err := m.prompt("Task name: ")
	if err != nil {
		return err
	}
	description, err := m.prompt("Task description: ")
	if err != nil {
		return err
	}
	if _, err := m.tasks.Add(ctx, name, description); err != nil {
		if e, ok := xerrors.From(err); ok && e == task.ErrEmptyName {
			m.println("Task name cannot be empty.")
			return nil
		}
		m.report(err, "")
		return nil
	}
	m.printf("Task %s was added to table `%s`.\n", name, m.tasks.Table())
	return nil
}

func (m *Menu) list(ctx context.Context) error {
	tasks, err := m.tasks.List(ctx)
	if err != nil {
		m.report(err, "")
		return nil
	}
	m.println("\n Task list:")
	if len(tasks) == 0 {
		m.println(" No tasks yet.")
		return nil
	}
	for _, t := range tasks {
		m.printf("[%d] %s\n %s\n Status: %s\n\n", t.ID, t.Name, t.Description, t.Status)
	}
	return nil
}

func (m *Menu) updateStatus(ctx context.Context) error {
	id, ok, err := m.promptID("Task ID: ")
	if err != nil || !ok {
		return err
	}
	raw, err := m.prompt("New status (NotStarted / InProgress / Done): ")
	if err != nil {
		return err
	}
	status, err := task.ParseStatus(raw)
	if err != nil {
		m.println("Invalid status.")
		return nil
	}
	res, err := m.tasks.UpdateStatus(ctx, id, status)
	if err != nil {
		m.report(err, "Invalid status.")
		return nil
	}
	if !res.Matched() {
		m.printf("No task with ID %d was changed.\n", id)
		return nil
	}
	m.printf("Task %d status was updated.\n", id)
	return nil
}

func (m *Menu) delete(ctx context.Context) error {
	id, ok, err := m.promptID("ID of the task to delete: ")
	if err != nil || !ok {
		return err
	}
	res, err := m.tasks.Delete(ctx, id)
	if err != nil {
		m.report(err, "")
		return nil
	}
	if !res.Matched() {
		m.printf("No task with ID %d exists in `%s`.\n", id, m.tasks.Table())
		return nil
	}
	m.printf("Task number %d was deleted from `%s`.\n", id, m.tasks.Table())
	return nil
}

func (m *Menu) runScenario(ctx context.Context) error {
	if m.scenarios == nil {
		m.println("Automated scenarios are not available.")
		return nil
	}
	m.println("\n Scenarios:")
	for _, sc := range selftest.Scenarios() {
		m.printf("%d. %s\n", sc.Number, sc.Name)
	}
	m.println("a. all scenarios")
	choice, err := m.prompt("Choose a scenario to run: ")
	if err != nil {
		return err
	}

	var reports []selftest.Report
	switch key := strings.TrimSpace(choice); key {
	case "a", "all":
		reports = m.scenarios.RunAll(ctx)
	default:
		sc, ok := selftest.Lookup(key)
		if !ok {
			m.println("Invalid choice. Try again.")
			return nil
		}
		reports = []selftest.Report{m.scenarios.Run(ctx, sc.Name)}
	}
	for _, rep := range reports {
		m.printReport(rep)
	}
	_, err = m.prompt("\n Scenario finished. Press Enter to return to the menu.")
	return err
}

func (m *Menu) printReport(rep selftest.Report) {
	if rep.Passed {
		m.printf("PASS %s (%s)\n", rep.Name, rep.Duration)
		return
	}
	m.printf("FAIL %s: %v\n", rep.Name, rep.Err)
}

// promptID reads a task id. ok is false when the input was not a number; the
// message has already been printed.
func (m *Menu) promptID(prompt string) (int64, bool, error) {
	raw, err := m.prompt(prompt)
	if err != nil {
		return 0, false, err
	}
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		m.println("Task ID must be a number.")
		return 0, false, nil
	}
	return id, true, nil
}

// report prints a rejected or failed operation. Validation errors print
// validation, or the error itself when validation is empty; anything else is
// a storage failure.
func (m *Menu) report(err error, validation string) {
	if task.IsValidation(err) {
		if validation != "" {
			m.println(validation)
		} else {
			m.printf("Rejected: %v\n", err)
		}
		return
	}
	m.log.Error("menu operation failed", slog.Any("error", err))
	m.printf("Error: %v\n", err)
}

func (m *Menu) prompt(p string) (string, error) {
	line, err := m.in.Prompt(p)
	if errors.Is(err, io.EOF) {
		return "", ErrAborted
	}
	return line, err
}

func (m *Menu) println(s string) {
	fmt.Fprintln(m.out, s)
}

func (m *Menu) printf(format string, args ...any) {
	fmt.Fprintf(m.out, format, args...)
}
