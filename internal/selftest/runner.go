package selftest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	xerrors "taskmanager/internal/errors"
	"taskmanager/internal/task"
	"taskmanager/pkg/logger"
)

// Report is the outcome of one scenario run.
type Report struct {
	Name     string
	RunID    string
	Passed   bool
	Err      error
	Duration time.Duration
}

// Runner executes scenarios against a test table store.
type Runner struct {
	store task.Store
	log   *slog.Logger
	now   func() time.Time
}

// NewRunner binds a runner to store. The live table is refused because every
// run drops the table it used.
func NewRunner(store task.Store) (*Runner, error) {
	if store == nil {
		return nil, xerrors.New(xerrors.CodeInitializationFailure, "scenario store is nil")
	}
	if store.Table() == task.TableLive {
		return nil, xerrors.New(xerrors.CodeInvalidArgument, "scenarios cannot run against the live table")
	}
	return &Runner{store: store, log: logger.Named("selftest"), now: time.Now}, nil
}

// Run executes the scenario named by key, which may be its number or name.
func (r *Runner) Run(ctx context.Context, key string) Report {
	sc, ok := Lookup(key)
	if !ok {
		return Report{
			Name:  key,
			RunID: uuid.NewString(),
			Err:   xerrors.New(xerrors.CodeInvalidArgument, fmt.Sprintf("unknown scenario %q", key)),
		}
	}
	return r.run(ctx, sc)
}

// RunAll executes the whole catalogue in order.
func (r *Runner) RunAll(ctx context.Context) []Report {
	reports := make([]Report, 0, len(catalogue))
	for _, sc := range catalogue {
		reports = append(reports, r.run(ctx, sc))
	}
	return reports
}

func (r *Runner) run(ctx context.Context, sc Scenario) Report {
	rep := Report{Name: sc.Name, RunID: uuid.NewString()}
	log := r.log.With(slog.String("scenario", sc.Name), slog.String("run_id", rep.RunID))
	start := r.now()

	// Leftovers from an interrupted run would break the row counts.
	if err := r.store.DropSchema(ctx); err != nil {
		log.Warn("clear test table failed", slog.Any("error", err))
	}
	if err := r.store.EnsureSchema(ctx); err != nil {
		rep.Err = fmt.Errorf("create test table: %w", err)
	} else {
		rep.Err = sc.run(ctx, r.store)
		if err := r.store.DropSchema(ctx); err != nil {
			log.Warn("drop test table failed", slog.Any("error", err))
		}
	}

	rep.Duration = r.now().Sub(start)
	rep.Passed = rep.Err == nil
	if rep.Passed {
		log.Info("scenario passed", slog.Duration("duration", rep.Duration))
	} else {
		log.Error("scenario failed", slog.Duration("duration", rep.Duration), slog.Any("error", rep.Err))
	}
	logger.Audit().Info("scenario run",
		slog.String("scenario", sc.Name),
		slog.String("run_id", rep.RunID),
		slog.Bool("passed", rep.Passed),
	)
	return rep
}
