package task

import (
	"context"
	"log/slog"

	xerrors "taskmanager/internal/errors"
	"taskmanager/pkg/logger"
)

// Service fronts a Store for interactive callers: it writes an audit record
// for every committed change and forwards the change to a Publisher.
// Validation and storage errors from the store are returned unchanged.
type Service struct {
	store     Store
	publisher Publisher
	log       *slog.Logger
}

// ServiceOption customises a Service.
type ServiceOption func(*Service)

// WithPublisher sends change events to p. Without it no events are sent.
func WithPublisher(p Publisher) ServiceOption {
	return func(s *Service) {
		s.publisher = p
	}
}

// WithLogger replaces the component logger.
func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// NewService builds a service over store.
func NewService(store Store, opts ...ServiceOption) *Service {
	s := &Service{store: store, log: logger.Named("task")}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Table returns the table behind the service.
func (s *Service) Table() Table {
	return s.store.Table()
}

// EnsureSchema implements Schema.
func (s *Service) EnsureSchema(ctx context.Context) error {
	if err := s.ready(); err != nil {
		return err
	}
	if err := s.store.EnsureSchema(ctx); err != nil {
		s.logFailure("ensure_schema", err)
		return err
	}
	return nil
}

// DropSchema implements Schema.
func (s *Service) DropSchema(ctx context.Context) error {
	if err := s.ready(); err != nil {
		return err
	}
	if err := s.store.DropSchema(ctx); err != nil {
		s.logFailure("drop_schema", err)
		return err
	}
	logger.Audit().Info("task table dropped", slog.String("table", s.Table().String()))
	return nil
}

// Add implements Repository.
func (s *Service) Add(ctx context.Context, name, description string) (int64, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	id, err := s.store.Add(ctx, name, description)
	if err != nil {
		s.logFailure("add", err)
		return 0, err
	}
	logger.Audit().Info("task added",
		slog.String("table", s.Table().String()),
		slog.Int64("task_id", id),
		slog.String("name", name),
	)
	ev := newEvent(EventCreated, s.Table(), id)
	ev.Name = name
	ev.Status = StatusNotStarted
	s.publish(ctx, ev)
	return id, nil
}

// List implements Repository.
func (s *Service) List(ctx context.Context) ([]Task, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	tasks, err := s.store.List(ctx)
	if err != nil {
		s.logFailure("list", err)
		return nil, err
	}
	return tasks, nil
}

// UpdateStatus implements Repository.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status Status) (Result, error) {
	if err := s.ready(); err != nil {
		return Result{}, err
	}
	res, err := s.store.UpdateStatus(ctx, id, status)
	if err != nil {
		s.logFailure("update_status", err)
		return Result{}, err
	}
	logger.Audit().Info("task status updated",
		slog.String("table", s.Table().String()),
		slog.Int64("task_id", id),
		slog.String("status", status.String()),
		slog.Int64("rows_affected", res.RowsAffected),
	)
	ev := newEvent(EventStatusChanged, s.Table(), id)
	ev.Status = status
	ev.Matched = res.Matched()
	s.publish(ctx, ev)
	return res, nil
}

// Delete implements Repository.
func (s *Service) Delete(ctx context.Context, id int64) (Result, error) {
	if err := s.ready(); err != nil {
		return Result{}, err
	}
	res, err := s.store.Delete(ctx, id)
	if err != nil {
		s.logFailure("delete", err)
		return Result{}, err
	}
	logger.Audit().Info("task deleted",
		slog.String("table", s.Table().String()),
		slog.Int64("task_id", id),
		slog.Int64("rows_affected", res.RowsAffected),
	)
	ev := newEvent(EventDeleted, s.Table(), id)
	ev.Matched = res.Matched()
	s.publish(ctx, ev)
	return res, nil
}

// Close closes the publisher. The store's connection belongs to the caller.
func (s *Service) Close() error {
	if s.publisher != nil {
		return s.publisher.Close()
	}
	return nil
}

func (s *Service) ready() error {
	if s == nil || s.store == nil {
		return xerrors.New(xerrors.CodeInitializationFailure, "task service not initialized")
	}
	return nil
}

// publish never fails the caller: the change is already committed.
func (s *Service) publish(ctx context.Context, ev Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.log.Warn("publish task event failed",
			slog.String("event_id", ev.ID),
			slog.String("kind", string(ev.Kind)),
			slog.Int64("task_id", ev.TaskID),
			slog.Any("error", err),
		)
	}
}

func (s *Service) logFailure(op string, err error) {
	if IsValidation(err) {
		s.log.Info("task operation rejected", slog.String("op", op), slog.Any("error", err))
		return
	}
	s.log.Error("task operation failed",
		slog.String("op", op),
		slog.String("table", s.Table().String()),
		slog.String("severity", string(xerrors.SeverityOf(err))),
		slog.Any("error", err),
	)
}

var _ Store = (*Service)(nil)
