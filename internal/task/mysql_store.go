package task

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	xerrors "taskmanager/internal/errors"
	storagemysql "taskmanager/internal/storage/mysql"
)

// MySQLStore keeps tasks in one MySQL table. Every write runs in its own
// transaction and is committed before the call returns.
type MySQLStore struct {
	db    *sql.DB
	table Table
	stmt  statements
}

// NewMySQLStore binds a store to table on an already open connection. The
// store does not own db and never closes it.
func NewMySQLStore(db *sql.DB, table Table) (*MySQLStore, error) {
	if db == nil {
		return nil, xerrors.New(xerrors.CodeInitializationFailure, "database handle is nil")
	}
	st, err := statementsFor(table)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeInvalidArgument, err, "")
	}
	return &MySQLStore{db: db, table: table, stmt: st}, nil
}

// Table returns the table the store is bound to.
func (s *MySQLStore) Table() Table { return s.table }

// EnsureSchema creates the table if needed. An existing table is left as is.
func (s *MySQLStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.exec(ctx, s.stmt.createTable); err != nil {
		return wrapStorage(err, fmt.Sprintf("create table %s", s.stmt.name))
	}
	return nil
}

// DropSchema drops the test table.
func (s *MySQLStore) DropSchema(ctx context.Context) error {
	if s.table == TableLive {
		return ErrLiveTableDrop
	}
	if _, err := s.exec(ctx, s.stmt.dropTable); err != nil {
		return wrapStorage(err, fmt.Sprintf("drop table %s", s.stmt.name))
	}
	return nil
}

// Add implements Repository.
func (s *MySQLStore) Add(ctx context.Context, name, description string) (int64, error) {
	if name == "" {
		return 0, ErrEmptyName
	}
	res, err := s.exec(ctx, s.stmt.insert, name, description)
	if err != nil {
		return 0, wrapStorage(err, "insert task")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, wrapStorage(err, "read inserted task id")
	}
	return id, nil
}

// List implements Repository.
func (s *MySQLStore) List(ctx context.Context) ([]Task, error) {
	rows, err := s.db.QueryContext(ctx, s.stmt.list)
	if err != nil {
		return nil, wrapStorage(err, "query tasks")
	}
	defer rows.Close()

	tasks := make([]Task, 0)
	for rows.Next() {
		var (
			t         Task
			status    string
			createdAt sql.NullTime
		)
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &status, &createdAt); err != nil {
			return nil, wrapStorage(err, "scan task row")
		}
		t.Status = Status(status)
		if createdAt.Valid {
			t.CreatedAt = createdAt.Time
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStorage(err, "iterate task rows")
	}
	return tasks, nil
}

// UpdateStatus implements Repository.
func (s *MySQLStore) UpdateStatus(ctx context.Context, id int64, status Status) (Result, error) {
	if !status.Valid() {
		return Result{}, invalidStatus(status)
	}
	res, err := s.exec(ctx, s.stmt.updateStatus, string(status), id)
	if err != nil {
		return Result{}, wrapStorage(err, "update task status")
	}
	return affected(res)
}

// Delete implements Repository.
func (s *MySQLStore) Delete(ctx context.Context, id int64) (Result, error) {
	res, err := s.exec(ctx, s.stmt.delete, id)
	if err != nil {
		return Result{}, wrapStorage(err, "delete task")
	}
	return affected(res)
}

// exec runs one statement in its own transaction and commits it. A failed
// statement is rolled back once and the error returned; nothing is retried.
func (s *MySQLStore) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return res, nil
}

func affected(res sql.Result) (Result, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return Result{}, wrapStorage(err, "read affected rows")
	}
	return Result{RowsAffected: n}, nil
}

// wrapStorage tags driver errors with the server error number. A value the
// column rejects is reported as a validation failure.
func wrapStorage(err error, message string) error {
	var opts []xerrors.Option
	if n := storagemysql.ErrorNumber(err); n != 0 {
		opts = append(opts, xerrors.WithMetadata("mysql_errno", strconv.Itoa(int(n))))
	}
	switch {
	case storagemysql.IsDataTruncated(err):
		return xerrors.Wrap(CodeTaskValidation, err, message, opts...)
	case storagemysql.IsAccessProblem(err), storagemysql.IsNoSuchTable(err):
		opts = append(opts, xerrors.WithSeverity(xerrors.SeverityCritical))
	}
	return xerrors.Wrap(xerrors.CodeStorageFailure, err, message, opts...)
}

var _ Store = (*MySQLStore)(nil)
