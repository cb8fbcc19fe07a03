package mysql

import (
	"context"
	"database/sql"
	stdErrors "errors"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	xerrors "taskmanager/internal/errors"
)

// MySQL server error numbers the task store cares about.
const (
	ErrNumNoSuchTable     = 1146
	ErrNumAccessDenied    = 1045
	ErrNumUnknownDatabase = 1049
	ErrNumDataTruncated   = 1265
)

// Config describes the single connection the task manager keeps open.
type Config struct {
	Host           string
	Port           int
	User           string
	Password       string
	Database       string
	Params         map[string]string
	ConnectTimeout time.Duration
}

// DSN renders cfg as a go-sql-driver DSN. parseTime is always on so DATETIME
// columns scan into time.Time.
func (cfg Config) DSN() string {
	dc := mysql.NewConfig()
	dc.User = cfg.User
	dc.Passwd = cfg.Password
	dc.Net = "tcp"
	dc.Addr = cfg.Addr()
	dc.DBName = cfg.Database
	dc.ParseTime = true
	dc.Loc = time.Local
	if cfg.ConnectTimeout > 0 {
		dc.Timeout = cfg.ConnectTimeout
	}
	if len(cfg.Params) > 0 {
		dc.Params = make(map[string]string, len(cfg.Params))
		for k, v := range cfg.Params {
			dc.Params[k] = v
		}
	}
	return dc.FormatDSN()
}

// Addr is the host:port the DSN dials, with 127.0.0.1:3306 filling in
// whatever is unset.
func (cfg Config) Addr() string {
	host := cfg.Host
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.Port
	if port == 0 {
		port = 3306
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// Open connects to the task database. The pool is pinned to one connection:
// every repository call shares the same session for the life of the process.
// The caller must Close the returned handle.
func Open(ctx context.Context, cfg Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.Database) == "" {
		return nil, xerrors.New(xerrors.CodeInvalidArgument, "MySQL database name cannot be empty")
	}

	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "open MySQL connection")
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "cannot reach MySQL",
			xerrors.WithMetadata("addr", cfg.Addr()),
			xerrors.WithMetadata("database", cfg.Database),
		)
	}
	return db, nil
}

// ErrorNumber returns the server error number carried by err, or 0.
func ErrorNumber(err error) uint16 {
	var mysqlErr *mysql.MySQLError
	if stdErrors.As(err, &mysqlErr) {
		return mysqlErr.Number
	}
	return 0
}

// IsNoSuchTable reports whether err is "table doesn't exist".
func IsNoSuchTable(err error) bool {
	return ErrorNumber(err) == ErrNumNoSuchTable
}

// IsDataTruncated reports whether the server rejected a value as out of range
// for its column, e.g. an ENUM member it does not know.
func IsDataTruncated(err error) bool {
	return ErrorNumber(err) == ErrNumDataTruncated
}

// IsAccessProblem reports credential or database-selection failures.
func IsAccessProblem(err error) bool {
	switch ErrorNumber(err) {
	case ErrNumAccessDenied, ErrNumUnknownDatabase:
		return true
	}
	return false
}
