// Package migrations ships the task table DDL for operators who provision
// the schema ahead of time. The application itself runs the same statement
// through task.MySQLStore.EnsureSchema.
package migrations

import "embed"

// Files holds every SQL migration.
//
//go:embed *.sql
var Files embed.FS
