// Package mysql opens the task manager's MySQL connection and classifies
// server errors. Table-level statements live with the task repository.
package mysql
