// Package config loads the task manager configuration from a YAML file and
// lets TASKMANAGER_* environment variables (optionally from a .env file)
// override the database connection settings.
package config
