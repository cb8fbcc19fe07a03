package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	xerrors "taskmanager/internal/errors"
)

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "taskmanager.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
storage:
  mysql:
    password: secret
logging:
  audit:
    enabled: true
menu:
  history_file: .history
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, DriverMySQL, cfg.Storage.Driver)
	assert.Equal(t, "127.0.0.1", cfg.Storage.MySQL.Host)
	assert.Equal(t, 3306, cfg.Storage.MySQL.Port)
	assert.Equal(t, "root", cfg.Storage.MySQL.User)
	assert.Equal(t, "secret", cfg.Storage.MySQL.Password)
	assert.Equal(t, "task_manager", cfg.Storage.MySQL.Database)
	assert.Equal(t, 5, cfg.Storage.MySQL.ConnectTimeoutSeconds)
	assert.Equal(t, []string{filepath.Join(dir, "logs", "taskmanager.log")}, cfg.Logging.Outputs)
	assert.Equal(t, filepath.Join(dir, "logs", "audit.log"), cfg.Logging.Audit.Path)
	assert.Equal(t, filepath.Join(dir, ".history"), cfg.Menu.HistoryFile)
	assert.Equal(t, NotifyNone, cfg.Notify.Driver)
	assert.NoError(t, cfg.Validate())
}

func TestLoadKeepsSpecialOutputs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  outputs: [stderr, /var/log/tm.log]\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"stderr", "/var/log/tm.log"}, cfg.Logging.Outputs)
}

func TestLoadRejectsBrokenFiles(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Equal(t, xerrors.CodeConfigFailure, xerrors.CodeOf(err))

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage: [unclosed"), 0o644))
	_, err = Load(path)
	require.Error(t, err)
}

func TestApplyEnvOverridesConnection(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	env := map[string]string{
		"TASKMANAGER_DB_HOST":        "db.internal",
		"TASKMANAGER_DB_PORT":        "3307",
		"TASKMANAGER_DB_USER":        "tasks",
		"TASKMANAGER_DB_PASSWORD":    "1111",
		"TASKMANAGER_DB_NAME":        "my_task_manager",
		"TASKMANAGER_STORAGE_DRIVER": "Memory",
	}
	lookup := func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
	require.NoError(t, cfg.ApplyEnv(lookup))

	assert.Equal(t, "db.internal", cfg.Storage.MySQL.Host)
	assert.Equal(t, 3307, cfg.Storage.MySQL.Port)
	assert.Equal(t, "tasks", cfg.Storage.MySQL.User)
	assert.Equal(t, "1111", cfg.Storage.MySQL.Password)
	assert.Equal(t, "my_task_manager", cfg.Storage.MySQL.Database)
	assert.Equal(t, DriverMemory, cfg.Storage.Driver)

	env["TASKMANAGER_DB_PORT"] = "not-a-port"
	assert.Error(t, cfg.ApplyEnv(lookup))
}

func TestValidate(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	cfg.Storage.Driver = "sqlite"
	cfg.Notify.Driver = NotifyRedis
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown storage driver "sqlite"`)
	assert.Contains(t, err.Error(), "notify.redis.address")

	cfg.Storage.Driver = DriverMemory
	cfg.Notify.Redis.Address = "127.0.0.1:6379"
	assert.NoError(t, cfg.Validate())
}
