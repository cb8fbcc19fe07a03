package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	xerrors "taskmanager/internal/errors"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "TASKMANAGER_"

// Storage drivers.
const (
	DriverMySQL  = "mysql"
	DriverMemory = "memory"
)

// Change feed drivers.
const (
	NotifyNone     = "none"
	NotifyRedis    = "redis"
	NotifyRabbitMQ = "rabbitmq"
)

// Config is the root of configs/taskmanager.yaml.
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Logging LoggingConfig `yaml:"logging"`
	Notify  NotifyConfig  `yaml:"notify"`
	Menu    MenuConfig    `yaml:"menu"`
}

// StorageConfig selects the task store backend.
type StorageConfig struct {
	Driver string      `yaml:"driver"`
	MySQL  MySQLConfig `yaml:"mysql"`
}

// MySQLConfig holds the connection parameters of the task database.
type MySQLConfig struct {
	Host                  string            `yaml:"host"`
	Port                  int               `yaml:"port"`
	User                  string            `yaml:"user"`
	Password              string            `yaml:"password"`
	Database              string            `yaml:"database"`
	Params                map[string]string `yaml:"params"`
	ConnectTimeoutSeconds int               `yaml:"connect_timeout_seconds"`
}

// LoggingConfig mirrors logger.Config.
type LoggingConfig struct {
	Level   string      `yaml:"level"`
	Format  string      `yaml:"format"`
	Outputs []string    `yaml:"outputs"`
	Audit   AuditConfig `yaml:"audit"`
}

// AuditConfig mirrors logger.AuditConfig.
type AuditConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Path       string `yaml:"path"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// NotifyConfig selects where task change events are published.
type NotifyConfig struct {
	Driver   string         `yaml:"driver"`
	Redis    RedisConfig    `yaml:"redis"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
}

// RedisConfig describes the Redis list that receives events.
type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Key      string `yaml:"key"`
}

// RabbitMQConfig describes the queue that receives events.
type RabbitMQConfig struct {
	URL     string `yaml:"url"`
	Queue   string `yaml:"queue"`
	Durable bool   `yaml:"durable"`
}

// MenuConfig tunes the interactive menu.
type MenuConfig struct {
	HistoryFile string `yaml:"history_file"`
}

// Load parses the YAML file at path and applies defaults. An empty path
// yields the defaults relative to the working directory.
func Load(path string) (*Config, error) {
	var cfg Config
	baseDir := "."
	if strings.TrimSpace(path) != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, xerrors.Wrap(xerrors.CodeConfigFailure, err, "read config file")
		}
		if err := yaml.Unmarshal(content, &cfg); err != nil {
			return nil, xerrors.Wrap(xerrors.CodeConfigFailure, err, "parse config file")
		}
		baseDir = filepath.Dir(path)
	}
	cfg.applyDefaults(baseDir)
	return &cfg, nil
}

// applyDefaults fills in anything the file left out.
func (c *Config) applyDefaults(baseDir string) {
	if c.Storage.Driver == "" {
		c.Storage.Driver = DriverMySQL
	}
	my := &c.Storage.MySQL
	if my.Host == "" {
		my.Host = "127.0.0.1"
	}
	if my.Port == 0 {
		my.Port = 3306
	}
	if my.User == "" {
		my.User = "root"
	}
	if my.Database == "" {
		my.Database = "task_manager"
	}
	if my.ConnectTimeoutSeconds <= 0 {
		my.ConnectTimeoutSeconds = 5
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if len(c.Logging.Outputs) == 0 {
		c.Logging.Outputs = []string{filepath.Join("logs", "taskmanager.log")}
	}
	for i, out := range c.Logging.Outputs {
		c.Logging.Outputs[i] = resolvePath(baseDir, out)
	}
	if c.Logging.Audit.Enabled && c.Logging.Audit.Path == "" {
		c.Logging.Audit.Path = filepath.Join("logs", "audit.log")
	}
	if c.Logging.Audit.Path != "" {
		c.Logging.Audit.Path = resolvePath(baseDir, c.Logging.Audit.Path)
	}

	if c.Notify.Driver == "" {
		c.Notify.Driver = NotifyNone
	}
	if c.Notify.Redis.Key == "" {
		c.Notify.Redis.Key = "taskmanager:events"
	}
	if c.Notify.RabbitMQ.Queue == "" {
		c.Notify.RabbitMQ.Queue = "taskmanager.events"
	}

	if c.Menu.HistoryFile != "" {
		c.Menu.HistoryFile = resolvePath(baseDir, c.Menu.HistoryFile)
	}
}

func resolvePath(baseDir, path string) string {
	switch strings.ToLower(path) {
	case "stdout", "stderr", "discard":
		return path
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// ApplyEnv overrides connection settings from TASKMANAGER_* variables.
// lookup is normally os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvPrefix + "STORAGE_DRIVER"); ok && v != "" {
		c.Storage.Driver = strings.ToLower(strings.TrimSpace(v))
	}
	if v, ok := lookup(EnvPrefix + "DB_HOST"); ok && v != "" {
		c.Storage.MySQL.Host = v
	}
	if v, ok := lookup(EnvPrefix + "DB_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return xerrors.Wrap(xerrors.CodeConfigFailure, err, fmt.Sprintf("%sDB_PORT must be a number", EnvPrefix))
		}
		c.Storage.MySQL.Port = port
	}
	if v, ok := lookup(EnvPrefix + "DB_USER"); ok && v != "" {
		c.Storage.MySQL.User = v
	}
	if v, ok := lookup(EnvPrefix + "DB_PASSWORD"); ok {
		c.Storage.MySQL.Password = v
	}
	if v, ok := lookup(EnvPrefix + "DB_NAME"); ok && v != "" {
		c.Storage.MySQL.Database = v
	}
	return nil
}

// Validate rejects settings no component can act on.
func (c *Config) Validate() error {
	var errs []error
	switch c.Storage.Driver {
	case DriverMySQL, DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown storage driver %q", c.Storage.Driver))
	}
	if c.Storage.MySQL.Port <= 0 || c.Storage.MySQL.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid MySQL port %d", c.Storage.MySQL.Port))
	}
	switch c.Notify.Driver {
	case NotifyNone:
	case NotifyRedis:
		if strings.TrimSpace(c.Notify.Redis.Address) == "" {
			errs = append(errs, errors.New("notify.redis.address is required for the redis driver"))
		}
	case NotifyRabbitMQ:
		if strings.TrimSpace(c.Notify.RabbitMQ.URL) == "" {
			errs = append(errs, errors.New("notify.rabbitmq.url is required for the rabbitmq driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown notify driver %q", c.Notify.Driver))
	}
	if len(errs) > 0 {
		return xerrors.Wrap(xerrors.CodeConfigFailure, errors.Join(errs...), "")
	}
	return nil
}
