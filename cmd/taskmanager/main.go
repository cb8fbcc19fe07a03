package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"taskmanager/internal/config"
	"taskmanager/internal/menu"
	"taskmanager/internal/notify"
	"taskmanager/internal/selftest"
	"taskmanager/internal/storage/mysql"
	"taskmanager/internal/task"
	"taskmanager/pkg/logger"
)

const defaultConfigPath = "configs/taskmanager.yaml"

var errScenarioFailed = errors.New("scenario failed")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, errScenarioFailed) {
			os.Exit(1)
		}
		log.Fatalf("taskmanager: %v", err)
	}
}

func run(ctx context.Context, args []string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	flags := pflag.NewFlagSet("taskmanager", pflag.ContinueOnError)
	configPath := flags.String("config", configPathFromEnv(), "path to the YAML config file")
	scenario := flags.String("run-scenario", "", `run one scenario by number or name, or "all", and exit`)
	listScenarios := flags.Bool("list-scenarios", false, "print the scenario catalogue and exit")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	if *listScenarios {
		for _, sc := range selftest.Scenarios() {
			fmt.Printf("%d. %-28s %s\n", sc.Number, sc.Name, sc.Description)
		}
		return nil
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := logger.Init(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: cfg.Logging.Outputs,
		Audit: logger.AuditConfig{
			Enabled:    cfg.Logging.Audit.Enabled,
			Path:       cfg.Logging.Audit.Path,
			MaxSizeMB:  cfg.Logging.Audit.MaxSizeMB,
			MaxBackups: cfg.Logging.Audit.MaxBackups,
			MaxAgeDays: cfg.Logging.Audit.MaxAgeDays,
		},
	}); err != nil {
		return err
	}
	defer logger.Sync()
	mainLog := logger.Named("main")

	liveStore, testStore, closeStores, err := openStores(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer closeStores()

	runner, err := selftest.NewRunner(task.NewService(testStore))
	if err != nil {
		return err
	}

	if *scenario != "" {
		var reports []selftest.Report
		if *scenario == "all" {
			reports = runner.RunAll(ctx)
		} else {
			reports = []selftest.Report{runner.Run(ctx, *scenario)}
		}
		failed := false
		for _, rep := range reports {
			if rep.Passed {
				fmt.Printf("PASS %s (%s)\n", rep.Name, rep.Duration)
				continue
			}
			failed = true
			fmt.Printf("FAIL %s: %v\n", rep.Name, rep.Err)
		}
		if failed {
			return errScenarioFailed
		}
		return nil
	}

	publisher, err := notify.New(ctx, cfg.Notify)
	if err != nil {
		return err
	}
	live := task.NewService(liveStore, task.WithPublisher(publisher))
	defer func() {
		if err := live.Close(); err != nil {
			mainLog.Warn("close change feed failed", "error", err)
		}
	}()
	if err := live.EnsureSchema(ctx); err != nil {
		return err
	}
	mainLog.Info("task manager started",
		"storage", cfg.Storage.Driver,
		"notify", cfg.Notify.Driver,
		"table", live.Table().String(),
	)

	prompter := menu.NewLinePrompter(cfg.Menu.HistoryFile)
	defer func() {
		if err := prompter.Close(); err != nil {
			mainLog.Warn("save menu history failed", "error", err)
		}
	}()
	return menu.New(live, runner, prompter, os.Stdout).Run(ctx)
}

func configPathFromEnv() string {
	if path := os.Getenv(config.EnvPrefix + "CONFIG"); path != "" {
		return path
	}
	if _, err := os.Stat(defaultConfigPath); err == nil {
		return filepath.Clean(defaultConfigPath)
	}
	return ""
}

// openStores returns the live and test stores. With MySQL both share one
// pinned connection.
func openStores(ctx context.Context, cfg config.StorageConfig) (task.Store, task.Store, func(), error) {
	if cfg.Driver == config.DriverMemory {
		return task.NewMemoryStore(task.TableLive), task.NewMemoryStore(task.TableTest), func() {}, nil
	}

	db, err := mysql.Open(ctx, mysql.Config{
		Host:           cfg.MySQL.Host,
		Port:           cfg.MySQL.Port,
		User:           cfg.MySQL.User,
		Password:       cfg.MySQL.Password,
		Database:       cfg.MySQL.Database,
		Params:         cfg.MySQL.Params,
		ConnectTimeout: time.Duration(cfg.MySQL.ConnectTimeoutSeconds) * time.Second,
	})
	if err != nil {
		return nil, nil, nil, err
	}
	closeDB := func() { closeQuietly(db) }

	live, err := task.NewMySQLStore(db, task.TableLive)
	if err != nil {
		closeDB()
		return nil, nil, nil, err
	}
	test, err := task.NewMySQLStore(db, task.TableTest)
	if err != nil {
		closeDB()
		return nil, nil, nil, err
	}
	return live, test, closeDB, nil
}

func closeQuietly(db *sql.DB) {
	if err := db.Close(); err != nil {
		logger.L().Warn("close database failed", "error", err)
	}
}
