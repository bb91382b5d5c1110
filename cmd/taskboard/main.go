package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/rpggio/taskboard/internal/config"
	"github.com/rpggio/taskboard/internal/domain/project"
	"github.com/rpggio/taskboard/internal/domain/task"
	"github.com/rpggio/taskboard/internal/domain/user"
	"github.com/rpggio/taskboard/internal/jsonfile"
	"github.com/rpggio/taskboard/internal/repository"
	"github.com/rpggio/taskboard/internal/sqlite"
	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	if err := execute(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func execute(args []string, stdout, stderr io.Writer) error {
	root, a := newRootCmd()
	defer a.close()

	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.Execute()
}

// app holds everything a command needs once configuration is resolved.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	repo     *repository.Repository
	users    *user.Service
	projects *project.Service
	tasks    *task.Service
	closers  []io.Closer
}

type rootFlags struct {
	driver     string
	usersPath  string
	dataPath   string
	sqlitePath string
	logLevel   string
}

func newRootCmd() (*cobra.Command, *app) {
	a := &app{}
	var flags rootFlags

	root := &cobra.Command{
		Use:           "taskboard",
		Short:         "Taskboard - project boards with tasks, members and comments",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			applyRootFlags(cmd, flags, &cfg)
			return a.open(cmd, cfg)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.driver, "store", "", "Store driver (json, sqlite)")
	pf.StringVar(&flags.usersPath, "users", "", "Path to users.json")
	pf.StringVar(&flags.dataPath, "data", "", "Path to data.json")
	pf.StringVar(&flags.sqlitePath, "sqlite", "", "Path to the sqlite database")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	root.AddCommand(serveCmd(a))
	root.AddCommand(createUserCmd(a), updateUserCmd(a))
	root.AddCommand(createProjectCmd(a), listProjectsCmd(a), deleteProjectCmd(a))
	root.AddCommand(addMemberCmd(a), removeMemberCmd(a))
	root.AddCommand(addTaskCmd(a), moveTaskCmd(a), deleteTaskCmd(a), listTasksCmd(a))
	root.AddCommand(assignMemberCmd(a), removeAssigneeCmd(a))
	root.AddCommand(purgeDataCmd(a))

	return root, a
}

func applyRootFlags(cmd *cobra.Command, flags rootFlags, cfg *config.Config) {
	fs := cmd.Flags()
	if fs.Changed("store") {
		cfg.Store.Driver = flags.driver
	}
	if fs.Changed("users") {
		cfg.Store.UsersPath = flags.usersPath
	}
	if fs.Changed("data") {
		cfg.Store.DataPath = flags.dataPath
	}
	if fs.Changed("sqlite") {
		cfg.Store.SQLitePath = flags.sqlitePath
	}
	if fs.Changed("log-level") {
		cfg.Log.Level = flags.logLevel
	}
}

// open wires logging, the store and the services.
func (a *app) open(cmd *cobra.Command, cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	a.cfg = cfg

	// stdout carries command output and the stdio transport.
	logWriter := cmd.ErrOrStderr()
	if logPath := os.Getenv("TASKBOARD_LOG_PATH"); logPath != "" {
		file, err := newCappedLogFile(logPath)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "log file error: %v\n", err)
		} else {
			a.closers = append(a.closers, file)
			logWriter = file
		}
	}
	a.logger = slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	store, err := a.openStore(cfg.Store)
	if err != nil {
		return err
	}

	a.repo = repository.New(store, a.logger)
	a.users = user.NewService(a.repo, cfg.Security.BcryptCost, a.logger)
	a.projects = project.NewService(a.repo, a.logger)
	a.tasks = task.NewService(a.repo, a.logger)
	return nil
}

func (a *app) openStore(cfg config.StoreConfig) (repository.Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		if err := ensureDir(cfg.SQLitePath); err != nil {
			return nil, fmt.Errorf("failed to prepare database path: %w", err)
		}
		db, err := sqlite.New(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db)
		if err := db.RunMigrations(); err != nil {
			return nil, err
		}
		return sqlite.NewDocumentStore(db), nil
	default:
		for _, path := range []string{cfg.UsersPath, cfg.DataPath} {
			if err := ensureDir(path); err != nil {
				return nil, fmt.Errorf("failed to prepare store path: %w", err)
			}
		}
		return jsonfile.New(cfg.UsersPath, cfg.DataPath)
	}
}

func (a *app) close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i].Close())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func ensureDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
