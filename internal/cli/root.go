package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nhle/planner/internal/app"
	"github.com/nhle/planner/internal/engine"
	"github.com/nhle/planner/internal/logging"
	"github.com/nhle/planner/internal/model"
	"github.com/nhle/planner/internal/store"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "planner",
	Short: "Planner - tasks with checklists, statuses and deadlines",
	Long: `Planner keeps a list of tasks, each with an ordered checklist.

A task's status follows its checklist (todo, doing, done) unless set by
hand, and a deadline in the past marks it expired. Running planner with
no subcommand opens the terminal UI.`,
	SilenceUsage: true,
	Args:         cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer env.Close()

		p := tea.NewProgram(app.New(env.engine), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("running terminal UI: %w", err)
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "planner %s\ncommit: %s\nbuilt:  %s\n", appVersion, appCommit, appDate)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default "+model.DefaultConfigPath()+")")
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// environment is the wired application: config, logger, store, engine.
type environment struct {
	cfg    *model.AppConfig
	logger *zap.Logger
	store  *store.SQLStore
	engine *engine.Engine

	closeLog func()
}

// setup loads config, builds the logger, opens the store and loads the
// engine. Any failure here is fatal for the command.
func setup(ctx context.Context, logToStderr bool) (*environment, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger, closeLog, err := logging.New(cfg.Log, logToStderr)
	if err != nil {
		return nil, err
	}

	s, err := openStore(ctx, cfg.Storage)
	if err != nil {
		logger.Error("opening store failed", zap.String("driver", cfg.Storage.Driver), zap.Error(err))
		closeLog()
		return nil, err
	}
	logger.Info("store opened", zap.String("driver", s.Driver()))

	e := engine.New(s, logger)
	if err := e.Load(ctx); err != nil {
		_ = s.Close()
		closeLog()
		return nil, fmt.Errorf("loading tasks: %w", err)
	}

	return &environment{cfg: cfg, logger: logger, store: s, engine: e, closeLog: closeLog}, nil
}

// Close releases the store and flushes the logger.
func (env *environment) Close() {
	if err := env.store.Close(); err != nil {
		env.logger.Warn("closing store", zap.Error(err))
	}
	env.closeLog()
}

func loadConfig() (*model.AppConfig, error) {
	cfg, err := model.LoadConfig(configPath())
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func openStore(ctx context.Context, cfg model.StorageConfig) (*store.SQLStore, error) {
	switch cfg.Driver {
	case model.DriverPostgres:
		s, err := store.NewPostgresStore(ctx, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("opening postgres store: %w", err)
		}
		return s, nil
	default:
		if cfg.Path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
				return nil, fmt.Errorf("creating data directory: %w", err)
			}
		}
		s, err := store.NewSQLiteStore(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite store %s: %w", cfg.Path, err)
		}
		return s, nil
	}
}
