package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/polyscan/internal/cli/config"
	"github.com/leapstack-labs/polyscan/internal/cli/output"
	"github.com/leapstack-labs/polyscan/internal/state"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext for cmd.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// getConfig returns a copy of the current configuration, falling back
// to defaults when none was loaded.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		c := *cfg
		c.Variables = append([]string(nil), cfg.Variables...)
		return &c
	}

	cfg, err := config.LoadConfig("", nil)
	if err != nil {
		return &config.Config{
			Expression:   config.DefaultExpression,
			Variables:    []string{"x", "y", "z"},
			NStart:       config.DefaultNStart,
			NEnd:         config.DefaultNEnd,
			Radius:       config.DefaultRadius,
			Evaluator:    "native",
			Workers:      config.DefaultWorkerCount,
			StatePath:    config.DefaultStateFile,
			Persist:      true,
			OutputFormat: config.DefaultOutput,
		}
	}
	return cfg
}

// openStore opens the result archive at path, creating its directory and
// schema as needed. The caller must close it.
func openStore(path string, logger *slog.Logger) (*state.SQLiteStore, error) {
	if path != ":memory:" {
		stateDir := filepath.Dir(path)
		if stateDir != "." && stateDir != "" {
			if err := os.MkdirAll(stateDir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create state directory: %w", err)
			}
		}
	}

	store := state.NewSQLiteStore(logger)
	if err := store.Open(path); err != nil {
		return nil, fmt.Errorf("failed to open result archive: %w", err)
	}
	if err := store.InitSchema(); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize result archive: %w", err)
	}
	return store, nil
}
