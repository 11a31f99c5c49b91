package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/polyscan/internal/cli/output"
	"github.com/leapstack-labs/polyscan/internal/engine"
	"github.com/leapstack-labs/polyscan/internal/state"
	"github.com/leapstack-labs/polyscan/pkg/core"
	"github.com/leapstack-labs/polyscan/pkg/expression"
)

// SearchOptions holds options for the search command that are not
// configuration keys.
type SearchOptions struct {
	TUI bool
}

// NewSearchCommand creates the search command.
func NewSearchCommand() *cobra.Command {
	opts := &SearchOptions{}

	cmd := &cobra.Command{
		Use:   "search [expression]",
		Short: "Search for integer solutions of expression = n",
		Long: `Scan every integer tuple in [-R, R]^k for each target n in [n-start, n-end]
and report the tuples where the expression equals n within tolerance.

The expression may reference the declared variables and the target n.
Supported operators are + - * / % and ** (or ^) with parentheses.
Results are streamed as each target completes and archived unless
--no-persist is given. Press Ctrl+C to stop; completed targets are kept.`,
		Example: `  # Sum of three cubes for n = 1..10 within |x|,|y|,|z| <= 10
  polyscan search

  # Pell-like equation in two variables
  polyscan search "x**2 - 2*y**2" --variables x,y --n-start -5 --n-end 5 -r 50

  # Stream JSON lines for scripting
  polyscan search -o json --n-end 30

  # Interactive progress view
  polyscan search --tui --radius 40`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, args, opts)
		},
	}

	f := cmd.Flags()
	f.StringP("expression", "e", "", "Polynomial expression in the variables and n")
	f.String("variables", "", "Comma-separated variable names (default: x,y,z)")
	f.Int64("n-start", 0, "First target value (default: 1)")
	f.Int64("n-end", 0, "Last target value, inclusive (default: 10)")
	f.Int64P("radius", "r", 0, "Search radius R; each variable ranges over [-R, R] (default: 10)")
	f.Float64("tolerance", 0, "Absolute residual bound for a solution (default: 1e-10)")
	f.String("evaluator", "", "Expression backend (native|expr)")
	f.Int("workers", 0, "Number of target values scanned concurrently (default: 1)")
	f.Duration("timeout", 0, "Stop the search after this duration (0 disables)")
	f.Bool("no-persist", false, "Do not archive the run")
	f.BoolVar(&opts.TUI, "tui", false, "Show an interactive progress view")

	_ = cmd.RegisterFlagCompletionFunc("evaluator", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		names := make([]string, 0, 2)
		for _, b := range expression.Backends() {
			names = append(names, string(b))
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runSearch(cmd *cobra.Command, args []string, opts *SearchOptions) error {
	cc := NewCommandContext(cmd)
	cfg := cc.Cfg
	if len(args) > 0 {
		cfg.Expression = args[0]
	}
	if err := cfg.ValidateSearch(); err != nil {
		return err
	}

	eng, closeStore, err := newEngine(cc)
	if err != nil {
		return err
	}
	defer closeStore()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	cc.Logger.Debug("starting search", "expression", cfg.Expression, "variables", cfg.Variables,
		"n_start", cfg.NStart, "n_end", cfg.NEnd, "radius", cfg.Radius)

	run, err := eng.Start(ctx, cfg.Params())
	if err != nil {
		return err
	}

	if opts.TUI {
		return runSearchTUI(cmd, cc, run)
	}
	return streamRun(cc.Renderer, run)
}

// newEngine builds an engine from the command configuration, attaching
// the result archive when persistence is enabled. The returned func
// closes the archive.
func newEngine(cc *CommandContext) (*engine.Engine, func(), error) {
	if !cc.Cfg.Persist {
		return engineFor(cc, nil), func() {}, nil
	}

	store, err := openStore(cc.Cfg.StatePath, cc.Logger)
	if err != nil {
		return nil, nil, err
	}
	closeStore := func() {
		if err := store.Close(); err != nil {
			cc.Logger.Warn("failed to close result archive", "error", err)
		}
	}
	return engineFor(cc, store), closeStore, nil
}

// engineFor creates an engine for the current configuration. A nil store
// disables persistence.
func engineFor(cc *CommandContext, store *state.SQLiteStore) *engine.Engine {
	ecfg := cc.Cfg.EngineConfig()
	ecfg.Logger = cc.Logger
	if store != nil {
		ecfg.Store = store
	}
	return engine.New(ecfg)
}

// streamRun prints every event of run and waits for it. A cancelled run
// is not an error; a failed run returns its setup error.
func streamRun(r *output.Renderer, run *engine.Run) error {
	printer := output.NewEventPrinter(r, r.IsTTY())
	for ev := range run.Events() {
		if err := printer.Print(ev); err != nil {
			run.RequestStop()
			drainEvents(run)
			return fmt.Errorf("failed to write output: %w", err)
		}
	}

	status, err := run.Wait()
	if status == core.RunStatusFailed {
		return fmt.Errorf("search failed: %w", err)
	}
	return nil
}

// drainEvents discards the remaining events and waits for the worker.
func drainEvents(run *engine.Run) {
	for range run.Events() {
	}
	<-run.Done()
}

// joinVariables renders a variable list the way it is configured.
func joinVariables(vars []string) string {
	return strings.Join(vars, ",")
}
