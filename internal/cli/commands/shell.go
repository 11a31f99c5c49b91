package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/polyscan/internal/engine"
	"github.com/leapstack-labs/polyscan/internal/state"
	"github.com/leapstack-labs/polyscan/pkg/core"
	"github.com/leapstack-labs/polyscan/pkg/expression"
)

const shellPrompt = "polyscan> "

// NewShellCommand creates the interactive shell command.
func NewShellCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive search shell",
		Long: `Start an interactive shell. Each line is an expression that is searched
with the current settings; dot-commands change the settings.

Ctrl+C stops a running search without leaving the shell.`,
		Example: `  polyscan shell
  polyscan> .vars x,y
  polyscan> .range -3 3
  polyscan> x**2 - 2*y**2`,
		Args: cobra.NoArgs,
		RunE: runShell,
	}
}

func runShell(cmd *cobra.Command, _ []string) (retErr error) {
	cc := NewCommandContext(cmd)

	var store *state.SQLiteStore
	if cc.Cfg.Persist {
		var err error
		store, err = openStore(cc.Cfg.StatePath, cc.Logger)
		if err != nil {
			return err
		}
		defer func() { retErr = errors.Join(retErr, store.Close()) }()
	}

	historyFile := ""
	if cc.Cfg.StatePath != ":memory:" {
		historyFile = filepath.Join(filepath.Dir(cc.Cfg.StatePath), "shell_history")
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          shellPrompt,
		HistoryFile:     historyFile,
		AutoComplete:    newShellCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
		Stdin:           io.NopCloser(cmd.InOrStdin()),
		Stdout:          cmd.OutOrStdout(),
		Stderr:          cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize shell: %w", err)
	}
	defer func() { retErr = errors.Join(retErr, rl.Close()) }()

	sh := newShell(cc, store)

	cc.Renderer.Printf("polyscan shell (evaluator: %s)\n", sh.eng.Evaluator())
	cc.Renderer.Println("Type .help for commands, .quit to exit")
	cc.Renderer.Println()

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		if sh.handleLine(cmd.Context(), line) {
			break
		}
	}
	return nil
}

// shell holds the settings of an interactive session.
type shell struct {
	cc     *CommandContext
	store  *state.SQLiteStore
	eng    *engine.Engine
	params engine.Params
}

func newShell(cc *CommandContext, store *state.SQLiteStore) *shell {
	return &shell{
		cc:     cc,
		store:  store,
		eng:    engineFor(cc, store),
		params: cc.Cfg.Params(),
	}
}

// handleLine executes one line of input and reports whether the session
// should end.
func (s *shell) handleLine(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return false
	}

	if strings.HasPrefix(line, ".") {
		return s.handleDotCommand(line)
	}

	if err := s.search(ctx, line); err != nil {
		s.cc.Renderer.Error(fmt.Sprintf("Error: %v", err))
	}
	return false
}

func (s *shell) handleDotCommand(line string) bool {
	r := s.cc.Renderer
	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])
	args := parts[1:]

	var err error
	switch command {
	case ".quit", ".exit":
		return true

	case ".help":
		printShellHelp(r.Writer())

	case ".show":
		s.printSettings()

	case ".vars", ".variables":
		err = s.setVariables(args)

	case ".range":
		err = s.setRange(args)

	case ".radius":
		err = s.setRadius(args)

	case ".evaluator":
		err = s.setEvaluator(args)

	case ".runs":
		err = s.listRuns(args)

	default:
		r.Error(fmt.Sprintf("Unknown command: %s (type .help for commands)", command))
	}

	if err != nil {
		r.Error(fmt.Sprintf("Error: %v", err))
	}
	return false
}

func (s *shell) setVariables(args []string) error {
	if len(args) == 0 {
		return errors.New("usage: .vars <name>[,<name>...]")
	}
	vars, err := core.ParseVariables(strings.Join(args, " "))
	if err != nil {
		return err
	}
	s.params.Variables = vars
	s.cc.Renderer.Muted(fmt.Sprintf("variables = %s", joinVariables(vars)))
	return nil
}

func (s *shell) setRange(args []string) error {
	if len(args) != 2 {
		return errors.New("usage: .range <n-start> <n-end>")
	}
	start, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid n-start %q", args[0])
	}
	end, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid n-end %q", args[1])
	}
	if start > end {
		return fmt.Errorf("n-start %d is greater than n-end %d", start, end)
	}
	s.params.NStart, s.params.NEnd = start, end
	s.cc.Renderer.Muted(fmt.Sprintf("range = %d..%d", start, end))
	return nil
}

func (s *shell) setRadius(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: .radius <R>")
	}
	radius, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || radius < 0 {
		return fmt.Errorf("invalid radius %q", args[0])
	}
	s.params.Radius = radius
	s.cc.Renderer.Muted(fmt.Sprintf("radius = %d", radius))
	return nil
}

func (s *shell) setEvaluator(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: .evaluator <%s|%s>", expression.BackendNative, expression.BackendExpr)
	}
	backend, err := expression.ParseBackend(args[0])
	if err != nil {
		return err
	}
	s.cc.Cfg.Evaluator = string(backend)
	s.eng = engineFor(s.cc, s.store)
	s.cc.Renderer.Muted(fmt.Sprintf("evaluator = %s", backend))
	return nil
}

func (s *shell) listRuns(args []string) error {
	if s.store == nil {
		return errors.New("persistence is disabled")
	}
	limit := 10
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid limit %q", args[0])
		}
		limit = n
	}
	runs, err := s.store.ListRuns(limit)
	if err != nil {
		return err
	}
	return s.cc.Renderer.Runs(runs)
}

func (s *shell) printSettings() {
	r := s.cc.Renderer
	p := s.params
	r.Printf("variables: %s\n", joinVariables(p.Variables))
	r.Printf("range:     %d..%d\n", p.NStart, p.NEnd)
	r.Printf("radius:    %d\n", p.Radius)
	r.Printf("evaluator: %s\n", s.eng.Evaluator())
	if s.store != nil {
		r.Printf("archive:   %s\n", s.store.Path())
	} else {
		r.Println("archive:   disabled")
	}
}

// search runs expr with the session settings. An interrupt stops the
// search only.
func (s *shell) search(ctx context.Context, expr string) error {
	p := s.params
	p.Expression = expr
	p.Variables = append([]string(nil), s.params.Variables...)
	if err := core.ValidateVariables(p.Variables); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	run, err := s.eng.Start(ctx, p)
	if err != nil {
		return err
	}
	return streamRun(s.cc.Renderer, run)
}

func printShellHelp(w io.Writer) {
	help := `
Commands:
  .vars <a,b,...>     Set the variable names
  .range <from> <to>  Set the target range n = from..to
  .radius <R>         Set the search radius
  .evaluator <name>   Select the evaluator (native|expr)
  .show               Show the current settings
  .runs [limit]       List archived runs
  .help               Show this help message
  .quit / .exit       Exit the shell

Any other line is searched as an expression in the variables and n.
`
	_, _ = fmt.Fprintln(w, help)
}

func newShellCompleter() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem(".vars"),
		readline.PcItem(".range"),
		readline.PcItem(".radius"),
		readline.PcItem(".evaluator",
			readline.PcItem(string(expression.BackendNative)),
			readline.PcItem(string(expression.BackendExpr)),
		),
		readline.PcItem(".show"),
		readline.PcItem(".runs"),
		readline.PcItem(".help"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)
}
