package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/polyscan/pkg/expression"
)

// NewSurfaceCommand creates the surface command.
func NewSurfaceCommand() *cobra.Command {
	var target int64

	cmd := &cobra.Command{
		Use:   "surface [expression]",
		Short: "Sample an expression on the integer grid",
		Long: `Evaluate a one- or two-variable expression at every point of [-R, R]^k
and print the values next to the plane z = n. The output is meant for
plotting; use -o csv or -o json to feed another tool.`,
		Example: `  polyscan surface "x**2 - 2*y**2" --variables x,y --n 1 -r 5 -o csv
  polyscan surface "x**3" --variables x -r 20 -o json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := NewCommandContext(cmd)
			cfg := cc.Cfg
			if len(args) > 0 {
				cfg.Expression = args[0]
			}
			if err := cfg.ValidateSearch(); err != nil {
				return err
			}

			backend, err := expression.ParseBackend(cfg.Evaluator)
			if err != nil {
				return err
			}
			expr, err := expression.Compile(cfg.Expression, cfg.Variables, expression.WithBackend(backend))
			if err != nil {
				return err
			}

			surface, err := expression.SampleSurface(expr, cfg.Radius, target)
			if err != nil {
				return fmt.Errorf("failed to sample surface: %w", err)
			}
			cc.Logger.Debug("sampled surface", "points", len(surface.Points), "radius", cfg.Radius)
			return cc.Renderer.Surface(surface)
		},
	}

	f := cmd.Flags()
	f.StringP("expression", "e", "", "Expression in one or two variables")
	f.String("variables", "", "Comma-separated variable names")
	f.Int64Var(&target, "n", 0, "Target value drawn as the plane z = n")
	f.Int64P("radius", "r", 0, "Grid radius R (default: 10)")
	f.String("evaluator", "", "Expression backend (native|expr)")

	return cmd
}
