package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/polyscan/pkg/expression"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(version, commit, date string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display polyscan version, build information and the available evaluator backends.`,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "polyscan v%s\n", version)
			_, _ = fmt.Fprintf(out, "commit: %s, built: %s\n", commit, date)
			_, _ = fmt.Fprintf(out, "evaluators: %v\n", expression.Backends())
		},
	}
}
