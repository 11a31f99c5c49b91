package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/polyscan/internal/state"
)

// latestRun selects the most recently started run.
const latestRun = "latest"

// NewRunsCommand creates the runs command with its subcommands.
func NewRunsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect archived search runs",
		Long: `List, show and delete the search runs stored in the result archive.

Use "latest" in place of a run ID to select the most recent run.`,
	}

	cmd.AddCommand(newRunsListCommand())
	cmd.AddCommand(newRunsShowCommand())
	cmd.AddCommand(newRunsDeleteCommand())

	return cmd
}

func newRunsListCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List archived runs, most recent first",
		Example: `  polyscan runs list
  polyscan runs list --limit 5 -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := NewCommandContext(cmd)
			store, err := openStore(cc.Cfg.StatePath, cc.Logger)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			runs, err := store.ListRuns(limit)
			if err != nil {
				return err
			}
			return cc.Renderer.Runs(runs)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list (0 lists all)")
	return cmd
}

func newRunsShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show a run and its records",
		Example: `  polyscan runs show latest
  polyscan runs show 1b4e28ba-2fa1-11d2-883f-0016d3cca427 -o yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := NewCommandContext(cmd)
			store, err := openStore(cc.Cfg.StatePath, cc.Logger)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			id, err := resolveRunID(store, args[0])
			if err != nil {
				return err
			}
			run, err := store.GetRun(id)
			if err != nil {
				return err
			}
			records, err := store.GetRecords(id)
			if err != nil {
				return err
			}
			return cc.Renderer.Run(run, records)
		},
	}
}

func newRunsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <run-id>",
		Aliases: []string{"rm"},
		Short:   "Delete a run and its records",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := NewCommandContext(cmd)
			store, err := openStore(cc.Cfg.StatePath, cc.Logger)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			id, err := resolveRunID(store, args[0])
			if err != nil {
				return err
			}
			if err := store.DeleteRun(id); err != nil {
				return err
			}
			cc.Logger.Info("deleted run", "id", id)
			cc.Renderer.Success(fmt.Sprintf("deleted run %s", id))
			return nil
		},
	}
}

// resolveRunID expands the "latest" alias.
func resolveRunID(store *state.SQLiteStore, id string) (string, error) {
	if id != latestRun {
		return id, nil
	}
	runs, err := store.ListRuns(1)
	if err != nil {
		return "", err
	}
	if len(runs) == 0 {
		return "", fmt.Errorf("%w: no runs recorded", state.ErrRunNotFound)
	}
	return runs[0].ID, nil
}
