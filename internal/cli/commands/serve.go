package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/polyscan/internal/engine"
	"github.com/leapstack-labs/polyscan/internal/server"
	"github.com/leapstack-labs/polyscan/pkg/core"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the search API over HTTP",
		Long: `Start an HTTP server that starts and stops searches, serves the archived
runs and streams run events as server-sent events.

Endpoints:
  POST   /runs              start a search
  GET    /runs              list archived runs
  DELETE /runs/active       stop the active search
  GET    /runs/{id}         show a run
  GET    /runs/{id}/records list the records of a run
  GET    /events            run events (text/event-stream)
  GET    /metrics           Prometheus metrics`,
		Example: `  polyscan serve
  polyscan serve --port 9000 --addr 0.0.0.0`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	cmd.Flags().Int("port", 0, "Port to listen on (default: 8765)")
	cmd.Flags().String("addr", "", "Address to bind (default: 127.0.0.1)")
	cmd.Flags().String("evaluator", "", "Expression backend (native|expr)")
	cmd.Flags().Int("workers", 0, "Number of target values scanned concurrently")
	cmd.Flags().Bool("no-persist", false, "Do not archive runs")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cc := NewCommandContext(cmd)
	cfg := cc.Cfg

	var store core.Store
	if cfg.Persist {
		s, err := openStore(cfg.StatePath, cc.Logger)
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()
		store = s
	}

	ecfg := cfg.EngineConfig()
	ecfg.Logger = cc.Logger
	ecfg.Store = store

	srv := server.New(server.Config{
		Engine: engine.New(ecfg),
		Store:  store,
		Addr:   cfg.Server.Addr,
		Port:   cfg.Server.Port,
		Logger: cc.Logger,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cc.Renderer.Printf("Serving polyscan on http://%s:%d (Ctrl+C to stop)\n", cfg.Server.Addr, cfg.Server.Port)
	return srv.Serve(ctx)
}
