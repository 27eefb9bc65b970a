package commands

import (
	"context"
	"errors"

	"github.com/bryanchriswhite/spacebar/internal/api"
	"github.com/bryanchriswhite/spacebar/internal/mcpserver"
	"github.com/bryanchriswhite/spacebar/internal/window"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the workspace tools over MCP (stdio)",
	Long: `Run an MCP server on stdin/stdout with tools to list spaces and
focus spaces or windows. The update scheduler runs in the background so
list_spaces answers from the latest snapshot.`,
	Example: `  # Register with an MCP client
  spacebar mcp --log-level warn`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	_, cfg, err := loadConfig()
	if err != nil {
		return err
	}

	provider, err := selectProvider(cmd.Context(), cfg, newRunner(cfg))
	if err != nil && !errors.Is(err, window.ErrNoProvider) {
		return err
	}

	windowMgr := window.NewManager(provider, window.ManagerOptions{
		PollInterval:      cfg.PollInterval.Std(),
		FocusRecheckDelay: cfg.FocusRecheckDelay.Std(),
	})

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return windowMgr.Run(gctx)
	})
	g.Go(func() error {
		defer cancel()
		return mcpserver.New(windowMgr, api.Version).ServeStdio()
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
