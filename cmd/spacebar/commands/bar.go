package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/bryanchriswhite/spacebar/internal/logger"
	"github.com/bryanchriswhite/spacebar/internal/tui"
	"github.com/bryanchriswhite/spacebar/internal/window"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var barCmd = &cobra.Command{
	Use:   "bar",
	Short: "Show a live space bar in the terminal",
	Long: `Show the spaces as a bar that follows the window manager. Move with
the arrow keys or h/l, press enter to switch, or a number to jump straight
to a space.`,
	Example: `  spacebar bar

  # Keep logs out of the terminal UI
  spacebar bar --log-file /tmp/spacebar.log`,
	RunE: runBar,
}

var barLogFile string

func init() {
	rootCmd.AddCommand(barCmd)

	barCmd.Flags().StringVar(&barLogFile, "log-file", "", "write logs to this file instead of discarding them")
}

func runBar(cmd *cobra.Command, args []string) error {
	_, cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// stderr shares the terminal with the bar
	if barLogFile != "" {
		f, err := os.OpenFile(barLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer f.Close()
		logger.InitWithWriter(cfg.LogLevel, false, f)
	} else {
		logger.Init("disabled", false)
	}

	provider, err := selectProvider(cmd.Context(), cfg, newRunner(cfg))
	if err != nil {
		return err
	}

	windowMgr := window.NewManager(provider, window.ManagerOptions{
		PollInterval:      cfg.PollInterval.Std(),
		FocusRecheckDelay: cfg.FocusRecheckDelay.Std(),
	})
	updates := windowMgr.SubscribeChan()
	defer windowMgr.Unsubscribe(updates)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	go windowMgr.Run(ctx)

	program := tea.NewProgram(tui.New(windowMgr, updates, windowMgr.Current()), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("bar exited: %w", err)
	}
	return nil
}
