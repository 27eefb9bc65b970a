package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/bryanchriswhite/spacebar/internal/window"
	"github.com/spf13/cobra"
)

var focusCmd = &cobra.Command{
	Use:   "focus",
	Short: "Focus a space or a window",
}

var focusSpaceCmd = &cobra.Command{
	Use:   "space ID",
	Short: "Switch to a space",
	Long: `Switch to a space. With --window the first window of the space gets
focus when the window manager leaves the space without a focused window.`,
	Example: `  # Switch to space 2
  spacebar focus space 2

  # Switch to space 2 and make sure a window has focus
  spacebar focus space 2 --window`,
	Args: cobra.ExactArgs(1),
	RunE: runFocusSpace,
}

var focusWindowCmd = &cobra.Command{
	Use:     "window ID",
	Short:   "Focus a window",
	Example: `  spacebar focus window 4711`,
	Args:    cobra.ExactArgs(1),
	RunE:    runFocusWindow,
}

var focusNeedWindow bool

func init() {
	rootCmd.AddCommand(focusCmd)
	focusCmd.AddCommand(focusSpaceCmd)
	focusCmd.AddCommand(focusWindowCmd)

	focusSpaceCmd.Flags().BoolVarP(&focusNeedWindow, "window", "w", false, "focus the first window if none has focus")
}

func runFocusSpace(cmd *cobra.Command, args []string) error {
	_, cfg, err := loadConfig()
	if err != nil {
		return err
	}
	provider, err := selectProvider(cmd.Context(), cfg, newRunner(cfg))
	if err != nil {
		return err
	}

	id := window.SpaceID(args[0])
	if !focusNeedWindow {
		if err := provider.FocusSpace(cmd.Context(), id); err != nil {
			return fmt.Errorf("failed to focus space %s: %w", id, err)
		}
		return nil
	}

	// The re-check runs on its own timer; wait for it before exiting.
	focus := window.NewFocusController(func() *window.Provider { return provider }, nil, cfg.FocusRecheckDelay.Std())
	followUp := focus.FocusSpace(cmd.Context(), id, true)
	if followUp == nil {
		return fmt.Errorf("failed to focus space %s", id)
	}
	select {
	case <-followUp.Done():
	case <-time.After(cfg.FocusRecheckDelay.Std() + cfg.ExecTimeout.Std()*2):
		printWarning("focus re-check did not finish in time")
	}
	return nil
}

func runFocusWindow(cmd *cobra.Command, args []string) error {
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid window id: %s", args[0])
	}

	_, cfg, err := loadConfig()
	if err != nil {
		return err
	}
	provider, err := selectProvider(cmd.Context(), cfg, newRunner(cfg))
	if err != nil {
		return err
	}

	if err := provider.FocusWindow(cmd.Context(), window.WindowID(id)); err != nil {
		return fmt.Errorf("failed to focus window %d: %w", id, err)
	}
	return nil
}
