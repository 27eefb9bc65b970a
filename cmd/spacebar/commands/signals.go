package commands

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/bryanchriswhite/spacebar/internal/notify"
	"github.com/bryanchriswhite/spacebar/internal/window"
	"github.com/spf13/cobra"
)

var signalsCmd = &cobra.Command{
	Use:   "signals",
	Short: "Print or install the yabai signals that push updates",
	Long: `Render the "yabai -m signal --add" commands that make yabai announce
space and window changes to a running spacebar server.

The http transport posts to /api/signals/{event}. The dbus transport emits
a session bus signal that the server forwards when dbus_signals is enabled.`,
	Example: `  # Print the commands for .yabairc
  spacebar signals

  # Register them with the running yabai right away
  spacebar signals --apply

  # Use the D-Bus transport
  spacebar signals --transport dbus`,
	RunE: runSignals,
}

var (
	signalsTransport string
	signalsApply     bool
)

func init() {
	rootCmd.AddCommand(signalsCmd)

	signalsCmd.Flags().StringVarP(&signalsTransport, "transport", "t", "http", "how yabai reaches the server (http or dbus)")
	signalsCmd.Flags().BoolVar(&signalsApply, "apply", false, "register the signals with yabai instead of printing them")
}

// signalAction returns the yabai action format for a transport
func signalAction(transport string, port int) (string, error) {
	switch transport {
	case "http":
		return "curl -s -X POST http://localhost:" + strconv.Itoa(port) + "/api/signals/%s", nil
	case "dbus":
		return notify.DBusSendAction, nil
	default:
		return "", fmt.Errorf("unsupported transport: %s (use 'http' or 'dbus')", transport)
	}
}

func runSignals(cmd *cobra.Command, args []string) error {
	_, cfg, err := loadConfig()
	if err != nil {
		return err
	}

	action, err := signalAction(signalsTransport, cfg.ServerPort)
	if err != nil {
		return err
	}

	runner := newRunner(cfg)
	yabai := window.NewYabaiBackend(cfg.YabaiPath, runner, nil)
	commands := yabai.SignalCommands(action)

	if !signalsApply {
		printSignalCommands(os.Stdout, commands)
		return nil
	}

	for _, c := range commands {
		if _, err := runner.Run(cmd.Context(), c[0], c[1:]...); err != nil {
			return fmt.Errorf("failed to add yabai signal: %w", err)
		}
	}
	printSuccess(fmt.Sprintf("Registered %d yabai signals", len(commands)))
	return nil
}

// printSignalCommands writes the commands in shell syntax
func printSignalCommands(w io.Writer, commands [][]string) {
	for _, c := range commands {
		quoted := make([]string, len(c))
		for i, arg := range c {
			quoted[i] = shellQuote(arg)
		}
		fmt.Fprintln(w, strings.Join(quoted, " "))
	}
}

func shellQuote(arg string) string {
	if arg != "" && !strings.ContainsAny(arg, " \t\"'$;&|<>*?()`\\") {
		return arg
	}
	if k, v, ok := strings.Cut(arg, "="); ok && !strings.ContainsAny(k, " \t\"'") {
		return k + "='" + strings.ReplaceAll(v, "'", `'\''`) + "'"
	}
	return "'" + strings.ReplaceAll(arg, "'", `'\''`) + "'"
}
