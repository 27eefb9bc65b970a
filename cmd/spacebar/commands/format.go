package commands

import (
	"os"

	"github.com/fatih/color"
)

// fatih/color disables itself when stdout is not a terminal
var (
	successColor = color.New(color.FgGreen, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	activeColor  = color.New(color.FgCyan, color.Bold)
	focusColor   = color.New(color.FgGreen)
)

func printSuccess(msg string) {
	_, _ = successColor.Printf("✓ %s\n", msg)
}

func printWarning(msg string) {
	_, _ = warningColor.Fprintf(os.Stderr, "⚠ %s\n", msg)
}
