package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/bryanchriswhite/spacebar/internal/window"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List spaces and their windows",
	Long: `Fetch one snapshot from the window manager and print it.

Windows of accessory applications, hidden and sticky windows are left out
the same way the server leaves them out.`,
	Example: `  # List spaces in table format (default)
  spacebar list

  # List spaces in JSON format
  spacebar list --format json

  # List only the active space
  spacebar list --active`,
	RunE: runList,
}

var (
	listFormat string
	listActive bool
)

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVarP(&listFormat, "format", "f", "table", "output format (table, json or yaml)")
	listCmd.Flags().BoolVarP(&listActive, "active", "a", false, "show only the active space")
}

func runList(cmd *cobra.Command, args []string) error {
	_, cfg, err := loadConfig()
	if err != nil {
		return err
	}

	provider, err := selectProvider(cmd.Context(), cfg, newRunner(cfg))
	if err != nil {
		return err
	}

	snap, err := provider.FetchSnapshot(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to fetch spaces: %w", err)
	}

	spaces := snap.Spaces
	if listActive {
		spaces = nil
		if active, ok := snap.ActiveSpace(); ok {
			spaces = []window.Space{active}
		}
	}

	return writeSpaces(os.Stdout, listFormat, spaces)
}

// writeSpaces renders spaces in the requested format
func writeSpaces(w io.Writer, format string, spaces []window.Space) error {
	switch format {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(spaces)
	case "yaml":
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		defer encoder.Close()
		return encoder.Encode(spaces)
	case "table":
		return printSpacesTable(w, spaces)
	default:
		return fmt.Errorf("unsupported format: %s (use 'table', 'json' or 'yaml')", format)
	}
}

func printSpacesTable(out io.Writer, spaces []window.Space) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, "SPACE\tWINDOW\tAPP\tTITLE\t")
	fmt.Fprintln(w, "-----\t------\t---\t-----\t")

	for _, space := range spaces {
		marker := ""
		if space.IsActive {
			marker = activeColor.Sprint("active")
		}
		if len(space.Windows) == 0 {
			fmt.Fprintf(w, "%s\t-\t\t\t%s\n", space.ID, marker)
			continue
		}
		for _, win := range space.Windows {
			m := marker
			if win.IsFocused {
				m = focusColor.Sprint("focused")
			}
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n", space.ID, win.ID, win.App, win.Title, m)
		}
	}

	return w.Flush()
}
