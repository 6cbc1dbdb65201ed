package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/mvp-joe/crate-digest/internal/config"
	"github.com/mvp-joe/crate-digest/internal/extraction"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List every function and method in the crate",
	Long: `Parse every Rust file under the current directory and print its functions
and methods as a table of qualified names, kinds and line ranges. The names
are the ones shown by 'crate-digest --functions' and stored in the selection
history.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ~/.config/crate-digest/config.toml)")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}

	root, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	return executeList(cmd.Context(), cfg, root, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// executeList prints the callables under root.
func executeList(ctx context.Context, cfg *config.Config, root string, out, errOut io.Writer) error {
	runner, closeRunner, err := newRunner(cfg, root, allowList(cfg, digestOptions{}))
	if err != nil {
		return err
	}
	defer closeRunner()

	callables, warnings, err := runner.Callables(ctx, root)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		fmt.Fprintln(errOut, w)
	}

	if len(callables) == 0 {
		fmt.Fprintln(errOut, "No functions found")
		return nil
	}

	renderCallableTable(out, callables)
	return nil
}

// renderCallableTable writes one row per callable.
func renderCallableTable(out io.Writer, callables []extraction.Callable) {
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Name", "Kind", "Lines"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT})

	for _, c := range callables {
		table.Append([]string{c.Name.String(), string(c.Kind), fmt.Sprintf("%d-%d", c.StartLine, c.EndLine)})
	}

	table.SetFooter([]string{fmt.Sprintf("%d callables", len(callables)), "", ""})
	table.Render()
}
