package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/crate-digest/internal/clipboard"
	"github.com/mvp-joe/crate-digest/internal/explain"
)

var explainContext string

// explainCmd represents the explain command
var explainCmd = &cobra.Command{
	Use:   "explain",
	Short: "Run cargo check and copy the errors to the clipboard as a prompt",
	Long: `Run 'cargo check --message-format=human' in the current directory, wrap its
output in a prompt asking for an explanation and a fix, and copy the prompt
to the clipboard.

Example:
  crate-digest explain -c "this started after bumping tokio"`,
	Args: cobra.NoArgs,
	RunE: runExplain,
}

func init() {
	explainCmd.Flags().StringVarP(&explainContext, "context", "c", "", "additional context to include with the errors")
	rootCmd.AddCommand(explainCmd)
}

func runExplain(cmd *cobra.Command, args []string) error {
	if _, err := setup(); err != nil {
		return err
	}

	dir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	return executeExplain(cmd.Context(), explain.NewCargo(), clipboard.NewSystem(), dir, explainContext, cmd.OutOrStdout())
}

// executeExplain runs the check, copies the prompt and echoes the errors.
func executeExplain(ctx context.Context, cargo explain.Cargo, sink clipboard.Sink, dir, extra string, out io.Writer) error {
	fmt.Fprintln(out, "Running cargo check...")

	report, err := explain.New(cargo, sink).Explain(ctx, dir, extra)
	if err != nil {
		return err
	}

	if report.Clean() {
		fmt.Fprintln(out, "✅ No errors to explain! cargo check completed successfully.")
		return nil
	}

	fmt.Fprintln(out, "📋 Error output copied to clipboard!")
	fmt.Fprintln(out, "You can now paste it into your favorite AI assistant.")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "--- Error Output ---")
	fmt.Fprintln(out, report.Output)
	return nil
}
