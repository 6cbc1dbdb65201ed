package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
	quiet   bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "crate-digest",
	Short: "Dump your crate contents into a format which can be passed to an LLM",
	Long: `crate-digest collects the Rust sources of the crate in the current directory
into one text blob and copies it to the clipboard.

With --functions you pick which functions and methods keep their bodies;
every other body is replaced by a placeholder. Add --only to keep just the
picked callables, wrapped in minimal impl blocks. Your choices are remembered
per project and pre-checked next time.

Examples:
  crate-digest                     # every .rs file, verbatim
  crate-digest --readme --toml     # plus README.md and Cargo.toml
  crate-digest -f                  # pick callables, elide the rest
  crate-digest -f --only --print   # only the picked callables, to stdout`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runDigest,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		cancel()
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug-level logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress progress output")

	// Digest flags
	rootCmd.Flags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ~/.config/crate-digest/config.toml)")
	rootCmd.Flags().BoolVarP(&digestFlags.functions, "functions", "f", false, "interactively select functions/methods to keep")
	rootCmd.Flags().BoolVar(&digestFlags.generateConfig, "generate-config", false, "generate the default config file and exit")
	rootCmd.Flags().BoolVar(&digestFlags.readme, "readme", false, "include README.md")
	rootCmd.Flags().BoolVar(&digestFlags.toml, "toml", false, "include Cargo.toml")
	rootCmd.Flags().BoolVar(&digestFlags.all, "all", false, "include README.md and Cargo.toml; with --functions, keep every callable without asking")
	rootCmd.Flags().BoolVar(&digestFlags.only, "only", false, "with --functions, emit only the selected callables")
	rootCmd.Flags().BoolVar(&digestFlags.print, "print", false, "write to stdout instead of the clipboard")
}
