package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/crate-digest/internal/mcp"
	"github.com/mvp-joe/crate-digest/internal/rewrite"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for crate digests",
	Long: `Start the Model Context Protocol (MCP) server so coding assistants can
list the crate's callables and render digests without the interactive picker.

The MCP server:
- Exposes digest_list_callables and digest_render
- Never reads or writes the selection history
- Communicates via stdio (standard MCP transport)

Example:
  crate-digest mcp`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	mcpCmd.Flags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ~/.config/crate-digest/config.toml)")
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}

	projectPath, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	match, err := rewrite.ParseMatchMode(cfg.Selection.Match)
	if err != nil {
		return err
	}

	// stdout carries the protocol, so nothing else may be printed there.
	fmt.Fprintf(os.Stderr, "crate-digest MCP Server\n")
	fmt.Fprintf(os.Stderr, "Crate Root: %s\n\n", projectPath)

	runner, closeRunner, err := newRunner(cfg, projectPath, allowList(cfg, digestOptions{}))
	if err != nil {
		return err
	}
	defer closeRunner()

	server := mcp.NewDigestServer(runner, projectPath, Version, match)

	// Serve (blocks until shutdown)
	if err := server.Serve(cmd.Context()); err != nil {
		return fmt.Errorf("MCP server error: %w", err)
	}

	return nil
}
