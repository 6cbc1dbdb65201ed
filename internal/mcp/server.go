// Package mcp exposes crate digests to MCP clients over stdio.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"

	"github.com/mvp-joe/crate-digest/internal/rewrite"
)

// ServerName identifies the server to MCP clients.
const ServerName = "crate-digest"

// DigestServer manages the MCP server lifecycle.
type DigestServer struct {
	mcp *server.MCPServer
}

// NewDigestServer creates an MCP server that digests the crate at root.
func NewDigestServer(digester Digester, root, version string, match rewrite.MatchMode) *DigestServer {
	mcpServer := server.NewMCPServer(
		ServerName,
		version,
		server.WithToolCapabilities(true),
	)

	AddListCallablesTool(mcpServer, digester, root)
	AddRenderTool(mcpServer, digester, root, match)

	return &DigestServer{mcp: mcpServer}
}

// Serve starts the MCP server on stdio and blocks until shutdown.
func (s *DigestServer) Serve(ctx context.Context) error {
	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	// Start MCP server in goroutine
	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting MCP server on stdio")
		if err := server.ServeStdio(s.mcp); err != nil {
			errCh <- fmt.Errorf("MCP server error: %w", err)
		}
		close(errCh)
	}()

	// Wait for shutdown signal or error
	select {
	case <-sigCh:
		slog.Info("Received shutdown signal, stopping gracefully")
		return nil
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
