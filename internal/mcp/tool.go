package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mvp-joe/crate-digest/internal/digest"
	"github.com/mvp-joe/crate-digest/internal/extraction"
	"github.com/mvp-joe/crate-digest/internal/rewrite"
)

// Render modes accepted by digest_render.
const (
	ModeElide   = "elide"
	ModeExtract = "extract"
)

// Digester is the part of digest.Runner the tools use.
type Digester interface {
	Run(ctx context.Context, opts digest.Options) (*digest.Result, error)
	Callables(ctx context.Context, root string) ([]extraction.Callable, []string, error)
}

// CallableInfo describes one callable in a listing.
type CallableInfo struct {
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
}

// ListCallablesResponse is the JSON body of digest_list_callables.
type ListCallablesResponse struct {
	Callables []CallableInfo `json:"callables"`
	Total     int            `json:"total"`
	Warnings  []string       `json:"warnings,omitempty"`
}

// RenderResponse is the JSON body of digest_render.
type RenderResponse struct {
	Output   string   `json:"output"`
	Notice   string   `json:"notice,omitempty"`
	Selected int      `json:"selected"`
	Warnings []string `json:"warnings,omitempty"`
}

// AddListCallablesTool registers the digest_list_callables tool with an MCP server.
func AddListCallablesTool(s *server.MCPServer, digester Digester, root string) {
	tool := mcp.NewTool(
		"digest_list_callables",
		mcp.WithDescription("List every function and method in the Rust crate by qualified name (file::Type::Trait::method), sorted. Use the names with digest_render."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, createListCallablesHandler(digester, root))
}

// createListCallablesHandler creates the handler function for digest_list_callables.
func createListCallablesHandler(digester Digester, root string) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		callables, warnings, err := digester.Callables(ctx, root)
		if err != nil {
			return nil, fmt.Errorf("list callables failed: %w", err)
		}

		response := &ListCallablesResponse{
			Callables: make([]CallableInfo, 0, len(callables)),
			Warnings:  warnings,
		}
		seen := make(map[string]bool, len(callables))
		for _, c := range callables {
			name := c.Name.String()
			if seen[name] {
				continue
			}
			seen[name] = true
			response.Callables = append(response.Callables, CallableInfo{
				Name:      name,
				Kind:      string(c.Kind),
				StartLine: c.StartLine,
				EndLine:   c.EndLine,
			})
		}
		response.Total = len(response.Callables)

		return jsonResult(response)
	}
}

// AddRenderTool registers the digest_render tool with an MCP server.
func AddRenderTool(s *server.MCPServer, digester Digester, root string, match rewrite.MatchMode) {
	tool := mcp.NewTool(
		"digest_render",
		mcp.WithDescription("Render the crate as one text blob. In 'elide' mode every body not named is replaced by a placeholder; in 'extract' mode only the named callables are kept. The selection history is not touched."),
		mcp.WithArray("names",
			mcp.Description("Qualified names from digest_list_callables to keep. Omit to keep every callable."),
			mcp.WithStringItems()),
		mcp.WithString("mode",
			mcp.Description("'elide' (default) or 'extract'"),
			mcp.Enum(ModeElide, ModeExtract)),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, createRenderHandler(digester, root, match))
}

// createRenderHandler creates the handler function for digest_render.
func createRenderHandler(digester Digester, root string, match rewrite.MatchMode) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		argsMap := map[string]interface{}{}
		if request.Params.Arguments != nil {
			m, ok := request.Params.Arguments.(map[string]interface{})
			if !ok {
				return mcp.NewToolResultError("invalid arguments format"), nil
			}
			argsMap = m
		}

		mode, err := parseStringArg(argsMap, "mode", false)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if mode == "" {
			mode = ModeElide
		}
		if mode != ModeElide && mode != ModeExtract {
			return mcp.NewToolResultError(fmt.Sprintf("mode must be %q or %q, got %q", ModeElide, ModeExtract, mode)), nil
		}

		names := parseArrayArg(argsMap, "names")

		result, err := digester.Run(ctx, digest.Options{
			Root:      root,
			Functions: true,
			Only:      mode == ModeExtract,
			All:       names == nil,
			Names:     names,
			Match:     match,
		})
		if err != nil {
			return nil, fmt.Errorf("render failed: %w", err)
		}

		return jsonResult(&RenderResponse{
			Output:   result.Output,
			Notice:   result.Notice,
			Selected: result.Selected,
			Warnings: result.Warnings,
		})
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonData, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}

	// Return as text result (mcp-go convention)
	return mcp.NewToolResultText(string(jsonData)), nil
}
