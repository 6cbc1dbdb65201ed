// Package explain turns `cargo check` output into a prompt asking for help
// with the errors.
package explain

import (
	"context"
	"log/slog"
	"strings"

	"github.com/mvp-joe/crate-digest/internal/clipboard"
)

const (
	promptIntro   = "Help me understand and fix these Rust compilation errors:\n\n"
	promptClosing = "Please explain what's wrong and suggest how to fix it."
)

// Report is the outcome of an explain run. Prompt is empty when cargo
// produced no output.
type Report struct {
	Output string
	Prompt string
}

// Clean reports whether cargo check produced no output.
func (r *Report) Clean() bool {
	return r.Output == ""
}

// Explainer runs cargo check and hands the prompt to a sink.
type Explainer struct {
	cargo Cargo
	sink  clipboard.Sink
}

// New creates an explainer. A nil sink only builds the report.
func New(cargo Cargo, sink clipboard.Sink) *Explainer {
	return &Explainer{cargo: cargo, sink: sink}
}

// Explain runs cargo check in dir. When there is output it builds the prompt,
// including extra context if given, and writes it to the sink.
func (e *Explainer) Explain(ctx context.Context, dir, extra string) (*Report, error) {
	stdout, stderr, err := e.cargo.Check(ctx, dir)
	if err != nil {
		return nil, err
	}

	report := &Report{Output: strings.TrimSpace(string(stdout) + string(stderr))}
	if report.Clean() {
		slog.Info("cargo check produced no output", "dir", dir)
		return report, nil
	}

	report.Prompt = BuildPrompt(report.Output, extra)
	if e.sink != nil {
		if err := e.sink.Write(report.Prompt); err != nil {
			return nil, err
		}
	}

	slog.Info("Built explain prompt", "dir", dir, "bytes", len(report.Prompt))
	return report, nil
}

// BuildPrompt wraps cargo output in the request for an explanation.
func BuildPrompt(output, extra string) string {
	var b strings.Builder
	b.WriteString(promptIntro)
	if extra = strings.TrimSpace(extra); extra != "" {
		b.WriteString("Additional context: ")
		b.WriteString(extra)
		b.WriteString("\n\n")
	}
	b.WriteString("```\n")
	b.WriteString(output)
	b.WriteString("\n```\n\n")
	b.WriteString(promptClosing)
	return b.String()
}
