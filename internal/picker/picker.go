// Package picker provides the interactive checklist used to choose which
// functions and methods to include.
package picker

import (
	"context"
	"errors"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mvp-joe/crate-digest/internal/selection"
)

// DefaultPageSize is the number of rows shown at once.
const DefaultPageSize = 20

// ErrAborted is returned when the user closes the checklist without confirming.
var ErrAborted = fmt.Errorf("checklist aborted: %w", selection.ErrCancelled)

// Checklist is a terminal multi-select list. It implements selection.Picker.
type Checklist struct {
	input    io.Reader
	output   io.Writer
	title    string
	pageSize int
}

// NewChecklist creates a checklist reading keys from input and drawing to output.
func NewChecklist(input io.Reader, output io.Writer) *Checklist {
	return &Checklist{
		input:    input,
		output:   output,
		title:    "Select functions/methods to include:",
		pageSize: DefaultPageSize,
	}
}

// Pick runs the checklist until the user confirms or aborts.
func (c *Checklist) Pick(ctx context.Context, items []string, defaults []int) ([]string, error) {
	if len(items) == 0 {
		return []string{}, nil
	}

	model := newChecklistModel(c.title, items, defaults, c.pageSize)
	program := tea.NewProgram(model,
		tea.WithContext(ctx),
		tea.WithInput(c.input),
		tea.WithOutput(c.output),
	)

	final, err := program.Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, tea.ErrInterrupted) {
			return nil, ErrAborted
		}
		return nil, fmt.Errorf("checklist failed: %w", err)
	}

	result, ok := final.(checklistModel)
	if !ok || result.aborted || !result.done {
		return nil, ErrAborted
	}
	return result.selected(), nil
}
