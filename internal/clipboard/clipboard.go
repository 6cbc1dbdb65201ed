// Package clipboard delivers a finished digest to its destination.
package clipboard

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/atotto/clipboard"
)

// ErrUnavailable is returned when no system clipboard utility can be used.
var ErrUnavailable = errors.New("clipboard unavailable")

// Sink receives the final text of a run.
type Sink interface {
	Write(text string) error
}

// System writes to the operating system clipboard.
type System struct {
	writeAll    func(string) error
	unsupported func() bool
}

// NewSystem returns a sink backed by the platform clipboard.
func NewSystem() *System {
	return &System{
		writeAll:    clipboard.WriteAll,
		unsupported: func() bool { return clipboard.Unsupported },
	}
}

// Write copies text to the clipboard.
func (s *System) Write(text string) error {
	if s.unsupported() {
		return fmt.Errorf("failed to copy to clipboard: %w", ErrUnavailable)
	}
	if err := s.writeAll(text); err != nil {
		return fmt.Errorf("failed to copy to clipboard: %w: %v", ErrUnavailable, err)
	}
	return nil
}

// Writer prints to an io.Writer. It backs --print and tests.
type Writer struct {
	w io.Writer
}

// NewWriter returns a sink writing to w. The text is newline-terminated.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (s *Writer) Write(text string) error {
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	if _, err := io.WriteString(s.w, text); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
