package explain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
)

// ErrCargoUnavailable is returned when cargo cannot be started.
var ErrCargoUnavailable = errors.New("failed to run cargo check - make sure cargo is installed and you're in a Rust project directory")

// Cargo defines the cargo invocations explain needs.
// This allows mocking cargo in tests.
type Cargo interface {
	// Check runs `cargo check --message-format=human` in dir and returns its
	// stdout and stderr. A non-zero exit caused by compile errors is not an
	// error.
	Check(ctx context.Context, dir string) (stdout, stderr []byte, err error)
}

// cargoOps is the real implementation using exec.CommandContext.
type cargoOps struct{}

// NewCargo returns the default cargo implementation.
func NewCargo() Cargo {
	return &cargoOps{}
}

func (c *cargoOps) Check(ctx context.Context, dir string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, "cargo", "check", "--message-format=human")
	cmd.Dir = dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && ctx.Err() == nil {
			return stdout.Bytes(), stderr.Bytes(), nil
		}
		return nil, nil, fmt.Errorf("%w: %v", ErrCargoUnavailable, err)
	}

	return stdout.Bytes(), stderr.Bytes(), nil
}

// MockCargo is a mock implementation of Cargo for testing.
type MockCargo struct {
	Stdout string
	Stderr string
	Err    error

	Dirs []string
}

func (m *MockCargo) Check(_ context.Context, dir string) ([]byte, []byte, error) {
	m.Dirs = append(m.Dirs, dir)
	if m.Err != nil {
		return nil, nil, m.Err
	}
	return []byte(m.Stdout), []byte(m.Stderr), nil
}
