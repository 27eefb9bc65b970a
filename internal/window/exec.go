package window

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Fetch-path failures. Callers match them with errors.Is.
var (
	// ErrProcessSpawn means the backend executable is missing, could not be
	// started or exited with a failure status
	ErrProcessSpawn = errors.New("process spawn failure")
	// ErrTimeout means the backend process did not finish within the exec timeout
	ErrTimeout = errors.New("process timed out")
	// ErrDecode means the backend output was not the expected JSON
	ErrDecode = errors.New("decode failure")
	// ErrPartialFetch means a query of a fetch cycle failed while the space or
	// window query succeeded. No snapshot was produced.
	ErrPartialFetch = errors.New("partial fetch failure")
	// ErrNoProvider means no supported window manager was reachable
	ErrNoProvider = errors.New("no window manager provider available")
)

// DefaultExecTimeout bounds every backend process invocation
const DefaultExecTimeout = 3 * time.Second

// Runner runs an external command and returns its standard output
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec, killing them after Timeout
type ExecRunner struct {
	Timeout time.Duration
}

// NewExecRunner creates a runner with the given timeout (DefaultExecTimeout if zero)
func NewExecRunner(timeout time.Duration) *ExecRunner {
	if timeout <= 0 {
		timeout = DefaultExecTimeout
	}
	return &ExecRunner{Timeout: timeout}
}

// Run executes the command and returns stdout
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%s: %w after %s", commandLine(name, args), ErrTimeout, r.Timeout)
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s: %w: %v: %s", commandLine(name, args), ErrProcessSpawn, err, msg)
		}
		return nil, fmt.Errorf("%s: %w: %v", commandLine(name, args), ErrProcessSpawn, err)
	}

	return out, nil
}

func commandLine(name string, args []string) string {
	if len(args) == 0 {
		return name
	}
	return name + " " + strings.Join(args, " ")
}

// decodeJSON unmarshals backend output, tagging failures with ErrDecode
func decodeJSON(data []byte, v any, what string) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%s: %w: %v", what, ErrDecode, err)
	}
	return nil
}
