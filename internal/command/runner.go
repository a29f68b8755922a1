package command

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// DefaultTimeout bounds a single external command.
const DefaultTimeout = 10 * time.Minute

// Runner executes external commands. The abstraction lets tests record the
// commands a flow would run without invoking docker or sudo.
type Runner interface {
	// Run executes name with args and returns its trimmed stdout.
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// ExecRunner is the production Runner backed by os/exec.
type ExecRunner struct {
	Timeout time.Duration
}

func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", &Error{
			Command: append([]string{name}, args...),
			Stdout:  strings.TrimSpace(stdout.String()),
			Stderr:  strings.TrimSpace(stderr.String()),
			Cause:   err,
		}
	}
	return strings.TrimSpace(stdout.String()), nil
}

// Error describes a failed command together with its output.
type Error struct {
	Command []string
	Stdout  string
	Stderr  string
	Cause   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("command %q failed: %v (stdout: %q, stderr: %q)",
		strings.Join(e.Command, " "), e.Cause, e.Stdout, e.Stderr)
}

func (e *Error) Unwrap() error {
	return e.Cause
}
