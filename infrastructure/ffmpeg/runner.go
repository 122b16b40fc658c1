// Package ffmpeg wraps the external ffmpeg and ffprobe command-line tools:
// the transcode bridge for compressed audio formats, the stream prober,
// and the video demux/remux operations.
package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// CommandRunner defines the interface for running external commands
// This allows mocking exec.Command in tests
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) error
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecCommandRunner is the production implementation using os/exec
type ExecCommandRunner struct{}

// Run executes a command, capturing stderr into the returned error.
func (r *ExecCommandRunner) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		exitCode := -1
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		}
		return &TranscodeError{
			Tool:     name,
			Args:     args,
			ExitCode: exitCode,
			Stderr:   strings.TrimSpace(stderr.String()),
			Cause:    err,
		}
	}
	return nil
}

// Output executes a command and returns its stdout
func (r *ExecCommandRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.Output()
}

// TranscodeError reports a non-zero exit from an external tool. It is a
// hard failure for the asset being processed and is not retried.
type TranscodeError struct {
	Tool     string
	Args     []string
	ExitCode int
	Stderr   string
	Cause    error
}

func (e *TranscodeError) Error() string {
	return fmt.Sprintf("%s failed (exit=%d): %s", e.Tool, e.ExitCode, truncate(e.Stderr, 200))
}

func (e *TranscodeError) Unwrap() error {
	return e.Cause
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Invocation builds a validated, non-interactive ffmpeg command line:
// explicit input and output, explicit overwrite, non-error output
// suppressed. Codec arguments sit between input and output.
type Invocation struct {
	Input  string
	Output string
	Args   []string
}

// Validate checks that the required paths are present.
func (inv Invocation) Validate() error {
	if inv.Input == "" {
		return fmt.Errorf("ffmpeg invocation missing input path")
	}
	if inv.Output == "" {
		return fmt.Errorf("ffmpeg invocation missing output path")
	}
	return nil
}

// Argv returns the full argument vector.
func (inv Invocation) Argv() []string {
	argv := []string{"-i", inv.Input}
	argv = append(argv, inv.Args...)
	argv = append(argv, "-y", "-loglevel", "error", inv.Output)
	return argv
}

// run validates and executes an invocation through the runner.
func run(ctx context.Context, runner CommandRunner, tool string, inv Invocation) error {
	if err := inv.Validate(); err != nil {
		return err
	}
	return runner.Run(ctx, tool, inv.Argv()...)
}
