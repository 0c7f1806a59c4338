// internal/executil/executil.go
package executil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"imgbuild/internal/logfields"
)

// ExecError is returned by Command.Run when the process ran and failed.
// Stderr holds everything the process wrote to its standard error.
type ExecError struct {
	Cmd      string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("command failed (exit=%d): %s: %v", e.ExitCode, e.Cmd, e.Err)
}

func (e *ExecError) Unwrap() error { return e.Err }

// Command runs one binary with inherited-style output streaming.
// Stdout/Stderr default to the process streams; stderr is also captured so
// callers can inspect it on failure.
type Command struct {
	Name   string
	Dir    string
	Stdout io.Writer
	Stderr io.Writer

	// Redact rewrites args before they are echoed to the log.
	Redact func([]string) []string
	Logger *slog.Logger
}

// Run executes c.Name with args and blocks until it exits.
func (c Command) Run(ctx context.Context, args ...string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}

	shown := args
	if c.Redact != nil {
		shown = c.Redact(args)
	}
	fullCmd := c.Name + " " + ShellQuote(shown)

	var captured bytes.Buffer
	stdout := c.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	stderr := c.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	cmd := exec.CommandContext(ctx, c.Name, args...)
	cmd.Dir = c.Dir
	cmd.Stdout = stdout
	cmd.Stderr = io.MultiWriter(stderr, &captured)

	logger.Info("running", logfields.Command(fullCmd))
	err := cmd.Run()
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		// never started: binary missing, bad dir, ...
		return fmt.Errorf("failed to run command: %s: %w", fullCmd, err)
	}

	execErr := &ExecError{
		Cmd:      fullCmd,
		ExitCode: exitErr.ExitCode(),
		Stderr:   captured.String(),
		Err:      err,
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		execErr.Err = fmt.Errorf("%w (%v)", ctxErr, err)
	}
	return execErr
}

// Printer prints the command that would be run without executing it.
type Printer struct {
	Name   string
	Out    io.Writer
	Redact func([]string) []string
}

func (p Printer) Run(_ context.Context, args ...string) error {
	out := p.Out
	if out == nil {
		out = os.Stdout
	}
	if p.Redact != nil {
		args = p.Redact(args)
	}
	_, err := fmt.Fprintf(out, "[PLAN] %s %s\n", p.Name, ShellQuote(args))
	return err
}

// ShellQuote returns a printable, shell-safe representation of args.
func ShellQuote(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		if a == "" || strings.ContainsAny(a, " \t\n\"'`$\\*?[]{}()<>|&;") {
			a = "'" + strings.ReplaceAll(a, "'", `'\''`) + "'"
		}
		quoted[i] = a
	}
	return strings.Join(quoted, " ")
}
