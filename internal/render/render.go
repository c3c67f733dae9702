package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// DefaultFallbackCommand is tried when the configured renderer executable is
// missing.
const DefaultFallbackCommand = "python -m rendercv.cli.entry_point"

// Error reports a renderer run that exited non-zero.
type Error struct {
	Command  string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *Error) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s exited with code %d: %s", e.Command, e.ExitCode, e.Stderr)
	}
	return fmt.Sprintf("%s failed: %v", e.Command, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Renderer runs RenderCV as a subprocess.
type Renderer struct {
	// Command is the renderer invocation, split on whitespace, e.g. "rendercv".
	Command string
	// FallbackCommand is used when Command is not on PATH. Empty disables it.
	FallbackCommand string
	Logger          *slog.Logger
}

func New(command string, fallback bool, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Renderer{Command: command, Logger: logger}
	if fallback {
		r.FallbackCommand = DefaultFallbackCommand
	}
	return r
}

// Render converts input into a PDF at pdfPath. Both paths are relative to
// dir, which is also the working directory of the subprocess.
func (r *Renderer) Render(ctx context.Context, dir, input, pdfPath string) error {
	err := r.run(ctx, r.Command, dir, input, pdfPath)
	if err != nil && r.FallbackCommand != "" && r.FallbackCommand != r.Command && errors.Is(err, exec.ErrNotFound) {
		r.Logger.Warn("renderer not found, trying fallback", "command", r.Command, "fallback", r.FallbackCommand)
		return r.run(ctx, r.FallbackCommand, dir, input, pdfPath)
	}
	return err
}

func (r *Renderer) run(ctx context.Context, command, dir, input, pdfPath string) error {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return errors.New("empty render command")
	}
	args := append(fields[1:], "render", input, "--pdf-path", pdfPath)

	cmd := exec.CommandContext(ctx, fields[0], args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.Logger.Debug("executing renderer", "command", cmd.String(), "dir", dir)
	err := cmd.Run()
	if err == nil {
		r.Logger.Debug("renderer finished", "input", input, "stdout_length", stdout.Len())
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		diag := strings.TrimSpace(stderr.String())
		if diag == "" {
			diag = strings.TrimSpace(stdout.String())
		}
		r.Logger.Error("renderer failed", "input", input, "exit_code", exitErr.ExitCode(), "stderr", diag)
		return &Error{Command: fields[0], ExitCode: exitErr.ExitCode(), Stderr: diag, Err: err}
	}
	return fmt.Errorf("failed to start %s: %w", fields[0], err)
}
