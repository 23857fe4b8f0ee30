// Package inspect runs the external symbol-table and section-header dumps.
package inspect

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	apperrors "github.com/fardiff/pkg/errors"
)

// ProcessInvocation is one external command. Arguments are passed to the
// process directly and never through a shell.
type ProcessInvocation struct {
	Tool    string
	Args    []string
	Timeout time.Duration // zero means no deadline beyond the caller's context
}

// String renders the command line for logs.
func (p *ProcessInvocation) String() string {
	return strings.Join(append([]string{p.Tool}, p.Args...), " ")
}

// ProcessResult is the captured outcome of a finished process.
type ProcessResult struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	Duration time.Duration
}

// Runner executes invocations. A process that ran to completion yields a
// result whatever its exit code; errors are reserved for failing to start
// and for timeouts.
type Runner interface {
	Run(ctx context.Context, inv *ProcessInvocation) (*ProcessResult, error)
}

// ExecRunner runs invocations with os/exec.
type ExecRunner struct{}

// NewExecRunner creates an ExecRunner.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run starts the process and waits for it. Exceeding inv.Timeout or the
// caller's deadline kills the process and returns an inspection-timeout error.
func (r *ExecRunner) Run(ctx context.Context, inv *ProcessInvocation) (*ProcessResult, error) {
	parent := ctx
	if inv.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, inv.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, inv.Tool, inv.Args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	result := &ProcessResult{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		Duration: time.Since(start),
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			msg := fmt.Sprintf("%s did not finish within %s", inv.Tool, inv.Timeout)
			if parent.Err() != nil {
				msg = fmt.Sprintf("%s was stopped by the caller's deadline after %s",
					inv.Tool, result.Duration.Round(time.Millisecond))
			}
			return result, apperrors.Wrap(apperrors.CodeInspectionTimeout, msg, ctxErr)
		}
		return result, ctxErr
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		result.ExitCode = 0
	case errors.As(err, &exitErr):
		result.ExitCode = exitErr.ExitCode()
	default:
		return result, apperrors.Wrap(apperrors.CodeInspectionTool, "failed to run "+inv.Tool, err)
	}
	return result, nil
}
