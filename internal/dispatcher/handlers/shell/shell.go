// Package shell runs shell command lines for the "!" command.
package shell

import (
	"context"
	"errors"
	"fmt"
	"os/exec"

	"github.com/dshills/ctrlshell/internal/command"
	"github.com/dshills/ctrlshell/internal/dispatcher/execctx"
	"github.com/dshills/ctrlshell/internal/dispatcher/handler"
)

// NoOutputText is shown for commands that print nothing.
const NoOutputText = "(no output)\n"

// ExitError reports a command that did not finish successfully.
type ExitError struct {
	// Line is the command line as typed.
	Line string
	// Code is the exit status, or -1 when the process was killed.
	Code int
	// Output is the captured combined output.
	Output string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	if e.Code >= 0 {
		return fmt.Sprintf("%q exited with status %d", e.Line, e.Code)
	}
	return fmt.Sprintf("%q: %v", e.Line, e.Err)
}

// Unwrap returns the underlying error.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// Kind names the failure for error reports.
func (e *ExitError) Kind() string {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return "ShellTimeout"
	}
	return "ExitError"
}

// Detail returns the captured output.
func (e *ExitError) Detail() string {
	return e.Output
}

// Handler runs shell commands through the process supervisor.
type Handler struct{}

// NewHandler creates a new shell handler.
func NewHandler() *Handler {
	return &Handler{}
}

// Handle implements handler.Handler.
func (h *Handler) Handle(ctx context.Context, cmd command.Command, ec *execctx.ExecutionContext) handler.Result {
	if err := ec.Validate(); err != nil {
		return handler.Error(err)
	}
	if ec.Processes == nil {
		return handler.Error(execctx.ErrMissingProcesses)
	}
	if cmd.Arg == "" {
		return handler.Error(handler.MissingArgument(cmd.Kind))
	}

	if timeout := ec.Config.Shell.Timeout.Duration; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	c := exec.Command(ec.Config.Shell.Program, "-c", cmd.Arg)
	c.Dir = ec.WorkDir

	proc, err := ec.Processes.Run(ctx, "shell", c)
	if proc == nil {
		return handler.Error(fmt.Errorf("start %s: %w", ec.Config.Shell.Program, err))
	}

	output := proc.Output()
	if proc.Truncated() {
		output += "\n[output truncated]\n"
	}
	ec.Logger.Debug("shell command finished",
		"line", cmd.Arg,
		"exit", proc.ExitCode(),
		"runtime", proc.Runtime(),
	)

	if err != nil {
		return handler.Error(&ExitError{
			Line:   cmd.Arg,
			Code:   proc.ExitCode(),
			Output: output,
			Err:    err,
		})
	}

	if output == "" {
		output = NoOutputText
	}
	view, err := ec.Show("! "+cmd.Arg, output)
	if err != nil {
		return handler.Error(err)
	}
	return handler.Shown(view)
}
