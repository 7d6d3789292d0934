package process

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
)

// State represents the state of a process.
type State int

const (
	// StateCreated indicates the process has been created but not started.
	StateCreated State = iota
	// StateRunning indicates the process is currently running.
	StateRunning
	// StateExited indicates the process has exited normally or with an error.
	StateExited
	// StateKilled indicates the process was killed by a signal.
	StateKilled
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StateExited:
		return "exited"
	case StateKilled:
		return "killed"
	default:
		return fmt.Sprintf("unknown(%d)", s)
	}
}

// DefaultOutputLimit caps captured output.
const DefaultOutputLimit = 1 << 20

// Process represents a managed child process.
type Process struct {
	// ID is the unique identifier for this process.
	ID string

	// Name is a human-readable name for the process.
	Name string

	// Cmd is the underlying exec.Cmd.
	Cmd *exec.Cmd

	// Started is the time the process was started.
	Started time.Time

	output *cappedBuffer

	done     chan struct{}
	state    atomic.Int32
	exitCode atomic.Int32

	mu      sync.RWMutex
	exitErr error
	ended   time.Time

	waitOnce sync.Once
}

// NewProcess creates a new Process wrapping the given command.
// Stdout and stderr that are not already set are captured together.
func NewProcess(id, name string, cmd *exec.Cmd, outputLimit int) *Process {
	p := &Process{
		ID:     id,
		Name:   name,
		Cmd:    cmd,
		output: &cappedBuffer{limit: outputLimit},
		done:   make(chan struct{}),
	}
	if cmd.Stdout == nil {
		cmd.Stdout = p.output
	}
	if cmd.Stderr == nil {
		cmd.Stderr = p.output
	}
	p.state.Store(int32(StateCreated))
	p.exitCode.Store(-1) // -1 indicates not exited
	return p
}

// State returns the current process state.
func (p *Process) State() State {
	return State(p.state.Load())
}

// ExitCode returns the process exit code.
// Returns -1 if the process has not exited.
func (p *Process) ExitCode() int {
	return int(p.exitCode.Load())
}

// ExitError returns any error from waiting on the process.
func (p *Process) ExitError() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.exitErr
}

// Done returns a channel that is closed when the process exits.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// IsRunning returns true if the process is currently running.
func (p *Process) IsRunning() bool {
	return p.State() == StateRunning
}

// Output returns the captured combined output.
func (p *Process) Output() string {
	return p.output.String()
}

// Truncated reports whether output beyond the limit was dropped.
func (p *Process) Truncated() bool {
	return p.output.Truncated()
}

// Runtime returns how long the process ran, or has been running.
func (p *Process) Runtime() time.Duration {
	if p.Started.IsZero() {
		return 0
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.ended.IsZero() {
		return p.ended.Sub(p.Started)
	}
	return time.Since(p.Started)
}

// Kill sends SIGKILL to the process group, so children the command started
// die with it.
func (p *Process) Kill() error {
	if !p.IsRunning() {
		return fmt.Errorf("process not running: %w", ErrProcessNotStarted)
	}
	if p.Cmd.Process == nil {
		return ErrProcessNotStarted
	}
	if err := syscall.Kill(-p.Cmd.Process.Pid, syscall.SIGKILL); err != nil {
		return p.Cmd.Process.Signal(syscall.SIGKILL)
	}
	return nil
}

// start starts the process in its own process group and begins tracking it.
func (p *Process) start() error {
	if p.State() != StateCreated {
		return ErrProcessAlreadyStarted
	}

	if p.Cmd.SysProcAttr == nil {
		p.Cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	p.Cmd.SysProcAttr.Setpgid = true

	// A child that left the group, e.g. via setsid, must not hold Wait
	// open through the output pipe.
	if p.Cmd.WaitDelay == 0 {
		p.Cmd.WaitDelay = time.Second
	}

	if err := p.Cmd.Start(); err != nil {
		return fmt.Errorf("start process: %w", err)
	}

	p.Started = time.Now()
	p.state.Store(int32(StateRunning))

	go p.waitLoop()
	return nil
}

// waitLoop waits for the process to exit and updates state.
func (p *Process) waitLoop() {
	p.waitOnce.Do(func() {
		err := p.Cmd.Wait()

		p.mu.Lock()
		p.exitErr = err
		p.ended = time.Now()
		p.mu.Unlock()

		exitCode := 0
		state := StateExited

		if err != nil {
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				exitCode = exitErr.ExitCode()
				if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
					state = StateKilled
				}
			} else {
				exitCode = -1
			}
		}

		p.exitCode.Store(int32(exitCode))
		p.state.Store(int32(state))
		close(p.done)
	})
}

// cappedBuffer is an io.Writer that keeps the first limit bytes.
type cappedBuffer struct {
	mu        sync.Mutex
	buf       bytes.Buffer
	limit     int
	truncated bool
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := len(p)
	if b.limit > 0 {
		room := b.limit - b.buf.Len()
		if room <= 0 {
			b.truncated = true
			return n, nil
		}
		if len(p) > room {
			p = p[:room]
			b.truncated = true
		}
	}
	b.buf.Write(p)
	return n, nil
}

func (b *cappedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (b *cappedBuffer) Truncated() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.truncated
}

// Sentinel errors for process package.
var (
	// ErrProcessNotStarted is returned when operations require a started process.
	ErrProcessNotStarted = errors.New("process not started")

	// ErrProcessAlreadyStarted is returned when trying to start an already running process.
	ErrProcessAlreadyStarted = errors.New("process already started")

	// ErrSupervisorShutdown is returned when starting a process during shutdown.
	ErrSupervisorShutdown = errors.New("supervisor is shutting down")
)
