package process

import (
	"context"
	"fmt"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Supervisor tracks running child processes. It is safe for concurrent use.
type Supervisor struct {
	mu        sync.RWMutex
	processes map[string]*Process

	closed atomic.Bool

	outputLimit   int
	onProcessExit func(p *Process)
}

// SupervisorOption configures a Supervisor instance.
type SupervisorOption func(*Supervisor)

// WithOutputLimit caps the output captured per process.
func WithOutputLimit(limit int) SupervisorOption {
	return func(s *Supervisor) {
		s.outputLimit = limit
	}
}

// WithProcessExitCallback sets a callback for when processes exit.
func WithProcessExitCallback(fn func(p *Process)) SupervisorOption {
	return func(s *Supervisor) {
		s.onProcessExit = fn
	}
}

// NewSupervisor creates a new process supervisor.
func NewSupervisor(opts ...SupervisorOption) *Supervisor {
	s := &Supervisor{
		processes:   make(map[string]*Process),
		outputLimit: DefaultOutputLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start starts a new managed process.
func (s *Supervisor) Start(name string, cmd *exec.Cmd) (*Process, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed.Load() {
		return nil, ErrSupervisorShutdown
	}

	proc := NewProcess(uuid.NewString(), name, cmd, s.outputLimit)
	if err := proc.start(); err != nil {
		return nil, err
	}

	s.processes[proc.ID] = proc
	go s.monitorProcess(proc)

	return proc, nil
}

// Run starts cmd and waits for it. When ctx ends first the process is killed
// and ctx.Err() is returned. Otherwise the error is the process's exit error.
func (s *Supervisor) Run(ctx context.Context, name string, cmd *exec.Cmd) (*Process, error) {
	proc, err := s.Start(name, cmd)
	if err != nil {
		return nil, err
	}

	select {
	case <-proc.Done():
		return proc, proc.ExitError()
	case <-ctx.Done():
		_ = proc.Kill()
		<-proc.Done()
		return proc, fmt.Errorf("%s: %w", name, ctx.Err())
	}
}

// monitorProcess removes a process from tracking once it exits.
func (s *Supervisor) monitorProcess(proc *Process) {
	<-proc.Done()

	s.mu.Lock()
	delete(s.processes, proc.ID)
	s.mu.Unlock()

	if s.onProcessExit != nil {
		s.onProcessExit(proc)
	}
}

// Count returns the number of running processes.
func (s *Supervisor) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.processes)
}

// KillAll kills every running process.
func (s *Supervisor) KillAll() {
	s.mu.RLock()
	procs := make([]*Process, 0, len(s.processes))
	for _, p := range s.processes {
		procs = append(procs, p)
	}
	s.mu.RUnlock()

	for _, p := range procs {
		_ = p.Kill()
	}
}

// Shutdown refuses new processes, kills running ones and waits up to timeout
// for them to be reaped.
func (s *Supervisor) Shutdown(timeout time.Duration) {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}

	s.KillAll()

	deadline := time.Now().Add(timeout)
	for s.Count() > 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
}
