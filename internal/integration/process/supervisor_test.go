package process

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"syscall"
	"testing"
	"time"
)

func TestNewSupervisor(t *testing.T) {
	s := NewSupervisor()
	defer s.Shutdown(time.Second)

	if s.Count() != 0 {
		t.Errorf("expected 0 processes, got %d", s.Count())
	}
}

func TestRunCapturesCombinedOutput(t *testing.T) {
	s := NewSupervisor()
	defer s.Shutdown(time.Second)

	proc, err := s.Run(context.Background(), "echo", exec.Command("sh", "-c", "echo out; echo err 1>&2"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	out := proc.Output()
	if !strings.Contains(out, "out") || !strings.Contains(out, "err") {
		t.Errorf("expected stdout and stderr, got %q", out)
	}
	if proc.ExitCode() != 0 || proc.State() != StateExited {
		t.Errorf("exit code %d, state %v", proc.ExitCode(), proc.State())
	}
	if proc.ID == "" {
		t.Error("expected a process id")
	}
}

func TestRunNonZeroExit(t *testing.T) {
	s := NewSupervisor()
	defer s.Shutdown(time.Second)

	proc, err := s.Run(context.Background(), "fail", exec.Command("sh", "-c", "echo nope; exit 3"))
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected *exec.ExitError, got %v", err)
	}
	if proc.ExitCode() != 3 {
		t.Errorf("exit code = %d, want 3", proc.ExitCode())
	}
	if strings.TrimSpace(proc.Output()) != "nope" {
		t.Errorf("output = %q", proc.Output())
	}
}

func TestRunContextKills(t *testing.T) {
	s := NewSupervisor()
	defer s.Shutdown(time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	proc, err := s.Run(ctx, "sleep", exec.Command("sleep", "10"))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("process was not killed")
	}
	if proc.State() != StateKilled {
		t.Errorf("state = %v, want killed", proc.State())
	}
}

func TestRunContextKillsChildren(t *testing.T) {
	s := NewSupervisor()
	defer s.Shutdown(time.Second)

	pidFile := filepath.Join(t.TempDir(), "child.pid")
	script := fmt.Sprintf("sleep 30 & echo $! > %s; wait", pidFile)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := s.Run(ctx, "tree", exec.Command("sh", "-c", script))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	// The child held the output pipe; it closes as soon as the group dies.
	if elapsed := time.Since(start); elapsed > 900*time.Millisecond {
		t.Errorf("Run returned after %v, want prompt return", elapsed)
	}

	data, err := os.ReadFile(pidFile)
	if err != nil {
		t.Fatalf("child pid not recorded: %v", err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for processAlive(pid) && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if processAlive(pid) {
		_ = syscall.Kill(pid, syscall.SIGKILL)
		t.Errorf("child %d survived the timeout", pid)
	}
}

// processAlive reports whether pid names a live, non-zombie process.
func processAlive(pid int) bool {
	if err := syscall.Kill(pid, 0); err != nil {
		return false
	}
	stat, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return true
	}
	_, rest, ok := strings.Cut(string(stat), ") ")
	return !ok || !strings.HasPrefix(rest, "Z")
}

func TestKillNotRunning(t *testing.T) {
	p := NewProcess("id", "idle", exec.Command("true"), 0)
	if err := p.Kill(); !errors.Is(err, ErrProcessNotStarted) {
		t.Errorf("Kill() before start = %v, want ErrProcessNotStarted", err)
	}
}

func TestExitCallbackAndTracking(t *testing.T) {
	var exited atomic.Int32
	s := NewSupervisor(WithProcessExitCallback(func(p *Process) {
		exited.Add(1)
	}))
	defer s.Shutdown(time.Second)

	if _, err := s.Run(context.Background(), "true", exec.Command("true")); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for (exited.Load() == 0 || s.Count() != 0) && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if exited.Load() != 1 {
		t.Errorf("expected 1 exit callback, got %d", exited.Load())
	}
	if s.Count() != 0 {
		t.Errorf("expected exited process to be untracked, got %d", s.Count())
	}
}

func TestShutdownRefusesNewProcesses(t *testing.T) {
	s := NewSupervisor()

	proc, err := s.Start("sleep", exec.Command("sleep", "10"))
	if err != nil {
		t.Fatal(err)
	}

	s.Shutdown(2 * time.Second)

	select {
	case <-proc.Done():
	case <-time.After(3 * time.Second):
		t.Fatal("running process was not killed on shutdown")
	}

	if _, err := s.Start("late", exec.Command("true")); !errors.Is(err, ErrSupervisorShutdown) {
		t.Errorf("expected ErrSupervisorShutdown, got %v", err)
	}
}

func TestOutputLimit(t *testing.T) {
	s := NewSupervisor(WithOutputLimit(4))
	defer s.Shutdown(time.Second)

	proc, err := s.Run(context.Background(), "long", exec.Command("sh", "-c", "echo 0123456789"))
	if err != nil {
		t.Fatal(err)
	}
	if proc.Output() != "0123" || !proc.Truncated() {
		t.Errorf("output = %q, truncated = %v", proc.Output(), proc.Truncated())
	}
}
