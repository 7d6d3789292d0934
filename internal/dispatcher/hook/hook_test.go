package hook_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/dshills/ctrlshell/internal/command"
	"github.com/dshills/ctrlshell/internal/dispatcher/execctx"
	"github.com/dshills/ctrlshell/internal/dispatcher/handler"
	"github.com/dshills/ctrlshell/internal/dispatcher/hook"
	"github.com/dshills/ctrlshell/internal/dispatcher/report"
)

// testHook is a configurable pre- and post-dispatch hook.
type testHook struct {
	name     string
	priority int
	kinds    []command.Kind
	pre      func(cmd *command.Command) bool
	post     func(cmd *command.Command, result *handler.Result)
}

func (h *testHook) Name() string          { return h.name }
func (h *testHook) Priority() int         { return h.priority }
func (h *testHook) Kinds() []command.Kind { return h.kinds }

func (h *testHook) PreDispatch(cmd *command.Command, ctx *execctx.ExecutionContext) bool {
	if h.pre == nil {
		return true
	}
	return h.pre(cmd)
}

func (h *testHook) PostDispatch(cmd *command.Command, ctx *execctx.ExecutionContext, result *handler.Result) {
	if h.post != nil {
		h.post(cmd, result)
	}
}

// recorder returns a hook that appends its name to order in both phases.
func recorder(name string, priority int, order *[]string) *testHook {
	return &testHook{
		name:     name,
		priority: priority,
		pre: func(*command.Command) bool {
			*order = append(*order, name)
			return true
		},
		post: func(*command.Command, *handler.Result) {
			*order = append(*order, name)
		},
	}
}

func okResult() handler.Result {
	return handler.Result{Status: handler.StatusOK}
}

// TestManagerPriorityOrdering verifies pre-hooks run highest priority first
// and post-hooks lowest first.
func TestManagerPriorityOrdering(t *testing.T) {
	m := hook.NewManager()

	var order []string
	m.Register(recorder("low", 10, &order))
	m.Register(recorder("high", 100, &order))
	m.Register(recorder("mid", 50, &order))

	cmd := command.Parse("notes.txt")
	ctx := execctx.New()
	if ok, err := m.RunPre(&cmd, ctx); !ok || err != nil {
		t.Fatalf("RunPre() = %v, %v", ok, err)
	}
	result := okResult()
	if err := m.RunPost(&cmd, ctx, &result); err != nil {
		t.Fatalf("RunPost() = %v", err)
	}

	want := "high mid low low mid high"
	if got := strings.Join(order, " "); got != want {
		t.Errorf("order = %q, want %q", got, want)
	}
}

// TestManagerCancel verifies a cancelling pre-hook stops later ones.
func TestManagerCancel(t *testing.T) {
	m := hook.NewManager()

	secondCalled := false
	m.Register(&testHook{name: "canceller", priority: 100, pre: func(*command.Command) bool { return false }})
	m.Register(&testHook{name: "second", priority: 50, pre: func(*command.Command) bool {
		secondCalled = true
		return true
	}})

	cmd := command.Parse("?")
	ok, err := m.RunPre(&cmd, execctx.New())
	if ok || err != nil {
		t.Errorf("RunPre() = %v, %v, want false, nil", ok, err)
	}
	if secondCalled {
		t.Error("second hook should not be called after cancellation")
	}
}

// TestManagerReplaceDuplicate verifies a second hook with the same name
// replaces the first.
func TestManagerReplaceDuplicate(t *testing.T) {
	m := hook.NewManager()

	callCount := 0
	m.Register(&testHook{name: "test", priority: 100, pre: func(*command.Command) bool {
		callCount++
		return true
	}})
	m.Register(&testHook{name: "test", priority: 200, pre: func(*command.Command) bool {
		callCount += 10
		return true
	}})

	cmd := command.Parse("?")
	if _, err := m.RunPre(&cmd, execctx.New()); err != nil {
		t.Fatal(err)
	}
	if callCount != 10 {
		t.Errorf("expected only the replacement hook to run, got count %d", callCount)
	}
}

// TestManagerKindFilter verifies hooks only see the kinds they ask for.
func TestManagerKindFilter(t *testing.T) {
	m := hook.NewManager()

	var seen []string
	m.Register(&testHook{
		name:  "shell-only",
		kinds: []command.Kind{command.KindShell},
		pre: func(cmd *command.Command) bool {
			seen = append(seen, "pre "+cmd.Kind.String())
			return true
		},
		post: func(cmd *command.Command, _ *handler.Result) {
			seen = append(seen, "post "+cmd.Kind.String())
		},
	})
	m.Register(&testHook{
		name: "all",
		pre: func(cmd *command.Command) bool {
			seen = append(seen, "all "+cmd.Kind.String())
			return true
		},
	})

	ctx := execctx.New()
	for _, text := range []string{"?", "!ls"} {
		cmd := command.Parse(text)
		if _, err := m.RunPre(&cmd, ctx); err != nil {
			t.Fatal(err)
		}
		result := okResult()
		if err := m.RunPost(&cmd, ctx, &result); err != nil {
			t.Fatal(err)
		}
	}

	want := fmt.Sprint([]string{"all help", "pre shell", "all shell", "post shell"})
	if got := fmt.Sprint(seen); got != want {
		t.Errorf("seen = %s, want %s", got, want)
	}
}

// TestManagerRecoversPanics verifies a panicking hook becomes an error that
// reports as a panic, and stops the remaining hooks of that phase.
func TestManagerRecoversPanics(t *testing.T) {
	tests := []struct {
		name  string
		hook  *testHook
		phase string
	}{
		{
			name:  "pre",
			hook:  &testHook{name: "boom", priority: 100, pre: func(*command.Command) bool { panic("hook exploded") }},
			phase: "pre-dispatch hook boom",
		},
		{
			name:  "post",
			hook:  &testHook{name: "boom", priority: -100, post: func(*command.Command, *handler.Result) { panic("hook exploded") }},
			phase: "post-dispatch hook boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := hook.NewManager()
			m.Register(tt.hook)
			laterRan := false
			m.Register(&testHook{
				name: "later",
				pre: func(*command.Command) bool {
					laterRan = true
					return true
				},
				post: func(*command.Command, *handler.Result) { laterRan = true },
			})

			cmd := command.Parse("?")
			ctx := execctx.New()
			var err error
			if tt.name == "pre" {
				var ok bool
				ok, err = m.RunPre(&cmd, ctx)
				if ok {
					t.Error("a panicking pre-hook must not let the command proceed")
				}
			} else {
				result := okResult()
				err = m.RunPost(&cmd, ctx, &result)
			}

			var perr *report.PanicError
			if !errors.As(err, &perr) {
				t.Fatalf("error = %v, want a *report.PanicError in the chain", err)
			}
			if perr.Value != "hook exploded" {
				t.Errorf("panic value = %v", perr.Value)
			}
			if report.Kind(err) != report.KindPanic {
				t.Errorf("Kind() = %q, want panic", report.Kind(err))
			}
			if !strings.Contains(err.Error(), tt.phase) {
				t.Errorf("error %q should name %q", err, tt.phase)
			}
			if laterRan {
				t.Error("hooks after the panicking one should not run")
			}
		})
	}
}

type recordingLogger struct {
	debug []string
	warn  []string
}

func (l *recordingLogger) Debug(msg string, args ...any) { l.debug = append(l.debug, msg) }
func (l *recordingLogger) Warn(msg string, args ...any)  { l.warn = append(l.warn, msg) }

// TestAuditHook verifies dispatch logging.
func TestAuditHook(t *testing.T) {
	logger := &recordingLogger{}
	h := hook.NewAuditHook(logger)
	if h.Name() != "audit" || h.Priority() != hook.PriorityAudit {
		t.Errorf("unexpected identity %q/%d", h.Name(), h.Priority())
	}

	cmd := command.Parse("!ls")
	ctx := execctx.New()
	if !h.PreDispatch(&cmd, ctx) {
		t.Error("audit hook must never cancel")
	}
	ok := okResult().WithData("status", 200)
	h.PostDispatch(&cmd, ctx, &ok)
	failed := handler.Error(errors.New("boom"))
	h.PostDispatch(&cmd, ctx, &failed)

	if len(logger.debug) != 2 || len(logger.warn) != 1 {
		t.Errorf("debug = %v, warn = %v", logger.debug, logger.warn)
	}

	// A nil logger is tolerated.
	hook.NewAuditHook(nil).PostDispatch(&cmd, ctx, &failed)
}

// TestHistoryHook verifies command history recording.
func TestHistoryHook(t *testing.T) {
	h := hook.NewHistoryHook(3)
	ctx := execctx.New()
	ok := okResult()

	for _, text := range []string{"a", "b", "b", "c", "d"} {
		cmd := command.Parse(text)
		h.PostDispatch(&cmd, ctx, &ok)
	}

	want := []string{"b", "c", "d"}
	if got := h.Entries(); fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("Entries() = %v, want %v", got, want)
	}

	cancelled := handler.CancelledWithMessage("no")
	cmd := command.Parse("e")
	h.PostDispatch(&cmd, ctx, &cancelled)
	if len(h.Entries()) != 3 {
		t.Error("cancelled commands must not be recorded")
	}

	if hook.NewHistoryHook(0) == nil {
		t.Error("expected default-sized hook")
	}
}

// TestTimingHook verifies timing measurement.
func TestTimingHook(t *testing.T) {
	var recordedKind command.Kind
	var recordedDuration time.Duration

	h := hook.NewTimingHook(func(kind command.Kind, duration time.Duration) {
		recordedKind = kind
		recordedDuration = duration
	})

	if h.Name() != "timing" {
		t.Errorf("expected name 'timing', got %q", h.Name())
	}

	cmd := command.Parse("=1")
	ctx := execctx.New()
	result := okResult()

	h.PreDispatch(&cmd, ctx)
	time.Sleep(10 * time.Millisecond)
	h.PostDispatch(&cmd, ctx, &result)

	if recordedKind != command.KindEval {
		t.Errorf("expected recorded kind eval, got %v", recordedKind)
	}
	if recordedDuration < 10*time.Millisecond {
		t.Errorf("expected duration >= 10ms, got %v", recordedDuration)
	}
}

// TestValidationHook verifies custom validation and its kind filter.
func TestValidationHook(t *testing.T) {
	h := hook.NewValidationHook("no-rm", hook.PriorityValidation, func(cmd *command.Command, ctx *execctx.ExecutionContext) error {
		if strings.HasPrefix(cmd.Arg, "rm ") {
			return errors.New("rm disabled")
		}
		return nil
	}, command.KindShell)

	if got := h.Kinds(); len(got) != 1 || got[0] != command.KindShell {
		t.Errorf("Kinds() = %v", got)
	}

	ctx := execctx.New()
	allowed := command.Parse("!ls")
	if !h.PreDispatch(&allowed, ctx) {
		t.Error("expected ls to be allowed")
	}

	blocked := command.Parse("!rm -rf x")
	if h.PreDispatch(&blocked, ctx) {
		t.Error("expected rm to be blocked")
	}
	if ctx.GetDataString(hook.ValidationErrorKey) != "rm disabled" {
		t.Errorf("validation error = %q", ctx.GetDataString(hook.ValidationErrorKey))
	}

	if !hook.NewValidationHook("nil", 0, nil).PreDispatch(&blocked, ctx) {
		t.Error("nil validator allows everything")
	}
}

// TestManagerRegisterCombined verifies Register files a hook under every
// phase it implements.
func TestManagerRegisterCombined(t *testing.T) {
	m := hook.NewManager()
	logger := &recordingLogger{}
	history := hook.NewHistoryHook(10)
	m.Register(hook.NewAuditHook(logger))
	m.Register(history)

	cmd := command.Parse("?")
	ctx := execctx.New()
	if _, err := m.RunPre(&cmd, ctx); err != nil {
		t.Fatal(err)
	}
	result := okResult()
	if err := m.RunPost(&cmd, ctx, &result); err != nil {
		t.Fatal(err)
	}

	if len(logger.debug) != 2 {
		t.Errorf("audit ran %d times, want pre and post", len(logger.debug))
	}
	if got := history.Entries(); len(got) != 1 || got[0] != "?" {
		t.Errorf("history = %q", got)
	}
}
