package hook

import (
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/dshills/ctrlshell/internal/command"
	"github.com/dshills/ctrlshell/internal/dispatcher/execctx"
	"github.com/dshills/ctrlshell/internal/dispatcher/handler"
)

// Standard hook priorities.
const (
	PriorityAudit      = 1000 // Runs first (pre) / last (post)
	PriorityValidation = 800  // Validate before processing
	PriorityHistory    = 500  // Record entered commands
)

// DefaultHistorySize is the number of commands kept by a HistoryHook.
const DefaultHistorySize = 100

// Logger is the interface for logging hooks.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

// AuditHook logs all dispatched commands for debugging and audit trails.
type AuditHook struct {
	logger Logger
}

// NewAuditHook creates an audit hook with the given logger.
func NewAuditHook(logger Logger) *AuditHook {
	return &AuditHook{logger: logger}
}

// Name implements Hook.
func (h *AuditHook) Name() string { return "audit" }

// Priority implements Hook.
func (h *AuditHook) Priority() int { return PriorityAudit }

// PreDispatch logs the command being dispatched.
func (h *AuditHook) PreDispatch(cmd *command.Command, ctx *execctx.ExecutionContext) bool {
	if h.logger != nil {
		h.logger.Debug("dispatch start",
			"kind", cmd.Kind.String(),
			"arg", cmd.Arg,
			"dir", ctx.WorkDir,
		)
	}
	return true
}

// PostDispatch logs the dispatch result.
func (h *AuditHook) PostDispatch(cmd *command.Command, ctx *execctx.ExecutionContext, result *handler.Result) {
	if h.logger == nil {
		return
	}

	if result.Status == handler.StatusError {
		h.logger.Warn("dispatch failed",
			"kind", cmd.Kind.String(),
			"error", result.Error,
		)
		return
	}

	args := []any{
		"kind", cmd.Kind.String(),
		"status", result.Status.String(),
		"view", result.View.Label,
	}
	for _, key := range slices.Sorted(maps.Keys(result.Data)) {
		args = append(args, key, result.Data[key])
	}
	h.logger.Debug("dispatch complete", args...)
}

// HistoryHook records the raw text of dispatched commands, newest last,
// skipping immediate repeats.
type HistoryHook struct {
	mu      sync.RWMutex
	entries []string
	max     int
}

// NewHistoryHook creates a history hook keeping at most max entries.
func NewHistoryHook(max int) *HistoryHook {
	if max <= 0 {
		max = DefaultHistorySize
	}
	return &HistoryHook{max: max}
}

// Name implements Hook.
func (h *HistoryHook) Name() string { return "history" }

// Priority implements Hook.
func (h *HistoryHook) Priority() int { return PriorityHistory }

// PostDispatch records the command. Cancelled commands are not recorded.
func (h *HistoryHook) PostDispatch(cmd *command.Command, ctx *execctx.ExecutionContext, result *handler.Result) {
	if result.Status == handler.StatusCancelled || cmd.Raw == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if n := len(h.entries); n > 0 && h.entries[n-1] == cmd.Raw {
		return
	}
	h.entries = append(h.entries, cmd.Raw)
	if len(h.entries) > h.max {
		h.entries = h.entries[len(h.entries)-h.max:]
	}
}

// Entries returns a copy of the recorded commands, oldest first.
func (h *HistoryHook) Entries() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]string, len(h.entries))
	copy(out, h.entries)
	return out
}

// ValidationHook rejects commands before dispatch.
type ValidationHook struct {
	name     string
	priority int
	kinds    []command.Kind
	validate func(*command.Command, *execctx.ExecutionContext) error
}

// NewValidationHook creates a validation hook for commands of the given
// kinds, or of every kind when none are given. A non-nil error from validate
// cancels the command; the error is stored under ValidationErrorKey.
func NewValidationHook(name string, priority int, validate func(*command.Command, *execctx.ExecutionContext) error, kinds ...command.Kind) *ValidationHook {
	return &ValidationHook{
		name:     name,
		priority: priority,
		kinds:    kinds,
		validate: validate,
	}
}

// ValidationErrorKey is the context data key holding a validation failure.
const ValidationErrorKey = "validation_error"

// Name implements Hook.
func (h *ValidationHook) Name() string { return h.name }

// Priority implements Hook.
func (h *ValidationHook) Priority() int { return h.priority }

// Kinds implements KindFilter.
func (h *ValidationHook) Kinds() []command.Kind { return h.kinds }

// PreDispatch runs the validation function.
func (h *ValidationHook) PreDispatch(cmd *command.Command, ctx *execctx.ExecutionContext) bool {
	if h.validate == nil {
		return true
	}
	if err := h.validate(cmd, ctx); err != nil {
		ctx.SetData(ValidationErrorKey, err.Error())
		return false
	}
	return true
}

// TimingHook measures command execution time.
// Start times are stored on the ExecutionContext.
type TimingHook struct {
	callback func(kind command.Kind, duration time.Duration)
}

// timingStartKey is the context data key for timing start time.
const timingStartKey = "_timing_start"

// NewTimingHook creates a timing hook.
func NewTimingHook(callback func(kind command.Kind, duration time.Duration)) *TimingHook {
	return &TimingHook{
		callback: callback,
	}
}

// Name implements Hook.
func (h *TimingHook) Name() string { return "timing" }

// Priority implements Hook.
func (h *TimingHook) Priority() int { return PriorityAudit }

// PreDispatch records the start time on the context.
func (h *TimingHook) PreDispatch(cmd *command.Command, ctx *execctx.ExecutionContext) bool {
	ctx.SetData(timingStartKey, time.Now())
	return true
}

// PostDispatch calculates and reports the duration.
func (h *TimingHook) PostDispatch(cmd *command.Command, ctx *execctx.ExecutionContext, result *handler.Result) {
	startVal, ok := ctx.GetData(timingStartKey)
	if !ok {
		return
	}

	start, ok := startVal.(time.Time)
	if ok && h.callback != nil {
		h.callback(cmd.Kind, time.Since(start))
	}
}
