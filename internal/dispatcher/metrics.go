package dispatcher

import (
	"sort"
	"sync"
	"time"

	"github.com/dshills/ctrlshell/internal/dispatcher/handler"
)

// Metrics collects dispatch statistics.
type Metrics struct {
	mu sync.RWMutex

	// Per-command metrics, keyed by command kind name
	commandMetrics map[string]*CommandMetrics

	// Reported error kinds
	errorKinds map[string]uint64

	// Global counters
	totalDispatches uint64
	totalErrors     uint64
	totalPanics     uint64

	// Timing
	totalDuration time.Duration
}

// CommandMetrics holds metrics for one command kind.
type CommandMetrics struct {
	Name          string
	DispatchCount uint64
	ErrorCount    uint64
	TotalDuration time.Duration
	MinDuration   time.Duration
	MaxDuration   time.Duration
	LastStatus    handler.ResultStatus
	LastDispatch  time.Time
}

// NewMetrics creates a new metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{
		commandMetrics: make(map[string]*CommandMetrics),
		errorKinds:     make(map[string]uint64),
	}
}

// RecordDispatch records a dispatch event.
func (m *Metrics) RecordDispatch(name string, duration time.Duration, status handler.ResultStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalDispatches++
	m.totalDuration += duration

	if status == handler.StatusError {
		m.totalErrors++
	}

	cm := m.commandMetrics[name]
	if cm == nil {
		cm = &CommandMetrics{
			Name:        name,
			MinDuration: duration,
			MaxDuration: duration,
		}
		m.commandMetrics[name] = cm
	}

	cm.DispatchCount++
	cm.TotalDuration += duration
	cm.LastStatus = status
	cm.LastDispatch = time.Now()

	if duration < cm.MinDuration {
		cm.MinDuration = duration
	}
	if duration > cm.MaxDuration {
		cm.MaxDuration = duration
	}

	if status == handler.StatusError {
		cm.ErrorCount++
	}
}

// RecordPanic records a panic recovery.
func (m *Metrics) RecordPanic() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totalPanics++
}

// RecordErrorKind counts a reported error by its kind label.
func (m *Metrics) RecordErrorKind(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorKinds[kind]++
}

// ErrorKinds returns a copy of the reported error counts by kind.
func (m *Metrics) ErrorKinds() map[string]uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]uint64, len(m.errorKinds))
	for k, v := range m.errorKinds {
		out[k] = v
	}
	return out
}

// TopCommands returns the n most dispatched command kinds.
func (m *Metrics) TopCommands(n int) []*CommandMetrics {
	commands := m.copyCommands()
	sort.Slice(commands, func(i, j int) bool {
		if commands[i].DispatchCount != commands[j].DispatchCount {
			return commands[i].DispatchCount > commands[j].DispatchCount
		}
		return commands[i].Name < commands[j].Name
	})
	return commands[:min(n, len(commands))]
}

// SlowestCommands returns the n slowest command kinds by average duration.
func (m *Metrics) SlowestCommands(n int) []*CommandMetrics {
	commands := m.copyCommands()
	sort.Slice(commands, func(i, j int) bool {
		return commands[i].AverageDuration() > commands[j].AverageDuration()
	})
	return commands[:min(n, len(commands))]
}

func (m *Metrics) copyCommands() []*CommandMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*CommandMetrics, 0, len(m.commandMetrics))
	for _, cm := range m.commandMetrics {
		c := *cm
		out = append(out, &c)
	}
	return out
}

// MetricsSnapshot is a point-in-time copy of the global counters.
type MetricsSnapshot struct {
	TotalDispatches uint64
	TotalErrors     uint64
	TotalPanics     uint64
	AverageDuration time.Duration
}

// Snapshot returns a snapshot of current metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snapshot := MetricsSnapshot{
		TotalDispatches: m.totalDispatches,
		TotalErrors:     m.totalErrors,
		TotalPanics:     m.totalPanics,
	}

	if m.totalDispatches > 0 {
		snapshot.AverageDuration = m.totalDuration / time.Duration(m.totalDispatches)
	}

	return snapshot
}

// AverageDuration returns the average duration for the command kind.
func (cm *CommandMetrics) AverageDuration() time.Duration {
	if cm.DispatchCount == 0 {
		return 0
	}
	return cm.TotalDuration / time.Duration(cm.DispatchCount)
}

// ErrorRate returns the error rate as a percentage.
func (cm *CommandMetrics) ErrorRate() float64 {
	if cm.DispatchCount == 0 {
		return 0
	}
	return float64(cm.ErrorCount) / float64(cm.DispatchCount) * 100
}
