package utils

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Phase is one timed stage of a run.
type Phase struct {
	Name      string
	StartTime time.Time
	Duration  time.Duration
	completed bool
}

// PhaseTimer stops a single phase; it is meant to be used with defer.
type PhaseTimer struct {
	timer     *Timer
	phaseName string
}

// Stop stops the phase timer and records the duration.
// Safe to call multiple times; only the first call has effect.
func (pt *PhaseTimer) Stop() time.Duration {
	return pt.timer.StopPhase(pt.phaseName)
}

// Timer records pipeline phases in the order they were started.
type Timer struct {
	mu         sync.Mutex
	name       string
	startTime  time.Time
	phases     map[string]*Phase
	phaseOrder []string
	logger     Logger
	clock      Clock
}

// TimerOption configures a Timer instance.
type TimerOption func(*Timer)

// WithLogger makes PrintSummary write through logger.
func WithLogger(logger Logger) TimerOption {
	return func(t *Timer) {
		t.logger = logger
	}
}

// WithClock sets a custom clock for testability.
func WithClock(clock Clock) TimerOption {
	return func(t *Timer) {
		t.clock = clock
	}
}

// NewTimer creates a new Timer with the given name and options.
func NewTimer(name string, opts ...TimerOption) *Timer {
	t := &Timer{
		name:   name,
		phases: make(map[string]*Phase),
		clock:  NewRealClock(),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.startTime = t.clock.Now()
	return t
}

// Start starts timing a new phase.
func (t *Timer) Start(phaseName string) *PhaseTimer {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.phases[phaseName]; !exists {
		t.phaseOrder = append(t.phaseOrder, phaseName)
	}
	t.phases[phaseName] = &Phase{Name: phaseName, StartTime: t.clock.Now()}

	return &PhaseTimer{timer: t, phaseName: phaseName}
}

// StopPhase stops timing a phase and returns its duration.
func (t *Timer) StopPhase(phaseName string) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	phase, ok := t.phases[phaseName]
	if !ok {
		return 0
	}
	if !phase.completed {
		phase.Duration = t.clock.Since(phase.StartTime)
		phase.completed = true
	}
	return phase.Duration
}

// Duration returns the recorded duration of a phase.
func (t *Timer) Duration(phaseName string) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	if phase, ok := t.phases[phaseName]; ok {
		return phase.Duration
	}
	return 0
}

// TotalDuration returns the time elapsed since the timer was created.
func (t *Timer) TotalDuration() time.Duration {
	return t.clock.Since(t.startTime)
}

// Phases returns copies of all phases in start order.
func (t *Timer) Phases() []Phase {
	t.mu.Lock()
	defer t.mu.Unlock()

	phases := make([]Phase, 0, len(t.phaseOrder))
	for _, name := range t.phaseOrder {
		phases = append(phases, *t.phases[name])
	}
	return phases
}

// Summary returns a formatted summary of all timing phases.
func (t *Timer) Summary() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "=== %s Timing Summary ===\n", t.name)
	for i, phase := range t.Phases() {
		fmt.Fprintf(&sb, "Phase %d - %s: %v\n", i+1, phase.Name, phase.Duration)
	}
	fmt.Fprintf(&sb, "Total: %v\n", t.TotalDuration())
	return sb.String()
}

// PrintSummary writes the summary through the configured logger at debug level.
func (t *Timer) PrintSummary() {
	if t.logger == nil {
		return
	}
	for _, line := range strings.Split(strings.TrimRight(t.Summary(), "\n"), "\n") {
		t.logger.Debug("%s", line)
	}
}
