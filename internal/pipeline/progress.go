package pipeline

import "fmt"

// Stage names one of the six scan components, in dependency order.
type Stage int

const (
	StagePaths Stage = iota
	StageParse
	StageResolve
	StageGraph
	StageAnalyses
	StageStore
)

func (s Stage) String() string {
	switch s {
	case StagePaths:
		return "path discovery"
	case StageParse:
		return "language parsing"
	case StageResolve:
		return "import resolution"
	case StageGraph:
		return "graph assembly"
	case StageAnalyses:
		return "analyses"
	case StageStore:
		return "snapshot store"
	default:
		return "unknown stage"
	}
}

// Status is the lifecycle state of a stage or per-file job.
type Status int

const (
	StatusPending Status = iota
	StatusWorking
	StatusComplete
	StatusFailed
)

// Event is a single progress update emitted while a scan runs.
type Event struct {
	Stage   Stage
	Section string
	Status  Status
	Message string
}

// Reporter emits progress events through a buffered, non-blocking channel.
type Reporter struct {
	ch chan Event
}

// NewReporter creates a Reporter with a buffered channel of size 64.
func NewReporter() *Reporter {
	return &Reporter{ch: make(chan Event, 64)}
}

// Emit sends an event without blocking; the event is dropped if the
// channel is full rather than stalling the scan on a slow consumer.
func (r *Reporter) Emit(ev Event) {
	select {
	case r.ch <- ev:
	default:
	}
}

// Subscribe returns a read-only channel of progress events.
func (r *Reporter) Subscribe() <-chan Event { return r.ch }

// Close closes the event channel. Callers must stop calling Emit first.
func (r *Reporter) Close() { close(r.ch) }

// Format renders an event as a human-readable status line.
func Format(ev Event) string {
	switch ev.Status {
	case StatusPending:
		return fmt.Sprintf("  - %s (pending)", ev.Section)
	case StatusWorking:
		return fmt.Sprintf("  > %s...", ev.Section)
	case StatusComplete:
		return fmt.Sprintf("  + %s complete", ev.Section)
	case StatusFailed:
		return fmt.Sprintf("  x %s failed: %s", ev.Section, ev.Message)
	default:
		return fmt.Sprintf("  ? %s (unknown status)", ev.Section)
	}
}
