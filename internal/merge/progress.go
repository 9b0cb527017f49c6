package merge

import "fmt"

// Phase identifies one step of the merge pipeline.
type Phase string

const (
	PhaseClassify Phase = "classify"
	PhaseAnalyze  Phase = "analyze"
	PhaseFuse     Phase = "fuse"
	PhaseSummary  Phase = "summary"
)

// ProgressStatus describes where a unit of work is in its lifecycle.
type ProgressStatus string

const (
	ProgressPending  ProgressStatus = "pending"
	ProgressWorking  ProgressStatus = "working"
	ProgressComplete ProgressStatus = "complete"
	ProgressSkipped  ProgressStatus = "skipped"
	ProgressFailed   ProgressStatus = "failed"
)

// ProgressEvent reports pipeline progress. Phase-level events carry an empty
// Path; per-file events name the path. Total is set on phase-level pending
// events so consumers can size progress displays.
type ProgressEvent struct {
	Phase   Phase
	Path    string
	Status  ProgressStatus
	Message string
	Total   int
}

// ProgressReporter emits progress events through a buffered channel.
type ProgressReporter struct {
	ch chan ProgressEvent
}

// NewProgressReporter creates a ProgressReporter with a buffered channel of size 64.
func NewProgressReporter() *ProgressReporter {
	return &ProgressReporter{
		ch: make(chan ProgressEvent, 64),
	}
}

// Emit sends a progress event in a non-blocking fashion.
// If the channel is full, the event is silently dropped.
func (pr *ProgressReporter) Emit(event ProgressEvent) {
	select {
	case pr.ch <- event:
	default:
		// Drop the event if the channel is full.
	}
}

// Subscribe returns a read-only channel for consuming progress events.
func (pr *ProgressReporter) Subscribe() <-chan ProgressEvent {
	return pr.ch
}

// Close closes the progress event channel.
func (pr *ProgressReporter) Close() {
	close(pr.ch)
}

// FormatProgress formats a per-file ProgressEvent as a human-readable line.
func FormatProgress(event ProgressEvent) string {
	switch event.Status {
	case ProgressWorking:
		return fmt.Sprintf("  ● %s...", event.Path)
	case ProgressComplete:
		return fmt.Sprintf("  ✓ %s", event.Path)
	case ProgressSkipped:
		return fmt.Sprintf("  - %s (identical)", event.Path)
	case ProgressFailed:
		return fmt.Sprintf("  ✗ %s: %s", event.Path, event.Message)
	default:
		return fmt.Sprintf("  ○ %s", event.Path)
	}
}
