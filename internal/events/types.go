package events

import "time"

// Event type constants for kelindar/event.
const (
	TypeSupervisorState uint32 = iota + 1
	TypeProcessExited
	TypeSegmentCreated
	TypeRecordingStopped
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// SupervisorStateEvent is published on every supervisor state transition.
type SupervisorStateEvent struct {
	Camera    string    `json:"camera"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Timestamp time.Time `json:"timestamp"`
}

// Type returns the event type identifier for SupervisorStateEvent.
func (e SupervisorStateEvent) Type() uint32 { return TypeSupervisorState }

// ProcessExitedEvent is published when a capture process exits on its own,
// before the supervisor decides whether to relaunch it.
type ProcessExitedEvent struct {
	Camera    string    `json:"camera"`
	PID       int       `json:"pid"`
	ExitCode  int       `json:"exit_code"`
	Signaled  bool      `json:"signaled"`
	Launches  int       `json:"launches"`
	Timestamp time.Time `json:"timestamp"`
}

// Type returns the event type identifier for ProcessExitedEvent.
func (e ProcessExitedEvent) Type() uint32 { return TypeProcessExited }

// SegmentCreatedEvent is published when a new segment file appears in a
// camera's output directory.
type SegmentCreatedEvent struct {
	Camera    string    `json:"camera"`
	Path      string    `json:"path"`
	Timestamp time.Time `json:"timestamp"`
}

// Type returns the event type identifier for SegmentCreatedEvent.
func (e SegmentCreatedEvent) Type() uint32 { return TypeSegmentCreated }

// RecordingStoppedEvent is published when a camera's supervision ends for
// good, with the reason it stopped.
type RecordingStoppedEvent struct {
	Camera    string    `json:"camera"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// Type returns the event type identifier for RecordingStoppedEvent.
func (e RecordingStoppedEvent) Type() uint32 { return TypeRecordingStopped }
