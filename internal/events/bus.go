package events

import (
	"github.com/kelindar/event"
)

// Bus wraps the kelindar/event dispatcher for event broadcasting between the
// recorder core and reactive subsystems (metrics, segment logging).
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates a new event bus.
func New() *Bus {
	return &Bus{
		dispatcher: event.NewDispatcher(),
	}
}

// Publish publishes an event to all subscribers.
// Usage: bus.Publish(SegmentCreatedEvent{...})
func (b *Bus) Publish(ev Event) {
	// kelindar/event's Publish is generic, so dispatch by concrete type.
	switch e := ev.(type) {
	case SupervisorStateEvent:
		event.Publish(b.dispatcher, e)
	case ProcessExitedEvent:
		event.Publish(b.dispatcher, e)
	case SegmentCreatedEvent:
		event.Publish(b.dispatcher, e)
	case RecordingStoppedEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe subscribes to events with a handler function. The handler's
// parameter type determines which events it receives.
// Returns an unsubscribe function.
// Usage: unsub := bus.Subscribe(func(e SegmentCreatedEvent) { ... })
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(SupervisorStateEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(ProcessExitedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(SegmentCreatedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(RecordingStoppedEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		return func() {}
	}
}
