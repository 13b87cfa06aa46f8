package events

import (
	"testing"
	"time"
)

func TestBusPublishSubscribe(t *testing.T) {
	bus := New()
	received := make(chan SegmentCreatedEvent, 1)

	unsub := bus.Subscribe(func(e SegmentCreatedEvent) {
		received <- e
	})
	defer unsub()

	ev := SegmentCreatedEvent{
		Camera:    "gate",
		Path:      "/data/gate_2026-08-31_12-00-00.mkv",
		Timestamp: time.Now(),
	}
	bus.Publish(ev)

	got := <-received
	if got.Path != ev.Path {
		t.Errorf("expected path %s, got %s", ev.Path, got.Path)
	}
}

func TestBusMultipleSubscribers(_ *testing.T) {
	bus := New()
	received1 := make(chan SupervisorStateEvent, 1)
	received2 := make(chan SupervisorStateEvent, 1)

	unsub1 := bus.Subscribe(func(e SupervisorStateEvent) {
		received1 <- e
	})
	defer unsub1()

	unsub2 := bus.Subscribe(func(e SupervisorStateEvent) {
		received2 <- e
	})
	defer unsub2()

	bus.Publish(SupervisorStateEvent{Camera: "gate", From: "starting", To: "running"})

	<-received1
	<-received2
}

func TestBusUnsubscribe(t *testing.T) {
	bus := New()
	received := make(chan ProcessExitedEvent, 1)

	unsub := bus.Subscribe(func(e ProcessExitedEvent) {
		received <- e
	})

	bus.Publish(ProcessExitedEvent{Camera: "gate", ExitCode: 1})
	<-received

	unsub()

	bus.Publish(ProcessExitedEvent{Camera: "gate", ExitCode: 2})
	select {
	case <-received:
		t.Fatal("should not receive events after unsubscribe")
	case <-time.After(10 * time.Millisecond):
	}
}

func TestBusUnknownHandlerIsNoop(t *testing.T) {
	bus := New()
	unsub := bus.Subscribe(func(s string) {})
	unsub()

	// Publishing with no matching subscriber must not panic.
	bus.Publish(RecordingStoppedEvent{Camera: "gate", Reason: "user_signal"})
}
