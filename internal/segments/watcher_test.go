package segments

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/camtools/camrec/internal/events"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWatcherPublishesSegmentEvents(t *testing.T) {
	dir := t.TempDir()
	bus := events.New()

	received := make(chan events.SegmentCreatedEvent, 4)
	unsub := bus.Subscribe(func(e events.SegmentCreatedEvent) {
		received <- e
	})
	defer unsub()

	w := NewWatcher(map[string]string{dir: "gate"}, bus, testLogger())
	if err := w.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer w.Stop()

	segment := filepath.Join(dir, "gate_2026-08-31_12-00-00.mkv")
	if err := os.WriteFile(segment, []byte("x"), 0o644); err != nil {
		t.Fatalf("write segment: %v", err)
	}

	select {
	case e := <-received:
		if e.Camera != "gate" {
			t.Errorf("camera = %q, want gate", e.Camera)
		}
		if e.Path != segment {
			t.Errorf("path = %q, want %q", e.Path, segment)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no segment event received")
	}
}

func TestWatcherIgnoresNonSegmentFiles(t *testing.T) {
	dir := t.TempDir()
	bus := events.New()

	received := make(chan events.SegmentCreatedEvent, 4)
	unsub := bus.Subscribe(func(e events.SegmentCreatedEvent) {
		received <- e
	})
	defer unsub()

	w := NewWatcher(map[string]string{dir: "gate"}, bus, testLogger())
	if err := w.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	select {
	case e := <-received:
		t.Fatalf("unexpected event for %s", e.Path)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcherMissingDirectory(t *testing.T) {
	w := NewWatcher(map[string]string{"/nonexistent/camrec-test": "gate"}, events.New(), testLogger())
	if err := w.Start(); err == nil {
		w.Stop()
		t.Fatal("expected error for missing directory")
	}
}
