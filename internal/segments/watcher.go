// Package segments watches camera output directories and reports new
// segment files as they appear.
package segments

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/camtools/camrec/internal/events"
)

// Watcher observes the output directories of all cameras and publishes a
// SegmentCreatedEvent whenever ffmpeg opens a new .mkv segment. Each
// directory maps back to the camera that writes into it.
type Watcher struct {
	dirs    map[string]string // directory -> camera name
	bus     *events.Bus
	logger  *slog.Logger
	watcher *fsnotify.Watcher
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewWatcher creates a segment watcher. dirs maps each output directory to
// its camera name; a directory shared by several cameras keeps the last one.
func NewWatcher(dirs map[string]string, bus *events.Bus, logger *slog.Logger) *Watcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		dirs:   dirs,
		bus:    bus,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins watching the output directories. The directories must exist.
func (w *Watcher) Start() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.watcher = watcher

	for dir := range w.dirs {
		if addErr := watcher.Add(dir); addErr != nil {
			watcher.Close()
			return addErr
		}
	}

	w.logger.Info("Segment watcher started", "directories", len(w.dirs))
	go w.watch()
	return nil
}

// Stop stops watching and cleans up resources.
func (w *Watcher) Stop() error {
	w.cancel()
	if w.watcher != nil {
		return w.watcher.Close()
	}
	return nil
}

func (w *Watcher) watch() {
	for {
		select {
		case <-w.ctx.Done():
			w.logger.Debug("Segment watcher stopped")
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			// ffmpeg creates each segment once and appends to it until the
			// boundary, so Create is the new-segment signal.
			if event.Op&fsnotify.Create == 0 {
				continue
			}
			if !strings.HasSuffix(event.Name, ".mkv") {
				continue
			}

			camera := w.dirs[filepath.Dir(event.Name)]
			w.logger.Info("New segment", "camera", camera, "file", filepath.Base(event.Name))
			w.bus.Publish(events.SegmentCreatedEvent{
				Camera:    camera,
				Path:      event.Name,
				Timestamp: time.Now(),
			})

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Segment watcher error", "error", err)
		}
	}
}
