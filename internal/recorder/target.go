package recorder

import (
	"fmt"
	"time"
)

// Target is the immutable configuration for one stream-to-file recording job.
// It is created once at startup from external configuration and never mutated.
type Target struct {
	// Name identifies the camera in logs, events, and metrics.
	Name string

	// Command is the full capture command line. The recorder treats it as
	// opaque; it is built elsewhere (see internal/ffmpeg).
	Command string

	// Dir is the working directory for the capture process. Empty means
	// inherit the recorder's working directory.
	Dir string

	// OutputDir is where the capture process writes segment files. Used by
	// the segment watcher, not by the supervisor itself.
	OutputDir string

	// RestartDelay is how long to wait before relaunching the capture
	// process after an unexpected exit.
	RestartDelay time.Duration

	// MaxRestarts stops supervision permanently once the capture process has
	// exited this many times plus one. 0 = retry indefinitely.
	MaxRestarts int

	// MaxDuration caps total wall-clock recording time across all restarts.
	// 0 = no limit.
	MaxDuration time.Duration

	// LogPath is the append-only file that receives the capture process
	// stdout/stderr output.
	LogPath string
}

// Validate reports the first problem with the target configuration.
func (t *Target) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("camera name is required")
	}
	if t.Command == "" {
		return fmt.Errorf("camera %s: capture command is empty", t.Name)
	}
	if t.RestartDelay < 0 {
		return fmt.Errorf("camera %s: restart delay must be >= 0", t.Name)
	}
	if t.MaxRestarts < 0 {
		return fmt.Errorf("camera %s: max restarts must be >= 0", t.Name)
	}
	if t.MaxDuration < 0 {
		return fmt.Errorf("camera %s: max duration must be >= 0", t.Name)
	}
	return nil
}
