package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/camtools/camrec/internal/ffmpeg"
	"github.com/camtools/camrec/internal/recorder"
)

// Recording defaults applied when a camera omits the setting. Pointer fields
// in CameraConfig distinguish "absent" from an explicit zero.
const (
	DefaultSegmentSeconds     = ffmpeg.DefaultSegmentSeconds
	DefaultRestartDelay       = 5 * time.Second
	DefaultMaxDurationSeconds = 14400
)

// CameraConfig represents a single camera entry in the cameras file.
type CameraConfig struct {
	Name    string `toml:"name"`
	RTSPURL string `toml:"rtsp_url"`
	Enabled *bool  `toml:"enabled,omitempty"`

	// Transport
	TCP            bool `toml:"tcp,omitempty"`
	SocketTimeoutS *int `toml:"socket_timeout_seconds,omitempty"`

	// Output
	OutputDir      string `toml:"output_dir,omitempty"`
	FilePrefix     string `toml:"file_prefix,omitempty"`
	SegmentSeconds *int   `toml:"segment_seconds,omitempty"`

	// Supervision
	RestartDelayS *int `toml:"restart_delay_seconds,omitempty"`
	MaxRestarts   *int `toml:"max_restarts,omitempty"`
	MaxDurationS  *int `toml:"max_duration_seconds,omitempty"`

	// Extras
	LogLevel  string   `toml:"log_level,omitempty"`
	ExtraArgs []string `toml:"extra_ffmpeg_args,omitempty"`
}

// CamerasConfig is the complete cameras configuration file.
type CamerasConfig struct {
	// OutputDir is the default recording directory; cameras write to
	// OutputDir unless they set their own.
	OutputDir string `toml:"output_dir"`

	// LogDir receives per-camera ffmpeg log files, one per camera name.
	// Empty disables file logging for the capture output.
	LogDir string `toml:"log_dir,omitempty"`

	Cameras []CameraConfig `toml:"camera"`
}

// LoadCameras reads and validates the cameras configuration file. Any
// validation problem is fatal: a recorder that silently skips a camera is
// worse than one that refuses to start.
func LoadCameras(path string) (*CamerasConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cameras config: %w", err)
	}

	var cfg CamerasConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse cameras config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for problems that would only surface
// after the recorder is already running.
func (c *CamerasConfig) Validate() error {
	if len(c.Cameras) == 0 {
		return fmt.Errorf("no cameras defined")
	}

	seen := make(map[string]bool, len(c.Cameras))
	for i := range c.Cameras {
		cam := &c.Cameras[i]
		if cam.Name == "" {
			return fmt.Errorf("camera #%d: name is required", i+1)
		}
		if seen[cam.Name] {
			return fmt.Errorf("camera %s: duplicate name", cam.Name)
		}
		seen[cam.Name] = true

		if cam.RTSPURL == "" {
			return fmt.Errorf("camera %s: rtsp_url is required", cam.Name)
		}
		if cam.OutputDir == "" && c.OutputDir == "" {
			return fmt.Errorf("camera %s: no output_dir set and no global default", cam.Name)
		}
		if cam.SegmentSeconds != nil && *cam.SegmentSeconds <= 0 {
			return fmt.Errorf("camera %s: segment_seconds must be > 0", cam.Name)
		}
		if cam.RestartDelayS != nil && *cam.RestartDelayS < 0 {
			return fmt.Errorf("camera %s: restart_delay_seconds must be >= 0", cam.Name)
		}
		if cam.MaxRestarts != nil && *cam.MaxRestarts < 0 {
			return fmt.Errorf("camera %s: max_restarts must be >= 0", cam.Name)
		}
		if cam.MaxDurationS != nil && *cam.MaxDurationS < 0 {
			return fmt.Errorf("camera %s: max_duration_seconds must be >= 0", cam.Name)
		}
	}
	return nil
}

// EnabledCameras returns the cameras that should be recorded. Cameras are
// enabled unless explicitly disabled.
func (c *CamerasConfig) EnabledCameras() []CameraConfig {
	enabled := make([]CameraConfig, 0, len(c.Cameras))
	for _, cam := range c.Cameras {
		if cam.Enabled == nil || *cam.Enabled {
			enabled = append(enabled, cam)
		}
	}
	return enabled
}

// Targets converts the enabled cameras into recorder targets with the
// capture command lines fully built.
func (c *CamerasConfig) Targets() ([]recorder.Target, error) {
	cams := c.EnabledCameras()
	targets := make([]recorder.Target, 0, len(cams))

	for _, cam := range cams {
		outputDir := cam.OutputDir
		if outputDir == "" {
			outputDir = c.OutputDir
		}
		prefix := cam.FilePrefix
		if prefix == "" {
			prefix = cam.Name
		}

		params := &ffmpeg.Params{
			RTSPURL:        cam.RTSPURL,
			TCP:            cam.TCP,
			OutputDir:      outputDir,
			FilePrefix:     prefix,
			SegmentSeconds: intOr(cam.SegmentSeconds, DefaultSegmentSeconds),
			LogLevel:       cam.LogLevel,
			ExtraArgs:      cam.ExtraArgs,
		}
		if cam.SocketTimeoutS != nil {
			params.SocketTimeout = time.Duration(*cam.SocketTimeoutS) * time.Second
		}

		var logPath string
		if c.LogDir != "" {
			logPath = filepath.Join(c.LogDir, cam.Name+".log")
		}

		target := recorder.Target{
			Name:         cam.Name,
			Command:      ffmpeg.BuildCommand(params),
			OutputDir:    outputDir,
			RestartDelay: time.Duration(intOr(cam.RestartDelayS, int(DefaultRestartDelay/time.Second))) * time.Second,
			MaxRestarts:  intOr(cam.MaxRestarts, 0),
			MaxDuration:  time.Duration(intOr(cam.MaxDurationS, DefaultMaxDurationSeconds)) * time.Second,
			LogPath:      logPath,
		}
		if err := target.Validate(); err != nil {
			return nil, err
		}
		targets = append(targets, target)
	}

	return targets, nil
}

// EnsureDirs creates the output and log directories for the enabled cameras
// before any capture process starts. ffmpeg does not create directories and
// exits immediately when one is missing.
func (c *CamerasConfig) EnsureDirs() error {
	dirs := make(map[string]bool)
	if c.LogDir != "" {
		dirs[c.LogDir] = true
	}
	for _, cam := range c.EnabledCameras() {
		if cam.OutputDir != "" {
			dirs[cam.OutputDir] = true
		} else if c.OutputDir != "" {
			dirs[c.OutputDir] = true
		}
	}

	for dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

func intOr(v *int, fallback int) int {
	if v != nil {
		return *v
	}
	return fallback
}
