package ffmpeg

import "time"

// Default values mirroring the recorder's CLI defaults.
const (
	DefaultSegmentSeconds = 600
	DefaultSocketTimeout  = 5 * time.Second
	DefaultLogLevel       = "info"
)

// Params holds everything needed to build a segmented RTSP recording command.
type Params struct {
	// Input Configuration
	RTSPURL       string        // full RTSP URL, credentials included
	TCP           bool          // tunnel RTP over TCP instead of UDP
	SocketTimeout time.Duration // RTSP connect timeout (0 = DefaultSocketTimeout)

	// Output Configuration
	OutputDir      string // directory for .mkv segment files
	FilePrefix     string // segment filename prefix, e.g. camera name
	SegmentSeconds int    // seconds of video per segment file (0 = DefaultSegmentSeconds)

	// Behaviour
	LogLevel  string   // ffmpeg loglevel ("" = DefaultLogLevel)
	ExtraArgs []string // extra output-level args, inserted before the output pattern
}
