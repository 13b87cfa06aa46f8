package ffmpeg

import (
	"fmt"
	"path/filepath"
	"strings"
)

// OutputPattern returns the strftime filename pattern for a camera's segment
// files. The % tokens are expanded by ffmpeg itself (-strftime 1), so files
// sort chronologically and can be located by timestamp at a glance.
func OutputPattern(dir, prefix string) string {
	return filepath.Join(dir, prefix+"_%Y-%m-%d_%H-%M-%S.mkv")
}

// BuildCommand builds the ffmpeg command line for segmented RTSP recording.
// The stream is copied into the MKV container without re-encoding, so the
// original quality is preserved and no CPU is spent transcoding.
func BuildCommand(p *Params) string {
	var cmd strings.Builder

	cmd.WriteString("ffmpeg")

	// Keep the per-camera log readable: no version banner, and prefix each
	// line with its level so the log parser can classify it.
	cmd.WriteString(" -hide_banner")
	logLevel := p.LogLevel
	if logLevel == "" {
		logLevel = DefaultLogLevel
	}
	cmd.WriteString(" -loglevel level+" + logLevel)

	// Never read stdin; ffmpeg would otherwise block or eat input when run
	// as a service.
	cmd.WriteString(" -nostdin")

	if p.TCP {
		// UDP works on a clean LAN but fails behind NAT or on lossy links.
		cmd.WriteString(" -rtsp_transport tcp")
	}

	timeout := p.SocketTimeout
	if timeout <= 0 {
		timeout = DefaultSocketTimeout
	}
	cmd.WriteString(fmt.Sprintf(" -stimeout %d", timeout.Microseconds()))

	cmd.WriteString(" -i \"" + p.RTSPURL + "\"")

	// Map all streams so a camera's audio track is not silently dropped;
	// callers strip audio with ExtraArgs ("-an") when unwanted.
	cmd.WriteString(" -map 0")
	cmd.WriteString(" -c copy")

	segment := p.SegmentSeconds
	if segment <= 0 {
		segment = DefaultSegmentSeconds
	}
	cmd.WriteString(" -f segment")
	cmd.WriteString(fmt.Sprintf(" -segment_time %d", segment))

	// Reset presentation timestamps at every segment boundary so each file
	// plays and seeks from zero.
	cmd.WriteString(" -reset_timestamps 1")
	cmd.WriteString(" -strftime 1")

	// Extra output options must precede the output pattern or ffmpeg treats
	// them as a second output.
	for _, arg := range p.ExtraArgs {
		cmd.WriteString(" " + arg)
	}

	cmd.WriteString(" \"" + OutputPattern(p.OutputDir, p.FilePrefix) + "\"")

	return cmd.String()
}
