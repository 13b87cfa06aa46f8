package recorder

// StopReason explains why supervision of a target ended.
type StopReason int

const (
	// StopUserSignal means an external stop request (SIGINT/SIGTERM) arrived.
	StopUserSignal StopReason = iota
	// StopUnrecoverable means the capture command could not be launched.
	StopUnrecoverable
	// StopMaxDuration means the configured total recording time elapsed.
	StopMaxDuration
	// StopMaxRestarts means the restart limit was exhausted.
	StopMaxRestarts
)

// String returns a stable identifier used in logs and events.
func (r StopReason) String() string {
	switch r {
	case StopUserSignal:
		return "user_signal"
	case StopUnrecoverable:
		return "unrecoverable"
	case StopMaxDuration:
		return "max_duration"
	case StopMaxRestarts:
		return "max_restarts"
	}
	return "unknown"
}

// ExitCode maps the reason to a process exit code so a host supervisor can
// tell "asked to stop" apart from "gave up".
func (r StopReason) ExitCode() int {
	switch r {
	case StopUserSignal:
		return 0
	case StopUnrecoverable:
		return 1
	case StopMaxDuration:
		return 2
	case StopMaxRestarts:
		return 3
	}
	return 1
}
