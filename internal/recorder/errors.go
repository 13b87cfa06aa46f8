package recorder

import "fmt"

// LaunchError reports that the capture command could not be started at all
// (not found, not executable, malformed command line). It indicates a
// configuration problem and is never retried.
type LaunchError struct {
	Command string
	Err     error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("launch %q: %v", e.Command, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// SignalError reports that a termination request could not be delivered to
// the capture process group. Supervision still proceeds to its terminal
// state; the process is assumed unreachable.
type SignalError struct {
	PID int
	Err error
}

func (e *SignalError) Error() string {
	return fmt.Sprintf("signal process group %d: %v", e.PID, e.Err)
}

func (e *SignalError) Unwrap() error { return e.Err }
