// Package recorder supervises long-running capture processes.
//
// The package has three layers:
//
// Launcher starts one opaque capture command and hands back a Handle:
//   - Child runs in its own process group, detached from the recorder's
//     signal delivery
//   - Graceful termination with SIGINT and a grace timeout
//   - SIGKILL escalation if the process does not finalise in time
//   - Output streaming with pluggable log parsing and a raw line sink
//
// Supervisor owns the restart loop for one target:
//   - Races process exit against the stop broadcast and max-duration timer
//   - Relaunches after a configurable, interruptible delay
//   - Enforces the restart limit and reports a StopReason when done
//
// Coordinator fans one stop request out to N supervisors:
//   - Each target runs on its own goroutine, fully independent
//   - Stop is broadcast at most once; repeated requests are no-ops
//   - Run returns once every supervisor is terminal
//
// Example:
//
//	stop := make(chan struct{})
//	sup := recorder.New(target, recorder.NewExecLauncher(logger), stop, logger)
//	go func() { <-sigChan; close(stop) }()
//	result := sup.Run()
//	os.Exit(result.Reason.ExitCode())
package recorder
