package recorder

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"
)

// OutputHandler receives raw output lines from the capture process.
// Implementations append them to the per-camera log file, feed metrics, etc.
type OutputHandler interface {
	HandleLine(source, line string)
}

// LogParser classifies a capture process output line and returns the log
// level and message (used to map ffmpeg's own levels onto slog levels).
type LogParser func(line string) (level, msg string)

// ExitStatus describes how a capture process ended: a numeric exit code, or
// death by signal.
type ExitStatus struct {
	Code     int
	Signaled bool
	Signal   syscall.Signal
}

func (s ExitStatus) String() string {
	if s.Signaled {
		return fmt.Sprintf("killed by %s", s.Signal)
	}
	return fmt.Sprintf("exit code %d", s.Code)
}

// CommandSpec is the opaque command the supervisor asks to run.
type CommandSpec struct {
	Command string
	Dir     string
}

// Handle is a live reference to one running capture process. It is owned by
// the supervisor that created it until the process exits or is terminated.
type Handle interface {
	// PID returns the process id of the capture process.
	PID() int

	// Done is closed once the process has fully exited.
	Done() <-chan struct{}

	// Status returns how the process ended. Only valid after Done is closed.
	Status() ExitStatus

	// Terminate requests graceful termination (SIGINT to the process group)
	// and escalates to SIGKILL if the process has not exited within grace.
	// It blocks until the process is gone and is a no-op on an exited handle.
	Terminate(grace time.Duration)
}

// Launcher starts capture processes. The supervisor only depends on this
// interface so tests can substitute a fake that never touches the OS.
type Launcher interface {
	Start(spec CommandSpec) (Handle, error)
}

const defaultKillTimeout = 5 * time.Second

// ExecLauncher starts real processes via os/exec. The child is placed in its
// own process group so that a SIGINT delivered to the recorder's terminal
// does not reach the capture process directly; the supervisor forwards
// termination explicitly through Handle.Terminate.
type ExecLauncher struct {
	logger        *slog.Logger
	processLogger *slog.Logger // logger for process output (nil = use logger)
	logParser     LogParser    // extracts log level from process output (nil = info)
	output        OutputHandler
	killTimeout   time.Duration // timeout after SIGKILL before giving up
}

// NewExecLauncher creates a launcher that logs through the given logger.
func NewExecLauncher(logger *slog.Logger) *ExecLauncher {
	return &ExecLauncher{
		logger:      logger,
		killTimeout: defaultKillTimeout,
	}
}

// SetOutputHandler routes every raw output line of launched processes to h.
func (l *ExecLauncher) SetOutputHandler(h OutputHandler) {
	l.output = h
}

// SetLogParser sets a dedicated logger and level parser for process output.
func (l *ExecLauncher) SetLogParser(logger *slog.Logger, parser LogParser) {
	l.processLogger = logger
	l.logParser = parser
}

// Start launches the capture command. Any failure to get the process running
// is returned as a *LaunchError.
func (l *ExecLauncher) Start(spec CommandSpec) (Handle, error) {
	args, err := parseCommand(spec.Command)
	if err != nil {
		return nil, &LaunchError{Command: spec.Command, Err: err}
	}
	if len(args) == 0 {
		return nil, &LaunchError{Command: spec.Command, Err: errors.New("empty command")}
	}

	cmd := exec.Command(args[0], args[1:]...)
	cmd.Dir = spec.Dir
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &LaunchError{Command: spec.Command, Err: err}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, &LaunchError{Command: spec.Command, Err: err}
	}

	if err := cmd.Start(); err != nil {
		return nil, &LaunchError{Command: spec.Command, Err: err}
	}

	h := &execHandle{
		cmd:         cmd,
		pid:         cmd.Process.Pid,
		logger:      l.logger,
		killTimeout: l.killTimeout,
		exited:      make(chan struct{}),
	}

	var outputDone sync.WaitGroup
	outputDone.Add(2)
	go func() {
		defer outputDone.Done()
		l.streamOutput(stdout, "stdout")
	}()
	go func() {
		defer outputDone.Done()
		l.streamOutput(stderr, "stderr")
	}()

	go func() {
		// Drain both pipes before Wait so no output is lost.
		outputDone.Wait()
		h.status = statusFromError(cmd.Wait())
		close(h.exited)
	}()

	return h, nil
}

// streamOutput forwards process output to the output handler and logs each
// line at the level the parser extracts.
func (l *ExecLauncher) streamOutput(reader io.Reader, source string) {
	scanner := bufio.NewScanner(reader)

	logger := l.processLogger
	if logger == nil {
		logger = l.logger
	}

	for scanner.Scan() {
		line := scanner.Text()

		if l.output != nil {
			l.output.HandleLine(source, line)
		}

		level, msg := "info", line
		if l.logParser != nil {
			level, msg = l.logParser(line)
		}

		switch level {
		case "panic", "fatal", "error":
			logger.Error(msg)
		case "warning":
			logger.Warn(msg)
		case "verbose", "debug", "trace":
			logger.Debug(msg)
		default:
			logger.Info(msg)
		}
	}

	if err := scanner.Err(); err != nil {
		l.logger.Warn("Error reading process output", "source", source, "error", err)
	}
}

// execHandle implements Handle for a real child process.
type execHandle struct {
	cmd         *exec.Cmd
	pid         int
	logger      *slog.Logger
	killTimeout time.Duration
	exited      chan struct{}
	status      ExitStatus // written once before exited is closed
}

func (h *execHandle) PID() int { return h.pid }

func (h *execHandle) Done() <-chan struct{} { return h.exited }

func (h *execHandle) Status() ExitStatus {
	<-h.exited
	return h.status
}

func (h *execHandle) Terminate(grace time.Duration) {
	select {
	case <-h.exited:
		return
	default:
	}

	h.logger.Info("Sending SIGINT to process group", "pid", h.pid)
	h.signalGroup(syscall.SIGINT)

	select {
	case <-h.exited:
		return
	case <-time.After(grace):
	}

	h.logger.Warn("Graceful stop timed out, killing process group", "pid", h.pid, "grace", grace)
	h.signalGroup(syscall.SIGKILL)

	select {
	case <-h.exited:
	case <-time.After(h.killTimeout):
		h.logger.Error("Process did not exit after SIGKILL", "pid", h.pid)
	}
}

// signalGroup signals the whole process group so children spawned by the
// capture process are cleaned up too. ESRCH means the group is already gone.
func (h *execHandle) signalGroup(sig syscall.Signal) {
	if err := syscall.Kill(-h.pid, sig); err != nil && !errors.Is(err, syscall.ESRCH) {
		sigErr := &SignalError{PID: h.pid, Err: err}
		h.logger.Warn("Failed to signal process group", "signal", sig.String(), "error", sigErr)
	}
}

// statusFromError converts the error from exec.Cmd.Wait into an ExitStatus.
func statusFromError(err error) ExitStatus {
	if err == nil {
		return ExitStatus{}
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			return ExitStatus{Code: 128 + int(ws.Signal()), Signaled: true, Signal: ws.Signal()}
		}
		return ExitStatus{Code: exitErr.ExitCode()}
	}
	return ExitStatus{Code: 1}
}

// parseCommand splits a command string into arguments, handling quoted
// strings and backslash escapes.
func parseCommand(command string) ([]string, error) {
	var args []string
	var current strings.Builder
	inQuote := false
	quoteChar := rune(0)

	runes := []rune(strings.TrimSpace(command))

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '"' || r == '\'':
			switch {
			case !inQuote:
				inQuote = true
				quoteChar = r
			case r == quoteChar:
				inQuote = false
				quoteChar = 0
			default:
				current.WriteRune(r)
			}
		case r == ' ' && !inQuote:
			if current.Len() > 0 {
				args = append(args, current.String())
				current.Reset()
			}
		case r == '\\' && i+1 < len(runes):
			i++
			current.WriteRune(runes[i])
		default:
			current.WriteRune(r)
		}
	}

	if current.Len() > 0 {
		args = append(args, current.String())
	}

	if inQuote {
		return nil, fmt.Errorf("unclosed quote in command")
	}

	return args, nil
}
