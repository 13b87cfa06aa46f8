package recorder

import (
	"log/slog"
	"sync"
	"time"
)

// State names the supervisor's position in its lifecycle.
type State string

// Supervisor states.
const (
	StateIdle           State = "idle"            // not yet started
	StateStarting       State = "starting"        // launching the capture process
	StateRunning        State = "running"         // capture process active
	StateRestartPending State = "restart_pending" // waiting out the restart delay
	StateTerminal       State = "terminal"        // supervision ended, absorbing
)

// TransitionFunc is called on every state change. reason is only meaningful
// when to == StateTerminal.
type TransitionFunc func(target string, from, to State, reason StopReason)

// ExitFunc is called whenever the capture process exits on its own, before
// the supervisor decides between relaunch and terminal.
type ExitFunc func(target string, pid int, status ExitStatus, launches int)

const defaultGraceTimeout = 3 * time.Second

// Result summarises one finished supervision run.
type Result struct {
	Target   string
	Reason   StopReason
	Launches int
	Restarts int
	Elapsed  time.Duration
}

// Supervisor owns the restart loop for one capture target. It launches the
// capture process, waits for the first of {process exit, stop broadcast,
// max-duration expiry}, and decides whether to relaunch or end supervision.
//
// The stop channel is a shared broadcast: closing it requests shutdown of
// every supervisor that holds it. Supervisors never install OS signal
// handlers themselves.
type Supervisor struct {
	target       Target
	launcher     Launcher
	stop         <-chan struct{}
	logger       *slog.Logger
	graceTimeout time.Duration
	onTransition TransitionFunc
	onExit       ExitFunc

	mu       sync.Mutex
	state    State
	launches int
	restarts int
	terminal bool
	reason   StopReason
}

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithGraceTimeout sets how long a terminated capture process gets to
// finalise its current segment before being killed.
func WithGraceTimeout(d time.Duration) Option {
	return func(s *Supervisor) {
		if d > 0 {
			s.graceTimeout = d
		}
	}
}

// WithTransitionFunc registers a callback for state changes.
func WithTransitionFunc(fn TransitionFunc) Option {
	return func(s *Supervisor) {
		s.onTransition = fn
	}
}

// WithExitFunc registers a callback for capture process exits.
func WithExitFunc(fn ExitFunc) Option {
	return func(s *Supervisor) {
		s.onExit = fn
	}
}

// New creates a supervisor for one target. stop is the shared shutdown
// broadcast; it must be closed at most once.
func New(target Target, launcher Launcher, stop <-chan struct{}, logger *slog.Logger, opts ...Option) *Supervisor {
	s := &Supervisor{
		target:       target,
		launcher:     launcher,
		stop:         stop,
		logger:       logger,
		graceTimeout: defaultGraceTimeout,
		state:        StateIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Launches returns how many times the capture process has been launched.
func (s *Supervisor) Launches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.launches
}

// Restarts returns the monotonic restart counter.
func (s *Supervisor) Restarts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.restarts
}

// State returns the current lifecycle state.
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Run drives the restart loop until a terminal condition and returns the
// result. It blocks the calling goroutine; at most one capture process is
// live at any instant.
func (s *Supervisor) Run() Result {
	start := time.Now()

	var deadline <-chan time.Time
	if s.target.MaxDuration > 0 {
		timer := time.NewTimer(s.target.MaxDuration)
		defer timer.Stop()
		deadline = timer.C
	}

	for {
		// A stop or deadline that fired during the restart delay, or before
		// the first launch, wins over launching again.
		select {
		case <-s.stop:
			return s.finish(StopUserSignal, start)
		case <-deadline:
			s.logger.Info("Max duration reached before launch", "max_duration", s.target.MaxDuration)
			return s.finish(StopMaxDuration, start)
		default:
		}

		s.transition(StateStarting)
		handle, err := s.launcher.Start(CommandSpec{Command: s.target.Command, Dir: s.target.Dir})
		if err != nil {
			// A command that cannot launch will not launch next time either.
			s.logger.Error("Failed to launch capture process, not retrying", "error", err)
			return s.finish(StopUnrecoverable, start)
		}

		s.mu.Lock()
		s.launches++
		launches := s.launches
		s.mu.Unlock()

		s.transition(StateRunning)
		s.logger.Info("Capture process running", "launch", launches, "pid", handle.PID())

		select {
		case <-handle.Done():
			status := handle.Status()
			s.logger.Info("Capture process exited", "status", status.String())
			if s.onExit != nil {
				s.onExit(s.target.Name, handle.PID(), status, launches)
			}

		case <-s.stop:
			s.logger.Info("Stop requested, terminating capture process", "pid", handle.PID())
			handle.Terminate(s.graceTimeout)
			return s.finish(StopUserSignal, start)

		case <-deadline:
			s.logger.Info("Max duration reached, terminating capture process",
				"pid", handle.PID(), "max_duration", s.target.MaxDuration)
			handle.Terminate(s.graceTimeout)
			return s.finish(StopMaxDuration, start)
		}

		s.mu.Lock()
		s.restarts++
		restarts := s.restarts
		s.mu.Unlock()

		if s.target.MaxRestarts > 0 && restarts > s.target.MaxRestarts {
			s.logger.Warn("Restart limit reached", "max_restarts", s.target.MaxRestarts)
			return s.finish(StopMaxRestarts, start)
		}

		s.transition(StateRestartPending)
		if s.target.RestartDelay > 0 {
			s.logger.Info("Relaunching capture process", "attempt", restarts, "delay", s.target.RestartDelay)
			timer := time.NewTimer(s.target.RestartDelay)
			select {
			case <-timer.C:
			case <-s.stop:
				timer.Stop()
				return s.finish(StopUserSignal, start)
			case <-deadline:
				timer.Stop()
				s.logger.Info("Max duration reached while waiting to relaunch", "max_duration", s.target.MaxDuration)
				return s.finish(StopMaxDuration, start)
			}
		} else {
			s.logger.Info("Relaunching capture process", "attempt", restarts)
		}
	}
}

// transition records a non-terminal state change and notifies the callback.
func (s *Supervisor) transition(to State) {
	s.mu.Lock()
	if s.terminal {
		s.mu.Unlock()
		return
	}
	from := s.state
	s.state = to
	s.mu.Unlock()

	if s.onTransition != nil {
		s.onTransition(s.target.Name, from, to, 0)
	}
}

// finish enters the terminal state. Once set, the terminal flag and reason
// are never cleared.
func (s *Supervisor) finish(reason StopReason, start time.Time) Result {
	s.mu.Lock()
	from := s.state
	s.state = StateTerminal
	s.terminal = true
	s.reason = reason
	launches := s.launches
	restarts := s.restarts
	s.mu.Unlock()

	elapsed := time.Since(start)
	s.logger.Info("Supervision ended",
		"reason", reason.String(), "launches", launches, "restarts", restarts,
		"elapsed", elapsed.Round(time.Second))

	if s.onTransition != nil {
		s.onTransition(s.target.Name, from, StateTerminal, reason)
	}

	return Result{
		Target:   s.target.Name,
		Reason:   reason,
		Launches: launches,
		Restarts: restarts,
		Elapsed:  elapsed,
	}
}
