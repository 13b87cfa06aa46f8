package recorder

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// LauncherFactory builds the launcher for one target. The coordinator calls
// it once per target so each camera gets its own log sink and output parser.
type LauncherFactory func(target Target) (Launcher, error)

// Coordinator runs one supervisor per target concurrently and fans a single
// external stop request out to all of them.
type Coordinator struct {
	targets      []Target
	newLauncher  LauncherFactory
	logger       *slog.Logger
	graceTimeout time.Duration
	onTransition TransitionFunc
	onExit       ExitFunc

	stop     chan struct{}
	stopOnce sync.Once
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithCoordinatorGraceTimeout sets the grace timeout passed to every
// supervisor.
func WithCoordinatorGraceTimeout(d time.Duration) CoordinatorOption {
	return func(c *Coordinator) {
		if d > 0 {
			c.graceTimeout = d
		}
	}
}

// WithCoordinatorTransitionFunc registers a state-change callback shared by
// all supervisors.
func WithCoordinatorTransitionFunc(fn TransitionFunc) CoordinatorOption {
	return func(c *Coordinator) {
		c.onTransition = fn
	}
}

// WithCoordinatorExitFunc registers a process-exit callback shared by all
// supervisors.
func WithCoordinatorExitFunc(fn ExitFunc) CoordinatorOption {
	return func(c *Coordinator) {
		c.onExit = fn
	}
}

// NewCoordinator creates a coordinator over the given targets.
func NewCoordinator(targets []Target, newLauncher LauncherFactory, logger *slog.Logger, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		targets:      targets,
		newLauncher:  newLauncher,
		logger:       logger,
		graceTimeout: defaultGraceTimeout,
		stop:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Stop broadcasts the shutdown request to every supervisor. It is delivered
// at most once; repeated calls are no-ops and never escalate to a forced
// kill, so an in-flight segment is not corrupted. The grace timeout bounds
// how long a stubborn capture process can delay shutdown.
func (c *Coordinator) Stop() {
	c.stopOnce.Do(func() {
		c.logger.Info("Stopping all cameras")
		close(c.stop)
	})
}

// Run launches one supervisor per target and blocks until all of them reach
// their terminal state. The returned error is non-nil when any target ended
// with an unrecoverable launch failure; the other results are still valid.
func (c *Coordinator) Run() ([]Result, error) {
	results := make([]Result, len(c.targets))

	var wg sync.WaitGroup
	for i, target := range c.targets {
		wg.Add(1)
		go func(i int, target Target) {
			defer wg.Done()

			logger := c.logger.With("camera", target.Name)
			launcher, err := c.newLauncher(target)
			if err != nil {
				logger.Error("Failed to set up launcher", "error", err)
				results[i] = Result{Target: target.Name, Reason: StopUnrecoverable}
				if c.onTransition != nil {
					c.onTransition(target.Name, StateStarting, StateTerminal, StopUnrecoverable)
				}
				return
			}

			sup := New(target, launcher, c.stop, logger,
				WithGraceTimeout(c.graceTimeout),
				WithTransitionFunc(c.onTransition),
				WithExitFunc(c.onExit))
			results[i] = sup.Run()
		}(i, target)
	}
	wg.Wait()

	var failed []string
	for _, r := range results {
		if r.Reason == StopUnrecoverable {
			failed = append(failed, r.Target)
		}
	}
	if len(failed) > 0 {
		return results, fmt.Errorf("unrecoverable failure for camera(s) %s", strings.Join(failed, ", "))
	}
	return results, nil
}

// ExitCode aggregates per-target results into a single process exit code:
// 0 when every target stopped on request, otherwise the first non-zero
// reason code.
func ExitCode(results []Result) int {
	for _, r := range results {
		if code := r.Reason.ExitCode(); code != 0 {
			return code
		}
	}
	return 0
}
