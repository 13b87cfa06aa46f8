package recorder

import (
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// launcherPerTarget remembers the fake launcher handed to each target.
type launcherPerTarget struct {
	mu        sync.Mutex
	launchers map[string]*fakeLauncher
	onLaunch  func(n int, h *fakeHandle)
}

func newLauncherPerTarget(onLaunch func(int, *fakeHandle)) *launcherPerTarget {
	return &launcherPerTarget{launchers: make(map[string]*fakeLauncher), onLaunch: onLaunch}
}

func (f *launcherPerTarget) factory(target Target) (Launcher, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l := &fakeLauncher{onLaunch: f.onLaunch}
	f.launchers[target.Name] = l
	return l, nil
}

func (f *launcherPerTarget) get(name string) *fakeLauncher {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.launchers[name]
}

func TestCoordinatorStopFansOut(t *testing.T) {
	// Two independent cameras, processes that run until terminated. One stop
	// request must reach both supervisors exactly once.
	fixtures := newLauncherPerTarget(nil)
	targets := []Target{
		crashingTarget("gate", 0, 0),
		crashingTarget("yard", 0, 0),
	}
	c := NewCoordinator(targets, fixtures.factory, testLogger())

	type outcome struct {
		results []Result
		err     error
	}
	done := make(chan outcome, 1)
	go func() {
		results, err := c.Run()
		done <- outcome{results, err}
	}()

	// Wait until both capture processes are up.
	require.Eventually(t, func() bool {
		for _, name := range []string{"gate", "yard"} {
			l := fixtures.get(name)
			if l == nil {
				return false
			}
			if launches, _ := l.stats(); launches == 0 {
				return false
			}
		}
		return true
	}, 2*time.Second, 5*time.Millisecond)

	c.Stop()
	c.Stop() // second request is a no-op, not a forced kill

	var got outcome
	select {
	case got = <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("coordinator did not return after stop")
	}

	require.NoError(t, got.err)
	require.Len(t, got.results, 2)
	for _, r := range got.results {
		assert.Equal(t, StopUserSignal, r.Reason, "camera %s", r.Target)
	}
	for _, name := range []string{"gate", "yard"} {
		l := fixtures.get(name)
		require.Len(t, l.handles, 1)
		terminations, _ := l.handles[0].terminated()
		assert.Equal(t, 1, terminations, "camera %s received %d stop requests", name, terminations)
	}
}

func TestCoordinatorReportsUnrecoverable(t *testing.T) {
	factory := func(target Target) (Launcher, error) {
		if target.Name == "broken" {
			return &fakeLauncher{err: &LaunchError{Command: target.Command, Err: syscall.ENOENT}}, nil
		}
		return &fakeLauncher{
			onLaunch: func(_ int, h *fakeHandle) { h.exit(ExitStatus{Code: 1}) },
		}, nil
	}
	targets := []Target{
		crashingTarget("ok", 1, 0),
		crashingTarget("broken", 0, 0),
	}
	c := NewCoordinator(targets, factory, testLogger())

	results, err := c.Run()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
	require.Len(t, results, 2)
	assert.Equal(t, StopMaxRestarts, results[0].Reason)
	assert.Equal(t, StopUnrecoverable, results[1].Reason)
	assert.Equal(t, 1, ExitCode(results))
}

func TestCoordinatorSiblingsUnaffectedByFailure(t *testing.T) {
	// A target that cannot launch must not stop its sibling's restarts.
	factory := func(target Target) (Launcher, error) {
		if target.Name == "broken" {
			return &fakeLauncher{err: &LaunchError{Command: target.Command, Err: syscall.ENOENT}}, nil
		}
		return &fakeLauncher{
			onLaunch: func(_ int, h *fakeHandle) { h.exit(ExitStatus{Code: 1}) },
		}, nil
	}
	targets := []Target{
		crashingTarget("broken", 0, 0),
		crashingTarget("ok", 3, 0),
	}
	c := NewCoordinator(targets, factory, testLogger())

	results, err := c.Run()

	require.Error(t, err)
	assert.Equal(t, 4, results[1].Launches)
	assert.Equal(t, StopMaxRestarts, results[1].Reason)
}

func TestCoordinatorNoTargets(t *testing.T) {
	c := NewCoordinator(nil, func(Target) (Launcher, error) { return &fakeLauncher{}, nil }, testLogger())
	results, err := c.Run()
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 0, ExitCode([]Result{
		{Reason: StopUserSignal}, {Reason: StopUserSignal},
	}))
	assert.Equal(t, 2, ExitCode([]Result{
		{Reason: StopUserSignal}, {Reason: StopMaxDuration},
	}))
	assert.Equal(t, 3, ExitCode([]Result{{Reason: StopMaxRestarts}}))
}
