// Package metrics provides Prometheus metrics for the recording supervisors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/camtools/camrec/internal/events"
)

var (
	launchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "camrec",
		Subsystem: "recorder",
		Name:      "launches_total",
		Help:      "Total capture process launches per camera",
	}, []string{"camera"})

	restartsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "camrec",
		Subsystem: "recorder",
		Name:      "restarts_total",
		Help:      "Total capture process restarts per camera",
	}, []string{"camera"})

	segmentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "camrec",
		Subsystem: "recorder",
		Name:      "segments_total",
		Help:      "Total segment files created per camera",
	}, []string{"camera"})

	supervisorUp = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "camrec",
		Subsystem: "recorder",
		Name:      "supervisor_up",
		Help:      "1 while the camera's capture process is running",
	}, []string{"camera"})

	stoppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "camrec",
		Subsystem: "recorder",
		Name:      "stopped_total",
		Help:      "Supervisions that ended for good, by stop reason",
	}, []string{"camera", "reason"})
)

// RecordLaunch counts a capture process launch.
func RecordLaunch(camera string) {
	launchesTotal.WithLabelValues(camera).Inc()
}

// RecordRestart counts a capture process restart.
func RecordRestart(camera string) {
	restartsTotal.WithLabelValues(camera).Inc()
}

// RecordSegment counts a new segment file.
func RecordSegment(camera string) {
	segmentsTotal.WithLabelValues(camera).Inc()
}

// SetSupervisorUp marks whether the camera's process is currently running.
func SetSupervisorUp(camera string, up bool) {
	v := 0.0
	if up {
		v = 1.0
	}
	supervisorUp.WithLabelValues(camera).Set(v)
}

// RecordStopped counts a supervision that reached its terminal state.
func RecordStopped(camera, reason string) {
	stoppedTotal.WithLabelValues(camera, reason).Inc()
}

// Bind subscribes the metric updates to the event bus. Returns an
// unsubscribe function for all subscriptions.
func Bind(bus *events.Bus) func() {
	unsubs := []func(){
		bus.Subscribe(func(e events.SupervisorStateEvent) {
			switch e.To {
			case "running":
				RecordLaunch(e.Camera)
				SetSupervisorUp(e.Camera, true)
			case "restart_pending":
				RecordRestart(e.Camera)
				SetSupervisorUp(e.Camera, false)
			case "terminal":
				SetSupervisorUp(e.Camera, false)
			}
		}),
		bus.Subscribe(func(e events.SegmentCreatedEvent) {
			RecordSegment(e.Camera)
		}),
		bus.Subscribe(func(e events.RecordingStoppedEvent) {
			RecordStopped(e.Camera, e.Reason)
		}),
	}

	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}
}
