// Package systemd integrates the recorder with the service manager when it
// runs as a Type=notify unit.
package systemd

import (
	"log/slog"

	"github.com/coreos/go-systemd/v22/daemon"
)

// NotifyReady tells systemd the recorder has launched its supervisors.
// Outside systemd this is a silent no-op.
func NotifyReady(logger *slog.Logger) {
	sent, err := daemon.SdNotify(false, daemon.SdNotifyReady)
	if err != nil {
		logger.Warn("Failed to notify systemd", "error", err)
		return
	}
	if sent {
		logger.Debug("Notified systemd: ready")
	}
}

// NotifyStopping tells systemd a shutdown is in progress so it extends the
// stop timeout while capture processes finalise their segments.
func NotifyStopping(logger *slog.Logger) {
	sent, err := daemon.SdNotify(false, daemon.SdNotifyStopping)
	if err != nil {
		logger.Warn("Failed to notify systemd", "error", err)
		return
	}
	if sent {
		logger.Debug("Notified systemd: stopping")
	}
}
