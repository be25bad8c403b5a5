package server

import (
	"fmt"
	"log/slog"
	"net"

	"github.com/coreos/go-systemd/v22/activation"
	"github.com/coreos/go-systemd/v22/daemon"
)

// activatedListener returns the socket passed in by systemd, or nil when
// the daemon was not socket activated.
func activatedListener() (net.Listener, error) {
	fds := activation.Files(false)
	if len(fds) == 0 {
		return nil, nil
	}

	listenersMap, err := activation.ListenersWithNames()
	if err != nil {
		return nil, fmt.Errorf("failed to get systemd listeners: %w", err)
	}

	if lns, ok := listenersMap["api"]; ok && len(lns) > 0 {
		return lns[0], nil
	}

	// unnamed sockets fall back to the first one passed in
	lns, err := activation.Listeners()
	if err != nil {
		return nil, fmt.Errorf("failed to get systemd listeners: %w", err)
	}

	for _, ln := range lns {
		if ln != nil {
			return ln, nil
		}
	}

	return nil, nil
}

func notifyReady(log *slog.Logger) {
	sent, err := daemon.SdNotify(false, daemon.SdNotifyReady)
	if err != nil {
		log.Warn("failed to notify systemd", "error", err)
		return
	}

	if sent {
		log.Debug("notified systemd of readiness")
	}
}

func notifyStopping(log *slog.Logger) {
	_, err := daemon.SdNotify(false, daemon.SdNotifyStopping)
	if err != nil {
		log.Warn("failed to notify systemd", "error", err)
	}
}
