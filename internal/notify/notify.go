// Package notify sends desktop notifications. Delivery is best effort:
// a failed notification is logged and forgotten, never surfaced.
package notify

import (
	"log/slog"

	"github.com/gen2brain/beeep"
)

// Notifier sends desktop notifications when enabled.
type Notifier struct {
	enabled bool
}

// NewNotifier creates a Notifier. When enabled is false every call is
// a no-op.
func NewNotifier(enabled bool) *Notifier {
	return &Notifier{enabled: enabled}
}

// SetEnabled toggles notification delivery.
func (n *Notifier) SetEnabled(enabled bool) {
	n.enabled = enabled
}

// Info shows a regular notification.
func (n *Notifier) Info(summary, body string) {
	if !n.enabled {
		return
	}
	if err := beeep.Notify(summary, body, ""); err != nil {
		slog.Debug("notify: delivery failed", "error", err)
	}
}

// Error shows an alert-level notification.
func (n *Notifier) Error(summary, body string) {
	if !n.enabled {
		return
	}
	if err := beeep.Alert(summary, body, ""); err != nil {
		slog.Debug("notify: delivery failed", "error", err)
	}
}
