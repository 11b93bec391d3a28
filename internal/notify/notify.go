// Package notify shows desktop notifications when a task finishes.
package notify

import (
	"fmt"
	"time"

	"github.com/cesarferreira/robin/internal/logging"
	"github.com/gen2brain/beeep"
)

// Notifier shows the outcome of a finished task.
type Notifier interface {
	Notify(title, message string, success bool) error
}

// Desktop sends notifications through the desktop notification service
// (notify-send/D-Bus, macOS Notification Center or Windows toasts).
type Desktop struct{}

// Notify implements Notifier.
func (Desktop) Notify(title, message string, success bool) error {
	return beeep.Notify(title, Mark(success)+" "+message, "")
}

// Mark returns the symbol prefixed to a message.
func Mark(success bool) string {
	if success {
		return "✅"
	}
	return "❌"
}

// Send delivers a notification through n. A nil n does nothing. Delivery
// failures are logged and never returned: a missing notification daemon must
// not change the outcome of the task.
func Send(n Notifier, title, message string, success bool) {
	if n == nil {
		return
	}
	if err := n.Notify(title, message, success); err != nil {
		logging.Warn().Err(err).Str("title", title).Msg("notification not shown")
		return
	}
	logging.Debug().Str("title", title).Bool("success", success).Msg("notification sent")
}

// Seconds formats d with one decimal, e.g. "1.2s".
func Seconds(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}
