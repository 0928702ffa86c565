// Package notify delivers user-visible transient notifications.
package notify

import "context"

// Level classifies a notification for presentation.
type Level string

// Supported notification levels.
const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notification is one user-visible message.
type Notification struct {
	Level   Level
	Message string
}

// Notifier receives notifications. Implementations must not block the
// caller; delivery is best-effort.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// Nop discards all notifications.
type Nop struct{}

// Notify implements Notifier.
func (Nop) Notify(context.Context, Notification) {}
