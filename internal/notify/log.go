package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogNotifier emits notifications as structured logs. The service host uses
// it where a UI toast layer does not exist.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier wires a zap logger to the Notifier interface.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

// Notify logs the notification at a level matching its severity.
func (l *LogNotifier) Notify(_ context.Context, n Notification) {
	fields := []zap.Field{
		zap.String("level", string(n.Level)),
		zap.String("message", n.Message),
	}
	if n.Level == LevelError {
		l.logger.Warn("user notification", fields...)
		return
	}
	l.logger.Info("user notification", fields...)
}
