package notifications

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Severity of a notification
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notification is a user-facing message. Invisible notifications are only logged.
type Notification struct {
	ID        string        `json:"id"`
	Severity  Severity      `json:"severity"`
	Visible   bool          `json:"visible"`
	Parent    string        `json:"parent,omitempty"`
	Message   string        `json:"message"`
	Duration  time.Duration `json:"duration"`
	CreatedAt time.Time     `json:"created_at"`
}

// Info builds a visible informational notification
func Info(parent, message string) Notification {
	return Notification{Severity: SeverityInfo, Visible: true, Parent: parent, Message: message}
}

// Warning builds a visible warning
func Warning(parent, message string) Notification {
	return Notification{Severity: SeverityWarning, Visible: true, Parent: parent, Message: message}
}

// Error builds a visible error notification
func Error(parent, message string) Notification {
	return Notification{Severity: SeverityError, Visible: true, Parent: parent, Message: message}
}

// Debug builds a log-only notification
func Debug(parent, message string) Notification {
	return Notification{Severity: SeverityInfo, Parent: parent, Message: message}
}

// Notifier receives notifications raised by the report pipeline
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(ctx context.Context, n Notification)

func (f NotifierFunc) Notify(ctx context.Context, n Notification) { f(ctx, n) }

// LogNotifier only writes the debug line
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a notifier that logs every message
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

func (l *LogNotifier) Notify(_ context.Context, n Notification) {
	logNotification(l.logger, n)
}

func logNotification(logger *zap.Logger, n Notification) {
	logger.Debug(n.Message,
		zap.String("severity", string(n.Severity)),
		zap.String("parent", n.Parent),
		zap.Bool("visible", n.Visible))
}
