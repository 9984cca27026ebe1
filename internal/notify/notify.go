// Package notify carries user-visible notifications from the engine to
// whatever surface hosts it. Remote-call failures never propagate as panics
// or uncaught errors; they end up here as local UI-facing state.
package notify

import "log/slog"

// Level is the severity of a notification
type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// Notification is one user-visible message
type Notification struct {
	Level   Level
	Message string
}

// Sink receives notifications. Implementations must be safe for concurrent use.
type Sink interface {
	Notify(n Notification)
}

// Func adapts a function to the Sink interface
type Func func(n Notification)

// Notify implements Sink
func (f Func) Notify(n Notification) { f(n) }

// Error sends an error-level notification to the sink, tolerating a nil sink
func Error(sink Sink, message string) {
	if sink == nil {
		slog.Warn("Dropped notification, no sink configured", "message", message)
		return
	}
	sink.Notify(Notification{Level: LevelError, Message: message})
}

// Info sends an info-level notification to the sink, tolerating a nil sink
func Info(sink Sink, message string) {
	if sink == nil {
		return
	}
	sink.Notify(Notification{Level: LevelInfo, Message: message})
}
