// Package notify carries user-visible notifications from the garage and the
// reminder scheduler to the sinks that show them.
package notify

import (
	"time"
)

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Persistent is the duration of notifications that stay until acknowledged.
const Persistent time.Duration = 0

// Notification is one message as delivered to a sink.
type Notification struct {
	ID         string        `json:"id"`
	Message    string        `json:"message"`
	Severity   Severity      `json:"severity"`
	Duration   time.Duration `json:"duration"`
	CreatedAt  time.Time     `json:"createdAt"`
	Persistent bool          `json:"persistent"`
}

// Notifier is a fire-and-forget notification sink. A zero duration means the
// notification stays visible until acknowledged.
type Notifier interface {
	Notify(message string, severity Severity, duration time.Duration)
}

// Fanout delivers each notification to every sink in order.
type Fanout []Notifier

func (f Fanout) Notify(message string, severity Severity, duration time.Duration) {
	for _, n := range f {
		if n != nil {
			n.Notify(message, severity, duration)
		}
	}
}

// Nop discards notifications.
type Nop struct{}

func (Nop) Notify(string, Severity, time.Duration) {}
