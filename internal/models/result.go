package models

import "fmt"

// Outcome classifies the result of a vehicle operation for presentation.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeInfo    Outcome = "info"
	OutcomeWarning Outcome = "warning"
)

// Result is returned by every vehicle operation. Rejected preconditions are
// reported here instead of as errors.
type Result struct {
	Outcome Outcome `json:"outcome"`
	Message string  `json:"message"`
	Changed bool    `json:"changed"`
	Clamped bool    `json:"clamped,omitempty"`
}

// Rejected reports whether the operation was refused.
func (r Result) Rejected() bool {
	return r.Outcome == OutcomeWarning
}

func succeeded(format string, args ...interface{}) Result {
	return Result{Outcome: OutcomeSuccess, Message: fmt.Sprintf(format, args...), Changed: true}
}

func informed(format string, args ...interface{}) Result {
	return Result{Outcome: OutcomeInfo, Message: fmt.Sprintf(format, args...)}
}

func rejected(format string, args ...interface{}) Result {
	return Result{Outcome: OutcomeWarning, Message: fmt.Sprintf(format, args...)}
}
