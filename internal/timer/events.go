package timer

import "time"

// Status tags a timer event.
type Status string

const (
	StatusRunning        Status = "running"
	StatusFinished       Status = "finished"
	StatusStopped        Status = "stopped"
	StatusAlreadyRunning Status = "already_running"
)

// Terminal reports whether the status ends a run.
func (s Status) Terminal() bool {
	return s == StatusFinished || s == StatusStopped
}

// Event is broadcast to subscribers. RunID is empty for already_running,
// which describes a rejected request rather than a step of a run.
type Event struct {
	Status           Status     `json:"status"`
	RemainingSeconds int        `json:"remainingSeconds"`
	Label            string     `json:"label,omitempty"`
	RunID            string     `json:"runId,omitempty"`
	Reason           StopReason `json:"reason,omitempty"`
	DurationSeconds  int        `json:"durationSeconds,omitempty"`
	At               time.Time  `json:"at"`
}
