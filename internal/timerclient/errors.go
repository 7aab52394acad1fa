package timerclient

import (
	"errors"

	"gym_timer/internal/timer"
)

// Code is the wire name of a facade failure.
type Code string

const (
	CodeNone            Code = ""
	CodeUnavailable     Code = "UNAVAILABLE"
	CodeAlreadyRunning  Code = "ALREADY_RUNNING"
	CodeInvalidDuration Code = "INVALID_DURATION"
	CodeUnknown         Code = "UNKNOWN"
)

var (
	// ErrUnavailable means no engine can be reached in this environment.
	ErrUnavailable = errors.New("timer engine unavailable")
	// ErrAlreadyRunning means another run is active and no replace was requested.
	ErrAlreadyRunning = timer.ErrAlreadyRunning
	// ErrInvalidDuration means the requested length was not positive.
	ErrInvalidDuration = timer.ErrInvalidDuration
)

// CodeOf maps err to its wire code.
func CodeOf(err error) Code {
	switch {
	case err == nil:
		return CodeNone
	case errors.Is(err, ErrUnavailable):
		return CodeUnavailable
	case errors.Is(err, ErrAlreadyRunning):
		return CodeAlreadyRunning
	case errors.Is(err, ErrInvalidDuration):
		return CodeInvalidDuration
	}
	return CodeUnknown
}
