// Package auth exposes whether a user session is active at startup.
package auth

import (
	"context"
	"errors"
)

// ErrSignedOut is returned when a command needs a session and none is active.
var ErrSignedOut = errors.New("no active session; sign in first")

// SessionSource reports whether a session is active.
type SessionSource interface {
	Active(ctx context.Context) (bool, error)
}

// Static is a SessionSource with a fixed answer, fed from the settings file.
type Static bool

func (s Static) Active(context.Context) (bool, error) {
	return bool(s), nil
}

// Require fails with ErrSignedOut unless source reports an active session.
func Require(ctx context.Context, source SessionSource) error {
	active, err := source.Active(ctx)
	if err != nil {
		return err
	}
	if !active {
		return ErrSignedOut
	}
	return nil
}
