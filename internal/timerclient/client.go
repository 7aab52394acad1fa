// Package timerclient is the boundary consumers use to reach the timer
// engine. When no engine is available it degrades to a fixed idle state.
package timerclient

import (
	"context"
	"fmt"
	"log/slog"

	"gym_timer/internal/timer"
)

// Backend is the engine surface the client drives.
type Backend interface {
	Start(label string, seconds int, forceReplace bool) (timer.State, string, error)
	Stop(reason timer.StopReason) timer.StopResult
	State() timer.State
	Subscribe(handler timer.Handler) *timer.Subscription
}

// ensurer is implemented by backends that attach their tick loop asynchronously.
type ensurer interface {
	Ensure(ctx context.Context) (timer.State, error)
}

// Subscription detaches a handler.
type Subscription interface {
	Remove()
}

type noopSubscription struct{}

func (noopSubscription) Remove() {}

// Started describes an accepted start.
type Started struct {
	State timer.State
	RunID string
}

// Client wraps an optional Backend.
type Client struct {
	backend Backend
	logger  *slog.Logger
}

// New creates a Client. A nil backend yields an unavailable client.
func New(backend Backend, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{backend: backend, logger: logger}
}

// Available reports whether an engine is reachable.
func (c *Client) Available() bool {
	return c != nil && c.backend != nil
}

// State returns the engine projection, or the idle default when unavailable.
func (c *Client) State(ctx context.Context) timer.State {
	if !c.Available() || ctx.Err() != nil {
		return timer.IdleState()
	}
	return c.backend.State()
}

// Start requests a new run.
func (c *Client) Start(ctx context.Context, label string, seconds int, forceReplace bool) (Started, error) {
	if !c.Available() {
		return Started{}, ErrUnavailable
	}
	if seconds <= 0 {
		return Started{}, fmt.Errorf("start %q for %ds: %w", label, seconds, ErrInvalidDuration)
	}
	if err := ctx.Err(); err != nil {
		return Started{}, err
	}

	state, runID, err := c.backend.Start(label, seconds, forceReplace)
	if err != nil {
		c.logger.Debug("timer start failed", "label", label, "code", string(CodeOf(err)))
		return Started{}, fmt.Errorf("start %q: %w", label, err)
	}

	if e, ok := c.backend.(ensurer); ok {
		if ensured, err := e.Ensure(ctx); err == nil {
			state = ensured
		}
	}
	return Started{State: state, RunID: runID}, nil
}

// Stop ends the active run, tagging it with reason. It never fails. The
// result describes the run that was torn down, not the engine afterwards;
// call State for the idle projection.
func (c *Client) Stop(ctx context.Context, reason timer.StopReason) timer.StopResult {
	if !c.Available() {
		return timer.StopResult{Label: timer.DefaultLabel, Reason: reason}
	}
	return c.backend.Stop(reason)
}

// Subscribe attaches handler to engine events. Unavailable clients return a
// subscription that never delivers.
func (c *Client) Subscribe(handler timer.Handler) Subscription {
	if !c.Available() {
		return noopSubscription{}
	}
	return c.backend.Subscribe(handler)
}
