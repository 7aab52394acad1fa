package session

import (
	"context"
	"fmt"
	"sync"

	"gym_timer/internal/timer"
	"gym_timer/internal/timerclient"
)

type startCall struct {
	label   string
	seconds int
	force   bool
}

type fakeSubscription struct {
	timer *fakeTimer
}

func (s fakeSubscription) Remove() {
	s.timer.mu.Lock()
	s.timer.handler = nil
	s.timer.mu.Unlock()
}

// fakeTimer mimics the facade and delivers events synchronously.
type fakeTimer struct {
	mu        sync.Mutex
	running   bool
	label     string
	remaining int
	runID     string
	seq       int
	starts    []startCall
	stops     []timer.StopReason
	handler   timer.Handler
}

func (f *fakeTimer) Start(_ context.Context, label string, seconds int, force bool) (timerclient.Started, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts = append(f.starts, startCall{label: label, seconds: seconds, force: force})
	if seconds <= 0 {
		return timerclient.Started{}, timerclient.ErrInvalidDuration
	}
	if f.running && !force {
		return timerclient.Started{}, fmt.Errorf("start %q: %w", label, timerclient.ErrAlreadyRunning)
	}
	f.seq++
	f.running = true
	f.label = label
	f.remaining = seconds
	f.runID = fmt.Sprintf("run-%d", f.seq)
	return timerclient.Started{
		State: timer.State{Running: true, Label: label, RemainingSeconds: seconds},
		RunID: f.runID,
	}, nil
}

func (f *fakeTimer) Stop(_ context.Context, reason timer.StopReason) timer.StopResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops = append(f.stops, reason)
	if !f.running {
		return timer.StopResult{Label: timer.DefaultLabel, Reason: reason}
	}
	result := timer.StopResult{
		RunID:            f.runID,
		Label:            f.label,
		RemainingSeconds: f.remaining,
		Reason:           reason,
		WasRunning:       true,
	}
	f.running = false
	f.runID = ""
	return result
}

func (f *fakeTimer) State(context.Context) timer.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.running {
		return timer.IdleState()
	}
	return timer.State{Running: true, Label: f.label, RemainingSeconds: f.remaining}
}

func (f *fakeTimer) Subscribe(handler timer.Handler) timerclient.Subscription {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handler = handler
	return fakeSubscription{timer: f}
}

func (f *fakeTimer) deliver(event timer.Event) {
	f.mu.Lock()
	handler := f.handler
	f.mu.Unlock()
	if handler != nil {
		handler(event)
	}
}

// tick reports remaining seconds for the current run.
func (f *fakeTimer) tick(remaining int) {
	f.mu.Lock()
	f.remaining = remaining
	event := timer.Event{Status: timer.StatusRunning, RemainingSeconds: remaining, Label: f.label, RunID: f.runID}
	f.mu.Unlock()
	f.deliver(event)
}

// finish ends the current run naturally.
func (f *fakeTimer) finish() {
	f.mu.Lock()
	event := timer.Event{Status: timer.StatusFinished, Label: f.label, RunID: f.runID}
	f.running = false
	f.runID = ""
	f.mu.Unlock()
	f.deliver(event)
}

// stopExternally ends the current run as if another component stopped it.
func (f *fakeTimer) stopExternally(reason timer.StopReason) {
	f.mu.Lock()
	event := timer.Event{Status: timer.StatusStopped, Label: timer.DefaultLabel, RunID: f.runID, Reason: reason}
	f.running = false
	f.runID = ""
	f.mu.Unlock()
	f.deliver(event)
}

func (f *fakeTimer) currentRunID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.runID
}

func (f *fakeTimer) isRunning() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

func (f *fakeTimer) startCalls() []startCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]startCall(nil), f.starts...)
}

func (f *fakeTimer) stopReasons() []timer.StopReason {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]timer.StopReason(nil), f.stops...)
}

func (f *fakeTimer) subscribed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.handler != nil
}
