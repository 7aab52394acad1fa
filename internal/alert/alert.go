// Package alert produces the audible signals that accompany timer
// completion and circuit step changes.
package alert

import (
	"io"
	"sync"
	"time"
)

// Kind selects an alert pattern.
type Kind int

const (
	// KindFinished is played by the engine when a run reaches zero.
	KindFinished Kind = iota
	// KindStep is the short double pulse played when a circuit advances.
	KindStep
)

func (k Kind) String() string {
	switch k {
	case KindFinished:
		return "finished"
	case KindStep:
		return "step"
	}
	return "unknown"
}

// Alerter plays an alert. Implementations must not block the caller.
type Alerter interface {
	Alert(kind Kind)
}

// Nop discards every alert.
type Nop struct{}

func (Nop) Alert(Kind) {}

// Pattern is a vibration style sequence: wait, pulse, wait, pulse...
// Every odd entry is a pulse.
type Pattern []time.Duration

var (
	finishedPattern = Pattern{0, 500 * time.Millisecond, 150 * time.Millisecond, 500 * time.Millisecond}
	stepPattern     = Pattern{0, 110 * time.Millisecond, 80 * time.Millisecond, 110 * time.Millisecond}
)

// PatternFor returns the pulse pattern for kind.
func PatternFor(kind Kind) Pattern {
	if kind == KindStep {
		return stepPattern
	}
	return finishedPattern
}

// Pulses counts the pulses in the pattern.
func (p Pattern) Pulses() int {
	return len(p) / 2
}

// Bell writes a terminal bell for every pulse of the pattern.
type Bell struct {
	mu    sync.Mutex
	out   io.Writer
	sleep func(time.Duration)
}

// NewBell creates a Bell writing to out.
func NewBell(out io.Writer) *Bell {
	return &Bell{out: out, sleep: time.Sleep}
}

// Alert plays the pattern for kind on a separate goroutine.
func (b *Bell) Alert(kind Kind) {
	go b.play(PatternFor(kind))
}

func (b *Bell) play(pattern Pattern) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, d := range pattern {
		if i%2 == 0 {
			b.sleep(d)
			continue
		}
		_, _ = b.out.Write([]byte("\a"))
		b.sleep(d)
	}
}
