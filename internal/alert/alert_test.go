package alert

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPatternFor(t *testing.T) {
	assert.Equal(t, 2, PatternFor(KindStep).Pulses())
	assert.Equal(t, 2, PatternFor(KindFinished).Pulses())
	assert.NotEqual(t, PatternFor(KindStep), PatternFor(KindFinished))
}

func TestBellWritesOneBellPerPulse(t *testing.T) {
	var out bytes.Buffer
	var slept []time.Duration
	bell := &Bell{out: &out, sleep: func(d time.Duration) { slept = append(slept, d) }}

	bell.play(PatternFor(KindStep))

	assert.Equal(t, "\a\a", out.String())
	assert.Equal(t, []time.Duration(stepPattern), slept)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "finished", KindFinished.String())
	assert.Equal(t, "step", KindStep.String())
	assert.Equal(t, "unknown", Kind(9).String())
}
