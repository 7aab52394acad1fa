package session

// Phase is a segment of a circuit round.
type Phase string

const (
	PhaseWork Phase = "work"
	PhaseRest Phase = "rest"
)

// Position locates a circuit session within its plan.
type Position struct {
	Round         int
	ExerciseIndex int
	Phase         Phase
}

// Plan is the static shape of a circuit.
type Plan struct {
	Exercises   []string
	TotalRounds int
	WorkSeconds int
	RestSeconds int
}

// Transition is the outcome of a finished phase.
type Transition struct {
	Next     Position
	Complete bool
	// Armed means the next phase waits for a manual resume instead of
	// starting a timer.
	Armed bool
}

// Advance computes what follows the phase at pos once its timer finishes.
func Advance(pos Position, plan Plan) Transition {
	if pos.Phase == PhaseRest {
		return Transition{
			Next:  Position{Round: pos.Round + 1, ExerciseIndex: 0, Phase: PhaseWork},
			Armed: true,
		}
	}

	if pos.ExerciseIndex < len(plan.Exercises)-1 {
		return Transition{Next: Position{Round: pos.Round, ExerciseIndex: pos.ExerciseIndex + 1, Phase: PhaseWork}}
	}
	if pos.Round >= plan.TotalRounds {
		return Transition{Next: pos, Complete: true}
	}
	return Transition{Next: Position{Round: pos.Round, ExerciseIndex: pos.ExerciseIndex, Phase: PhaseRest}}
}

// Seconds returns the configured length of phase, never less than one.
func (p Plan) Seconds(phase Phase) int {
	seconds := p.WorkSeconds
	if phase == PhaseRest {
		seconds = p.RestSeconds
	}
	if seconds <= 0 {
		return 1
	}
	return seconds
}
