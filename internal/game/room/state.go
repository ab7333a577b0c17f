package room

// Phase 游戏阶段
type Phase int

const (
	PhaseWaiting Phase = iota
	PhasePrompt
	PhaseDraw
	PhaseGuess
	PhaseFinished
)

var phaseNames = [...]string{
	PhaseWaiting:  "waiting",
	PhasePrompt:   "prompt",
	PhaseDraw:     "draw",
	PhaseGuess:    "guess",
	PhaseFinished: "finished",
}

// String returns the wire name of the phase.
func (p Phase) String() string {
	if p < PhaseWaiting || p > PhaseFinished {
		return "unknown"
	}
	return phaseNames[p]
}

// Active reports whether submissions are accepted in this phase.
func (p Phase) Active() bool {
	return p == PhasePrompt || p == PhaseDraw || p == PhaseGuess
}

// Next is the creative phase that follows p. Draw and guess alternate
// indefinitely; the coordinator decides when the game ends.
func (p Phase) Next() Phase {
	switch p {
	case PhasePrompt:
		return PhaseDraw
	case PhaseDraw:
		return PhaseGuess
	case PhaseGuess:
		return PhaseDraw
	default:
		return PhaseFinished
	}
}
