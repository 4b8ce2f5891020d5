package domain

type EngineState string

const (
	EngineIdle       EngineState = "idle"
	EngineGenerating EngineState = "generating"
)

// Phase tells the generation service which kind of turn is wanted.
type Phase string

const (
	PhaseOpening Phase = "opening"
	PhaseDebate  Phase = "debate"
)

func (p Phase) Valid() bool {
	switch p {
	case PhaseOpening, PhaseDebate:
		return true
	default:
		return false
	}
}
