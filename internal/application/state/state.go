package state

// Phase represents where a single scene is in its transition lifecycle.
//
//	Idle -> Loading -> Activating -> Loaded
//	Loaded -> Unloading -> Idle
//
// Reloading covers an Unloading followed by a Loading of the same scene.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseActivating
	PhaseLoaded
	PhaseUnloading
	PhaseReloading
)

// String returns the string representation of the phase
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "Idle"
	case PhaseLoading:
		return "Loading"
	case PhaseActivating:
		return "Activating"
	case PhaseLoaded:
		return "Loaded"
	case PhaseUnloading:
		return "Unloading"
	case PhaseReloading:
		return "Reloading"
	default:
		return "Unknown"
	}
}

// InFlight reports whether a transition is running for the scene
func (p Phase) InFlight() bool {
	switch p {
	case PhaseLoading, PhaseActivating, PhaseUnloading, PhaseReloading:
		return true
	default:
		return false
	}
}
