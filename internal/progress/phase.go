package progress

// Phase is the state of a Controller.
type Phase int

const (
	// PhaseIdle means no operation is being tracked.
	PhaseIdle Phase = iota
	// PhaseFetching means real download progress is being shown.
	PhaseFetching
	// PhaseSimulating means the ramp timer is advancing the percentage.
	PhaseSimulating
	// PhaseDone means the operation completed and 100% is shown.
	PhaseDone
)

// String returns the lower-case phase name.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseFetching:
		return "fetching"
	case PhaseSimulating:
		return "simulating"
	case PhaseDone:
		return "done"
	default:
		return "unknown"
	}
}
