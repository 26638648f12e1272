package domain

// RunState is the lifecycle stage of a single (scenario, instrument) run.
type RunState string

const (
	RunStateInitialized  RunState = "INITIALIZED"
	RunStateAccumulating RunState = "ACCUMULATING"
	RunStateFinalized    RunState = "FINALIZED"
	RunStateReported     RunState = "REPORTED"
	RunStateFailed       RunState = "FAILED"
)

// runStateNext lists the allowed forward transitions.
var runStateNext = map[RunState][]RunState{
	RunStateInitialized:  {RunStateAccumulating, RunStateFailed},
	RunStateAccumulating: {RunStateFinalized, RunStateFailed},
	RunStateFinalized:    {RunStateReported, RunStateFailed},
}

// CanTransition reports whether moving from s to next is allowed.
// REPORTED and FAILED are terminal.
func (s RunState) CanTransition(next RunState) bool {
	for _, allowed := range runStateNext[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions are possible.
func (s RunState) Terminal() bool {
	return s == RunStateReported || s == RunStateFailed
}
