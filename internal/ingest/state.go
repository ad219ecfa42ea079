package ingest

// State is the driver lifecycle position.
type State string

const (
	StateIdle        State = "IDLE"
	StateFetching    State = "FETCHING"
	StateFiltering   State = "FILTERING"
	StateReconciling State = "RECONCILING"
	StateDone        State = "DONE"
	StateFailed      State = "FAILED"
)

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

var transitions = map[State][]State{
	StateIdle:        {StateFetching},
	StateFetching:    {StateFiltering, StateFailed},
	StateFiltering:   {StateReconciling},
	StateReconciling: {StateDone, StateFailed},
	StateDone:        {StateIdle},
	StateFailed:      {StateIdle},
}

// CanTransition reports whether from -> to is a legal move.
func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
