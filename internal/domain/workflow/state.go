package workflow

// State represents a status in the document or approval step lifecycle
type State string

const (
	StateDraft    State = "DRAFT"
	StateWaiting  State = "WAITING"
	StatePending  State = "PENDING"
	StateApproved State = "APPROVED"
	StateRejected State = "REJECTED"
)

var validStates = map[State]bool{
	StateDraft:    true,
	StateWaiting:  true,
	StatePending:  true,
	StateApproved: true,
	StateRejected: true,
}

var terminalStates = map[State]bool{
	StateApproved: true,
	StateRejected: true,
}

// IsTerminal returns true if the state is a terminal state (no further transitions allowed)
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a known lifecycle status
func (s State) IsValid() bool {
	return validStates[s]
}
