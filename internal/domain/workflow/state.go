package workflow

// State is a voucher lifecycle state. Values are persisted verbatim.
type State string

const (
	StateIssued    State = "EMITIDO"
	StateExited    State = "SAIDA"
	StateReturned  State = "RETORNO"
	StateCancelled State = "CANCELADO"
)

var validStates = map[State]bool{
	StateIssued:    true,
	StateExited:    true,
	StateReturned:  true,
	StateCancelled: true,
}

var terminalStates = map[State]bool{
	StateReturned:  true,
	StateCancelled: true,
}

// IsTerminal returns true if no trigger can leave the state
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a known lifecycle state
func (s State) IsValid() bool {
	return validStates[s]
}

// States lists every lifecycle state in path order.
func States() []State {
	return []State{StateIssued, StateExited, StateReturned, StateCancelled}
}
