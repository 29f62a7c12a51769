package checkout

// State is a step of a single checkout attempt.
type State string

const (
	StateStarted          State = "started"
	StateStockValidated   State = "stock_validated"
	StateOrderCreated     State = "order_created"
	StateInventoryApplied State = "inventory_applied"
	StatePaymentSettled   State = "payment_settled"
	StateCompleted        State = "completed"
	StateRolledBack       State = "rolled_back"
)

var transitions = map[State]State{
	StateStarted:          StateStockValidated,
	StateStockValidated:   StateOrderCreated,
	StateOrderCreated:     StateInventoryApplied,
	StateInventoryApplied: StatePaymentSettled,
	StatePaymentSettled:   StateCompleted,
}

func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateRolledBack
}

// CanTransitionTo allows the next forward step, or a rollback from any
// non-terminal state.
func (s State) CanTransitionTo(next State) bool {
	if s.IsTerminal() {
		return false
	}
	if next == StateRolledBack {
		return true
	}
	return transitions[s] == next
}

func (s State) String() string {
	return string(s)
}
