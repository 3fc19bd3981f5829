// Package billing implements the order finalization workflow: the customer
// info gate, the state machine that sequences kitchen ticket registration and
// price locking, and the independent reprint path.
package billing

// State is the position of one order inside the finalization workflow.
// Transitions are forward-only; the single backward edge is Failed -> Idle on
// an explicit user retry.
type State string

const (
	StateIdle                 State = "idle"
	StateAwaitingCustomerInfo State = "awaiting_customer_info"
	StateRegisteringTicket    State = "registering_ticket"
	StateLockingPrice         State = "locking_price"
	StatePrinted              State = "printed"
	StateFailed               State = "failed"
)

// String returns the string representation of the state.
func (s State) String() string {
	return string(s)
}

// Outcome is the result of a completed Initiate/SupplyCustomerInfo/Retry
// call, for callers that need more than success/failure.
type Outcome string

const (
	// OutcomeNone accompanies every error return.
	OutcomeNone Outcome = ""
	// OutcomeAwaitingCustomerInfo means the workflow suspended and the
	// presentation layer must collect a phone number.
	OutcomeAwaitingCustomerInfo Outcome = "awaiting_customer_info"
	// OutcomePrinted means the bill was locked and printed.
	OutcomePrinted Outcome = "printed"
	// OutcomeStale means a remote call resolved after the order had been
	// cleared from the cart; nothing was mutated.
	OutcomeStale Outcome = "stale"
)
