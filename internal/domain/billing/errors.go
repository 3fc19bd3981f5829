package billing

import "fmt"

// Validation errors, raised before any remote call is issued.
var (
	ErrNoBillableItems = fmt.Errorf("no billable items on order")
	ErrPhoneRequired   = fmt.Errorf("phone number required")
)

// Sequencing errors, raised when a call does not match the current state.
var (
	ErrInFlight        = fmt.Errorf("finalization already in flight")
	ErrNotAwaitingInfo = fmt.Errorf("order is not awaiting customer info")
	ErrNothingToRetry  = fmt.Errorf("order has no failed finalization to retry")
	ErrAlreadyPrinted  = fmt.Errorf("order is already printed")
)

// RemoteError is a backend-reported failure: the call completed but the
// backend answered success=false. Op names the remote operation.
type RemoteError struct {
	Op      string
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: backend reported failure", e.Op)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}
