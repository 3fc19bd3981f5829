package billing

import (
	"context"
	"strings"
	"sync"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/quickserve/pos-billing/internal/domain/order"
)

// Backend is the set of remote operations the workflow consumes. Every call
// blocks until the backend resolves; implementations own transport concerns
// such as timeouts. A success=false answer surfaces as *RemoteError.
type Backend interface {
	// UpdateCustomerNumber stores a phone number against the order.
	// Best-effort: callers continue on failure.
	UpdateCustomerNumber(ctx context.Context, masterID, phone string) error
	// RegisterKitchenTicket assigns kitchen ticket numbers to the order.
	RegisterKitchenTicket(ctx context.Context, masterID string) error
	// LockSalePrices freezes sale prices and marks the order billed.
	LockSalePrices(ctx context.Context, masterID string) error
	// ReprintBill re-issues the physical ticket for a printed bill.
	ReprintBill(ctx context.Context, masterCode string) error
}

// PostCommitHook runs after a successful price lock, before the sequence is
// declared finished. The printed order snapshot is passed in.
type PostCommitHook func(ctx context.Context, o *order.Order) error

// session is the per-order workflow state. The inFlight flag is the only
// duplicate-submission guard; the UI disabling its button is not trusted.
type session struct {
	state    State
	inFlight bool
	snapshot *order.Order
}

// Controller drives one finalize sequence per order: gate on customer info,
// register the kitchen ticket, lock prices, then clear the tab and run the
// post-commit hook. Sessions are keyed by master ID, so different orders
// finalize independently.
type Controller struct {
	backend Backend
	store   order.Store
	hook    PostCommitHook

	mu       sync.Mutex
	sessions map[string]*session
}

// NewController creates a Controller. hook may be nil.
func NewController(backend Backend, store order.Store, hook PostCommitHook) *Controller {
	return &Controller{
		backend:  backend,
		store:    store,
		hook:     hook,
		sessions: make(map[string]*session),
	}
}

// StateOf returns the workflow state for the order, StateIdle when no
// sequence has been started.
func (c *Controller) StateOf(masterID string) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.sessions[masterID]; ok {
		return s.state
	}
	return StateIdle
}

// Initiate begins finalizing the order. It snapshots the order, validates
// that at least one billable item exists, evaluates the customer info gate,
// and when the gate passes runs the remote sequence to completion.
//
// A second Initiate while a sequence is in flight returns ErrInFlight and
// issues no remote calls.
func (c *Controller) Initiate(ctx context.Context, masterID string) (Outcome, error) {
	c.mu.Lock()
	s, ok := c.sessions[masterID]
	if !ok {
		s = &session{state: StateIdle}
		c.sessions[masterID] = s
	}
	if s.inFlight {
		c.mu.Unlock()
		return OutcomeNone, ErrInFlight
	}
	switch s.state {
	case StatePrinted:
		c.mu.Unlock()
		return OutcomeNone, ErrAlreadyPrinted
	case StateFailed:
		c.mu.Unlock()
		return OutcomeNone, ErrNothingToRetry
	}
	s.inFlight = true
	c.mu.Unlock()

	o, err := c.store.Current(ctx, masterID)
	if err != nil {
		c.settle(s, StateIdle)
		return OutcomeNone, errors.Wrap(err, "load order")
	}

	return c.enter(ctx, masterID, s, o)
}

// SupplyCustomerInfo resumes a sequence suspended at the customer info gate.
// The phone number is persisted best-effort against the backend and the local
// cache; neither failure blocks the print.
func (c *Controller) SupplyCustomerInfo(ctx context.Context, masterID, phone string) (Outcome, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return OutcomeNone, ErrPhoneRequired
	}

	c.mu.Lock()
	s, ok := c.sessions[masterID]
	if !ok || s.state != StateAwaitingCustomerInfo {
		c.mu.Unlock()
		return OutcomeNone, ErrNotAwaitingInfo
	}
	if s.inFlight {
		c.mu.Unlock()
		return OutcomeNone, ErrInFlight
	}
	s.inFlight = true
	s.snapshot.CustomerPhone = phone
	c.mu.Unlock()

	lg := zctx.From(ctx).With(zap.String("master_id", masterID))
	if err := c.backend.UpdateCustomerNumber(ctx, masterID, phone); err != nil {
		lg.Warn("Customer number update failed, continuing", zap.Error(err))
	}
	if err := c.store.SetCustomerPhone(ctx, masterID, phone); err != nil {
		lg.Warn("Customer number cache write failed, continuing", zap.Error(err))
	}

	return c.run(ctx, masterID, s)
}

// Retry re-enters a failed sequence from the top using the same order
// snapshot: the billable check and customer gate are re-evaluated and both
// remote calls are issued again. Nothing is retried automatically.
func (c *Controller) Retry(ctx context.Context, masterID string) (Outcome, error) {
	c.mu.Lock()
	s, ok := c.sessions[masterID]
	if !ok || s.state != StateFailed {
		c.mu.Unlock()
		return OutcomeNone, ErrNothingToRetry
	}
	if s.inFlight {
		c.mu.Unlock()
		return OutcomeNone, ErrInFlight
	}
	s.inFlight = true
	s.state = StateIdle
	o := s.snapshot
	c.mu.Unlock()

	return c.enter(ctx, masterID, s, o)
}

// enter validates the snapshot and either suspends at the gate or runs the
// remote sequence. The caller must hold the in-flight flag.
func (c *Controller) enter(ctx context.Context, masterID string, s *session, o *order.Order) (Outcome, error) {
	billable := order.SelectBillableItems(o.Items, o.FulfillmentType)
	if len(billable) == 0 {
		c.settle(s, StateIdle)
		return OutcomeNone, ErrNoBillableItems
	}

	if RequiresCustomerInfo(o.FulfillmentType, o.CustomerPhone) {
		c.mu.Lock()
		s.state = StateAwaitingCustomerInfo
		s.snapshot = o
		s.inFlight = false
		c.mu.Unlock()
		return OutcomeAwaitingCustomerInfo, nil
	}

	c.mu.Lock()
	s.snapshot = o
	c.mu.Unlock()
	return c.run(ctx, masterID, s)
}

// run issues the remote sequence: kitchen ticket registration (skipped for
// dine-in, which prints from the counter), then the price lock. The lock call
// is never issued when registration fails. The caller must hold the in-flight
// flag; run releases it on every path.
func (c *Controller) run(ctx context.Context, masterID string, s *session) (Outcome, error) {
	o := s.snapshot
	lg := zctx.From(ctx).With(
		zap.String("master_id", masterID),
		zap.String("fulfillment_type", o.FulfillmentType.String()),
	)

	if o.FulfillmentType != order.DineIn {
		c.transition(s, StateRegisteringTicket)
		if err := c.backend.RegisterKitchenTicket(ctx, masterID); err != nil {
			c.settle(s, StateFailed)
			return OutcomeNone, errors.Wrap(err, "register kitchen ticket")
		}
		if c.cleared(ctx, masterID) {
			return c.discard(masterID, lg)
		}
	}

	c.transition(s, StateLockingPrice)
	if err := c.backend.LockSalePrices(ctx, masterID); err != nil {
		c.settle(s, StateFailed)
		return OutcomeNone, errors.Wrap(err, "lock sale prices")
	}
	if c.cleared(ctx, masterID) {
		return c.discard(masterID, lg)
	}

	if err := c.store.Clear(ctx, masterID); err != nil {
		lg.Warn("Printed order not cleared from cache", zap.Error(err))
	}
	if c.hook != nil {
		if err := c.hook(ctx, o); err != nil {
			lg.Warn("Post-commit hook failed", zap.Error(err))
		}
	}

	c.settle(s, StatePrinted)
	lg.Info("Bill printed")
	return OutcomePrinted, nil
}

// cleared reports whether the order vanished from the cache while a remote
// call was in flight. Cache read errors count as present: the remote side is
// the authority and the sequence continues.
func (c *Controller) cleared(ctx context.Context, masterID string) bool {
	_, err := c.store.Current(ctx, masterID)
	return errors.Is(err, order.ErrNotFound)
}

// discard drops the session for an order that was cleared mid-sequence. The
// late resolution must not mutate state that no longer exists.
func (c *Controller) discard(masterID string, lg *zap.Logger) (Outcome, error) {
	c.mu.Lock()
	delete(c.sessions, masterID)
	c.mu.Unlock()
	lg.Debug("Order cleared while finalizing, resolution discarded")
	return OutcomeStale, nil
}

// transition moves the session forward while a sequence is running.
func (c *Controller) transition(s *session, next State) {
	c.mu.Lock()
	s.state = next
	c.mu.Unlock()
}

// settle records a terminal or resting state and releases the in-flight flag.
func (c *Controller) settle(s *session, st State) {
	c.mu.Lock()
	s.state = st
	s.inFlight = false
	c.mu.Unlock()
}
