// Package order holds the open-tab model shared by the billing workflow:
// line items as received from the POS backend, fulfillment types, and the
// pure bill-math helpers (item filtering, totals, change).
package order

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FulfillmentType describes how an order reaches the customer. It governs
// kitchen ticket routing and whether a bill prints from the counter or is
// tied to a kitchen ticket.
type FulfillmentType string

const (
	DineIn       FulfillmentType = "dine_in"
	TakeAway     FulfillmentType = "take_away"
	DriveThrough FulfillmentType = "drive_through"
	HomeDelivery FulfillmentType = "home_delivery"
)

// String returns the string representation of the fulfillment type.
func (t FulfillmentType) String() string {
	return string(t)
}

// ParseFulfillmentType maps a backend-provided type string to a
// FulfillmentType. Unknown values fall back to DineIn, the backend's default
// for an open tab.
func ParseFulfillmentType(s string) FulfillmentType {
	switch FulfillmentType(strings.ToLower(strings.TrimSpace(s))) {
	case TakeAway:
		return TakeAway
	case DriveThrough:
		return DriveThrough
	case HomeDelivery:
		return HomeDelivery
	default:
		return DineIn
	}
}

// SubSKUSeparatePackaging is the reserved sub-SKU the backend attaches to
// separate packaging lines. Packaging lines never appear as billable rows.
const SubSKUSeparatePackaging = "9099"

// LineItem is a single line of an open tab as reported by the backend.
// Immutable once received; monetary fields are already computed upstream.
type LineItem struct {
	SKUCode      string          `json:"sku_code"`
	SubSKUCode   string          `json:"sub_sku_code"`
	Quantity     decimal.Decimal `json:"quantity"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	TotalTaxable decimal.Decimal `json:"total_taxable"`
	TotalTax     decimal.Decimal `json:"total_tax"`

	// KitchenTicketNumber is zero until the item has been sent to the
	// kitchen. Dine-in bills only include ticketed items.
	KitchenTicketNumber int `json:"kitchen_ticket_number"`
}

// Ticketed reports whether the item has been registered on a kitchen ticket.
func (li LineItem) Ticketed() bool {
	return li.KitchenTicketNumber != 0
}

// Order is one open tab. Owned by the backend; this service caches it and
// requests its invalidation after a successful bill print.
type Order struct {
	MasterID          string          `json:"master_id"`
	FulfillmentType   FulfillmentType `json:"fulfillment_type"`
	CustomerPhone     string          `json:"customer_phone"`
	Items             []LineItem      `json:"items"`
	Discount          decimal.Decimal `json:"discount"`
	AdditionalCharges decimal.Decimal `json:"additional_charges"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// PaymentMethod identifies how a payment entry was tendered.
type PaymentMethod string

const (
	PaymentCash  PaymentMethod = "cash"
	PaymentCard  PaymentMethod = "card"
	PaymentOther PaymentMethod = "other"
)

// PaymentEntry is one tendered payment against a bill.
type PaymentEntry struct {
	Method PaymentMethod   `json:"method"`
	Amount decimal.Decimal `json:"amount"`
}

// ParseAmount converts a backend-provided numeric string to a decimal.
// The backend serializes amounts inconsistently (empty, null-ish, and
// non-numeric strings all occur in practice), so anything unparsable is zero.
func ParseAmount(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ErrNotFound indicates no open tab exists for the requested master ID.
var ErrNotFound = fmt.Errorf("order not found")

// Store is the open-tab cache consumed by the billing workflow.
type Store interface {
	// Current returns the cached order, or ErrNotFound.
	Current(ctx context.Context, masterID string) (*Order, error)
	// Refresh re-pulls the authoritative order from the backend, upserts
	// it into the cache, and returns it.
	Refresh(ctx context.Context, masterID string) (*Order, error)
	// SetCustomerPhone records a phone number collected at the counter.
	SetCustomerPhone(ctx context.Context, masterID, phone string) error
	// Clear removes the tab from the active list after a successful print.
	Clear(ctx context.Context, masterID string) error
}
