package billing

import (
	"strings"

	"github.com/quickserve/pos-billing/internal/domain/order"
)

// RequiresCustomerInfo reports whether customer contact data must be
// collected before finalization proceeds. Only takeaway orders are gated, and
// a phone number already on file short-circuits the gate. Dine-in, drive
// through, and home delivery orders proceed directly.
func RequiresCustomerInfo(t order.FulfillmentType, phone string) bool {
	return t == order.TakeAway && strings.TrimSpace(phone) == ""
}
