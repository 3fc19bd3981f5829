package order

import "github.com/shopspring/decimal"

// BillTotals is the displayable money summary of a bill. It is derived on
// every computation from the current billable item set and never stored, so
// it cannot drift from its inputs.
type BillTotals struct {
	SubtotalTaxable   decimal.Decimal `json:"subtotal_taxable"`
	TotalTax          decimal.Decimal `json:"total_tax"`
	Discount          decimal.Decimal `json:"discount"`
	AdditionalCharges decimal.Decimal `json:"additional_charges"`
	NetTotal          decimal.Decimal `json:"net_total"`
}

// ComputeTotals sums taxable amounts and tax across the billable items and
// applies discount and additional charges.
//
// A negative net total is an upstream pricing anomaly; it is returned as-is
// rather than clamped so it stays visible at the counter.
func ComputeTotals(billable []LineItem, discount, additionalCharges decimal.Decimal) BillTotals {
	subtotal := decimal.Zero
	tax := decimal.Zero
	for _, li := range billable {
		subtotal = subtotal.Add(li.TotalTaxable)
		tax = tax.Add(li.TotalTax)
	}

	return BillTotals{
		SubtotalTaxable:   subtotal,
		TotalTax:          tax,
		Discount:          discount,
		AdditionalCharges: additionalCharges,
		NetTotal:          subtotal.Add(tax).Add(additionalCharges).Sub(discount),
	}
}

// ComputeChange returns the change due on the first cash payment entry,
// floored at zero. At most one cash entry is expected; non-cash entries never
// produce change.
func ComputeChange(payments []PaymentEntry, netTotal decimal.Decimal) decimal.Decimal {
	for _, p := range payments {
		if p.Method != PaymentCash {
			continue
		}
		if change := p.Amount.Sub(netTotal); change.IsPositive() {
			return change
		}
		return decimal.Zero
	}
	return decimal.Zero
}
