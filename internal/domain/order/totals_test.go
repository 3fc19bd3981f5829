package order

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestComputeTotals(t *testing.T) {
	billable := []LineItem{
		{TotalTaxable: dec("100"), TotalTax: dec("18")},
	}

	totals := ComputeTotals(billable, dec("10"), decimal.Zero)

	assert.True(t, dec("100").Equal(totals.SubtotalTaxable))
	assert.True(t, dec("18").Equal(totals.TotalTax))
	assert.True(t, dec("108").Equal(totals.NetTotal))
}

func TestComputeTotals_AdditionalCharges(t *testing.T) {
	billable := []LineItem{
		{TotalTaxable: dec("200"), TotalTax: dec("36")},
		{TotalTaxable: dec("50"), TotalTax: dec("9")},
	}

	totals := ComputeTotals(billable, dec("20"), dec("15"))

	assert.True(t, dec("250").Equal(totals.SubtotalTaxable))
	assert.True(t, dec("45").Equal(totals.TotalTax))
	// 250 + 45 + 15 - 20
	assert.True(t, dec("290").Equal(totals.NetTotal))
}

func TestComputeTotals_NegativeNetNotClamped(t *testing.T) {
	totals := ComputeTotals([]LineItem{{TotalTaxable: dec("10")}}, dec("50"), decimal.Zero)
	assert.True(t, dec("-40").Equal(totals.NetTotal))
}

func TestComputeTotals_EmptyItems(t *testing.T) {
	totals := ComputeTotals(nil, decimal.Zero, decimal.Zero)
	assert.True(t, totals.NetTotal.IsZero())
}

func TestComputeChange(t *testing.T) {
	payments := []PaymentEntry{
		{Method: PaymentCard, Amount: dec("20")},
		{Method: PaymentCash, Amount: dec("150")},
	}

	assert.True(t, dec("42").Equal(ComputeChange(payments, dec("108"))))
}

func TestComputeChange_ShortPaymentIsZero(t *testing.T) {
	payments := []PaymentEntry{{Method: PaymentCash, Amount: dec("100")}}
	assert.True(t, ComputeChange(payments, dec("108")).IsZero())
}

func TestComputeChange_NoCashEntry(t *testing.T) {
	payments := []PaymentEntry{{Method: PaymentCard, Amount: dec("500")}}
	assert.True(t, ComputeChange(payments, dec("108")).IsZero())
	assert.True(t, ComputeChange(nil, dec("108")).IsZero())
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want decimal.Decimal
	}{
		{"108.50", dec("108.50")},
		{"  42 ", dec("42")},
		{"", decimal.Zero},
		{"null", decimal.Zero},
		{"12a", decimal.Zero},
	}
	for _, tt := range tests {
		assert.True(t, tt.want.Equal(ParseAmount(tt.in)), "input %q", tt.in)
	}
}

func TestParseFulfillmentType(t *testing.T) {
	assert.Equal(t, TakeAway, ParseFulfillmentType("TAKE_AWAY"))
	assert.Equal(t, HomeDelivery, ParseFulfillmentType(" home_delivery "))
	assert.Equal(t, DriveThrough, ParseFulfillmentType("drive_through"))
	assert.Equal(t, DineIn, ParseFulfillmentType("dine_in"))
	assert.Equal(t, DineIn, ParseFulfillmentType("garbage"))
}
