package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func item(sku, subSKU string, ticket int) LineItem {
	return LineItem{SKUCode: sku, SubSKUCode: subSKU, KitchenTicketNumber: ticket}
}

func TestSelectBillableItems_DineInDropsUnticketed(t *testing.T) {
	items := []LineItem{
		item("burger", "01", 7),
		item("fries", "01", 0),
		item("cola", "02", 3),
	}

	billable := SelectBillableItems(items, DineIn)

	assert.Len(t, billable, 2)
	assert.Equal(t, "burger", billable[0].SKUCode)
	assert.Equal(t, "cola", billable[1].SKUCode)
}

func TestSelectBillableItems_PackagingDroppedForEveryType(t *testing.T) {
	items := []LineItem{
		item("burger", "01", 0),
		item("box", SubSKUSeparatePackaging, 0),
	}

	for _, ft := range []FulfillmentType{TakeAway, DriveThrough, HomeDelivery} {
		billable := SelectBillableItems(items, ft)
		assert.Len(t, billable, 1, "fulfillment type %s", ft)
		assert.Equal(t, "burger", billable[0].SKUCode)
	}

	// Dine-in drops the packaging line too, even when it carries a ticket.
	billable := SelectBillableItems([]LineItem{item("box", SubSKUSeparatePackaging, 5)}, DineIn)
	assert.Empty(t, billable)
}

func TestSelectBillableItems_NonDineInKeepsUnticketed(t *testing.T) {
	items := []LineItem{
		item("burger", "01", 0),
		item("fries", "01", 0),
	}

	billable := SelectBillableItems(items, TakeAway)
	assert.Len(t, billable, 2)
}

func TestSelectBillableItems_Empty(t *testing.T) {
	assert.Empty(t, SelectBillableItems(nil, DineIn))
	assert.Empty(t, SelectBillableItems([]LineItem{}, TakeAway))
}
