package order

// SelectBillableItems decides which line items participate in the printed
// bill. Dine-in bills must not include items that were never sent to the
// kitchen, so only ticketed items survive; every other fulfillment type keeps
// all items. Separate packaging lines are dropped regardless of type.
func SelectBillableItems(items []LineItem, t FulfillmentType) []LineItem {
	billable := make([]LineItem, 0, len(items))
	for _, li := range items {
		if li.SubSKUCode == SubSKUSeparatePackaging {
			continue
		}
		if t == DineIn && !li.Ticketed() {
			continue
		}
		billable = append(billable, li)
	}
	return billable
}
