package domain

import "math"

// DiscountSummary aggregates per-item savings over an order's line items.
type DiscountSummary struct {
	OriginalTotal   float64
	DiscountedTotal float64
	TotalSavings    float64
	Lines           []DiscountLine
}

func (s DiscountSummary) HasDiscounts() bool {
	return s.TotalSavings > 0
}

// ComputeDiscounts walks the line items treating a missing original price as
// "no discount" (original == current). A discount line is emitted only for
// items that actually saved something; the percentage is rounded to one
// decimal place.
func ComputeDiscounts(items []LineItem) DiscountSummary {
	var sum DiscountSummary
	for _, item := range items {
		originalPrice := item.OriginalPrice
		if originalPrice == 0 {
			originalPrice = item.Price
		}
		qty := item.Qty()

		itemOriginal := originalPrice * float64(qty)
		itemDiscounted := item.Price * float64(qty)
		itemSavings := itemOriginal - itemDiscounted

		sum.OriginalTotal += itemOriginal
		sum.DiscountedTotal += itemDiscounted
		sum.TotalSavings += itemSavings

		if itemSavings > 0 {
			pct := math.Round(itemSavings/itemOriginal*100*10) / 10
			sum.Lines = append(sum.Lines, DiscountLine{
				ProductName:        item.Name,
				OriginalPrice:      originalPrice,
				DiscountedPrice:    item.Price,
				Quantity:           qty,
				SavingsAmount:      itemSavings,
				DiscountPercentage: pct,
			})
		}
	}
	return sum
}
