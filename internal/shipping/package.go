package shipping

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/AyuTechLive/e-commerce-web-keywellness/internal/domain"
)

// Dimensions of the parcel in centimetres, derived from the item count.
type Dimensions struct {
	Length  int
	Breadth int
	Height  int
}

// PackageWeight estimates the parcel weight in kilograms: 300g per line item
// with a 500g floor.
func PackageWeight(itemCount int) float64 {
	if itemCount < 1 {
		itemCount = 1
	}
	return math.Max(0.5, float64(itemCount)*0.3)
}

// PackageDimensions derives parcel dimensions from the item count.
func PackageDimensions(itemCount int) Dimensions {
	if itemCount < 1 {
		itemCount = 1
	}
	return Dimensions{
		Length:  maxInt(15, itemCount*5),
		Breadth: 15,
		Height:  maxInt(10, itemCount*2),
	}
}

// ProductsDescription joins "{name} (Qty: {q})" per item, appending an
// "[N% OFF]" marker when the item is discounted. An empty item list falls
// back to a generic description.
func ProductsDescription(items []domain.LineItem) string {
	if len(items) == 0 {
		return "Wellness Products"
	}
	descs := make([]string, 0, len(items))
	for _, item := range items {
		name := item.Name
		if name == "" {
			name = "Product"
		}
		desc := fmt.Sprintf("%s (Qty: %d)", name, item.Qty())
		if item.OriginalPrice > 0 && item.Price < item.OriginalPrice {
			pct := math.Round((item.OriginalPrice - item.Price) / item.OriginalPrice * 100)
			desc += fmt.Sprintf(" [%d%% OFF]", int(pct))
		}
		descs = append(descs, desc)
	}
	return strings.Join(descs, ", ")
}

// TotalQuantity sums item quantities as the string the carrier API expects.
func TotalQuantity(items []domain.LineItem) string {
	if len(items) == 0 {
		return "1"
	}
	total := 0
	for _, item := range items {
		total += item.Qty()
	}
	return strconv.Itoa(total)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
