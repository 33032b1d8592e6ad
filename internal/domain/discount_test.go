package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeDiscounts_DiscountedItem(t *testing.T) {
	sum := ComputeDiscounts([]LineItem{
		{Name: "Ashwagandha", Price: 80, OriginalPrice: 100, Quantity: 2},
	})

	assert.Equal(t, 200.0, sum.OriginalTotal)
	assert.Equal(t, 160.0, sum.DiscountedTotal)
	assert.Equal(t, 40.0, sum.TotalSavings)
	require.Len(t, sum.Lines, 1)
	assert.Equal(t, 40.0, sum.Lines[0].SavingsAmount)
	assert.Equal(t, 20.0, sum.Lines[0].DiscountPercentage)
	assert.True(t, sum.HasDiscounts())
}

func TestComputeDiscounts_NoDiscountWhenPricesEqual(t *testing.T) {
	sum := ComputeDiscounts([]LineItem{
		{Name: "Shilajit", Price: 100, OriginalPrice: 100, Quantity: 1},
	})

	assert.Empty(t, sum.Lines)
	assert.Equal(t, 0.0, sum.TotalSavings)
	assert.False(t, sum.HasDiscounts())
}

func TestComputeDiscounts_MissingOriginalPrice(t *testing.T) {
	sum := ComputeDiscounts([]LineItem{
		{Name: "Tea", Price: 250, Quantity: 3},
	})

	assert.Equal(t, 750.0, sum.OriginalTotal)
	assert.Equal(t, 750.0, sum.DiscountedTotal)
	assert.Empty(t, sum.Lines)
}

func TestComputeDiscounts_ZeroQuantityCountsAsOne(t *testing.T) {
	sum := ComputeDiscounts([]LineItem{
		{Name: "Oil", Price: 90, OriginalPrice: 120},
	})

	assert.Equal(t, 120.0, sum.OriginalTotal)
	assert.Equal(t, 30.0, sum.TotalSavings)
	require.Len(t, sum.Lines, 1)
	assert.Equal(t, 1, sum.Lines[0].Quantity)
	assert.Equal(t, 25.0, sum.Lines[0].DiscountPercentage)
}

func TestComputeDiscounts_PercentageRoundedToOneDecimal(t *testing.T) {
	// 1/3 off: 33.333...% should round to 33.3.
	sum := ComputeDiscounts([]LineItem{
		{Name: "Capsules", Price: 200, OriginalPrice: 300, Quantity: 1},
	})

	require.Len(t, sum.Lines, 1)
	assert.Equal(t, 33.3, sum.Lines[0].DiscountPercentage)
}
