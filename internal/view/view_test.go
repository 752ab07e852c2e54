package view

import (
	"testing"
	"time"

	"kofa_admin/internal/kofa"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatNaira(t *testing.T) {
	cases := map[string]string{
		"0":        "₦0",
		"950":      "₦950",
		"15000":    "₦15,000",
		"2500.5":   "₦2,500.5",
		"1234567":  "₦1,234,567",
		"99.999":   "₦100",
		"-4500.25": "-₦4,500.25",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatNaira(decimal.RequireFromString(in)), in)
	}
}

func TestFormatNairaCompact(t *testing.T) {
	cases := map[string]string{
		"850":     "₦850",
		"1000":    "₦1K",
		"45500":   "₦46K",
		"1250000": "₦1.3M",
		"3000000": "₦3.0M",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatNairaCompact(decimal.RequireFromString(in)), in)
	}
}

func TestStockStatusBands(t *testing.T) {
	assert.Equal(t, StockOut, StockStatus(0))
	assert.Equal(t, StockCritical, StockStatus(1))
	assert.Equal(t, StockCritical, StockStatus(5))
	assert.Equal(t, StockLow, StockStatus(6))
	assert.Equal(t, StockLow, StockStatus(15))
	assert.Equal(t, StockIn, StockStatus(16))
}

func TestInventoryStats(t *testing.T) {
	products := []kofa.Product{
		{ID: "a", Price: decimal.NewFromInt(1000), StockLevel: 0},
		{ID: "b", Price: decimal.NewFromInt(500), StockLevel: 4},
		{ID: "c", Price: decimal.NewFromInt(200), StockLevel: 10},
		{ID: "d", Price: decimal.NewFromInt(100), StockLevel: 30},
	}

	stats := InventoryStats(products)

	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 1, stats.OutOfStock)
	assert.Equal(t, 2, stats.LowStock)
	assert.True(t, stats.Value.Equal(decimal.NewFromInt(2000+2000+3000)), stats.Value.String())
}

func TestSearchProducts(t *testing.T) {
	products := []kofa.Product{
		{ID: "1", Name: "Ankara Shirt", Category: "Fashion"},
		{ID: "2", Name: "Ofada Rice", Category: "Food", VoiceTags: []string{"shinkafa"}},
		{ID: "3", Name: "Shea Butter", Description: "Raw, from Kano"},
	}

	assert.Len(t, SearchProducts(products, "  "), 3)
	assert.Equal(t, "1", SearchProducts(products, "fashion")[0].ID)
	assert.Equal(t, "2", SearchProducts(products, "SHINKAFA")[0].ID)
	assert.Equal(t, "3", SearchProducts(products, "kano")[0].ID)
	assert.Empty(t, SearchProducts(products, "laptop"))
}

func TestLowStock(t *testing.T) {
	products := []kofa.Product{{ID: "a", StockLevel: 0}, {ID: "b", StockLevel: 9}, {ID: "c", StockLevel: 50}}
	low := LowStock(products, 10)
	assert.Len(t, low, 2)
}

func TestFilterOrdersAndTodayRevenue(t *testing.T) {
	loc := time.FixedZone("WAT", 3600)
	now := time.Date(2024, 3, 10, 15, 0, 0, 0, loc)
	orders := []kofa.Order{
		{ID: "o1", Status: "pending", TotalAmount: decimal.NewFromInt(4000), CreatedAt: kofa.Timestamp{Time: now.Add(-2 * time.Hour)}},
		{ID: "o2", Status: "Paid", TotalAmount: decimal.NewFromInt(6000), CreatedAt: kofa.Timestamp{Time: now.Add(-26 * time.Hour)}},
		{ID: "o3", Status: "PAID", TotalAmount: decimal.NewFromInt(1500), CreatedAt: kofa.Timestamp{Time: time.Date(2024, 3, 9, 23, 30, 0, 0, time.UTC)}},
		{ID: "o4", Status: "paid", TotalAmount: decimal.NewFromInt(900)},
	}

	assert.Len(t, FilterOrders(orders, "all"), 4)
	assert.Len(t, FilterOrders(orders, "paid"), 3)

	today := TodayOrders(orders, now)
	assert.Len(t, today, 2, "o3 is after midnight in WAT")
	assert.True(t, TodayRevenue(orders, now).Equal(decimal.NewFromInt(5500)))
	assert.True(t, SumTotals(orders).Equal(decimal.NewFromInt(12400)))
}
