package view

import (
	"strings"

	"kofa_admin/internal/kofa"

	"github.com/shopspring/decimal"
)

const (
	StockOut      = "Out of Stock"
	StockCritical = "Critical"
	StockLow      = "Low Stock"
	StockIn       = "In Stock"
)

// LowStockThreshold is the highest level still counted as low stock.
const LowStockThreshold = 10

// StockStatus bands a stock level for display.
func StockStatus(level int) string {
	switch {
	case level <= 0:
		return StockOut
	case level <= 5:
		return StockCritical
	case level <= 15:
		return StockLow
	default:
		return StockIn
	}
}

type InventorySummary struct {
	Total      int             `json:"total"`
	LowStock   int             `json:"low_stock"`
	OutOfStock int             `json:"out_of_stock"`
	Value      decimal.Decimal `json:"value"`
}

// InventoryStats counts products by stock and sums price times stock.
func InventoryStats(products []kofa.Product) InventorySummary {
	summary := InventorySummary{Total: len(products), Value: decimal.Zero}
	for _, p := range products {
		switch {
		case p.StockLevel <= 0:
			summary.OutOfStock++
		case p.StockLevel <= LowStockThreshold:
			summary.LowStock++
		}
		if p.StockLevel > 0 {
			summary.Value = summary.Value.Add(p.Price.Mul(decimal.NewFromInt(int64(p.StockLevel))))
		}
	}
	return summary
}

// SearchProducts matches query case-insensitively against name, category,
// description and voice tags. A blank query returns every product.
func SearchProducts(products []kofa.Product, query string) []kofa.Product {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return products
	}

	out := make([]kofa.Product, 0, len(products))
	for _, p := range products {
		if productMatches(p, needle) {
			out = append(out, p)
		}
	}
	return out
}

func productMatches(p kofa.Product, needle string) bool {
	for _, field := range []string{p.Name, p.Category, p.Description} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	for _, tag := range p.VoiceTags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}

// LowStock returns products at or below threshold, out-of-stock included.
func LowStock(products []kofa.Product, threshold int) []kofa.Product {
	out := make([]kofa.Product, 0)
	for _, p := range products {
		if p.StockLevel <= threshold {
			out = append(out, p)
		}
	}
	return out
}
