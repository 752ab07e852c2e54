package view

import (
	"strings"
	"time"

	"kofa_admin/internal/kofa"

	"github.com/shopspring/decimal"
)

// FilterOrders keeps orders whose status matches, ignoring case. "all" and
// "" keep everything.
func FilterOrders(orders []kofa.Order, status string) []kofa.Order {
	status = strings.TrimSpace(status)
	if status == "" || strings.EqualFold(status, "all") {
		return orders
	}
	out := make([]kofa.Order, 0, len(orders))
	for _, order := range orders {
		if order.HasStatus(status) {
			out = append(out, order)
		}
	}
	return out
}

// TodayOrders returns the orders created on the same calendar day as now,
// in now's location.
func TodayOrders(orders []kofa.Order, now time.Time) []kofa.Order {
	y, m, d := now.Date()
	out := make([]kofa.Order, 0)
	for _, order := range orders {
		if order.CreatedAt.IsZero() {
			continue
		}
		oy, om, od := order.CreatedAt.In(now.Location()).Date()
		if oy == y && om == m && od == d {
			out = append(out, order)
		}
	}
	return out
}

// TodayRevenue sums the totals of today's orders.
func TodayRevenue(orders []kofa.Order, now time.Time) decimal.Decimal {
	return SumTotals(TodayOrders(orders, now))
}

func SumTotals(orders []kofa.Order) decimal.Decimal {
	total := decimal.Zero
	for _, order := range orders {
		total = total.Add(order.TotalAmount)
	}
	return total
}
