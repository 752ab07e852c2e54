package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"kofa_admin/internal/dashboard"
	"kofa_admin/internal/kofa"
	"kofa_admin/internal/view"
)

const timeLayout = "2 Jan 2006 15:04"

// emit writes value as JSON when --json is set and calls human otherwise.
func (r *Runner) emit(value any, human func(w io.Writer)) error {
	if r.opts.JSON {
		return json.NewEncoder(r.out).Encode(value)
	}
	human(r.out)
	return nil
}

func writeProducts(w io.Writer, products []kofa.Product) {
	if len(products) == 0 {
		fmt.Fprintln(w, "- (no products)")
		return
	}
	for i, p := range products {
		fmt.Fprintf(w, "%d) %s (id=%s, price=%s, stock=%d, %s", i+1, p.Name, p.ID, view.FormatNaira(p.Price), p.StockLevel, view.StockStatus(p.StockLevel))
		if p.Category != "" {
			fmt.Fprintf(w, ", category=%s", p.Category)
		}
		fmt.Fprintln(w, ")")
	}
}

func writeInventory(w io.Writer, s view.InventorySummary) {
	fmt.Fprintf(w, "Products: %d, low stock: %d, out of stock: %d, stock value: %s\n",
		s.Total, s.LowStock, s.OutOfStock, view.FormatNaira(s.Value))
}

func writeOrders(w io.Writer, orders []kofa.Order) {
	if len(orders) == 0 {
		fmt.Fprintln(w, "- (no orders)")
		return
	}
	for i, o := range orders {
		customer := o.CustomerName
		if customer == "" {
			customer = o.CustomerPhone
		}
		fmt.Fprintf(w, "%d) %s %s, %s, %s", i+1, o.ID, view.FormatNaira(o.TotalAmount), strings.ToLower(o.Status), customer)
		if !o.CreatedAt.IsZero() {
			fmt.Fprintf(w, ", %s", o.CreatedAt.Format(timeLayout))
		}
		fmt.Fprintln(w)
		for _, item := range o.Items {
			fmt.Fprintf(w, "   - %dx %s @ %s\n", item.Quantity, item.ProductName, view.FormatNaira(item.Price))
		}
	}
}

func writeExpenses(w io.Writer, expenses []kofa.Expense) {
	if len(expenses) == 0 {
		fmt.Fprintln(w, "- (no expenses)")
		return
	}
	for i, e := range expenses {
		fmt.Fprintf(w, "%d) %s %s (%s", i+1, view.FormatNaira(e.Amount), e.Description, e.ExpenseType)
		if e.Category != "" {
			fmt.Fprintf(w, ", %s", e.Category)
		}
		if !e.Date.IsZero() {
			fmt.Fprintf(w, ", %s", e.Date.Format(timeLayout))
		}
		fmt.Fprintln(w, ")")
	}
}

func writeExpenseSummary(w io.Writer, s kofa.ExpenseSummary) {
	fmt.Fprintf(w, "Business burn: %s\n", view.FormatNaira(s.BusinessBurn))
	fmt.Fprintf(w, "Personal spend: %s\n", view.FormatNaira(s.PersonalSpend))
	fmt.Fprintf(w, "Total outflow: %s (%d expenses)\n", view.FormatNaira(s.TotalOutflow), s.ExpenseCount)
}

func writeDashboard(w io.Writer, snap dashboard.Snapshot) {
	if snap.FromCache {
		fmt.Fprintln(w, "Dashboard (cached):")
	} else {
		fmt.Fprintln(w, "Dashboard:")
	}
	fmt.Fprintf(w, "- revenue: %s (today %s)\n", view.FormatNairaCompact(snap.Revenue), view.FormatNaira(snap.TodayRevenue))
	fmt.Fprintf(w, "- orders: %d, pending: %d, customers: %d\n", snap.OrderCount, snap.PendingOrders, snap.Customers)
	fmt.Fprintf(w, "- products: %d, low stock: %d, out of stock: %d, stock value: %s\n",
		snap.Inventory.Total, snap.Inventory.LowStock, snap.Inventory.OutOfStock, view.FormatNairaCompact(snap.Inventory.Value))
	if snap.Err(dashboard.PanelProfit) == nil {
		fmt.Fprintf(w, "- profit today: %s on %s revenue", view.FormatNaira(snap.Profit.ProfitNGN), view.FormatNaira(snap.Profit.RevenueNGN))
		if top := snap.Profit.TopProductName(); top != "" {
			fmt.Fprintf(w, ", top product: %s", top)
		}
		fmt.Fprintln(w)
	}
	if len(snap.RecentOrders) > 0 {
		fmt.Fprintln(w, "\nRecent orders:")
		writeOrders(w, snap.RecentOrders)
	}
	for _, panel := range snap.Failed() {
		fmt.Fprintf(w, "! %s could not be loaded\n", panel)
	}
}

type dashboardJSON struct {
	dashboard.Snapshot
	Failed []dashboard.Panel `json:"failed,omitempty"`
}
