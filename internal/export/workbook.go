package export

import (
	"fmt"
	"strings"

	"kofa_admin/internal/kofa"
	"kofa_admin/internal/view"

	"github.com/xuri/excelize/v2"
)

const (
	SheetProducts = "Products"
	SheetOrders   = "Orders"
	SheetExpenses = "Expenses"
)

const dateLayout = "2006-01-02 15:04"

var (
	productHeadings = []any{"ID", "Name", "Price (NGN)", "Stock", "Status", "Category", "Description", "Voice tags"}
	orderHeadings   = []any{"ID", "Customer", "Phone", "Items", "Total (NGN)", "Status", "Payment ref", "Created"}
	expenseHeadings = []any{"ID", "Date", "Type", "Category", "Description", "Amount (NGN)"}
)

// Workbook builds a report with one sheet each for products, orders and
// expenses.
func Workbook(products []kofa.Product, orders []kofa.Order, expenses []kofa.Expense) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetProducts); err != nil {
		return nil, closeWith(f, err)
	}
	for _, name := range []string{SheetOrders, SheetExpenses} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, closeWith(f, err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, closeWith(f, err)
	}

	productRows := make([][]any, 0, len(products))
	for _, p := range products {
		productRows = append(productRows, []any{
			p.ID, p.Name, p.Price.InexactFloat64(), p.StockLevel, view.StockStatus(p.StockLevel),
			p.Category, p.Description, strings.Join(p.VoiceTags, ", "),
		})
	}
	orderRows := make([][]any, 0, len(orders))
	for _, o := range orders {
		orderRows = append(orderRows, []any{
			o.ID, o.CustomerName, o.CustomerPhone, describeItems(o.Items), o.TotalAmount.InexactFloat64(),
			o.Status, o.PaymentRef, formatTime(o.CreatedAt),
		})
	}
	expenseRows := make([][]any, 0, len(expenses))
	for _, e := range expenses {
		expenseRows = append(expenseRows, []any{
			e.ID, formatTime(e.Date), string(e.ExpenseType), e.Category, e.Description, e.Amount.InexactFloat64(),
		})
	}

	sheets := []struct {
		name     string
		headings []any
		rows     [][]any
	}{
		{SheetProducts, productHeadings, productRows},
		{SheetOrders, orderHeadings, orderRows},
		{SheetExpenses, expenseHeadings, expenseRows},
	}
	for _, s := range sheets {
		if err := writeSheet(f, s.name, s.headings, s.rows, bold); err != nil {
			return nil, closeWith(f, fmt.Errorf("sheet %s: %w", s.name, err))
		}
	}
	f.SetActiveSheet(0)

	return f, nil
}

// WriteFile saves the report to path.
func WriteFile(path string, products []kofa.Product, orders []kofa.Order, expenses []kofa.Expense) error {
	f, err := Workbook(products, orders, expenses)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, headings []any, rows [][]any, headerStyle int) error {
	if err := f.SetSheetRow(sheet, "A1", &headings); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(headings), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return err
	}
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return err
		}
	}
	return nil
}

func describeItems(items []kofa.OrderItem) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		parts = append(parts, fmt.Sprintf("%dx %s", item.Quantity, item.ProductName))
	}
	return strings.Join(parts, ", ")
}

func formatTime(ts kofa.Timestamp) string {
	if ts.IsZero() {
		return ""
	}
	return ts.Format(dateLayout)
}

func closeWith(f *excelize.File, err error) error {
	_ = f.Close()
	return err
}
