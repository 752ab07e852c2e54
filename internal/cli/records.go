package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"kofa_admin/internal/kofa"
	"kofa_admin/internal/resource"
	"kofa_admin/internal/view"

	"github.com/urfave/cli/v2"
)

func (r *Runner) ordersCommand() *cli.Command {
	return &cli.Command{
		Name:  "orders",
		Usage: "show orders",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "list orders",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "status", Usage: "pending, paid, fulfilled or all", Value: "all"},
					&cli.BoolFlag{Name: "today", Usage: "only orders placed today"},
				},
				Action: r.action(r.listOrders),
			},
		},
	}
}

type ordersJSON struct {
	Orders  []kofa.Order `json:"orders"`
	Revenue string       `json:"revenue_ngn"`
}

func (r *Runner) listOrders(ctx context.Context, c *cli.Context, s *Services) error {
	orders := resource.NewOrders(s.Client, "", s.Logger)
	defer orders.Close()
	if err := orders.Reload(ctx); err != nil {
		return err
	}

	items := orders.Filter(c.String("status"))
	if c.Bool("today") {
		items = view.TodayOrders(items, time.Now())
	}
	revenue := view.SumTotals(items)

	payload := ordersJSON{Orders: items, Revenue: revenue.String()}
	return r.emit(payload, func(w io.Writer) {
		writeOrders(w, items)
		fmt.Fprintf(w, "\n%d orders, %s\n", len(items), view.FormatNaira(revenue))
	})
}

func (r *Runner) expensesCommand() *cli.Command {
	return &cli.Command{
		Name:  "expenses",
		Usage: "track business and personal spending",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "list expenses",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "type", Usage: "BUSINESS or PERSONAL (default: both)"},
				},
				Action: r.action(r.listExpenses),
			},
			{
				Name:  "log",
				Usage: "record an expense",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "amount", Usage: "amount in Naira"},
					&cli.StringFlag{Name: "description", Usage: "what the money was spent on"},
					&cli.StringFlag{Name: "category", Usage: "category"},
					&cli.StringFlag{Name: "type", Usage: "BUSINESS or PERSONAL", Value: string(kofa.ExpenseBusiness)},
					&cli.StringFlag{Name: "date", Usage: "date (YYYY-MM-DD), default today"},
				},
				Action: r.action(r.logExpense),
			},
			{
				Name:   "summary",
				Usage:  "show business burn and personal spend",
				Action: r.action(r.expenseSummary),
			},
		},
	}
}

func (r *Runner) listExpenses(ctx context.Context, c *cli.Context, s *Services) error {
	expenseType := kofa.ExpenseType(strings.ToUpper(strings.TrimSpace(c.String("type"))))
	expenses := resource.NewExpenses(s.Client, expenseType, s.Logger)
	defer expenses.Close()
	if err := expenses.Reload(ctx); err != nil {
		return err
	}

	items := expenses.Items()
	return r.emit(items, func(w io.Writer) {
		writeExpenses(w, items)
	})
}

func (r *Runner) logExpense(ctx context.Context, c *cli.Context, s *Services) error {
	amount, err := parsePrice(c.String("amount"))
	if err != nil {
		return err
	}
	date := strings.TrimSpace(c.String("date"))
	if date != "" {
		if _, err := time.Parse(time.DateOnly, date); err != nil {
			return usagef("invalid date %q, use YYYY-MM-DD", date)
		}
	}

	expenses := resource.NewExpenses(s.Client, "", s.Logger)
	defer expenses.Close()
	expense, err := expenses.Log(ctx, kofa.ExpenseInput{
		Amount:      amount,
		Description: c.String("description"),
		Category:    c.String("category"),
		ExpenseType: kofa.ExpenseType(c.String("type")),
		Date:        date,
		UserID:      s.Config.ChatUserID,
	})
	if err := r.settle(s.Logger, err); err != nil {
		return err
	}
	return r.emit(expense, func(w io.Writer) {
		fmt.Fprintf(w, "Logged %s for %s\n", view.FormatNaira(expense.Amount), expense.Description)
	})
}

func (r *Runner) expenseSummary(ctx context.Context, _ *cli.Context, s *Services) error {
	summary, err := resource.NewExpenses(s.Client, "", s.Logger).Summary(ctx)
	if err != nil {
		return err
	}
	return r.emit(summary, func(w io.Writer) {
		writeExpenseSummary(w, summary)
	})
}
