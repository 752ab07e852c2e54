package resource

import (
	"context"
	"strings"

	"kofa_admin/internal/kofa"

	"go.uber.org/zap"
)

type ExpenseAPI interface {
	ListExpenses(ctx context.Context, expenseType kofa.ExpenseType) ([]kofa.Expense, error)
	LogExpense(ctx context.Context, input kofa.ExpenseInput) (kofa.Expense, error)
	ExpenseSummary(ctx context.Context) (kofa.ExpenseSummary, error)
}

type Expenses struct {
	*Collection[kofa.Expense]
	api ExpenseAPI
}

// NewExpenses loads expenses of one type; an empty type loads both.
func NewExpenses(api ExpenseAPI, expenseType kofa.ExpenseType, logger *zap.Logger) *Expenses {
	load := func(ctx context.Context) ([]kofa.Expense, error) {
		return api.ListExpenses(ctx, expenseType)
	}
	return &Expenses{
		Collection: NewCollection("expenses", load, logger),
		api:        api,
	}
}

func (e *Expenses) Log(ctx context.Context, input kofa.ExpenseInput) (kofa.Expense, error) {
	input.Description = strings.TrimSpace(input.Description)
	input.Category = strings.TrimSpace(input.Category)
	input.ExpenseType = kofa.ExpenseType(strings.ToUpper(strings.TrimSpace(string(input.ExpenseType))))
	if err := Validate(input); err != nil {
		return kofa.Expense{}, err
	}
	return Mutate(ctx, e.Collection, func(ctx context.Context) (kofa.Expense, error) {
		return e.api.LogExpense(ctx, input)
	})
}

// Summary is computed by the server; it does not touch the collection.
func (e *Expenses) Summary(ctx context.Context) (kofa.ExpenseSummary, error) {
	return e.api.ExpenseSummary(ctx)
}
