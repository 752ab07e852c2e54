package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"kofa_admin/internal/dashboard"
	"kofa_admin/internal/kofa"
	"kofa_admin/internal/llm"
	"kofa_admin/internal/resource"
	"kofa_admin/internal/view"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	defaultProductLimit = 20
	defaultOrderLimit   = 10
	maxToolLimit        = 50
)

// ToolBackend is the part of the KOFA API the assistant tools reach.
type ToolBackend interface {
	ListProducts(ctx context.Context) ([]kofa.Product, error)
	RestockProduct(ctx context.Context, id string, quantity int) (kofa.RestockResult, error)
	ListOrders(ctx context.Context, status string) ([]kofa.Order, error)
	LogExpense(ctx context.Context, input kofa.ExpenseInput) (kofa.Expense, error)
	ProfitSummary(ctx context.Context) (kofa.ProfitSummary, error)
}

type Toolbox struct {
	api    ToolBackend
	logger *zap.Logger
}

func NewToolbox(api ToolBackend, logger *zap.Logger) *Toolbox {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Toolbox{api: api, logger: logger.Named("tools")}
}

type toolCallRecord struct {
	Name   string          `json:"name"`
	Args   map[string]any  `json:"args,omitempty"`
	MS     int64           `json:"ms"`
	OK     bool            `json:"ok"`
	Err    string          `json:"err,omitempty"`
	Result json.RawMessage `json:"-"`
}

// argumentError marks a call the model can correct on the next round.
type argumentError struct {
	err error
}

func (e *argumentError) Error() string { return e.err.Error() }
func (e *argumentError) Unwrap() error { return e.err }

func badArgs(err error) error {
	return &argumentError{err: err}
}

type productRow struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price_ngn"`
	StockLevel int             `json:"stock_level"`
	Status     string          `json:"status"`
	Category   string          `json:"category,omitempty"`
}

func productRows(products []kofa.Product, limit int) []productRow {
	if limit > 0 && len(products) > limit {
		products = products[:limit]
	}
	rows := make([]productRow, 0, len(products))
	for _, p := range products {
		rows = append(rows, productRow{
			ID:         p.ID,
			Name:       p.Name,
			Price:      p.Price,
			StockLevel: p.StockLevel,
			Status:     view.StockStatus(p.StockLevel),
			Category:   p.Category,
		})
	}
	return rows
}

func (t *Toolbox) Dispatch(ctx context.Context, userID, name string, args map[string]any) (any, toolCallRecord, error) {
	switch name {
	case llm.ToolListProducts:
		query, _ := getStringArg(args, "query")
		limit, limitErr := getIntArg(args, "limit", defaultProductLimit)
		return trackCall(t.logger, name, args, func() ([]productRow, error) {
			if limitErr != nil {
				return nil, badArgs(limitErr)
			}
			limit = clampLimit(limit, defaultProductLimit)
			products, err := t.api.ListProducts(ctx)
			if err != nil {
				return nil, err
			}
			return productRows(view.SearchProducts(products, query), limit), nil
		})
	case llm.ToolLowStock:
		threshold, thresholdErr := getIntArg(args, "threshold", view.LowStockThreshold)
		return trackCall(t.logger, name, args, func() ([]productRow, error) {
			if thresholdErr != nil {
				return nil, badArgs(thresholdErr)
			}
			products, err := t.api.ListProducts(ctx)
			if err != nil {
				return nil, err
			}
			return productRows(view.LowStock(products, threshold), 0), nil
		})
	case llm.ToolRestockProduct:
		id, _ := getStringArg(args, "product_id")
		quantity, quantityErr := getIntArg(args, "quantity", 0)
		return trackCall(t.logger, name, args, func() (kofa.RestockResult, error) {
			if id == "" {
				return kofa.RestockResult{}, badArgs(errors.New("product_id is required"))
			}
			if quantityErr != nil {
				return kofa.RestockResult{}, badArgs(quantityErr)
			}
			if quantity <= 0 {
				return kofa.RestockResult{}, badArgs(errors.New("quantity must be a positive whole number"))
			}
			return t.api.RestockProduct(ctx, id, quantity)
		})
	case llm.ToolLogExpense:
		input, err := expenseFromArgs(args, userID)
		if err != nil {
			return nil, toolCallRecord{Name: name, Args: args, Err: err.Error()}, err
		}
		return trackCall(t.logger, name, args, func() (kofa.Expense, error) {
			if err := resource.Validate(input); err != nil {
				return kofa.Expense{}, badArgs(err)
			}
			return t.api.LogExpense(ctx, input)
		})
	case llm.ToolGetProfitSummary:
		return trackCall(t.logger, name, args, func() (kofa.ProfitSummary, error) {
			return t.api.ProfitSummary(ctx)
		})
	case llm.ToolListOrders:
		status, _ := getStringArg(args, "status")
		limit, limitErr := getIntArg(args, "limit", defaultOrderLimit)
		return trackCall(t.logger, name, args, func() ([]kofa.Order, error) {
			if limitErr != nil {
				return nil, badArgs(limitErr)
			}
			limit = clampLimit(limit, defaultOrderLimit)
			orders, err := t.api.ListOrders(ctx, "")
			if err != nil {
				return nil, err
			}
			if status != "" {
				orders = view.FilterOrders(orders, status)
			}
			return dashboard.RecentOrders(orders, limit), nil
		})
	default:
		err := badArgs(fmt.Errorf("unknown tool: %s", name))
		return nil, toolCallRecord{Name: name, Args: args, Err: err.Error()}, err
	}
}

func expenseFromArgs(args map[string]any, userID string) (kofa.ExpenseInput, error) {
	amount, err := getDecimalArg(args, "amount")
	if err != nil {
		return kofa.ExpenseInput{}, badArgs(err)
	}
	description, _ := getStringArg(args, "description")
	category, _ := getStringArg(args, "category")
	expenseType, _ := getStringArg(args, "expense_type")
	if expenseType == "" {
		expenseType = string(kofa.ExpenseBusiness)
	}
	return kofa.ExpenseInput{
		Amount:      amount,
		Description: description,
		Category:    category,
		ExpenseType: kofa.ExpenseType(strings.ToUpper(expenseType)),
		UserID:      userID,
	}, nil
}

func clampLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > maxToolLimit {
		return maxToolLimit
	}
	return limit
}

func trackCall[T any](logger *zap.Logger, name string, args map[string]any, fn func() (T, error)) (T, toolCallRecord, error) {
	start := time.Now()
	result, err := fn()
	record := toolCallRecord{
		Name: name,
		Args: args,
		MS:   time.Since(start).Milliseconds(),
		OK:   err == nil,
	}
	if err != nil {
		record.Err = err.Error()
	}
	logToolRecord(logger, record)
	return result, record, err
}

func logToolRecord(logger *zap.Logger, record toolCallRecord) {
	logger.Info("tool call",
		zap.String("name", record.Name),
		zap.Any("args", record.Args),
		zap.Int64("ms", record.MS),
		zap.Bool("ok", record.OK),
		zap.String("err", record.Err),
	)
}

func getStringArg(args map[string]any, key string) (string, bool) {
	value, ok := args[key]
	if !ok || value == nil {
		return "", false
	}
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v), true
	default:
		return fmt.Sprintf("%v", v), true
	}
}

// getIntArg returns fallback when key is absent and an error when the value
// is not a whole number.
func getIntArg(args map[string]any, key string, fallback int) (int, error) {
	value, ok := args[key]
	if !ok || value == nil {
		return fallback, nil
	}
	switch v := value.(type) {
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("%s must be a whole number, got %v", key, v)
		}
		return int(v), nil
	case int:
		return v, nil
	case json.Number:
		if parsed, err := v.Int64(); err == nil {
			return int(parsed), nil
		}
	case string:
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return parsed, nil
		}
	}
	return 0, fmt.Errorf("%s must be a whole number, got %v", key, value)
}

func getDecimalArg(args map[string]any, key string) (decimal.Decimal, error) {
	value, ok := args[key]
	if !ok || value == nil {
		return decimal.Zero, fmt.Errorf("%s is required", key)
	}
	switch v := value.(type) {
	case float64:
		return decimal.NewFromFloat(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case string:
		cleaned := strings.NewReplacer("₦", "", ",", "", " ", "").Replace(v)
		parsed, err := decimal.NewFromString(cleaned)
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid %s: %q", key, v)
		}
		return parsed, nil
	default:
		return decimal.Zero, fmt.Errorf("invalid %s: %v", key, v)
	}
}
