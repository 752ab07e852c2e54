package kofa

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
)

const (
	productsPath       = "/products"
	ordersPath         = "/orders"
	expenseLogPath     = "/expenses/log"
	expenseListPath    = "/expenses/list"
	expenseSummaryPath = "/expenses/summary"
	profitSummaryPath  = "/profit-loss/summary"
	businessAIPath     = "/business-ai"
	healthPath         = "/health"
)

var ErrMissingID = errors.New("id is required")

func productPath(id string) string {
	return productsPath + "/" + url.PathEscape(id)
}

// ListProducts fetches the catalogue and refreshes the products cache entry.
func (c *Client) ListProducts(ctx context.Context) ([]Product, error) {
	products, err := CachedGet[[]Product](ctx, c, productsPath, CacheKeyProducts, nil)
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (c *Client) CreateProduct(ctx context.Context, input ProductInput) (Product, error) {
	var raw json.RawMessage
	if err := c.Call(ctx, http.MethodPost, productsPath, input, &raw); err != nil {
		return Product{}, err
	}
	return decodeProductEnvelope(raw)
}

func (c *Client) UpdateProduct(ctx context.Context, id string, input ProductInput) (Product, error) {
	if strings.TrimSpace(id) == "" {
		return Product{}, ErrMissingID
	}
	var raw json.RawMessage
	if err := c.Call(ctx, http.MethodPut, productPath(id), input, &raw); err != nil {
		return Product{}, err
	}
	return decodeProductEnvelope(raw)
}

// DeleteProduct reports success for any 2xx response.
func (c *Client) DeleteProduct(ctx context.Context, id string) (bool, error) {
	if strings.TrimSpace(id) == "" {
		return false, ErrMissingID
	}
	if err := c.Call(ctx, http.MethodDelete, productPath(id), nil, nil); err != nil {
		return false, err
	}
	return true, nil
}

// RestockProduct asks the server to add quantity to the current stock.
func (c *Client) RestockProduct(ctx context.Context, id string, quantity int) (RestockResult, error) {
	if strings.TrimSpace(id) == "" {
		return RestockResult{}, ErrMissingID
	}
	payload := map[string]int{"quantity": quantity}
	var result RestockResult
	if err := c.Call(ctx, http.MethodPost, productPath(id)+"/restock", payload, &result); err != nil {
		return RestockResult{}, err
	}
	return result, nil
}

// ListOrders returns orders, optionally filtered server-side by status.
// Only the unfiltered list is cached.
func (c *Client) ListOrders(ctx context.Context, status string) ([]Order, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if status == "" {
		return CachedGet[[]Order](ctx, c, ordersPath, CacheKeyOrders, nil)
	}

	query := url.Values{"status": {status}}
	var orders []Order
	if err := c.get(ctx, ordersPath+"?"+query.Encode(), &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (c *Client) LogExpense(ctx context.Context, input ExpenseInput) (Expense, error) {
	var expense Expense
	if err := c.Call(ctx, http.MethodPost, expenseLogPath, input, &expense); err != nil {
		return Expense{}, err
	}
	return expense, nil
}

func (c *Client) ListExpenses(ctx context.Context, expenseType ExpenseType) ([]Expense, error) {
	endpoint := expenseListPath
	if expenseType != "" {
		query := url.Values{"expense_type": {strings.ToUpper(string(expenseType))}}
		endpoint += "?" + query.Encode()
	}
	var expenses []Expense
	if err := c.get(ctx, endpoint, &expenses); err != nil {
		return nil, err
	}
	return expenses, nil
}

func (c *Client) ExpenseSummary(ctx context.Context) (ExpenseSummary, error) {
	var summary ExpenseSummary
	if err := c.get(ctx, expenseSummaryPath, &summary); err != nil {
		return ExpenseSummary{}, err
	}
	return summary, nil
}

func (c *Client) ProfitSummary(ctx context.Context) (ProfitSummary, error) {
	return CachedGet[ProfitSummary](ctx, c, profitSummaryPath, CacheKeyProfitSummary, nil)
}

func (c *Client) BusinessAI(ctx context.Context, userID, message string) (AIResponse, error) {
	var resp AIResponse
	req := AIRequest{UserID: userID, Message: message}
	if err := c.Call(ctx, http.MethodPost, businessAIPath, req, &resp); err != nil {
		return AIResponse{}, err
	}
	return resp, nil
}

func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	var status HealthStatus
	if err := c.get(ctx, healthPath, &status); err != nil {
		return HealthStatus{}, err
	}
	return status, nil
}

// decodeProductEnvelope accepts both {"status":..,"product":{..}} and a bare
// product object.
func decodeProductEnvelope(raw json.RawMessage) (Product, error) {
	body := raw
	if nested := gjson.GetBytes(raw, "product"); nested.Exists() && nested.IsObject() {
		body = json.RawMessage(nested.Raw)
	}
	var product Product
	if err := json.Unmarshal(body, &product); err != nil {
		return Product{}, fmt.Errorf("%w: decode product: %v", ErrRequestFailed, err)
	}
	return product, nil
}
