package kofa

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

func init() {
	// The backend parses amounts as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price_ngn"`
	StockLevel  int             `json:"stock_level"`
	Description string          `json:"description,omitempty"`
	Category    string          `json:"category,omitempty"`
	ImageURL    string          `json:"image_url,omitempty"`
	VoiceTags   []string        `json:"voice_tags,omitempty"`
}

// ProductInput is the full record sent on create and update.
type ProductInput struct {
	Name        string          `json:"name" validate:"required"`
	Price       decimal.Decimal `json:"price_ngn" validate:"gte=0"`
	StockLevel  int             `json:"stock_level" validate:"gte=0"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	ImageURL    string          `json:"image_url,omitempty"`
	VoiceTags   []string        `json:"voice_tags"`
}

// Input returns the product as an update payload.
func (p Product) Input() ProductInput {
	tags := make([]string, len(p.VoiceTags))
	copy(tags, p.VoiceTags)
	return ProductInput{
		Name:        p.Name,
		Price:       p.Price,
		StockLevel:  p.StockLevel,
		Description: p.Description,
		Category:    p.Category,
		ImageURL:    p.ImageURL,
		VoiceTags:   tags,
	}
}

type RestockResult struct {
	Status        string `json:"status"`
	Message       string `json:"message"`
	NewStockLevel int    `json:"new_stock_level"`
}

type OrderItem struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

// LineTotal is price times quantity.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusFulfilled = "fulfilled"
)

type Order struct {
	ID            string          `json:"id"`
	CustomerPhone string          `json:"customer_phone"`
	CustomerName  string          `json:"customer_name,omitempty"`
	Items         []OrderItem     `json:"items"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Status        string          `json:"status"`
	PaymentRef    string          `json:"payment_ref,omitempty"`
	CreatedAt     Timestamp       `json:"created_at"`
}

// HasStatus compares the order status case-insensitively.
func (o Order) HasStatus(status string) bool {
	return strings.EqualFold(strings.TrimSpace(o.Status), strings.TrimSpace(status))
}

type ExpenseType string

const (
	ExpenseBusiness ExpenseType = "BUSINESS"
	ExpensePersonal ExpenseType = "PERSONAL"
)

type Expense struct {
	ID          string          `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	ExpenseType ExpenseType     `json:"expense_type"`
	Date        Timestamp       `json:"date"`
}

type ExpenseInput struct {
	Amount      decimal.Decimal `json:"amount" validate:"gt=0"`
	Description string          `json:"description" validate:"required"`
	Category    string          `json:"category,omitempty"`
	ExpenseType ExpenseType     `json:"expense_type" validate:"oneof=BUSINESS PERSONAL"`
	Date        string          `json:"date,omitempty"`
	UserID      string          `json:"user_id,omitempty"`
}

type ExpenseSummary struct {
	Total         decimal.Decimal `json:"total"`
	BusinessBurn  decimal.Decimal `json:"business_burn"`
	PersonalSpend decimal.Decimal `json:"personal_spend"`
	TotalOutflow  decimal.Decimal `json:"total_outflow"`
	ExpenseCount  int             `json:"expense_count"`
}

type ProfitSummary struct {
	Date       string          `json:"date"`
	RevenueNGN decimal.Decimal `json:"revenue_ngn"`
	ProfitNGN  decimal.Decimal `json:"profit_ngn"`
	OrderCount int             `json:"order_count"`
	TopProduct json.RawMessage `json:"top_product,omitempty"`
	Trend      string          `json:"trend,omitempty"`
	Message    string          `json:"message,omitempty"`
}

// TopProductName accepts either a bare name or an object with a name field.
func (p ProfitSummary) TopProductName() string {
	if len(p.TopProduct) == 0 {
		return ""
	}
	value := gjson.ParseBytes(p.TopProduct)
	switch {
	case value.Type == gjson.String:
		return value.String()
	case value.IsObject():
		return value.Get("name").String()
	default:
		return ""
	}
}

type AIRequest struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

type AIResponse struct {
	Response     string          `json:"response"`
	ActionTaken  string          `json:"action_taken,omitempty"`
	ActionResult json.RawMessage `json:"action_result,omitempty"`
	Suggestions  []string        `json:"suggestions,omitempty"`
}

type HealthStatus struct {
	Status string `json:"status"`
}

// Timestamp decodes the ISO-8601 variants the backend emits, with or
// without a zone offset.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var raw string
	if string(data) == "null" {
		t.Time = time.Time{}
		return nil
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		t.Time = time.Time{}
		return nil
	}
	var lastErr error
	for _, layout := range timestampLayouts {
		parsed, err := time.Parse(layout, raw)
		if err == nil {
			t.Time = parsed
			return nil
		}
		lastErr = err
	}
	return lastErr
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(time.RFC3339Nano))
}
