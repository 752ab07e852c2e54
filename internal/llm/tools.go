package llm

import openrouter "github.com/revrost/go-openrouter"

const (
	ToolListProducts     = "ListProducts"
	ToolLowStock         = "LowStock"
	ToolRestockProduct   = "RestockProduct"
	ToolLogExpense       = "LogExpense"
	ToolGetProfitSummary = "GetProfitSummary"
	ToolListOrders       = "ListOrders"
)

// MutatingTools change backend state; their results are reported to the
// merchant as the action taken.
var MutatingTools = map[string]bool{
	ToolRestockProduct: true,
	ToolLogExpense:     true,
}

func ToolSchemas() []openrouter.Tool {
	return []openrouter.Tool{
		listProductsTool(),
		lowStockTool(),
		restockProductTool(),
		logExpenseTool(),
		getProfitSummaryTool(),
		listOrdersTool(),
	}
}

func function(name, description string, properties map[string]any, required ...string) openrouter.Tool {
	params := map[string]any{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		params["required"] = required
	}
	return openrouter.Tool{
		Type: openrouter.ToolTypeFunction,
		Function: &openrouter.FunctionDefinition{
			Name:        name,
			Description: description,
			Parameters:  params,
		},
	}
}

func listProductsTool() openrouter.Tool {
	return function(ToolListProducts,
		"List products in the catalogue with id, name, price_ngn, stock_level and category. Use query to match name, category or voice tags (case-insensitive). Default limit: 20.",
		map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "Optional text to match against product name, category, description or voice tags.",
			},
			"limit": map[string]any{
				"type":        "integer",
				"description": "Maximum number of products to return (default: 20, max: 50).",
			},
		},
	)
}

func lowStockTool() openrouter.Tool {
	return function(ToolLowStock,
		"List products at or below a stock threshold, out-of-stock products included. Use for 'what is running low' questions.",
		map[string]any{
			"threshold": map[string]any{
				"type":        "integer",
				"description": "Highest stock level to include (default: 10).",
			},
		},
	)
}

func restockProductTool() openrouter.Tool {
	return function(ToolRestockProduct,
		"Add units to a product's stock. The quantity is added to the current level on the server; the result holds the new level. Look the product id up with ListProducts first.",
		map[string]any{
			"product_id": map[string]any{
				"type":        "string",
				"description": "Product id to restock.",
			},
			"quantity": map[string]any{
				"type":        "integer",
				"description": "Positive number of units to add.",
			},
		},
		"product_id", "quantity",
	)
}

func logExpenseTool() openrouter.Tool {
	return function(ToolLogExpense,
		"Record an expense. Returns the stored expense.",
		map[string]any{
			"amount": map[string]any{
				"type":        "number",
				"description": "Amount in Naira, greater than zero.",
			},
			"description": map[string]any{
				"type":        "string",
				"description": "What the money was spent on.",
			},
			"category": map[string]any{
				"type":        "string",
				"description": "Optional category such as transport, stock or rent.",
			},
			"expense_type": map[string]any{
				"type":        "string",
				"enum":        []string{"BUSINESS", "PERSONAL"},
				"description": "BUSINESS (default) or PERSONAL.",
			},
		},
		"amount", "description",
	)
}

func getProfitSummaryTool() openrouter.Tool {
	return function(ToolGetProfitSummary,
		"Get today's revenue, profit, order count, top product and trend as computed by the server.",
		map[string]any{},
	)
}

func listOrdersTool() openrouter.Tool {
	return function(ToolListOrders,
		"List orders with id, customer, items, total_amount, status and created_at, newest first. Default limit: 10.",
		map[string]any{
			"status": map[string]any{
				"type":        "string",
				"description": "Optional status filter: pending, paid or fulfilled.",
			},
			"limit": map[string]any{
				"type":        "integer",
				"description": "Maximum number of orders to return (default: 10, max: 50).",
			},
		},
	)
}
