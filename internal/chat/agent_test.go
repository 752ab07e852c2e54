package chat

import (
	"context"
	"errors"
	"testing"

	"kofa_admin/internal/kofa"
	"kofa_admin/internal/llm"

	openrouter "github.com/revrost/go-openrouter"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type scriptedModel struct {
	replies []openrouter.ChatCompletionMessage
	seen    [][]openrouter.ChatCompletionMessage
}

func (m *scriptedModel) Complete(_ context.Context, messages []openrouter.ChatCompletionMessage, tools []openrouter.Tool) (openrouter.ChatCompletionMessage, error) {
	m.seen = append(m.seen, messages)
	if len(tools) != len(llm.ToolSchemas()) {
		return openrouter.ChatCompletionMessage{}, errors.New("tools missing")
	}
	if len(m.replies) == 0 {
		return openrouter.ChatCompletionMessage{}, errors.New("script exhausted")
	}
	next := m.replies[0]
	if len(m.replies) > 1 {
		m.replies = m.replies[1:]
	}
	return next, nil
}

func text(content string) openrouter.ChatCompletionMessage {
	return openrouter.ChatCompletionMessage{
		Role:    openrouter.ChatMessageRoleAssistant,
		Content: openrouter.Content{Text: content},
	}
}

func callTool(id, name, args string) openrouter.ChatCompletionMessage {
	return openrouter.ChatCompletionMessage{
		Role: openrouter.ChatMessageRoleAssistant,
		ToolCalls: []openrouter.ToolCall{{
			ID:       id,
			Type:     openrouter.ToolTypeFunction,
			Function: openrouter.FunctionCall{Name: name, Arguments: args},
		}},
	}
}

type fakeBackend struct {
	products   []kofa.Product
	orders     []kofa.Order
	listErr    error
	restocked  map[string]int
	expenses   []kofa.ExpenseInput
	profitHits int
}

func (f *fakeBackend) ListProducts(context.Context) ([]kofa.Product, error) {
	return f.products, f.listErr
}

func (f *fakeBackend) RestockProduct(_ context.Context, id string, quantity int) (kofa.RestockResult, error) {
	if f.restocked == nil {
		f.restocked = map[string]int{}
	}
	f.restocked[id] += quantity
	return kofa.RestockResult{Status: "success", NewStockLevel: 12 + quantity}, nil
}

func (f *fakeBackend) ListOrders(context.Context, string) ([]kofa.Order, error) {
	return f.orders, nil
}

func (f *fakeBackend) LogExpense(_ context.Context, input kofa.ExpenseInput) (kofa.Expense, error) {
	f.expenses = append(f.expenses, input)
	return kofa.Expense{ID: "e1", Amount: input.Amount, Description: input.Description, ExpenseType: input.ExpenseType}, nil
}

func (f *fakeBackend) ProfitSummary(context.Context) (kofa.ProfitSummary, error) {
	f.profitHits++
	return kofa.ProfitSummary{RevenueNGN: decimal.NewFromInt(50000)}, nil
}

func newAgent(model Completer, backend *fakeBackend) *LLMAssistant {
	return NewLLMAssistant(model, NewToolbox(backend, zap.NewNop()), zap.NewNop())
}

func lastMessage(messages []openrouter.ChatCompletionMessage) openrouter.ChatCompletionMessage {
	return messages[len(messages)-1]
}

func TestAgentRestockReportsAction(t *testing.T) {
	backend := &fakeBackend{}
	model := &scriptedModel{replies: []openrouter.ChatCompletionMessage{
		callTool("c1", llm.ToolRestockProduct, `{"product_id":"p1","quantity":5}`),
		text("Restocked. You now have 17."),
	}}

	reply, err := newAgent(model, backend).Ask(context.Background(), "u1", "add 5 to ankara")

	require.NoError(t, err)
	assert.Equal(t, "Restocked. You now have 17.", reply.Text)
	assert.Equal(t, "restock_product", reply.ActionTaken)
	assert.JSONEq(t, `{"status":"success","message":"","new_stock_level":17}`, string(reply.ActionResult))
	assert.Equal(t, map[string]int{"p1": 5}, backend.restocked)

	require.Len(t, model.seen, 2)
	tool := lastMessage(model.seen[1])
	assert.Equal(t, openrouter.ChatMessageRoleTool, tool.Role)
	assert.Contains(t, tool.Content.Text, `"new_stock_level":17`)
}

func TestAgentReturnsArgumentErrorsToModel(t *testing.T) {
	backend := &fakeBackend{}
	model := &scriptedModel{replies: []openrouter.ChatCompletionMessage{
		callTool("c1", llm.ToolRestockProduct, `{"product_id":"p1","quantity":0}`),
		text("How many units should I add?"),
	}}

	reply, err := newAgent(model, backend).Ask(context.Background(), "u1", "restock ankara")

	require.NoError(t, err)
	assert.Empty(t, backend.restocked)
	assert.Empty(t, reply.ActionTaken)
	assert.Contains(t, lastMessage(model.seen[1]).Content.Text, "positive whole number")
}

func TestAgentLogsExpenseWithDefaults(t *testing.T) {
	backend := &fakeBackend{}
	model := &scriptedModel{replies: []openrouter.ChatCompletionMessage{
		callTool("c1", llm.ToolLogExpense, `{"amount":"₦2,500","description":"fuel"}`),
		text("Logged."),
	}}

	reply, err := newAgent(model, backend).Ask(context.Background(), "u1", "I spent 2500 on fuel")

	require.NoError(t, err)
	require.Len(t, backend.expenses, 1)
	got := backend.expenses[0]
	assert.True(t, got.Amount.Equal(decimal.NewFromInt(2500)))
	assert.Equal(t, kofa.ExpenseBusiness, got.ExpenseType)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "log_expense", reply.ActionTaken)
}

func TestAgentBackendFailureEndsTurn(t *testing.T) {
	backend := &fakeBackend{listErr: kofa.ErrRequestFailed}
	model := &scriptedModel{replies: []openrouter.ChatCompletionMessage{
		callTool("c1", llm.ToolListProducts, `{}`),
	}}
	agent := newAgent(model, backend)

	_, err := agent.Ask(context.Background(), "u1", "list products")

	assert.ErrorIs(t, err, kofa.ErrRequestFailed)
	assert.Len(t, model.seen, 1)
	assert.Equal(t, openrouter.ChatMessageRoleTool, lastMessage(agent.history("u1").Messages()).Role)
}

func TestAgentStopsAfterMaxRounds(t *testing.T) {
	backend := &fakeBackend{}
	model := &scriptedModel{replies: []openrouter.ChatCompletionMessage{
		callTool("c1", llm.ToolGetProfitSummary, ``),
	}}

	reply, err := newAgent(model, backend).Ask(context.Background(), "u1", "profit?")

	require.NoError(t, err)
	assert.Equal(t, roundsExhaustedText, reply.Text)
	assert.Equal(t, maxToolRounds, backend.profitHits)
	assert.Empty(t, reply.ActionTaken)
}

func TestAgentKeepsHistoryPerUser(t *testing.T) {
	model := &scriptedModel{replies: []openrouter.ChatCompletionMessage{text("hi")}}
	agent := newAgent(model, &fakeBackend{})
	ctx := context.Background()

	_, err := agent.Ask(ctx, "u1", "hello")
	require.NoError(t, err)
	_, err = agent.Ask(ctx, "u1", "again")
	require.NoError(t, err)
	_, err = agent.Ask(ctx, "u2", "hello")
	require.NoError(t, err)

	assert.Len(t, model.seen[1], 4, "system, user, assistant, user")
	assert.Len(t, model.seen[2], 2)
	assert.Equal(t, openrouter.ChatMessageRoleSystem, model.seen[2][0].Role)

	agent.Reset("u1")
	assert.Zero(t, agent.history("u1").Len())
}

func TestToolboxListProductsSearchesAndLimits(t *testing.T) {
	backend := &fakeBackend{products: []kofa.Product{
		{ID: "p1", Name: "Ankara Shirt", StockLevel: 3},
		{ID: "p2", Name: "Rice", StockLevel: 40},
		{ID: "p3", Name: "Ankara Gown", StockLevel: 0},
	}}
	box := NewToolbox(backend, zap.NewNop())

	result, record, err := box.Dispatch(context.Background(), "u1", llm.ToolListProducts, map[string]any{"query": "ankara", "limit": float64(1)})

	require.NoError(t, err)
	assert.True(t, record.OK)
	rows := result.([]productRow)
	require.Len(t, rows, 1)
	assert.Equal(t, "p1", rows[0].ID)
	assert.Equal(t, "Critical", rows[0].Status)

	result, _, err = box.Dispatch(context.Background(), "u1", llm.ToolLowStock, map[string]any{})
	require.NoError(t, err)
	assert.Len(t, result.([]productRow), 2)

	_, _, err = box.Dispatch(context.Background(), "u1", "DropTables", nil)
	assert.True(t, isArgumentError(err))
}

func TestToolboxRestockRejectsFractionalQuantity(t *testing.T) {
	backend := &fakeBackend{}
	box := NewToolbox(backend, zap.NewNop())

	_, record, err := box.Dispatch(context.Background(), "u1", llm.ToolRestockProduct, map[string]any{"product_id": "p1", "quantity": 2.5})

	require.Error(t, err)
	assert.True(t, isArgumentError(err))
	assert.False(t, record.OK)
	assert.Contains(t, err.Error(), "quantity must be a whole number")
	assert.Empty(t, backend.restocked)

	_, _, err = box.Dispatch(context.Background(), "u1", llm.ToolRestockProduct, map[string]any{"product_id": "p1", "quantity": float64(3)})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"p1": 3}, backend.restocked)
}

func TestToolboxRejectsNonNumericLimit(t *testing.T) {
	box := NewToolbox(&fakeBackend{}, zap.NewNop())

	_, _, err := box.Dispatch(context.Background(), "u1", llm.ToolListOrders, map[string]any{"limit": "many"})

	assert.True(t, isArgumentError(err))
}
